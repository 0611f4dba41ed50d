package models

import "time"

const (
	// TotalDays количество учебных дней в каждом уровне.
	TotalDays = 50
	// CompletedDay значение CurrentDay после прохождения всех 50 дней. Сам по себе днём не является.
	CompletedDay = TotalDays + 1
	// MaxPauseAttempts сколько раз можно заморозить уровень.
	MaxPauseAttempts = 2
	// MaxPausedDays суммарный лимит дней заморозки.
	MaxPausedDays = 20
)

// LevelEntitlement доступ пользователя к одному уровню: срок действия, текущий день и заморозка.
// Запись создаётся при оплате и никогда не удаляется.
type LevelEntitlement struct {
	UserID                 string        `json:"user_id"`
	LevelID                LevelID       `json:"level_id"`
	PurchaseDate           time.Time     `json:"purchase_date"`
	ExpiresAt              time.Time     `json:"expires_at"`
	CurrentDay             int           `json:"current_day"`
	IsCompleted            bool          `json:"is_completed"`
	IsVoluntaryPaused      bool          `json:"is_voluntary_paused"`
	PauseStartedAt         *time.Time    `json:"pause_started_at,omitempty"`
	PauseScheduledEndDate  *time.Time    `json:"pause_scheduled_end_date,omitempty"`
	TotalPausedDays        int           `json:"total_paused_days"`
	VoluntaryPauseAttempts int           `json:"voluntary_pause_attempts"`
	PauseHistory           []PauseRecord `json:"pause_history"`
	Version                int64         `json:"version"` // токен оптимистичной блокировки
}

// PauseRecord запись журнала заморозок. Журнал только дополняется.
type PauseRecord struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Reason      string    `json:"reason"`
	IsVoluntary bool      `json:"is_voluntary"`
}

// Clone возвращает копию записи, не разделяющую с оригиналом указатели и журнал.
func (e LevelEntitlement) Clone() LevelEntitlement {
	c := e
	if e.PauseStartedAt != nil {
		t := *e.PauseStartedAt
		c.PauseStartedAt = &t
	}
	if e.PauseScheduledEndDate != nil {
		t := *e.PauseScheduledEndDate
		c.PauseScheduledEndDate = &t
	}
	c.PauseHistory = append([]PauseRecord(nil), e.PauseHistory...)
	return c
}

// RemainingPauseDays сколько дней заморозки ещё доступно.
func (e LevelEntitlement) RemainingPauseDays() int {
	return max(0, MaxPausedDays-e.TotalPausedDays)
}

// RemainingPauseAttempts сколько заморозок ещё доступно.
func (e LevelEntitlement) RemainingPauseAttempts() int {
	return max(0, MaxPauseAttempts-e.VoluntaryPauseAttempts)
}

// EntitlementSummary краткое состояние доступа для клиента.
type EntitlementSummary struct {
	LevelID                LevelID    `json:"level_id"`
	CurrentDay             int        `json:"current_day"`
	IsCompleted            bool       `json:"is_completed"`
	IsVoluntaryPaused      bool       `json:"is_voluntary_paused"`
	PauseScheduledEndDate  *time.Time `json:"pause_scheduled_end_date"`
	RemainingPauseDays     int        `json:"remaining_pause_days"`
	RemainingPauseAttempts int        `json:"remaining_pause_attempts"`
	ExpiresAt              time.Time  `json:"expires_at"`
	DaysLeft               int        `json:"days_left"`
	IsExpired              bool       `json:"is_expired"`
}
