package models

import (
	"sort"
	"time"
)

// DayTaskCompletion набор выполненных типов уроков пользователя в конкретном дне уровня.
type DayTaskCompletion struct {
	UserID               string       `json:"user_id"`
	LevelID              LevelID      `json:"level_id"`
	Day                  int          `json:"day"`
	CompletedLessonTypes []LessonType `json:"completed_lesson_types"`
}

// Has сообщает, выполнен ли тип урока.
func (d DayTaskCompletion) Has(t LessonType) bool {
	for _, c := range d.CompletedLessonTypes {
		if c == t {
			return true
		}
	}
	return false
}

// FullyPracticed true, если выполнены все типы уроков, кроме итогового теста.
func (d DayTaskCompletion) FullyPracticed() bool {
	for _, t := range LessonTypes() {
		if t.Terminal() {
			continue
		}
		if !d.Has(t) {
			return false
		}
	}
	return true
}

// Sorted возвращает выполненные типы без повторов в алфавитном порядке.
func (d DayTaskCompletion) Sorted() []LessonType {
	seen := make(map[LessonType]struct{}, len(d.CompletedLessonTypes))
	out := make([]LessonType, 0, len(d.CompletedLessonTypes))
	for _, t := range d.CompletedLessonTypes {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DayTasksView ответ API со списком выполненных уроков дня.
type DayTasksView struct {
	LevelID              LevelID      `json:"level_id"`
	Day                  int          `json:"day"`
	CompletedLessonTypes []LessonType `json:"completed_lesson_types"`
	FullyPracticed       bool         `json:"fully_practiced"`
}

// View формирует ответ API.
func (d DayTaskCompletion) View() DayTasksView {
	return DayTasksView{
		LevelID:              d.LevelID,
		Day:                  d.Day,
		CompletedLessonTypes: d.Sorted(),
		FullyPracticed:       d.FullyPracticed(),
	}
}

// DailyTestSubmission ответы пользователя: id вопроса -> выбранные индексы вариантов.
// Не сохраняется после проверки.
type DailyTestSubmission struct {
	Answers map[string][]int `json:"answers" validate:"required"`
}

// DailyTestResult результат проверки ежедневного теста.
type DailyTestResult struct {
	Passed     bool    `json:"passed"`
	Score      float64 `json:"score"`
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	CurrentDay int     `json:"current_day"`
}

// PaymentCompleted событие об успешной оплате уровня от платёжного сервиса.
type PaymentCompleted struct {
	EventID      string    `json:"event_id"`
	UserID       string    `json:"user_id" validate:"required"`
	LevelID      LevelID   `json:"level_id" validate:"required"`
	PaidAt       time.Time `json:"paid_at"`
	DurationDays int       `json:"duration_days,omitempty" validate:"omitempty,gt=0"`
}

// События уведомлений о заморозке. Совпадают с ключами маршрутизации в exchange notifications.
const (
	EventPauseStarted = "pause.started"
	EventPauseResumed = "pause.resumed"
)

// PauseNotification сообщение для сервиса уведомлений о заморозке или разморозке.
type PauseNotification struct {
	MessageID   string     `json:"message_id"`
	Event       string     `json:"event"`
	UserID      string     `json:"user_id"`
	LevelID     LevelID    `json:"level_id"`
	Trigger     string     `json:"trigger,omitempty"`
	ScheduledTo *time.Time `json:"scheduled_to,omitempty"`
	ExpiresAt   time.Time  `json:"expires_at"`
	OccurredAt  time.Time  `json:"occurred_at"`
}
