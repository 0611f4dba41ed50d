package progression

import (
	"fmt"
	"time"

	"github.com/magabrotheeeer/level-progression/internal/models"
)

// DenyReason причина отказа в доступе к дню.
type DenyReason string

const (
	ReasonExpired   DenyReason = "EXPIRED"
	ReasonPaused    DenyReason = "PAUSED"
	ReasonDayLocked DenyReason = "DAY_LOCKED"
)

// Decision результат проверки доступа к дню.
type Decision struct {
	Allowed     bool       `json:"allowed"`
	Reason      DenyReason `json:"reason,omitempty"`
	RedirectDay int        `json:"redirect_day,omitempty"`
}

// Err превращает отказ в ошибку из таксономии. Для разрешённого доступа возвращает nil.
func (d Decision) Err() error {
	switch {
	case d.Allowed:
		return nil
	case d.Reason == ReasonExpired:
		return ErrExpired
	case d.Reason == ReasonPaused:
		return ErrPaused
	default:
		return &DayLockedError{RedirectDay: d.RedirectDay}
	}
}

// DayLockedError отказ в доступе к закрытому дню с днём, на который нужно перенаправить.
type DayLockedError struct {
	RedirectDay int
}

func (e *DayLockedError) Error() string {
	return fmt.Sprintf("%s: redirect to day %d", ErrDayLocked, e.RedirectDay)
}

func (e *DayLockedError) Unwrap() error {
	return ErrDayLocked
}

// ValidateDay проверяет, что день лежит в [1,50].
func ValidateDay(day int) error {
	if day < 1 || day > models.TotalDays {
		return fmt.Errorf("%w: %d", ErrDayOutOfRange, day)
	}
	return nil
}

// Expired истёк ли срок доступа. Завершённый уровень не истекает.
func Expired(e models.LevelEntitlement, now time.Time) bool {
	return !e.IsCompleted && now.After(e.ExpiresAt)
}

// CanAccessDay решает, может ли пользователь открыть день.
// Истечение и заморозка проверяются до блокировки дня: они действуют на весь уровень.
// Вызывающий должен заранее выполнить AutoResume, чтобы истёкшая заморозка не мешала.
func CanAccessDay(e models.LevelEntitlement, day int, now time.Time) Decision {
	if Expired(e, now) {
		return Decision{Reason: ReasonExpired}
	}
	if e.IsVoluntaryPaused {
		return Decision{Reason: ReasonPaused}
	}
	if day > e.CurrentDay {
		return Decision{Reason: ReasonDayLocked, RedirectDay: e.CurrentDay}
	}
	return Decision{Allowed: true}
}
