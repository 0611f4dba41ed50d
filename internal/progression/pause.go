package progression

import (
	"fmt"
	"time"

	"github.com/magabrotheeeer/level-progression/internal/models"
)

// DefaultPauseReason причина заморозки, если пользователь её не указал.
const DefaultPauseReason = "Voluntary Pause"

// ResumeTrigger источник разморозки.
type ResumeTrigger string

const (
	TriggerManual ResumeTrigger = "manual"
	TriggerAuto   ResumeTrigger = "auto"
)

// RequestPause замораживает уровень на durationDays дней.
// Замороженные дни не расходуют срок доступа: ExpiresAt сдвигается на длительность заморозки.
func RequestPause(e models.LevelEntitlement, durationDays int, reason string, now time.Time) (models.LevelEntitlement, error) {
	if durationDays < 1 {
		return e, fmt.Errorf("%w: duration must be at least 1 day", ErrPauseBudgetExceeded)
	}
	if e.VoluntaryPauseAttempts >= models.MaxPauseAttempts {
		return e, fmt.Errorf("%w: no pause attempts left", ErrPauseBudgetExceeded)
	}
	if e.TotalPausedDays+durationDays > models.MaxPausedDays {
		return e, fmt.Errorf("%w: only %d pause days left", ErrPauseBudgetExceeded, e.RemainingPauseDays())
	}
	if e.IsVoluntaryPaused {
		return e, ErrAlreadyPaused
	}
	if Expired(e, now) {
		return e, ErrExpired
	}
	if reason == "" {
		reason = DefaultPauseReason
	}

	next := e.Clone()
	start := now
	end := now.Add(days(durationDays))
	next.IsVoluntaryPaused = true
	next.PauseStartedAt = &start
	next.PauseScheduledEndDate = &end
	next.VoluntaryPauseAttempts++
	next.TotalPausedDays += durationDays
	next.ExpiresAt = e.ExpiresAt.Add(days(durationDays))
	next.PauseHistory = append(next.PauseHistory, models.PauseRecord{
		Start:       start,
		End:         end,
		Reason:      reason,
		IsVoluntary: true,
	})
	return next, nil
}

// ResumeNow снимает заморозку по запросу пользователя.
// Неиспользованные забронированные дни возвращаются в отсчёт срока: ExpiresAt уменьшается на них.
// Для активного уровня возвращает запись без изменений и false.
func ResumeNow(e models.LevelEntitlement, now time.Time) (models.LevelEntitlement, bool) {
	if !e.IsVoluntaryPaused {
		return e, false
	}
	next := e.Clone()
	start, end := pauseWindow(e)
	if now.Before(end) {
		booked := ceilDays(end.Sub(start))
		used := min(ceilDays(now.Sub(start)), booked)
		next.ExpiresAt = e.ExpiresAt.Add(-days(booked - used))
		closeOpenRecord(&next, start, now)
	}
	clearPause(&next)
	return next, true
}

// AutoResume снимает заморозку, если её плановое окончание наступило.
// Срок доступа не меняется: забронированные дни израсходованы полностью.
func AutoResume(e models.LevelEntitlement, now time.Time) (models.LevelEntitlement, bool) {
	if !DueForResume(e, now) {
		return e, false
	}
	next := e.Clone()
	clearPause(&next)
	return next, true
}

// DueForResume заморожен ли уровень с наступившим плановым окончанием.
func DueForResume(e models.LevelEntitlement, now time.Time) bool {
	if !e.IsVoluntaryPaused {
		return false
	}
	// заморозка без планового окончания ничем не ограничена, снимаем её
	if e.PauseScheduledEndDate == nil {
		return true
	}
	return !now.Before(*e.PauseScheduledEndDate)
}

func pauseWindow(e models.LevelEntitlement) (time.Time, time.Time) {
	var start, end time.Time
	if n := len(e.PauseHistory); n > 0 {
		start, end = e.PauseHistory[n-1].Start, e.PauseHistory[n-1].End
	}
	if e.PauseStartedAt != nil {
		start = *e.PauseStartedAt
	}
	if e.PauseScheduledEndDate != nil {
		end = *e.PauseScheduledEndDate
	}
	return start, end
}

func closeOpenRecord(e *models.LevelEntitlement, start, now time.Time) {
	n := len(e.PauseHistory)
	if n == 0 {
		return
	}
	last := &e.PauseHistory[n-1]
	if last.IsVoluntary && sameInstant(last.Start, start) && now.Before(last.End) {
		last.End = now
	}
}

// sameInstant сравнивает время с точностью timestamptz: PauseStartedAt хранится
// в микросекундах, а история в JSON сохраняет наносекунды.
func sameInstant(a, b time.Time) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d < time.Microsecond
}

func clearPause(e *models.LevelEntitlement) {
	e.IsVoluntaryPaused = false
	e.PauseStartedAt = nil
	e.PauseScheduledEndDate = nil
}
