// Package entitlement содержит бизнес-логику прохождения уровня: доступ к дням,
// ежедневный тест, заморозку и выполнение уроков.
package entitlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/level-progression/internal/lib/sl"
	"github.com/magabrotheeeer/level-progression/internal/metrics"
	"github.com/magabrotheeeer/level-progression/internal/models"
	"github.com/magabrotheeeer/level-progression/internal/progression"
)

// Repository хранилище доступов и выполненных уроков.
type Repository interface {
	// GetEntitlement возвращает доступ или ErrNotPurchased.
	GetEntitlement(ctx context.Context, userID string, level models.LevelID) (models.LevelEntitlement, error)
	// UpdateEntitlement сохраняет запись с проверкой версии.
	UpdateEntitlement(ctx context.Context, e models.LevelEntitlement) (models.LevelEntitlement, error)
	// MarkLessonCompleted отмечает урок выполненным.
	MarkLessonCompleted(ctx context.Context, userID string, level models.LevelID, day int, lesson models.LessonType) error
	// CompletedLessons возвращает выполненные уроки дня.
	CompletedLessons(ctx context.Context, userID string, level models.LevelID, day int) (models.DayTaskCompletion, error)
}

// AnswerKeySource отдаёт ключ ответов ежедневного теста.
type AnswerKeySource interface {
	AnswerKey(ctx context.Context, level models.LevelID, day int) (progression.AnswerKey, error)
}

// Notifier отправляет уведомления о заморозке.
type Notifier interface {
	NotifyPause(ctx context.Context, n models.PauseNotification) error
}

// Options правила прохождения из конфига.
type Options struct {
	MaxRetries          int
	ScoringPolicy       progression.ScoringPolicy
	RequireFullPractice bool
}

// Service реализует операции над доступом пользователя к уровню.
type Service struct {
	repo     Repository
	keys     AnswerKeySource
	notifier Notifier
	clock    progression.Clock
	opts     Options
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, keys AnswerKeySource, notifier Notifier, clock progression.Clock, opts Options, log *slog.Logger) *Service {
	if opts.ScoringPolicy == "" {
		opts.ScoringPolicy = progression.PolicyAnyCorrect
	}
	return &Service{
		repo:     repo,
		keys:     keys,
		notifier: notifier,
		clock:    clock,
		opts:     opts,
		log:      log,
	}
}

// mutateFunc вычисляет новое состояние. changed=false означает, что сохранять нечего.
type mutateFunc func(e models.LevelEntitlement, now time.Time) (next models.LevelEntitlement, changed bool, err error)

// mutate читает запись, снимает истёкшую заморозку, применяет fn и сохраняет результат
// с проверкой версии. При конфликте версий операция повторяется с перечитыванием записи.
func (s *Service) mutate(ctx context.Context, userID string, level models.LevelID, fn mutateFunc) (models.LevelEntitlement, error) {
	const op = "entitlement.mutate"
	var lastErr error
	for attempt := 0; attempt <= s.opts.MaxRetries; attempt++ {
		e, err := s.repo.GetEntitlement(ctx, userID, level)
		if err != nil {
			return models.LevelEntitlement{}, err
		}
		now := s.clock.Now()

		reconciled, autoResumed := progression.AutoResume(e, now)
		next, changed, fnErr := fn(reconciled, now)
		if fnErr != nil {
			// отказ операции не отменяет снятия истёкшей заморозки
			next, changed = reconciled, autoResumed
		} else {
			changed = changed || autoResumed
		}
		if !changed {
			return next, fnErr
		}

		saved, err := s.repo.UpdateEntitlement(ctx, next)
		if errors.Is(err, progression.ErrConcurrentModification) {
			lastErr = err
			s.log.Debug("concurrent modification, retrying",
				slog.String("op", op),
				slog.String("user_id", userID),
				slog.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return models.LevelEntitlement{}, err
		}
		if autoResumed {
			s.log.Info("pause auto-resumed", slog.String("user_id", userID), slog.String("level", string(level)))
			metrics.PauseEvents.WithLabelValues(models.EventPauseResumed, string(progression.TriggerAuto)).Inc()
			s.notify(ctx, ResumedNotification(saved, progression.TriggerAuto, now))
		}
		return saved, fnErr
	}
	return models.LevelEntitlement{}, fmt.Errorf("%s: %w", op, lastErr)
}

func (s *Service) notify(ctx context.Context, n models.PauseNotification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyPause(ctx, n); err != nil {
		s.log.Warn("failed to publish pause notification",
			slog.String("event", n.Event),
			slog.String("user_id", n.UserID),
			sl.Err(err))
	}
}

func validateLevel(level models.LevelID) error {
	if !level.Valid() {
		return fmt.Errorf("%w: %q", progression.ErrUnknownLevel, level)
	}
	return nil
}

func validate(level models.LevelID, day int) error {
	if err := validateLevel(level); err != nil {
		return err
	}
	return progression.ValidateDay(day)
}

// CheckAccess решает, открыт ли день для пользователя. Отказ возвращается в Decision, не ошибкой.
func (s *Service) CheckAccess(ctx context.Context, userID string, level models.LevelID, day int) (progression.Decision, error) {
	if err := validate(level, day); err != nil {
		return progression.Decision{}, err
	}
	var decision progression.Decision
	_, err := s.mutate(ctx, userID, level, func(e models.LevelEntitlement, now time.Time) (models.LevelEntitlement, bool, error) {
		decision = progression.CanAccessDay(e, day, now)
		return e, false, nil
	})
	if err != nil {
		return progression.Decision{}, err
	}
	return decision, nil
}

// SubmitDailyTest проверяет ответы теста за день и при сдаче открывает следующий день.
func (s *Service) SubmitDailyTest(ctx context.Context, userID string, level models.LevelID, day int,
	sub models.DailyTestSubmission) (models.DailyTestResult, error) {
	if err := validate(level, day); err != nil {
		return models.DailyTestResult{}, err
	}
	var result models.DailyTestResult
	var key progression.AnswerKey
	saved, err := s.mutate(ctx, userID, level, func(e models.LevelEntitlement, now time.Time) (models.LevelEntitlement, bool, error) {
		if d := progression.CanAccessDay(e, day, now); !d.Allowed {
			return e, false, d.Err()
		}
		if s.opts.RequireFullPractice {
			done, err := s.repo.CompletedLessons(ctx, userID, level, day)
			if err != nil {
				return e, false, err
			}
			if !done.FullyPracticed() {
				return e, false, progression.ErrDayNotPracticed
			}
		}
		// ключ нужен только при открытом доступе
		if key == nil {
			loaded, err := s.keys.AnswerKey(ctx, level, day)
			if err != nil {
				return e, false, err
			}
			key = loaded
		}
		result = progression.Evaluate(sub, key, s.opts.ScoringPolicy)
		if !result.Passed {
			return e, false, nil
		}
		next, advanced := progression.AdvanceDay(e, day)
		return next, advanced, nil
	})
	if err != nil {
		return models.DailyTestResult{}, err
	}
	result.CurrentDay = saved.CurrentDay
	metrics.DailyTests.WithLabelValues(testOutcome(result.Passed)).Inc()

	if result.Passed {
		if err := s.repo.MarkLessonCompleted(ctx, userID, level, day, models.LessonDailyTest); err != nil {
			s.log.Warn("failed to record daily test completion", slog.String("user_id", userID), sl.Err(err))
		}
		s.log.Info("daily test passed",
			slog.String("user_id", userID),
			slog.String("level", string(level)),
			slog.Int("day", day),
			slog.Int("current_day", saved.CurrentDay))
	}
	return result, nil
}

// Pause замораживает уровень на durationDays дней.
func (s *Service) Pause(ctx context.Context, userID string, level models.LevelID, durationDays int, reason string) (models.EntitlementSummary, error) {
	if err := validateLevel(level); err != nil {
		return models.EntitlementSummary{}, err
	}
	saved, err := s.mutate(ctx, userID, level, func(e models.LevelEntitlement, now time.Time) (models.LevelEntitlement, bool, error) {
		next, err := progression.RequestPause(e, durationDays, reason, now)
		if err != nil {
			return e, false, err
		}
		return next, true, nil
	})
	if err != nil {
		return models.EntitlementSummary{}, err
	}
	now := s.clock.Now()
	s.log.Info("level paused",
		slog.String("user_id", userID),
		slog.String("level", string(level)),
		slog.Int("days", durationDays))
	metrics.PauseEvents.WithLabelValues(models.EventPauseStarted, string(progression.TriggerManual)).Inc()
	s.notify(ctx, StartedNotification(saved, now))
	return progression.Summarize(saved, now), nil
}

// Resume досрочно снимает заморозку. Если заморозки нет, возвращает текущее состояние.
func (s *Service) Resume(ctx context.Context, userID string, level models.LevelID) (models.EntitlementSummary, error) {
	if err := validateLevel(level); err != nil {
		return models.EntitlementSummary{}, err
	}
	var resumed bool
	saved, err := s.mutate(ctx, userID, level, func(e models.LevelEntitlement, now time.Time) (models.LevelEntitlement, bool, error) {
		var next models.LevelEntitlement
		next, resumed = progression.ResumeNow(e, now)
		return next, resumed, nil
	})
	if err != nil {
		return models.EntitlementSummary{}, err
	}
	now := s.clock.Now()
	if resumed {
		s.log.Info("level resumed", slog.String("user_id", userID), slog.String("level", string(level)))
		metrics.PauseEvents.WithLabelValues(models.EventPauseResumed, string(progression.TriggerManual)).Inc()
		s.notify(ctx, ResumedNotification(saved, progression.TriggerManual, now))
	}
	return progression.Summarize(saved, now), nil
}

// Summary возвращает краткое состояние доступа.
func (s *Service) Summary(ctx context.Context, userID string, level models.LevelID) (models.EntitlementSummary, error) {
	if err := validateLevel(level); err != nil {
		return models.EntitlementSummary{}, err
	}
	saved, err := s.mutate(ctx, userID, level, func(e models.LevelEntitlement, _ time.Time) (models.LevelEntitlement, bool, error) {
		return e, false, nil
	})
	if err != nil {
		return models.EntitlementSummary{}, err
	}
	return progression.Summarize(saved, s.clock.Now()), nil
}

// Certificate сообщает, прошёл ли пользователь уровень.
func (s *Service) Certificate(ctx context.Context, userID string, level models.LevelID) (bool, error) {
	if err := validateLevel(level); err != nil {
		return false, err
	}
	e, err := s.repo.GetEntitlement(ctx, userID, level)
	if err != nil {
		return false, err
	}
	return progression.CertificateEligible(e), nil
}

// CompleteTask отмечает урок открытого дня выполненным. Итоговый тест так отметить нельзя.
func (s *Service) CompleteTask(ctx context.Context, userID string, level models.LevelID, day int, lesson models.LessonType) (models.DayTaskCompletion, error) {
	if err := validate(level, day); err != nil {
		return models.DayTaskCompletion{}, err
	}
	if !lesson.Valid() {
		return models.DayTaskCompletion{}, fmt.Errorf("%w: %q", progression.ErrUnknownLessonType, lesson)
	}
	if lesson.Terminal() {
		return models.DayTaskCompletion{}, progression.ErrTerminalLessonType
	}
	if err := s.requireAccess(ctx, userID, level, day); err != nil {
		return models.DayTaskCompletion{}, err
	}
	if err := s.repo.MarkLessonCompleted(ctx, userID, level, day, lesson); err != nil {
		return models.DayTaskCompletion{}, err
	}
	return s.repo.CompletedLessons(ctx, userID, level, day)
}

// Tasks возвращает выполненные уроки открытого дня.
func (s *Service) Tasks(ctx context.Context, userID string, level models.LevelID, day int) (models.DayTaskCompletion, error) {
	if err := validate(level, day); err != nil {
		return models.DayTaskCompletion{}, err
	}
	if err := s.requireAccess(ctx, userID, level, day); err != nil {
		return models.DayTaskCompletion{}, err
	}
	return s.repo.CompletedLessons(ctx, userID, level, day)
}

func testOutcome(passed bool) string {
	if passed {
		return "passed"
	}
	return "failed"
}

func (s *Service) requireAccess(ctx context.Context, userID string, level models.LevelID, day int) error {
	d, err := s.CheckAccess(ctx, userID, level, day)
	if err != nil {
		return err
	}
	return d.Err()
}

// StartedNotification сообщение о начале заморозки.
func StartedNotification(e models.LevelEntitlement, now time.Time) models.PauseNotification {
	return models.PauseNotification{
		MessageID:   uuid.NewString(),
		Event:       models.EventPauseStarted,
		UserID:      e.UserID,
		LevelID:     e.LevelID,
		ScheduledTo: e.PauseScheduledEndDate,
		ExpiresAt:   e.ExpiresAt,
		OccurredAt:  now,
	}
}

// ResumedNotification сообщение о снятии заморозки.
func ResumedNotification(e models.LevelEntitlement, trigger progression.ResumeTrigger, now time.Time) models.PauseNotification {
	return models.PauseNotification{
		MessageID:  uuid.NewString(),
		Event:      models.EventPauseResumed,
		UserID:     e.UserID,
		LevelID:    e.LevelID,
		Trigger:    string(trigger),
		ExpiresAt:  e.ExpiresAt,
		OccurredAt: now,
	}
}
