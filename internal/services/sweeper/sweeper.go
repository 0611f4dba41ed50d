// Package sweeper периодически снимает заморозки, у которых наступила плановая дата окончания.
package sweeper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/level-progression/internal/lib/sl"
	"github.com/magabrotheeeer/level-progression/internal/metrics"
	"github.com/magabrotheeeer/level-progression/internal/models"
	"github.com/magabrotheeeer/level-progression/internal/progression"
	"github.com/magabrotheeeer/level-progression/internal/services/entitlement"
)

// Repository выборка и сохранение замороженных доступов.
type Repository interface {
	ListDuePauses(ctx context.Context, now time.Time, limit int) ([]models.LevelEntitlement, error)
	UpdateEntitlement(ctx context.Context, e models.LevelEntitlement) (models.LevelEntitlement, error)
}

// Service снимает истёкшие заморозки.
type Service struct {
	repo      Repository
	notifier  entitlement.Notifier
	clock     progression.Clock
	batchSize int
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, notifier entitlement.Notifier, clock progression.Clock, batchSize int, log *slog.Logger) *Service {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Service{
		repo:      repo,
		notifier:  notifier,
		clock:     clock,
		batchSize: batchSize,
		log:       log,
	}
}

// Run выполняет Sweep сразу и затем каждые interval, пока не отменён ctx.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	s.runSweep(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.runSweep(ctx)
		}
	}
}

func (s *Service) runSweep(ctx context.Context) {
	n, err := s.Sweep(ctx)
	if err != nil {
		s.log.Error("sweep failed", slog.Int("resumed", n), sl.Err(err))
		return
	}
	if n > 0 {
		s.log.Info("sweep finished", slog.Int("resumed", n))
	}
}

// Sweep снимает все заморозки, срок которых наступил, и возвращает число снятых.
// Записи, изменённые параллельно, пропускаются: их снимет следующий проход или ближайший запрос.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	now := s.clock.Now()
	resumed := 0
	for {
		due, err := s.repo.ListDuePauses(ctx, now, s.batchSize)
		if err != nil {
			return resumed, err
		}
		batchResumed := 0
		for _, e := range due {
			next, ok := progression.AutoResume(e, now)
			if !ok {
				continue
			}
			saved, err := s.repo.UpdateEntitlement(ctx, next)
			if errors.Is(err, progression.ErrConcurrentModification) {
				s.log.Debug("entitlement changed concurrently, skipping", slog.String("user_id", e.UserID))
				continue
			}
			if err != nil {
				return resumed, err
			}
			batchResumed++
			metrics.PauseEvents.WithLabelValues(models.EventPauseResumed, string(progression.TriggerAuto)).Inc()
			s.notify(ctx, entitlement.ResumedNotification(saved, progression.TriggerAuto, now))
		}
		resumed += batchResumed
		if len(due) < s.batchSize || batchResumed == 0 {
			break
		}
	}
	metrics.SweepRuns.Inc()
	return resumed, nil
}

func (s *Service) notify(ctx context.Context, n models.PauseNotification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyPause(ctx, n); err != nil {
		s.log.Warn("failed to publish pause notification", slog.String("user_id", n.UserID), sl.Err(err))
	}
}
