// Package purchase создаёт доступ к уровню по событию успешной оплаты.
package purchase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/level-progression/internal/metrics"
	"github.com/magabrotheeeer/level-progression/internal/models"
	"github.com/magabrotheeeer/level-progression/internal/progression"
)

// ErrInvalidEvent событие оплаты не проходит проверку и не будет принято повторно.
var ErrInvalidEvent = errors.New("invalid payment event")

// Repository создание доступа.
type Repository interface {
	CreateEntitlement(ctx context.Context, e models.LevelEntitlement) error
}

// Service обрабатывает события оплаты.
type Service struct {
	repo                Repository
	clock               progression.Clock
	defaultDurationDays int
	validate            *validator.Validate
	log                 *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, clock progression.Clock, defaultDurationDays int, log *slog.Logger) *Service {
	return &Service{
		repo:                repo,
		clock:               clock,
		defaultDurationDays: defaultDurationDays,
		validate:            validator.New(),
		log:                 log,
	}
}

// HandlePaymentCompleted создаёт доступ к оплаченному уровню.
// Повторное событие по уже купленному уровню не считается ошибкой.
func (s *Service) HandlePaymentCompleted(ctx context.Context, ev models.PaymentCompleted) error {
	const op = "purchase.HandlePaymentCompleted"
	log := s.log.With(
		slog.String("op", op),
		slog.String("event_id", ev.EventID),
		slog.String("user_id", ev.UserID),
		slog.String("level", string(ev.LevelID)),
	)

	if err := s.validate.Struct(ev); err != nil {
		metrics.Payments.WithLabelValues("invalid").Inc()
		return fmt.Errorf("%s: %w: %w", op, ErrInvalidEvent, err)
	}
	if !ev.LevelID.Valid() {
		metrics.Payments.WithLabelValues("invalid").Inc()
		return fmt.Errorf("%s: %w: %w: %q", op, ErrInvalidEvent, progression.ErrUnknownLevel, ev.LevelID)
	}

	paidAt := ev.PaidAt
	if paidAt.IsZero() {
		paidAt = s.clock.Now()
	}
	duration := ev.DurationDays
	if duration == 0 {
		duration = s.defaultDurationDays
	}

	e := progression.NewEntitlement(ev.UserID, ev.LevelID, paidAt.UTC(), duration)
	err := s.repo.CreateEntitlement(ctx, e)
	if errors.Is(err, progression.ErrAlreadyPurchased) {
		metrics.Payments.WithLabelValues("duplicate").Inc()
		log.Info("level already purchased, skipping")
		return nil
	}
	if err != nil {
		metrics.Payments.WithLabelValues("error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}

	metrics.Payments.WithLabelValues("created").Inc()
	log.Info("entitlement created", slog.Time("expires_at", e.ExpiresAt))
	return nil
}
