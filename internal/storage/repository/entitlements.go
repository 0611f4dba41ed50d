package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/level-progression/internal/models"
	"github.com/magabrotheeeer/level-progression/internal/progression"
)

const entitlementColumns = `user_id, level_id, purchase_date, expires_at, current_day, is_completed,
	is_voluntary_paused, pause_started_at, pause_scheduled_end_date, total_paused_days,
	voluntary_pause_attempts, pause_history, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntitlement(row rowScanner) (models.LevelEntitlement, error) {
	var (
		e       models.LevelEntitlement
		started sql.NullTime
		end     sql.NullTime
		history []byte
	)
	if err := row.Scan(&e.UserID, &e.LevelID, &e.PurchaseDate, &e.ExpiresAt, &e.CurrentDay, &e.IsCompleted,
		&e.IsVoluntaryPaused, &started, &end, &e.TotalPausedDays,
		&e.VoluntaryPauseAttempts, &history, &e.Version); err != nil {
		return e, err
	}
	if started.Valid {
		t := started.Time.UTC()
		e.PauseStartedAt = &t
	}
	if end.Valid {
		t := end.Time.UTC()
		e.PauseScheduledEndDate = &t
	}
	e.PurchaseDate = e.PurchaseDate.UTC()
	e.ExpiresAt = e.ExpiresAt.UTC()
	e.PauseHistory = []models.PauseRecord{}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &e.PauseHistory); err != nil {
			return e, fmt.Errorf("decode pause history: %w", err)
		}
	}
	return e, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func encodeHistory(h []models.PauseRecord) ([]byte, error) {
	if h == nil {
		h = []models.PauseRecord{}
	}
	return json.Marshal(h)
}

// GetEntitlement возвращает доступ пользователя к уровню.
func (s *Storage) GetEntitlement(ctx context.Context, userID string, level models.LevelID) (models.LevelEntitlement, error) {
	const op = "storage.GetEntitlement"
	select {
	case <-ctx.Done():
		return models.LevelEntitlement{}, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + entitlementColumns + `
			  FROM level_entitlements
			  WHERE user_id = $1 AND level_id = $2`
	e, err := scanEntitlement(s.DB.QueryRowContext(ctx, query, userID, level))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.LevelEntitlement{}, fmt.Errorf("%s: %w", op, progression.ErrNotPurchased)
		}
		return models.LevelEntitlement{}, fmt.Errorf("%s: %w", op, err)
	}
	return e, nil
}

// CreateEntitlement сохраняет новый доступ. Повторная покупка того же уровня даёт ErrAlreadyPurchased.
func (s *Storage) CreateEntitlement(ctx context.Context, e models.LevelEntitlement) error {
	const op = "storage.CreateEntitlement"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	history, err := encodeHistory(e.PauseHistory)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	query := `INSERT INTO level_entitlements (` + entitlementColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			  ON CONFLICT (user_id, level_id) DO NOTHING`
	res, err := s.DB.ExecContext(ctx, query,
		e.UserID, e.LevelID, e.PurchaseDate, e.ExpiresAt, e.CurrentDay, e.IsCompleted,
		e.IsVoluntaryPaused, nullTime(e.PauseStartedAt), nullTime(e.PauseScheduledEndDate), e.TotalPausedDays,
		e.VoluntaryPauseAttempts, history, e.Version)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, progression.ErrAlreadyPurchased)
	}
	return nil
}

// UpdateEntitlement сохраняет изменённую запись, если её версия в базе всё ещё равна e.Version.
// Возвращает запись с новой версией. При расхождении версий возвращает ErrConcurrentModification.
func (s *Storage) UpdateEntitlement(ctx context.Context, e models.LevelEntitlement) (models.LevelEntitlement, error) {
	const op = "storage.UpdateEntitlement"
	select {
	case <-ctx.Done():
		return e, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	history, err := encodeHistory(e.PauseHistory)
	if err != nil {
		return e, fmt.Errorf("%s: %w", op, err)
	}
	query := `UPDATE level_entitlements
			  SET expires_at = $3, current_day = $4, is_completed = $5, is_voluntary_paused = $6,
			      pause_started_at = $7, pause_scheduled_end_date = $8, total_paused_days = $9,
			      voluntary_pause_attempts = $10, pause_history = $11,
			      version = version + 1, updated_at = NOW()
			  WHERE user_id = $1 AND level_id = $2 AND version = $12`
	res, err := s.DB.ExecContext(ctx, query,
		e.UserID, e.LevelID, e.ExpiresAt, e.CurrentDay, e.IsCompleted, e.IsVoluntaryPaused,
		nullTime(e.PauseStartedAt), nullTime(e.PauseScheduledEndDate), e.TotalPausedDays,
		e.VoluntaryPauseAttempts, history, e.Version)
	if err != nil {
		return e, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return e, fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return e, fmt.Errorf("%s: %w", op, progression.ErrConcurrentModification)
	}
	e.Version++
	return e, nil
}

// ListDuePauses возвращает замороженные доступы, у которых плановое окончание заморозки наступило.
func (s *Storage) ListDuePauses(ctx context.Context, now time.Time, limit int) ([]models.LevelEntitlement, error) {
	const op = "storage.ListDuePauses"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + entitlementColumns + `
			  FROM level_entitlements
			  WHERE is_voluntary_paused
			    AND (pause_scheduled_end_date IS NULL OR pause_scheduled_end_date <= $1)
			  ORDER BY pause_scheduled_end_date NULLS FIRST
			  LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var res []models.LevelEntitlement
	for rows.Next() {
		e, err := scanEntitlement(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}
