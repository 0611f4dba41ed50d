package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/level-progression/internal/models"
	"github.com/magabrotheeeer/level-progression/internal/progression"
)

// LessonContent возвращает сырой JSON контента урока.
func (s *Storage) LessonContent(ctx context.Context, level models.LevelID, day int, lesson models.LessonType) ([]byte, error) {
	const op = "storage.LessonContent"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT data FROM lesson_contents
			  WHERE level_id = $1 AND day = $2 AND lesson_type = $3`
	var data []byte
	err := s.DB.QueryRowContext(ctx, query, level, day, lesson).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, progression.ErrContentNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return data, nil
}

// PutLessonContent создаёт или заменяет контент урока.
func (s *Storage) PutLessonContent(ctx context.Context, level models.LevelID, day int, lesson models.LessonType, data []byte) error {
	const op = "storage.PutLessonContent"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO lesson_contents (level_id, day, lesson_type, data)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (level_id, day, lesson_type)
			  DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`
	if _, err := s.DB.ExecContext(ctx, query, level, day, lesson, data); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
