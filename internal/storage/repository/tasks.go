package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/level-progression/internal/models"
)

// MarkLessonCompleted отмечает урок дня выполненным. Повторная отметка ничего не меняет.
func (s *Storage) MarkLessonCompleted(ctx context.Context, userID string, level models.LevelID, day int, lesson models.LessonType) error {
	const op = "storage.MarkLessonCompleted"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO day_task_completions (user_id, level_id, day, lesson_type)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (user_id, level_id, day, lesson_type) DO NOTHING`
	if _, err := s.DB.ExecContext(ctx, query, userID, level, day, lesson); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CompletedLessons возвращает выполненные уроки дня.
func (s *Storage) CompletedLessons(ctx context.Context, userID string, level models.LevelID, day int) (models.DayTaskCompletion, error) {
	const op = "storage.CompletedLessons"
	res := models.DayTaskCompletion{UserID: userID, LevelID: level, Day: day, CompletedLessonTypes: []models.LessonType{}}
	select {
	case <-ctx.Done():
		return res, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT lesson_type FROM day_task_completions
			  WHERE user_id = $1 AND level_id = $2 AND day = $3
			  ORDER BY lesson_type`
	rows, err := s.DB.QueryContext(ctx, query, userID, level, day)
	if err != nil {
		return res, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var lt models.LessonType
		if err := rows.Scan(&lt); err != nil {
			return res, fmt.Errorf("%s: %w", op, err)
		}
		res.CompletedLessonTypes = append(res.CompletedLessonTypes, lt)
	}
	if err := rows.Err(); err != nil {
		return res, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}
