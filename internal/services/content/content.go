// Package content отдаёт контент уроков из PostgreSQL через кеш Redis.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/level-progression/internal/lessons"
	"github.com/magabrotheeeer/level-progression/internal/lib/sl"
	"github.com/magabrotheeeer/level-progression/internal/models"
	"github.com/magabrotheeeer/level-progression/internal/progression"
)

// Repository хранилище сырого контента уроков.
type Repository interface {
	LessonContent(ctx context.Context, level models.LevelID, day int, lesson models.LessonType) ([]byte, error)
	PutLessonContent(ctx context.Context, level models.LevelID, day int, lesson models.LessonType, data []byte) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(ctx context.Context, key string) error
}

// Service читает и декодирует контент уроков.
type Service struct {
	repo    Repository
	cache   Cache
	decoder *lessons.Decoder
	ttl     time.Duration
	log     *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, cache Cache, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		cache:   cache,
		decoder: lessons.NewDecoder(),
		ttl:     ttl,
		log:     log,
	}
}

func cacheKey(level models.LevelID, day int, lesson models.LessonType) string {
	return fmt.Sprintf("lesson:%s:%d:%s", level, day, lesson)
}

func validate(level models.LevelID, day int, lesson models.LessonType) error {
	if !level.Valid() {
		return fmt.Errorf("%w: %q", progression.ErrUnknownLevel, level)
	}
	if err := progression.ValidateDay(day); err != nil {
		return err
	}
	if !lesson.Valid() {
		return fmt.Errorf("%w: %q", progression.ErrUnknownLessonType, lesson)
	}
	return nil
}

// Lesson возвращает декодированный контент урока.
func (s *Service) Lesson(ctx context.Context, level models.LevelID, day int, lesson models.LessonType) (*lessons.Content, error) {
	const op = "content.Lesson"
	if err := validate(level, day, lesson); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	key := cacheKey(level, day, lesson)
	var raw json.RawMessage
	found, err := s.cache.Get(ctx, key, &raw)
	if err != nil {
		s.log.Warn("failed to read lesson from cache", slog.String("key", key), sl.Err(err))
	}
	if !found {
		raw, err = s.repo.LessonContent(ctx, level, day, lesson)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	c, err := s.decoder.Decode(lesson, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
			s.log.Warn("failed to cache lesson", slog.String("key", key), sl.Err(err))
		}
	}
	return c, nil
}

// AnswerKey возвращает ключ ответов ежедневного теста дня.
func (s *Service) AnswerKey(ctx context.Context, level models.LevelID, day int) (progression.AnswerKey, error) {
	c, err := s.Lesson(ctx, level, day, models.LessonDailyTest)
	if err != nil {
		return nil, err
	}
	return c.AnswerKey()
}

// ImportLesson проверяет контент урока, сохраняет его и сбрасывает кеш.
func (s *Service) ImportLesson(ctx context.Context, level models.LevelID, day int, lesson models.LessonType, raw []byte) error {
	const op = "content.ImportLesson"
	if err := validate(level, day, lesson); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.decoder.Decode(lesson, raw); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.PutLessonContent(ctx, level, day, lesson, raw); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	key := cacheKey(level, day, lesson)
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.log.Warn("failed to invalidate lesson cache", slog.String("key", key), sl.Err(err))
	}
	s.log.Info("lesson imported", slog.String("key", key))
	return nil
}
