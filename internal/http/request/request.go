// Package request извлекает параметры маршрута и пользователя из HTTP-запроса.
package request

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/level-progression/internal/http/middlewarectx"
	"github.com/magabrotheeeer/level-progression/internal/models"
)

var (
	// ErrUnauthorized в контексте нет пользователя.
	ErrUnauthorized = errors.New("user identification missing")
	// ErrInvalidDay день в URL не является числом.
	ErrInvalidDay = errors.New("failed to decode day from url")
)

// Level возвращает уровень из параметра {level}.
func Level(r *http.Request) models.LevelID {
	return models.LevelID(chi.URLParam(r, "level"))
}

// Lesson возвращает тип урока из параметра {lesson}.
func Lesson(r *http.Request) models.LessonType {
	return models.LessonType(chi.URLParam(r, "lesson"))
}

// Day возвращает номер дня из параметра {day}.
func Day(r *http.Request) (int, error) {
	day, err := strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil {
		return 0, ErrInvalidDay
	}
	return day, nil
}

// UserID возвращает идентификатор пользователя, проверенный JWTMiddleware.
func UserID(r *http.Request) (string, error) {
	userID, ok := middlewarectx.UserIDFromContext(r.Context())
	if !ok {
		return "", ErrUnauthorized
	}
	return userID, nil
}
