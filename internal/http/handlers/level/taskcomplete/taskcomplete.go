// Package taskcomplete реализует HTTP-обработчик отметки урока дня выполненным.
package taskcomplete

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/level-progression/internal/http/request"
	"github.com/magabrotheeeer/level-progression/internal/http/response"
	"github.com/magabrotheeeer/level-progression/internal/lib/sl"
	"github.com/magabrotheeeer/level-progression/internal/models"
)

// Handler обрабатывает отметку урока выполненным.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает бизнес-логику учёта уроков.
type Service interface {
	CompleteTask(ctx context.Context, userID string, level models.LevelID, day int, lesson models.LessonType) (models.DayTaskCompletion, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Отметить урок выполненным
// @Description Записывает выполненный тип урока для открытого дня. DAILY_TEST отмечается только сдачей теста.
// @Tags Tasks
// @Produce  json
// @Param level path string true "Уровень"
// @Param day path int true "День 1..50"
// @Param lesson path string true "Тип урока, например READ"
// @Success 200 {object} response.Response "Выполненные уроки дня"
// @Failure 400 {object} response.ErrorResponse "Некорректный уровень, день или тип урока"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.Response "Нет доступа к дню"
// @Failure 423 {object} response.ErrorResponse "Уровень заморожен"
// @Router /levels/{level}/days/{day}/tasks/{lesson} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.level.taskcomplete"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, err := request.UserID(r)
	if err != nil {
		log.Error("user id not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}
	day, err := request.Day(r)
	if err != nil {
		log.Error("failed to decode day", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	lesson := request.Lesson(r)
	done, err := h.service.CompleteTask(r.Context(), userID, request.Level(r), day, lesson)
	if err != nil {
		log.Error("failed to complete task", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	log.Info("task completed", slog.String("lesson", string(lesson)), slog.Int("day", day))
	render.JSON(w, r, response.StatusOKWithData(done.View()))
}
