// Package tasklist реализует HTTP-обработчик списка выполненных уроков дня.
package tasklist

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

// Handler возвращает выполненные уроки дня.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает бизнес-логику учёта уроков.
type Service interface {
	Tasks(ctx context.Context, userID string, level models.LevelID, day int) (models.DayTaskCompletion, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Выполненные уроки дня
// @Tags Tasks
// @Produce  json
// @Param level path string true "Уровень"
// @Param day path int true "День 1..50"
// @Success 200 {object} response.Response "Выполненные уроки и признак полной практики"
// @Failure 400 {object} response.ErrorResponse "Некорректный уровень или день"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.Response "Нет доступа к дню"
// @Router /levels/{level}/days/{day}/tasks [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.level.tasklist"
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

	done, err := h.service.Tasks(r.Context(), userID, request.Level(r), day)
	if err != nil {
		log.Error("failed to list tasks", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(done.View()))
}
