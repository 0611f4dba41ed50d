// Package access реализует HTTP-обработчик проверки доступа пользователя к дню уровня.
//
// Handler извлекает уровень и день из URL, идентификатор пользователя из контекста
// и возвращает решение гейта. При отказе статус ответа соответствует причине отказа,
// а в данных передаётся решение с днём для перенаправления.
package access

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
	"github.com/magabrotheeeer/level-progression/internal/progression"
)

// Handler обрабатывает запросы проверки доступа к дню.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает бизнес-логику проверки доступа.
type Service interface {
	CheckAccess(ctx context.Context, userID string, level models.LevelID, day int) (progression.Decision, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Проверить доступ к дню
// @Description Решает, открыт ли день уровня для текущего пользователя.
// @Tags Levels
// @Produce  json
// @Param level path string true "Уровень, например LEVEL_A1"
// @Param day path int true "День 1..50"
// @Success 200 {object} response.Response "Доступ открыт"
// @Failure 400 {object} response.ErrorResponse "Некорректный уровень или день"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.Response "Уровень не куплен, срок истёк или день закрыт"
// @Failure 423 {object} response.Response "Уровень заморожен"
// @Router /levels/{level}/days/{day}/access [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.level.access"
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

	decision, err := h.service.CheckAccess(r.Context(), userID, request.Level(r), day)
	if err != nil {
		log.Error("failed to check access", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	if !decision.Allowed {
		log.Info("access denied", slog.String("reason", string(decision.Reason)), slog.Int("day", day))
		status, resp := response.FromError(decision.Err())
		render.Status(r, status)
		render.JSON(w, r, response.ErrorWithData(resp.Error, decision))
		return
	}
	render.JSON(w, r, response.StatusOKWithData(decision))
}
