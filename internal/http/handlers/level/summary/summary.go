// Package summary реализует HTTP-обработчик краткого состояния доступа к уровню.
package summary

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

// Handler возвращает состояние доступа к уровню.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает бизнес-логику чтения состояния.
type Service interface {
	Summary(ctx context.Context, userID string, level models.LevelID) (models.EntitlementSummary, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Состояние доступа к уровню
// @Description Текущий день, заморозка, оставшиеся заморозки, срок доступа.
// @Tags Levels
// @Produce  json
// @Param level path string true "Уровень"
// @Success 200 {object} response.Response "Состояние доступа"
// @Failure 400 {object} response.ErrorResponse "Неизвестный уровень"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Уровень не куплен"
// @Router /levels/{level}/summary [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.level.summary"
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

	summary, err := h.service.Summary(r.Context(), userID, request.Level(r))
	if err != nil {
		log.Error("failed to get summary", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(summary))
}
