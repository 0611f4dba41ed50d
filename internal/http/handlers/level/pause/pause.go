// Package pause реализует HTTP-обработчик добровольной заморозки уровня.
//
// Handler принимает длительность заморозки в днях и необязательную причину.
// Длительность и лимиты заморозок проверяет сервис. В ответе возвращается краткое состояние доступа.
package pause

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/level-progression/internal/http/request"
	"github.com/magabrotheeeer/level-progression/internal/http/response"
	"github.com/magabrotheeeer/level-progression/internal/lib/sl"
	"github.com/magabrotheeeer/level-progression/internal/models"
)

// Request тело запроса заморозки.
type Request struct {
	DurationDays int    `json:"duration_days"`
	Reason       string `json:"reason,omitempty" validate:"max=200"`
}

// Handler обрабатывает запросы на заморозку уровня.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает бизнес-логику заморозки.
type Service interface {
	Pause(ctx context.Context, userID string, level models.LevelID, durationDays int, reason string) (models.EntitlementSummary, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Заморозить уровень
// @Description Замораживает уровень на указанное число дней. Не больше 2 заморозок и 20 дней на уровень.
// @Tags Pause
// @Accept  json
// @Produce  json
// @Param level path string true "Уровень"
// @Param request body Request true "Длительность и причина заморозки"
// @Success 200 {object} response.Response "Состояние доступа после заморозки"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Уровень не куплен или срок истёк"
// @Failure 409 {object} response.ErrorResponse "Уровень уже заморожен"
// @Failure 422 {object} response.ErrorResponse "Исчерпан лимит заморозок"
// @Router /levels/{level}/pause [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.level.pause"
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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		var validateErr validator.ValidationErrors
		if errors.As(err, &validateErr) {
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request"))
		return
	}

	summary, err := h.service.Pause(r.Context(), userID, request.Level(r), req.DurationDays, req.Reason)
	if err != nil {
		log.Error("failed to pause level", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	log.Info("level paused", slog.Int("days", req.DurationDays))
	render.JSON(w, r, response.StatusOKWithData(summary))
}
