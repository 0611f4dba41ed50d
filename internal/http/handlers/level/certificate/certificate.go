// Package certificate реализует HTTP-обработчик проверки права на сертификат уровня.
package certificate

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/level-progression/internal/http/middlewarectx"
	"github.com/magabrotheeeer/level-progression/internal/http/request"
	"github.com/magabrotheeeer/level-progression/internal/http/response"
	"github.com/magabrotheeeer/level-progression/internal/lib/sl"
	"github.com/magabrotheeeer/level-progression/internal/models"
)

// Certificate данные для выдачи сертификата.
type Certificate struct {
	Eligible    bool           `json:"eligible"`
	LevelID     models.LevelID `json:"level_id"`
	DisplayName string         `json:"display_name"`
}

// Handler обрабатывает запрос права на сертификат.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает бизнес-логику сертификата.
type Service interface {
	Certificate(ctx context.Context, userID string, level models.LevelID) (bool, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Право на сертификат
// @Description Сертификат доступен после прохождения всех 50 дней уровня.
// @Tags Levels
// @Produce  json
// @Param level path string true "Уровень"
// @Success 200 {object} response.Response "Право на сертификат и имя для него"
// @Failure 400 {object} response.ErrorResponse "Неизвестный уровень"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Уровень не куплен"
// @Router /levels/{level}/certificate [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.level.certificate"
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

	level := request.Level(r)
	eligible, err := h.service.Certificate(r.Context(), userID, level)
	if err != nil {
		log.Error("failed to check certificate", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(Certificate{
		Eligible:    eligible,
		LevelID:     level,
		DisplayName: middlewarectx.DisplayNameFromContext(r.Context()),
	}))
}
