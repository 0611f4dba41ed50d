// Package dailytest реализует HTTP-обработчик сдачи итогового теста дня.
//
// Handler принимает JSON с ответами, валидирует его и передаёт в сервис.
// При успешной сдаче сервис открывает следующий день, а в ответе возвращается
// результат проверки и текущий день пользователя.
package dailytest

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

// Handler обрабатывает сдачу итогового теста дня.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает бизнес-логику проверки теста.
type Service interface {
	SubmitDailyTest(ctx context.Context, userID string, level models.LevelID, day int,
		sub models.DailyTestSubmission) (models.DailyTestResult, error)
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
// @Summary Сдать итоговый тест дня
// @Description Проверяет ответы теста. При сдаче открывает следующий день.
// @Tags Levels
// @Accept  json
// @Produce  json
// @Param level path string true "Уровень"
// @Param day path int true "День 1..50"
// @Param request body models.DailyTestSubmission true "Ответы: id вопроса -> индексы выбранных вариантов"
// @Success 200 {object} response.Response "Результат проверки"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.Response "Нет доступа к дню"
// @Failure 404 {object} response.ErrorResponse "Нет теста для дня"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 423 {object} response.ErrorResponse "Уровень заморожен"
// @Failure 503 {object} response.ErrorResponse "Параллельное изменение, повторите запрос"
// @Router /levels/{level}/days/{day}/daily-test [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.level.dailytest"
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

	var req models.DailyTestSubmission
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

	result, err := h.service.SubmitDailyTest(r.Context(), userID, request.Level(r), day, req)
	if err != nil {
		log.Error("failed to submit daily test", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	log.Info("daily test submitted", slog.Bool("passed", result.Passed), slog.Int("current_day", result.CurrentDay))
	render.JSON(w, r, response.StatusOKWithData(result))
}
