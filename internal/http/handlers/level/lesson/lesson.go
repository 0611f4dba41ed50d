// Package lesson реализует HTTP-обработчик выдачи контента урока открытого дня.
//
// Перед выдачей контента проверяется доступ к дню. Закрытый день отвечает так же,
// как проверка доступа: статус по причине отказа и день для перенаправления.
package lesson

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/level-progression/internal/http/request"
	"github.com/magabrotheeeer/level-progression/internal/http/response"
	"github.com/magabrotheeeer/level-progression/internal/lessons"
	"github.com/magabrotheeeer/level-progression/internal/lib/sl"
	"github.com/magabrotheeeer/level-progression/internal/models"
	"github.com/magabrotheeeer/level-progression/internal/progression"
)

// View контент урока в ответе API. У вопросов ежедневного теста правильные ответы скрыты.
type View struct {
	LessonType models.LessonType `json:"lesson_type"`
	Items      any               `json:"items"`
}

// AccessService описывает проверку доступа к дню.
type AccessService interface {
	CheckAccess(ctx context.Context, userID string, level models.LevelID, day int) (progression.Decision, error)
}

// ContentService описывает чтение контента уроков.
type ContentService interface {
	Lesson(ctx context.Context, level models.LevelID, day int, lesson models.LessonType) (*lessons.Content, error)
}

// Handler выдаёт контент урока.
type Handler struct {
	log     *slog.Logger
	access  AccessService
	content ContentService
}

// New создает новый Handler.
func New(log *slog.Logger, access AccessService, content ContentService) *Handler {
	return &Handler{
		log:     log,
		access:  access,
		content: content,
	}
}

// ServeHTTP godoc
// @Summary Контент урока
// @Description Возвращает контент урока для открытого дня.
// @Tags Lessons
// @Produce  json
// @Param level path string true "Уровень"
// @Param day path int true "День 1..50"
// @Param lesson path string true "Тип урока"
// @Success 200 {object} response.Response "Контент урока"
// @Failure 400 {object} response.ErrorResponse "Некорректный уровень, день или тип урока"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.Response "Нет доступа к дню"
// @Failure 404 {object} response.ErrorResponse "Контент не найден"
// @Failure 423 {object} response.Response "Уровень заморожен"
// @Router /levels/{level}/days/{day}/lessons/{lesson} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.level.lesson"
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
	level := request.Level(r)

	decision, err := h.access.CheckAccess(r.Context(), userID, level, day)
	if err != nil {
		log.Error("failed to check access", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	if !decision.Allowed {
		status, resp := response.FromError(decision.Err())
		render.Status(r, status)
		render.JSON(w, r, response.ErrorWithData(resp.Error, decision))
		return
	}

	content, err := h.content.Lesson(r.Context(), level, day, request.Lesson(r))
	if err != nil {
		log.Error("failed to load lesson content", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	public := content.WithoutAnswers()
	render.JSON(w, r, response.StatusOKWithData(View{
		LessonType: public.Type,
		Items:      public.Items(),
	}))
}
