package response

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/level-progression/internal/progression"
)

type mapping struct {
	target error
	status int
	msg    string
}

var errorMappings = []mapping{
	{progression.ErrNotPurchased, http.StatusForbidden, "level locked"},
	{progression.ErrExpired, http.StatusForbidden, "renew required"},
	{progression.ErrPaused, http.StatusLocked, "level is paused"},
	{progression.ErrDayOutOfRange, http.StatusBadRequest, "day out of range"},
	{progression.ErrUnknownLevel, http.StatusBadRequest, "unknown level"},
	{progression.ErrUnknownLessonType, http.StatusBadRequest, "unknown lesson type"},
	{progression.ErrTerminalLessonType, http.StatusBadRequest, "daily test is completed by submission only"},
	{progression.ErrPauseBudgetExceeded, http.StatusUnprocessableEntity, "pause budget exceeded"},
	{progression.ErrAlreadyPaused, http.StatusConflict, "level already paused"},
	{progression.ErrAlreadyPurchased, http.StatusConflict, "level already purchased"},
	{progression.ErrDayNotPracticed, http.StatusConflict, "day lessons are not completed"},
	{progression.ErrContentNotFound, http.StatusNotFound, "lesson content not found"},
	{progression.ErrConcurrentModification, http.StatusServiceUnavailable, "transient error, retry"},
}

// FromError подбирает HTTP-статус и тело ответа для ошибки бизнес-логики.
// Неизвестные ошибки превращаются в 500 без раскрытия текста.
func FromError(err error) (int, Response) {
	var locked *progression.DayLockedError
	if errors.As(err, &locked) {
		return http.StatusForbidden, ErrorWithData("day locked", map[string]int{
			"redirect_day": locked.RedirectDay,
		})
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, Response{Status: StatusError, Error: m.msg}
		}
	}
	return http.StatusInternalServerError, Response{Status: StatusError, Error: "internal error"}
}

// RenderError записывает ответ с ошибкой бизнес-логики.
func RenderError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := FromError(err)
	render.Status(r, status)
	render.JSON(w, r, resp)
}
