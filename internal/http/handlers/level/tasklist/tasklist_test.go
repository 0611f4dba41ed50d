package tasklist

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/level-progression/internal/http/middlewarectx"
	"github.com/magabrotheeeer/level-progression/internal/models"
	"github.com/magabrotheeeer/level-progression/internal/progression"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Tasks(ctx context.Context, userID string, level models.LevelID, day int) (models.DayTaskCompletion, error) {
	args := m.Called(ctx, userID, level, day)
	return args.Get(0).(models.DayTaskCompletion), args.Error(1)
}

func newRequest(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/levels/LEVEL_C1/days/1/tasks", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("level", "LEVEL_C1")
	rctx.URLParams.Add("day", "1")
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if userID != "" {
		ctx = context.WithValue(ctx, middlewarectx.UserID, userID)
	}
	return req.WithContext(ctx)
}

func TestTaskListHandler_FullyPracticed(t *testing.T) {
	var all []models.LessonType
	for _, lt := range models.LessonTypes() {
		if !lt.Terminal() {
			all = append(all, lt)
		}
	}
	mockService := new(MockService)
	mockService.On("Tasks", mock.Anything, "user-1", models.LevelC1, 1).
		Return(models.DayTaskCompletion{LevelID: models.LevelC1, Day: 1, CompletedLessonTypes: all}, nil)
	handler := New(slog.New(slog.NewTextHandler(io.Discard, nil)), mockService)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newRequest("user-1"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"fully_practiced":true`)
	mockService.AssertExpectations(t)
}

func TestTaskListHandler_Paused(t *testing.T) {
	mockService := new(MockService)
	mockService.On("Tasks", mock.Anything, "user-1", models.LevelC1, 1).
		Return(models.DayTaskCompletion{}, progression.ErrPaused)
	handler := New(slog.New(slog.NewTextHandler(io.Discard, nil)), mockService)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newRequest("user-1"))

	assert.Equal(t, http.StatusLocked, w.Code)
	assert.JSONEq(t, `{"status":"Error","error":"level is paused"}`, w.Body.String())
}

func TestTaskListHandler_Unauthorized(t *testing.T) {
	mockService := new(MockService)
	handler := New(slog.New(slog.NewTextHandler(io.Discard, nil)), mockService)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newRequest(""))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockService.AssertNotCalled(t, "Tasks")
}
