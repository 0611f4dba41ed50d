package access

import (
	"context"
	"errors"
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

func (m *MockService) CheckAccess(ctx context.Context, userID string, level models.LevelID, day int) (progression.Decision, error) {
	args := m.Called(ctx, userID, level, day)
	return args.Get(0).(progression.Decision), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestAccessHandler(t *testing.T) {
	tests := []struct {
		name           string
		day            string
		userID         string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "день открыт",
			day:    "3",
			userID: "user-1",
			setupMock: func(m *MockService) {
				m.On("CheckAccess", mock.Anything, "user-1", models.LevelA1, 3).
					Return(progression.Decision{Allowed: true}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":{"allowed":true}}`,
		},
		{
			name:   "день закрыт",
			day:    "9",
			userID: "user-1",
			setupMock: func(m *MockService) {
				m.On("CheckAccess", mock.Anything, "user-1", models.LevelA1, 9).
					Return(progression.Decision{Reason: progression.ReasonDayLocked, RedirectDay: 4}, nil)
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `{"status":"Error","error":"day locked","data":{"allowed":false,"reason":"DAY_LOCKED","redirect_day":4}}`,
		},
		{
			name:   "уровень заморожен",
			day:    "2",
			userID: "user-1",
			setupMock: func(m *MockService) {
				m.On("CheckAccess", mock.Anything, "user-1", models.LevelA1, 2).
					Return(progression.Decision{Reason: progression.ReasonPaused}, nil)
			},
			expectedStatus: http.StatusLocked,
			expectedBody:   `{"status":"Error","error":"level is paused","data":{"allowed":false,"reason":"PAUSED"}}`,
		},
		{
			name:   "уровень не куплен",
			day:    "1",
			userID: "user-1",
			setupMock: func(m *MockService) {
				m.On("CheckAccess", mock.Anything, "user-1", models.LevelA1, 1).
					Return(progression.Decision{}, progression.ErrNotPurchased)
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `{"status":"Error","error":"level locked"}`,
		},
		{
			name:           "некорректный день",
			day:            "abc",
			userID:         "user-1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"failed to decode day from url"}`,
		},
		{
			name:           "нет пользователя",
			day:            "1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"user identification missing"}`,
		},
		{
			name:   "ошибка хранилища",
			day:    "1",
			userID: "user-1",
			setupMock: func(m *MockService) {
				m.On("CheckAccess", mock.Anything, "user-1", models.LevelA1, 1).
					Return(progression.Decision{}, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"internal error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)
			handler := New(newNoopLogger(), mockService)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/levels/LEVEL_A1/days/"+tt.day+"/access", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("level", "LEVEL_A1")
			rctx.URLParams.Add("day", tt.day)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			if tt.userID != "" {
				ctx = context.WithValue(ctx, middlewarectx.UserID, tt.userID)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req.WithContext(ctx))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			mockService.AssertExpectations(t)
		})
	}
}
