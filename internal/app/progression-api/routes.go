// Package progressionapi собирает HTTP API доступа к уровням и прогресса по дням.
package progressionapi

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/level-progression/internal/config"
	"github.com/magabrotheeeer/level-progression/internal/http/handlers/health"
	"github.com/magabrotheeeer/level-progression/internal/http/handlers/level/access"
	"github.com/magabrotheeeer/level-progression/internal/http/handlers/level/certificate"
	"github.com/magabrotheeeer/level-progression/internal/http/handlers/level/dailytest"
	"github.com/magabrotheeeer/level-progression/internal/http/handlers/level/lesson"
	"github.com/magabrotheeeer/level-progression/internal/http/handlers/level/pause"
	"github.com/magabrotheeeer/level-progression/internal/http/handlers/level/resume"
	"github.com/magabrotheeeer/level-progression/internal/http/handlers/level/summary"
	"github.com/magabrotheeeer/level-progression/internal/http/handlers/level/taskcomplete"
	"github.com/magabrotheeeer/level-progression/internal/http/handlers/level/tasklist"
	"github.com/magabrotheeeer/level-progression/internal/http/handlers/payment/paymentwebhook"
	"github.com/magabrotheeeer/level-progression/internal/http/middlewarectx"
)

// EntitlementService операции над доступом, которые вызывают обработчики.
type EntitlementService interface {
	access.Service
	dailytest.Service
	taskcomplete.Service
	tasklist.Service
	pause.Service
	resume.Service
	summary.Service
	certificate.Service
}

// Deps зависимости маршрутов.
type Deps struct {
	Entitlements EntitlementService
	Content      lesson.ContentService
	Payments     paymentwebhook.Service
	Tokens       middlewarectx.TokenParser
	DB           health.Checker
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, deps Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.MetricsMiddleware,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(deps.Tokens, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, cfg.RateLimit, cfg.RateBurst))

			r.Route("/levels/{level}", func(r chi.Router) {
				r.Get("/summary", summary.New(logger, deps.Entitlements).ServeHTTP)
				r.Get("/certificate", certificate.New(logger, deps.Entitlements).ServeHTTP)
				r.Post("/pause", pause.New(logger, deps.Entitlements).ServeHTTP)
				r.Post("/resume", resume.New(logger, deps.Entitlements).ServeHTTP)

				r.Route("/days/{day}", func(r chi.Router) {
					r.Get("/access", access.New(logger, deps.Entitlements).ServeHTTP)
					r.Post("/daily-test", dailytest.New(logger, deps.Entitlements).ServeHTTP)
					r.Get("/tasks", tasklist.New(logger, deps.Entitlements).ServeHTTP)
					r.Post("/tasks/{lesson}", taskcomplete.New(logger, deps.Entitlements).ServeHTTP)
					r.Get("/lessons/{lesson}", lesson.New(logger, deps.Entitlements, deps.Content).ServeHTTP)
				})
			})
		})

		// Webhook endpoint (без аутентификации)
		r.Post("/payments/webhook", paymentwebhook.New(logger, deps.Payments, cfg.WebhookSecret).ServeHTTP)
	})

	r.Get("/health", health.New(logger, deps.DB).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
