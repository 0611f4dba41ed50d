// Package metrics регистрирует метрики Prometheus сервиса прохождения уровней.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DailyTests количество проверенных ежедневных тестов по результату.
	DailyTests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "progression",
		Name:      "daily_tests_total",
		Help:      "Submitted daily tests by result.",
	}, []string{"result"})

	// PauseEvents заморозки и разморозки по источнику.
	PauseEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "progression",
		Name:      "pause_events_total",
		Help:      "Pause lifecycle events by event and trigger.",
	}, []string{"event", "trigger"})

	// SweepRuns проходы фонового снятия заморозок.
	SweepRuns = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "progression",
		Name:      "sweep_runs_total",
		Help:      "Completed pause sweeper passes.",
	})

	// Payments обработанные события оплаты по результату.
	Payments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "progression",
		Name:      "payments_total",
		Help:      "Payment completion events by outcome.",
	}, []string{"outcome"})

	// HTTPRequests запросы к API по маршруту и коду ответа.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "progression",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route pattern and status code.",
	}, []string{"route", "code"})
)
