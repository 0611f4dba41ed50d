// Package main содержит консольную утилиту обслуживания доступов к уровням.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/level-progression/internal/cache"
	"github.com/magabrotheeeer/level-progression/internal/cli"
	"github.com/magabrotheeeer/level-progression/internal/config"
	"github.com/magabrotheeeer/level-progression/internal/lib/jwt"
	"github.com/magabrotheeeer/level-progression/internal/lib/sl"
	"github.com/magabrotheeeer/level-progression/internal/progression"
	"github.com/magabrotheeeer/level-progression/internal/rabbitmq"
	contentservice "github.com/magabrotheeeer/level-progression/internal/services/content"
	"github.com/magabrotheeeer/level-progression/internal/services/entitlement"
	"github.com/magabrotheeeer/level-progression/internal/services/purchase"
	"github.com/magabrotheeeer/level-progression/internal/services/sweeper"
	"github.com/magabrotheeeer/level-progression/internal/storage/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return err
	}
	defer db.Close()

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return err
	}
	defer cacheRedis.Close()

	// без брокера команды работают, уведомления о разморозке не отправляются
	var notifier entitlement.Notifier
	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, 1, 0)
	if err != nil {
		logger.Warn("RabbitMQ unavailable, notifications disabled", sl.Err(err))
	} else {
		defer conn.Close()
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
		if err != nil {
			return err
		}
		defer ch.Close()
		notifier = rabbitmq.NewNotifier(ch)
	}

	clock := progression.SystemClock{}
	contentService := contentservice.New(db, cacheRedis, cfg.ContentTTL, logger)
	app := &cli.App{
		Sweeper:   sweeper.New(db, notifier, clock, cfg.BatchSize, logger),
		Summaries: entitlement.New(db, contentService, notifier, clock, entitlement.Options{MaxRetries: cfg.Progression.MaxRetries}, logger),
		Content:   contentService,
		Purchases: purchase.New(db, clock, cfg.DefaultDurationDays, logger),
		Tokens:    jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL),
	}

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}
