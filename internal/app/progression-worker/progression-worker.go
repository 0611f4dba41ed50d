// Package progressionworker содержит фоновые процессы: снятие истёкших заморозок
// и обработку событий оплаты из очереди. Состояние процесса отдаётся через gRPC health.
package progressionworker

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/magabrotheeeer/level-progression/internal/config"
	"github.com/magabrotheeeer/level-progression/internal/lib/sl"
	"github.com/magabrotheeeer/level-progression/internal/progression"
	"github.com/magabrotheeeer/level-progression/internal/rabbitmq"
	"github.com/magabrotheeeer/level-progression/internal/services/purchase"
	"github.com/magabrotheeeer/level-progression/internal/services/sweeper"
	"github.com/magabrotheeeer/level-progression/internal/storage/repository"
)

// App фоновый процесс.
type App struct {
	cfg        *config.Config
	sweeper    *sweeper.Service
	purchases  *purchase.Service
	db         *repository.Storage
	conn       *amqp.Connection
	publishCh  *amqp.Channel
	consumeCh  *amqp.Channel
	grpcServer *grpc.Server
	health     *health.Server
	logger     *slog.Logger
	wg         sync.WaitGroup
}

func waitForDB(db *repository.Storage) error {
	for range 10 {
		err := repository.CheckDatabaseReady(db)
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New подключает хранилище и брокер. Миграции применяет API, поэтому worker ждёт готовности схемы.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := waitForDB(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.ConnectRetries, cfg.ConnectDelay)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	publishCh, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		_ = db.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}
	consumeCh, err := rabbitmq.SetupChannel(conn, rabbitmq.GetPaymentQueues(cfg.PaymentsQueue))
	if err != nil {
		closeResources(publishCh, conn, logger)
		_ = db.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	clock := progression.SystemClock{}
	healthServer := health.NewServer()
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	return &App{
		cfg:        cfg,
		sweeper:    sweeper.New(db, rabbitmq.NewNotifier(publishCh), clock, cfg.BatchSize, logger),
		purchases:  purchase.New(db, clock, cfg.DefaultDurationDays, logger),
		db:         db,
		conn:       conn,
		publishCh:  publishCh,
		consumeCh:  consumeCh,
		grpcServer: grpcServer,
		health:     healthServer,
		logger:     logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
}

// Run запускает sweeper, потребителя оплат и gRPC health до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", a.cfg.AddressGRPC)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	go func() {
		a.logger.Info("gRPC health server listening", slog.String("address", a.cfg.AddressGRPC))
		if err := a.grpcServer.Serve(lis); err != nil {
			a.logger.Error("gRPC server stopped", sl.Err(err))
		}
	}()

	err = rabbitmq.ConsumerMessage(ctx, a.consumeCh, a.cfg.PaymentsQueue, a.cfg.ConsumerWorkers,
		rabbitmq.PaymentHandler(a.purchases), a.logger)
	if err != nil {
		a.shutdown()
		return err
	}
	a.logger.Info("payment consumer started", slog.String("queue", a.cfg.PaymentsQueue))

	a.startSweeper(ctx)
	a.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	<-ctx.Done()

	a.logger.Info("shutting down progression worker")
	a.shutdown()
	return nil
}

// startSweeper запускает периодическое снятие заморозок. shutdown дожидается его завершения.
func (a *App) startSweeper(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.sweeper.Run(ctx, a.cfg.Interval)
	}()
}

func (a *App) shutdown() {
	a.health.Shutdown()
	a.grpcServer.GracefulStop()
	// проход sweeper должен завершиться до закрытия базы
	a.wg.Wait()
	if err := a.consumeCh.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	closeResources(a.publishCh, a.conn, a.logger)
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
