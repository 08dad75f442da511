package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/producehub/producehub-backend/internal/ledger"
	"github.com/producehub/producehub-backend/internal/notifications"
	"github.com/producehub/producehub-backend/pkg/config"
	"github.com/producehub/producehub-backend/pkg/db"
	"github.com/producehub/producehub-backend/pkg/logger"
	"github.com/producehub/producehub-backend/pkg/metrics"
	"github.com/producehub/producehub-backend/pkg/migrate"
	"github.com/producehub/producehub-backend/pkg/outbox"
	"github.com/producehub/producehub-backend/pkg/outbox/idempotency"
	"github.com/producehub/producehub-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "outbox-dispatcher"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "outbox-dispatcher",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	handlers, err := buildRegistry(dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build outbox handlers", err)
		os.Exit(1)
	}

	guard, err := idempotency.NewGuard(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency guard", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		Repository: outbox.NewRepository(dbClient.DB()),
		Registry:   handlers,
		Guard:      guard,
		Metrics:    metrics.NewOutboxMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox dispatcher", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "outbox-dispatcher",
	})
	logg.Info(ctx, "starting outbox dispatcher")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "outbox dispatcher stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "outbox dispatcher shutting down gracefully")
}

func buildRegistry(dbClient *db.Client) (*outbox.HandlerRegistry, error) {
	gdb := dbClient.DB()

	notificationService, err := notifications.NewService(notifications.NewRepository(gdb), nil)
	if err != nil {
		return nil, err
	}
	notificationHandler, err := notifications.NewEventHandler(notificationService)
	if err != nil {
		return nil, err
	}

	ledgerRepo := ledger.NewRepository(gdb)
	ledgerService, err := ledger.NewService(ledgerRepo, nil)
	if err != nil {
		return nil, err
	}
	ledgerHandler, err := ledger.NewOrderHandler(ledgerService, ledgerRepo)
	if err != nil {
		return nil, err
	}

	registry := outbox.NewHandlerRegistry()
	registry.Register(notificationHandler, notificationHandler.EventTypes()...)
	registry.Register(ledgerHandler, ledgerHandler.EventTypes()...)
	return registry, nil
}
