package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/dhima/webhook-delivery-engine/internal/delivery"
	"github.com/dhima/webhook-delivery-engine/internal/engine"
	"github.com/dhima/webhook-delivery-engine/internal/logging"
	"github.com/dhima/webhook-delivery-engine/internal/registry"
	"github.com/dhima/webhook-delivery-engine/internal/storage"
	"github.com/dhima/webhook-delivery-engine/pkg/clock"
	"github.com/dhima/webhook-delivery-engine/pkg/config"
	"github.com/dhima/webhook-delivery-engine/platform/events"
)

func main() {
	cfg := config.FromEnv()

	logger, err := logging.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	db, err := storage.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	store := storage.NewMySQLClient(db)
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal("failed to ensure schema", zap.Error(err))
	}

	deliverer := delivery.NewDeliverer(&http.Client{}, cfg.HTTPPoolSize, logger)

	var publisher engine.OutcomePublisher
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		kafkaPublisher := events.NewPublisher(brokers, cfg.KafkaTopic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		logger.Info("kafka publishing enabled",
			zap.Strings("brokers", brokers),
			zap.String("topic", cfg.KafkaTopic),
		)
	}

	eng := engine.New(
		engine.Config{FetchInterval: cfg.FetchInterval},
		store,
		store,
		deliverer,
		registry.SnapshotProvider(store.LoadRegistry),
		publisher,
		clock.RealClock{},
		logger,
	)

	logger.Info("starting delivery engine",
		zap.Int("http_pool_size", cfg.HTTPPoolSize),
		zap.Duration("fetch_interval", cfg.FetchInterval),
	)

	if err := eng.Run(ctx); err != nil && err != context.Canceled {
		logger.Fatal("delivery engine stopped", zap.Error(err))
	}
	logger.Info("delivery engine stopped")
}
