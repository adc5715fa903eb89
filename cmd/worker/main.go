package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bakery-storefront/config"
	"bakery-storefront/internal/jobs"
	"bakery-storefront/internal/logging"
	"bakery-storefront/internal/telemetry"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	serviceName := cfg.OTelServiceName + "-worker"
	logging.Init(serviceName, cfg.IsDevelopment())

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Options{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.OTelEndpoint,
	})
	if err != nil {
		logging.Logger().Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logging.Logger().Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	// Notification payloads carry everything the handlers need, so the
	// worker never opens a database connection.
	server := jobs.NewServer(cfg.RedisAddr(), cfg.WorkerConcurrency)
	if err := server.Start(); err != nil {
		logging.Logger().Fatal().Err(err).Msg("failed to start worker")
	}

	logging.Logger().Info().
		Str("redis", cfg.RedisAddr()).
		Int("concurrency", cfg.WorkerConcurrency).
		Msg("worker running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	server.Shutdown()
}
