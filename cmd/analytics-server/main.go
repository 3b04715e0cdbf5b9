// cmd/analytics-server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"paperless-analytics/internal/aggregate"
	"paperless-analytics/internal/common/clock"
	"paperless-analytics/internal/common/config"
	"paperless-analytics/internal/common/database"
	"paperless-analytics/internal/common/logger"
	"paperless-analytics/internal/query"
	"paperless-analytics/internal/scheduler"
	"paperless-analytics/internal/sequence"
	"paperless-analytics/internal/server"
	"paperless-analytics/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info", "console")
		fallback.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting analytics server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	location, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		zapLog.Fatal("invalid timezone", zap.String("timezone", cfg.App.Timezone), zap.Error(err))
	}

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Stores & core services ---
	events := store.NewEventStore(pg.DB)
	stats := store.NewStatsStore(pg.DB)
	ref := store.NewRefStore(pg.DB)

	clk := clock.System()

	generator := sequence.NewGenerator(
		redis.Client, clk, location,
		time.Duration(cfg.Statistics.CounterTTL)*time.Hour,
		log,
	)

	aggregator := aggregate.NewService(events, stats, ref, clk, location, aggregate.Config{
		BranchWorkers: cfg.Statistics.BranchWorkers,
		TopServices:   cfg.Statistics.TopServices,
	}, log)

	queries := query.NewService(stats, ref, clk, location, cfg.Statistics.BestBranchRows, log)

	// --- Scheduler ---
	sched, err := scheduler.New(cfg.Scheduler, location, aggregator, redis.Client, log)
	if err != nil {
		zapLog.Fatal("scheduler setup failed", zap.Error(err))
	}
	if cfg.Scheduler.Enabled {
		sched.Start()
		defer sched.Stop()
	} else {
		zapLog.Info("Scheduler disabled, jobs run only via admin trigger")
	}

	// --- HTTP Server ---
	srv := server.New(cfg.Server, queries, sched, generator, events, clk, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zapLog.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Analytics server stopped gracefully")
}
