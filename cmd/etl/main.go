package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/berlinbi/weather-etl-service/internal/adapter/csvfile"
	httpadapter "github.com/berlinbi/weather-etl-service/internal/adapter/http"
	"github.com/berlinbi/weather-etl-service/internal/adapter/openmeteo"
	"github.com/berlinbi/weather-etl-service/internal/adapter/postgres"
	"github.com/berlinbi/weather-etl-service/internal/config"
	"github.com/berlinbi/weather-etl-service/internal/observability"
	"github.com/berlinbi/weather-etl-service/internal/pipeline"
	"github.com/berlinbi/weather-etl-service/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := postgres.Open(ctx, cfg.PostgresDSN(), logger)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	fetcher := openmeteo.NewClient(cfg, logger)
	rawStore := csvfile.NewStore(cfg.RawCSVPath)
	p := pipeline.New(fetcher, rawStore, store, cfg.City, cfg.Location, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, store, cfg.City, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// First run at startup so readiness and the dashboard have data without
	// waiting for the first tick.
	go func() {
		runCtx, cancel := context.WithTimeout(ctx, runTimeout(cfg))
		defer cancel()
		if _, err := p.Run(runCtx); err != nil {
			logger.Error("initial run failed", "error", err)
		}
	}()

	var sched *scheduler.Scheduler
	if cfg.ScheduleEnabled {
		sched = scheduler.New(p, cfg.FetchInterval, runTimeout(cfg), logger)
		if err := sched.Start(); err != nil {
			logger.Error("failed to start scheduler", "error", err)
			os.Exit(1)
		}
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if sched != nil {
		sched.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

// runTimeout bounds a whole pipeline run: the fetch plus a generous margin
// for normalization and the transactional write.
func runTimeout(cfg *config.Config) time.Duration {
	return cfg.FetchTimeout + time.Minute
}
