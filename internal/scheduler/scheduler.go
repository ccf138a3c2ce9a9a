// Package scheduler triggers pipeline runs on a fixed interval, the service
// equivalent of the dashboard's periodic refresh. Each tick is an independent
// run; overlapping manual triggers are safe because batch upserts rely on the
// store's transaction isolation.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/berlinbi/weather-etl-service/internal/pipeline"
)

// Runner executes one pipeline cycle.
type Runner interface {
	Run(ctx context.Context) (pipeline.Result, error)
}

// Scheduler periodically runs the ETL pipeline.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a Scheduler. Each run is bounded by timeout so a hung fetch
// cannot stall the schedule indefinitely.
func New(runner Runner, interval, timeout time.Duration, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		runner:    runner,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
	}
}

// Start schedules the periodic job and starts the scheduler asynchronously.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if _, err := s.runner.Run(ctx); err != nil {
			s.logger.Error("scheduled run failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "interval", s.interval)
	return nil
}

// Stop stops the scheduler and cancels future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
