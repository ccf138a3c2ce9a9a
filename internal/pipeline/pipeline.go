// Package pipeline orchestrates one fetch-normalize-upsert cycle. Each run is
// a single sequential unit of work: fetch the forecast, persist the raw batch
// to the interchange file, normalize it, and upsert it into the store inside
// one transaction. Runs are independent and self-contained; concurrent runs
// rely on the store's transaction isolation around (city, ts), not on any
// in-process coordination.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/berlinbi/weather-etl-service/internal/domain"
	"github.com/berlinbi/weather-etl-service/internal/observability"
)

// Source is the provenance tag written to every reading this pipeline ingests.
const Source = "open-meteo"

// ForecastFetcher issues the forecast request.
type ForecastFetcher interface {
	FetchForecast(ctx context.Context) (domain.Forecast, error)
}

// RawBatchStore is the durable interchange between the fetch and upsert
// stages.
type RawBatchStore interface {
	WriteBatch(batch domain.RawBatch) error
	ReadBatch() (domain.RawBatch, error)
}

// ReadingStore persists validated readings under upsert semantics.
type ReadingStore interface {
	UpsertReadings(ctx context.Context, readings []domain.Reading) (int, error)
	RefreshDailyAggregates(ctx context.Context) error
}

// Pipeline wires the three stages together.
type Pipeline struct {
	fetcher  ForecastFetcher
	rawStore RawBatchStore
	store    ReadingStore
	city     string
	location *time.Location
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool
}

// Result summarizes one complete run.
type Result struct {
	RunID    string        `json:"run_id"`
	Fetched  int           `json:"fetched"`
	Kept     int           `json:"kept"`
	Dropped  int           `json:"dropped"`
	Upserted int           `json:"upserted"`
	Duration time.Duration `json:"-"`
}

// UpsertResult summarizes the normalize-and-upsert half of a run.
type UpsertResult struct {
	Kept     int `json:"kept"`
	Dropped  int `json:"dropped"`
	Upserted int `json:"upserted"`
}

// New creates a Pipeline for the given city and timezone.
func New(f ForecastFetcher, raw RawBatchStore, store ReadingStore, city string, location *time.Location, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		fetcher:  f,
		rawStore: raw,
		store:    store,
		city:     city,
		location: location,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once at least one run has completed
// successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Run executes one full cycle. Fetch, schema, and store errors are fatal to
// the run and returned to the caller; dropped rows are the only tolerated
// partial failure and are reported in the Result.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	start := clock.Now()

	fetched, err := p.runFetch(ctx, logger)
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues("fetch_error").Inc()
		logger.Error("fetch stage failed", "error", err)
		return Result{RunID: runID}, err
	}

	upserted, err := p.runUpsert(ctx, logger)
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues(outcomeForUpsertError(err)).Inc()
		logger.Error("upsert stage failed", "error", err)
		return Result{RunID: runID, Fetched: fetched}, err
	}

	result := Result{
		RunID:    runID,
		Fetched:  fetched,
		Kept:     upserted.Kept,
		Dropped:  upserted.Dropped,
		Upserted: upserted.Upserted,
		Duration: clock.Since(start),
	}

	p.metrics.RunsTotal.WithLabelValues("success").Inc()
	p.metrics.RunDuration.Observe(result.Duration.Seconds())
	p.metrics.LastSuccess.Set(float64(clock.Now().Unix()))
	p.ready.Store(true)

	logger.Info("run complete",
		"fetched", result.Fetched,
		"kept", result.Kept,
		"dropped", result.Dropped,
		"upserted", result.Upserted,
		"duration", result.Duration,
	)
	return result, nil
}

// RunFetch performs only the fetch stage: one forecast request, flattened and
// written wholesale to the interchange file. Returns the raw row count.
func (p *Pipeline) RunFetch(ctx context.Context) (int, error) {
	return p.runFetch(ctx, p.logger)
}

func (p *Pipeline) runFetch(ctx context.Context, logger *slog.Logger) (int, error) {
	forecast, err := p.fetcher.FetchForecast(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch forecast: %w", err)
	}

	batch := domain.BatchFromForecast(forecast, p.city)
	if err := p.rawStore.WriteBatch(batch); err != nil {
		return 0, fmt.Errorf("write raw batch: %w", err)
	}

	p.metrics.RowsFetched.Add(float64(len(batch.Rows)))
	logger.Info("raw batch written", "rows", len(batch.Rows))
	return len(batch.Rows), nil
}

// RunUpsert performs only the normalize-and-upsert stage against the current
// interchange file, so normalization can be re-run without re-fetching.
func (p *Pipeline) RunUpsert(ctx context.Context) (UpsertResult, error) {
	return p.runUpsert(ctx, p.logger)
}

func (p *Pipeline) runUpsert(ctx context.Context, logger *slog.Logger) (UpsertResult, error) {
	batch, err := p.rawStore.ReadBatch()
	if err != nil {
		return UpsertResult{}, fmt.Errorf("read raw batch: %w", err)
	}

	normalized, err := domain.NormalizeBatch(batch, p.location, Source)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("normalize batch: %w", err)
	}

	p.metrics.RowsKept.Add(float64(len(normalized.Readings)))
	p.metrics.RowsDropped.Add(float64(normalized.Dropped))
	if normalized.Dropped > 0 {
		logger.Warn("rows dropped during validation",
			"dropped", normalized.Dropped,
			"kept", len(normalized.Readings),
		)
	}

	upserted, err := p.store.UpsertReadings(ctx, normalized.Readings)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("upsert batch: %w", err)
	}
	p.metrics.RowsUpserted.Add(float64(upserted))

	// The daily rollup is the store's own derived state; a refresh failure
	// does not invalidate the committed batch.
	if err := p.store.RefreshDailyAggregates(ctx); err != nil {
		logger.Warn("refresh daily aggregates failed", "error", err)
	}

	return UpsertResult{
		Kept:     len(normalized.Readings),
		Dropped:  normalized.Dropped,
		Upserted: upserted,
	}, nil
}

func outcomeForUpsertError(err error) string {
	var schemaErr *domain.SchemaError
	if errors.As(err, &schemaErr) {
		return "schema_error"
	}
	return "store_error"
}
