package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/berlinbi/weather-etl-service/internal/domain"
	"github.com/berlinbi/weather-etl-service/internal/pipeline"
)

// Runner triggers a synchronous pipeline run, the service form of the
// original's manual refresh action.
type Runner interface {
	Run(ctx context.Context) (pipeline.Result, error)
	CheckReadiness(ctx context.Context) error
}

// ReadingQuerier is the read-only query surface consumed by the presentation
// layer. Polling, caching, and display are entirely the caller's concern.
type ReadingQuerier interface {
	ReadingsByCity(ctx context.Context, city string) ([]domain.Reading, error)
	DailyAggregates(ctx context.Context, city string) ([]domain.DailyAggregate, error)
}

// Server exposes health, metrics, the query surface, and the refresh trigger.
type Server struct {
	httpServer  *http.Server
	runner      Runner
	querier     ReadingQuerier
	defaultCity string
	logger      *slog.Logger
}

// NewServer creates the HTTP server with all routes registered.
func NewServer(addr string, runner Runner, querier ReadingQuerier, defaultCity string, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 120 * time.Second, // a synchronous refresh includes a fetch
			IdleTimeout:  60 * time.Second,
		},
		runner:      runner,
		querier:     querier,
		defaultCity: defaultCity,
		logger:      logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/readings", s.handleReadings)
	mux.HandleFunc("GET /api/daily", s.handleDaily)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.runner.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	city := s.cityParam(r)
	readings, err := s.querier.ReadingsByCity(r.Context(), city)
	if err != nil {
		s.logger.Error("query readings failed", "city", city, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
		return
	}
	if readings == nil {
		readings = []domain.Reading{}
	}
	writeJSON(w, http.StatusOK, readings)
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	city := s.cityParam(r)
	aggregates, err := s.querier.DailyAggregates(r.Context(), city)
	if err != nil {
		s.logger.Error("query daily aggregates failed", "city", city, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
		return
	}
	if aggregates == nil {
		aggregates = []domain.DailyAggregate{}
	}
	writeJSON(w, http.StatusOK, aggregates)
}

// handleRefresh runs one full pipeline cycle synchronously and reports the
// row counts, or the failure, to the caller.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	result, err := s.runner.Run(r.Context())
	if err != nil {
		var schemaErr *domain.SchemaError
		status := http.StatusBadGateway
		if errors.As(err, &schemaErr) {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) cityParam(r *http.Request) string {
	if city := r.URL.Query().Get("city"); city != "" {
		return city
	}
	return s.defaultCity
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
