// Package server exposes the optimization engine over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/akarpov/hr-breaker/internal/history"
	"github.com/akarpov/hr-breaker/internal/job"
	"github.com/akarpov/hr-breaker/internal/llm"
	"github.com/akarpov/hr-breaker/internal/metrics"
	"github.com/akarpov/hr-breaker/internal/optimizer"
	"github.com/akarpov/hr-breaker/internal/optimizer/filters"
)

const (
	readTimeout  = 30 * time.Second
	writeTimeout = 10 * time.Minute
	idleTimeout  = 2 * time.Minute
)

// Config carries the server's runtime settings.
type Config struct {
	Addr string
	// Optimizer holds the default run bounds; requests may override
	// iterations and parallelism per call.
	Optimizer optimizer.Config
	// Filters configures the built-in filter bank.
	Filters *filters.Config
	// MaxLogLength truncates prompt/response previews in debug logs.
	MaxLogLength int
}

// Server wires the engine, its collaborators and the API handlers together.
type Server struct {
	cfg     *Config
	logger  *zap.Logger
	gen     llm.Generator
	parser  *job.Parser
	fetcher *job.Fetcher
	store   *history.Store
	metrics *metrics.Metrics
}

// New builds a Server. gen may be nil when no provider is configured; the
// endpoints that need one respond 503 until it is.
func New(cfg *Config, gen llm.Generator, fetcher *job.Fetcher, store *history.Store, m *metrics.Metrics, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server configuration is required")
	}
	if store == nil {
		return nil, errors.New("history store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	if fetcher == nil {
		fetcher = job.NewFetcher("")
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		gen:     gen,
		fetcher: fetcher,
		store:   store,
		metrics: m,
	}
	if gen != nil {
		s.gen = llm.WithTiming(gen, m.ObserveGeneration)
		s.parser = job.NewParser(s.gen, logger)
	}
	return s, nil
}

// Handler returns the routed API surface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/optimize", s.handleOptimize)
	mux.HandleFunc("POST /api/job/parse", s.handleJobParse)
	mux.HandleFunc("POST /api/resume/extract-name", s.handleExtractName)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/history/download/{filename}", s.handleDownload)
	mux.HandleFunc("GET /api/settings", s.handleSettings)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())
	return mux
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	s.logger.Info("shutting down api server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}
	return nil
}

// newOrchestrator assembles a run-scoped orchestrator honoring per-request
// overrides. Construction revalidates the configuration, so a bad override
// is rejected before any generator call.
func (s *Server) newOrchestrator(maxIterations int, parallel bool) (*optimizer.Orchestrator, error) {
	cfg := s.cfg.Optimizer
	if maxIterations > 0 {
		cfg.MaxIterations = maxIterations
	}
	cfg.Parallel = parallel

	drafter := llm.NewDrafter(s.gen, s.cfg.MaxLogLength, s.logger)
	bank := filters.Bank(s.cfg.Filters, s.gen, s.logger)
	registry := optimizer.NewRegistry(bank, s.logger)

	return optimizer.New(drafter, registry, cfg, s.logger)
}
