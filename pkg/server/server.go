package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"aoss-hq/sentinel/pkg/config"
	"aoss-hq/sentinel/pkg/decision"
	"aoss-hq/sentinel/pkg/decision/recorder"
	"aoss-hq/sentinel/pkg/engine"
	"aoss-hq/sentinel/pkg/rules/parser"
	"aoss-hq/sentinel/pkg/rules/store"
	"aoss-hq/sentinel/pkg/telemetry/health"
	"aoss-hq/sentinel/pkg/telemetry/metrics"
)

// Deps are the components the server serves.
type Deps struct {
	Evaluator *engine.Evaluator
	Recorder  *recorder.Recorder
	Decisions decision.Storage
	Rules     store.Store
	Metrics   *metrics.Collector
	Health    *health.Checker
}

// Server is the sentinel HTTP API server.
type Server struct {
	config     *config.ServerConfig
	metricsCfg config.MetricsConfig
	deps       Deps
	parser     *parser.Parser
	logger     *slog.Logger

	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.Mutex
	isRunning    bool
}

// NewServer creates the API server.
func NewServer(cfg *config.ServerConfig, metricsCfg config.MetricsConfig, deps Deps) *Server {
	return &Server{
		config:       cfg,
		metricsCfg:   metricsCfg,
		deps:         deps,
		parser:       parser.NewParser(),
		logger:       slog.Default().With("component", "server"),
		shutdownChan: make(chan struct{}),
	}
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:           s.config.ListenAddress,
		Handler:        s.routes(),
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting API server", "address", s.config.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown",
			"timeout", s.config.ShutdownTimeout.String(),
		)

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			shutdownErr = fmt.Errorf("graceful shutdown failed: %w", err)
			return
		}
		s.logger.Info("server shut down")
	})

	return shutdownErr
}

// Stop requests shutdown from another goroutine.
func (s *Server) Stop() {
	select {
	case <-s.shutdownChan:
	default:
		close(s.shutdownChan)
	}
}

// routes builds the request mux.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/decisions", s.handleEvaluate)
	mux.HandleFunc("GET /v1/decisions", s.handleListDecisions)
	mux.HandleFunc("GET /v1/decisions/{request_id}", s.handleGetDecision)

	mux.HandleFunc("GET /v1/rules", s.handleListRules)
	mux.HandleFunc("POST /v1/rules", s.handleCreateRule)
	mux.HandleFunc("GET /v1/rules/{id}", s.handleGetRule)
	mux.HandleFunc("POST /v1/rules/{id}/supersede", s.handleSupersedeRule)
	mux.HandleFunc("POST /v1/rules/{id}/deactivate", s.handleDeactivateRule)

	if s.deps.Health != nil {
		mux.Handle("GET /healthz", s.deps.Health.Handler())
	}
	if s.metricsCfg.Enabled && s.deps.Metrics != nil {
		mux.Handle("GET "+s.metricsCfg.Path, s.deps.Metrics.Handler())
	}

	return s.logRequests(mux)
}

// logRequests is the access-log middleware.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Debug("request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
