package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"mercator-hq/rhythm/pkg/config"
	"mercator-hq/rhythm/pkg/ratelimit"
	"mercator-hq/rhythm/pkg/telemetry/health"
	"mercator-hq/rhythm/pkg/telemetry/logging"
	"mercator-hq/rhythm/pkg/telemetry/metrics"
	"mercator-hq/rhythm/pkg/telemetry/tracing"
	"mercator-hq/rhythm/pkg/vipstore"
)

// Deps are the components the server routes to. Limiter and Logger are
// required; the rest are optional.
type Deps struct {
	Limiter *ratelimit.RateLimiter[string]
	Store   vipstore.Store
	Logger  *logging.Logger
	Metrics *metrics.Collector
	Tracer  *tracing.Tracer
	Health  *health.Checker

	// Telemetry supplies the health and metrics paths.
	Telemetry config.TelemetryConfig

	// Version, Commit and BuildTime are served at /version.
	Version   string
	Commit    string
	BuildTime string
}

// Server is the HTTP host for a rate limiter.
type Server struct {
	config     *config.ServerConfig
	deps       Deps
	handler    http.Handler
	httpServer *http.Server

	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// New creates a server. The handler is built immediately so it can be used
// with httptest without starting a listener.
func New(cfg *config.ServerConfig, deps Deps) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server config is nil")
	}
	if deps.Limiter == nil {
		return nil, errors.New("limiter is required")
	}
	if deps.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if deps.Health == nil {
		deps.Health = health.New(deps.Telemetry.Health.CheckTimeout)
	}
	if deps.Tracer == nil {
		tracer, err := tracing.New(&config.TracingConfig{})
		if err != nil {
			return nil, err
		}
		deps.Tracer = tracer
	}

	s := &Server{config: cfg, deps: deps}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return errors.New("server is already running")
	}
	s.httpServer = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(s.deps.Logger.Slog().Handler(), slog.LevelError),
	}
	s.isRunning = true
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.deps.Logger.Info("starting http server", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.deps.Logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err, ok := <-errCh:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		if !ok {
			return nil
		}
		return err
	}
}

// Shutdown marks the server as draining and waits for in-flight requests
// up to ShutdownTimeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		running, srv := s.isRunning, s.httpServer
		s.mu.RUnlock()
		if !running {
			return
		}

		s.deps.Health.SetDraining(true)
		s.deps.Logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout)

		shutdownCtx := ctx
		if s.config.ShutdownTimeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
			defer cancel()
		}

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.deps.Logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.deps.Logger.Info("http server stopped")
	})

	return shutdownErr
}

// IsRunning returns true while the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}
