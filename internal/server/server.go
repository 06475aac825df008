// Package server exposes the Resonate network surface: the /ws session
// endpoint plus the operational /healthz, /readyz, and /metrics routes.
//
// Each accepted WebSocket connection gets its own [session.Processor]; the
// server owns nothing session-scoped beyond the connection handler. Run
// blocks until the context is cancelled and then drains the listener
// gracefully.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/ajaytemal-source/Resonate/internal/archive"
	"github.com/ajaytemal-source/Resonate/internal/config"
	"github.com/ajaytemal-source/Resonate/internal/health"
	"github.com/ajaytemal-source/Resonate/internal/observe"
	"github.com/ajaytemal-source/Resonate/pkg/provider/feedback"
	"github.com/ajaytemal-source/Resonate/pkg/provider/tone"
	"github.com/ajaytemal-source/Resonate/pkg/provider/transcribe"
)

// shutdownTimeout caps how long Run waits for in-flight connections after
// the context is cancelled.
const shutdownTimeout = 15 * time.Second

// Providers holds one interface value per provider slot. Nil means the
// provider is not configured; the matching pipeline then runs as a no-op.
// Populated by main.go via the config registry.
type Providers struct {
	Transcribe transcribe.Provider
	Tone       tone.Provider
	Feedback   feedback.Provider
}

// Server accepts WebSocket sessions and serves the operational endpoints.
type Server struct {
	cfg       *config.Config
	providers Providers

	store   *archive.FileStore
	metrics *observe.Metrics
	log     *slog.Logger
	checks  []health.Checker
}

// Option is a functional option for New. Use these to wire optional
// collaborators and test doubles.
type Option func(*Server)

// WithArchive persists finished sessions to the given store.
func WithArchive(store *archive.FileStore) Option {
	return func(s *Server) { s.store = store }
}

// WithMetrics overrides the process-wide metrics instance.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithReadyCheck adds a readiness checker evaluated on every /readyz request.
func WithReadyCheck(c health.Checker) Option {
	return func(s *Server) { s.checks = append(s.checks, c) }
}

// New creates a Server from the given configuration and provider set.
func New(cfg *config.Config, providers Providers, opts ...Option) *Server {
	s := &Server{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// Handler builds the full route tree. Exposed separately from Run so tests
// can mount it on an httptest server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.Handle("/metrics", promhttp.Handler())
	health.New(s.checks...).Register(mux)
	return observe.Middleware(s.metrics)(mux)
}

// Run serves until ctx is cancelled, then shuts the listener down with a
// bounded grace period. Cancellation is the normal exit: Run returns nil in
// that case and a non-nil error only when serving itself failed.
func (s *Server) Run(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if tls := s.cfg.Server.TLS; tls != nil {
			s.log.Info("listening", "addr", httpSrv.Addr, "tls", true)
			err = httpSrv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			s.log.Info("listening", "addr", httpSrv.Addr, "tls", false)
			err = httpSrv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: serve: %w", err)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
