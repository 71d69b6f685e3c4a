// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-sss.
//
// go-sss is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package rest

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jeremyhahn/go-sss/pkg/adapters/logger"
	"github.com/jeremyhahn/go-sss/pkg/crypto/aead"
	"github.com/jeremyhahn/go-sss/pkg/encoding"
	"github.com/jeremyhahn/go-sss/pkg/metrics"
	"github.com/jeremyhahn/go-sss/pkg/ratelimit"
	"github.com/jeremyhahn/go-sss/pkg/secretsharing"
	"github.com/jeremyhahn/go-sss/pkg/storage"
)

// Defaults applied by NewServer.
const (
	DefaultAddr         = "127.0.0.1:8443"
	DefaultThreshold    = 3
	DefaultShares       = 5
	DefaultFormat       = encoding.FormatHex
	DefaultMaxBodyBytes = 1 << 20
)

// Server represents the REST API server.
type Server struct {
	server    *http.Server
	handlers  *HandlerContext
	router    *chi.Mux
	tlsConfig *tls.Config
	limiter   *ratelimit.Limiter
	logger    logger.Logger

	metricsPath  string
	maxBodyBytes int64

	mu       sync.Mutex
	listener net.Listener
}

// Config holds the REST server configuration.
type Config struct {
	// Addr is the host:port to listen on (default: 127.0.0.1:8443)
	Addr string

	// Service runs split, combine, and verify (required)
	Service *secretsharing.Service

	// Cipher seals shares for requests that ask for encryption (optional)
	Cipher *aead.ShareCipher

	// Store persists share sets (optional, disables /v1/sets when nil)
	Store *storage.ShareStore

	// HealthChecker backs the probe endpoints (optional)
	HealthChecker HealthChecker

	// Limiter rate limits /v1 routes per client (optional)
	Limiter *ratelimit.Limiter

	// Threshold, Shares, and Format are the split defaults for requests that
	// omit them.
	Threshold int
	Shares    int
	Format    encoding.Format

	// MaxBodyBytes caps request bodies (default: 1 MiB, negative disables)
	MaxBodyBytes int64

	// MetricsPath serves Prometheus metrics when set (e.g. "/metrics")
	MetricsPath string

	// Version is the API version string
	Version string

	// TLSConfig is the TLS configuration for HTTPS (optional)
	TLSConfig *tls.Config

	// Logger is the logging adapter (optional, defaults to a no-op logger)
	Logger logger.Logger

	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes
	WriteTimeout time.Duration

	// IdleTimeout is the maximum amount of time to wait for the next request
	IdleTimeout time.Duration
}

// NewServer creates a new REST API server.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Service == nil {
		return nil, fmt.Errorf("secret sharing service is required")
	}

	// Set defaults
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Shares == 0 {
		cfg.Shares = DefaultShares
	}
	if cfg.Format == "" {
		cfg.Format = DefaultFormat
	}
	if !cfg.Format.IsText() {
		return nil, fmt.Errorf("default share format %q cannot be carried in JSON", cfg.Format)
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 15 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	handlers := &HandlerContext{
		Version:       cfg.Version,
		HealthChecker: cfg.HealthChecker,
		service:       cfg.Service,
		cipher:        cfg.Cipher,
		store:         cfg.Store,
		threshold:     cfg.Threshold,
		shares:        cfg.Shares,
		format:        cfg.Format,
	}

	server := &Server{
		handlers:     handlers,
		tlsConfig:    cfg.TLSConfig,
		limiter:      cfg.Limiter,
		logger:       log,
		metricsPath:  cfg.MetricsPath,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
	server.router = server.setupRouter()

	server.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		TLSConfig:         cfg.TLSConfig,
	}

	return server, nil
}

// routePattern reports the chi pattern that matched r.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

// setupRouter configures the chi router with all routes and middleware.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(s.RecoveryMiddleware())
	r.Use(s.CorrelationMiddleware()) // Add correlation ID before logging
	r.Use(s.LoggingMiddleware())
	r.Use(metrics.HTTPMiddleware(routePattern))

	r.Get("/health", s.handlers.HealthHandler)
	r.Head("/health", s.handlers.HealthHandler)

	// Kubernetes-style health probes
	r.Get("/health/live", s.handlers.LivenessHandler)
	r.Get("/health/ready", s.handlers.ReadinessHandler)
	r.Get("/health/startup", s.handlers.StartupHandler)
	r.Get("/ready", s.handlers.ReadinessHandler)

	if s.metricsPath != "" {
		r.Method(http.MethodGet, s.metricsPath, promhttp.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		if s.limiter != nil && s.limiter.IsEnabled() {
			r.Use(ratelimit.Middleware(s.limiter))
		}
		r.Use(BodyLimitMiddleware(s.maxBodyBytes))

		r.Post("/split", s.handlers.SplitHandler)
		r.Post("/combine", s.handlers.CombineHandler)
		r.Post("/verify", s.handlers.VerifyHandler)

		r.Get("/sets", s.handlers.ListSetsHandler)
		r.Get("/sets/{id}", s.handlers.GetSetHandler)
		r.Post("/sets/{id}/combine", s.handlers.CombineSetHandler)
		r.Delete("/sets/{id}", s.handlers.DeleteSetHandler)
	})

	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetHealthChecker sets the health checker used by the probe endpoints.
func (s *Server) SetHealthChecker(checker HealthChecker) {
	s.handlers.SetHealthChecker(checker)
}

// Addr returns the bound listener address once the server is started, or
// the configured address before that.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}

// Start starts the REST API server. It blocks until the server stops.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	if s.tlsConfig != nil {
		s.logger.Info("Starting HTTPS server", logger.String("addr", ln.Addr().String()))
		err = s.server.ServeTLS(ln, "", "")
	} else {
		s.logger.Info("Starting HTTP server", logger.String("addr", ln.Addr().String()))
		err = s.server.Serve(ln)
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Stop gracefully stops the REST API server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shutdown server", logger.Error(err))
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("Server stopped")
	return nil
}
