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

// Package server wires configuration into the components of the sss HTTP
// service and manages its lifecycle.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"
	"syscall"
	"time"

	"github.com/jeremyhahn/go-sss/internal/config"
	"github.com/jeremyhahn/go-sss/internal/rest"
	"github.com/jeremyhahn/go-sss/pkg/adapters/logger"
	"github.com/jeremyhahn/go-sss/pkg/encoding"
	"github.com/jeremyhahn/go-sss/pkg/health"
	"github.com/jeremyhahn/go-sss/pkg/metrics"
	"github.com/jeremyhahn/go-sss/pkg/ratelimit"
)

// DefaultShutdownTimeout bounds Shutdown when the config leaves it unset.
const DefaultShutdownTimeout = 30 * time.Second

// Server represents the sss HTTP service.
type Server struct {
	config *config.Config
	mu     sync.RWMutex
	logger *swapLogger
	out    io.Writer

	components    *Components
	restServer    *rest.Server
	limiter       *ratelimit.Limiter
	healthChecker *health.Checker

	// Metrics
	metricsCollector *metrics.Collector

	// Lifecycle
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	serveErr     error
}

// New creates a server from cfg. Logs go to logOutput, or stdout when nil.
func New(cfg *config.Config, logOutput io.Writer) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logOutput == nil {
		logOutput = os.Stdout
	}

	base, err := setupLogger(cfg.Logging, logOutput)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := newSwapLogger(base)

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		config:     cfg,
		logger:     log,
		out:        logOutput,
		ctx:        ctx,
		cancel:     cancel,
		shutdownCh: make(chan struct{}),
	}

	s.components, err = Build(cfg, metrics.SourceREST, log)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}

	s.initializeHealth()

	if err := s.initializeREST(); err != nil {
		cancel()
		_ = s.components.Close()
		return nil, fmt.Errorf("failed to initialize REST server: %w", err)
	}

	return s, nil
}

// BuildVersion retrieves the version from build information
func BuildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}

	// Try to get version from VCS (git tag)
	for _, setting := range info.Settings {
		if setting.Key == "vcs.version" {
			if setting.Value != "" && setting.Value != "devel" {
				return setting.Value
			}
		}
		if setting.Key == "vcs.revision" {
			// Get short commit hash (first 7 chars)
			if len(setting.Value) >= 7 {
				return setting.Value[:7]
			}
			return setting.Value
		}
	}

	// Try module version
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	return "dev"
}

// initializeHealth registers the random source, self-test, and storage
// checks.
func (s *Server) initializeHealth() {
	s.healthChecker = health.NewChecker()
	if !s.config.Health.Enabled {
		return
	}
	if s.config.Health.CheckTimeout > 0 {
		s.healthChecker.SetTimeout(s.config.Health.CheckTimeout)
	}
	s.healthChecker.SetCacheTTL(s.config.Health.CacheTTL)

	s.healthChecker.RegisterCheck("random", health.RandomCheck(s.components.Random))
	s.healthChecker.RegisterCheck("selftest", health.SelfTestCheck())
	if s.components.Backend != nil {
		s.healthChecker.RegisterCheck("storage", health.StorageCheck(s.components.Backend))
	}

	s.logger.Info("Health checker initialized", logger.Int("checks", len(s.healthChecker.GetAllChecks())))
}

func (s *Server) initializeREST() error {
	cfg := s.config

	format, err := encoding.ParseFormat(cfg.Sharing.Format)
	if err != nil {
		return err
	}
	if !format.IsText() {
		// Shares travel in JSON strings.
		format = encoding.FormatHex
	}

	restConfig := &rest.Config{
		Addr:         cfg.Server.Addr(),
		Service:      s.components.Service,
		Cipher:       s.components.Cipher,
		Store:        s.components.Store,
		Threshold:    cfg.Sharing.Threshold,
		Shares:       cfg.Sharing.Shares,
		Format:       format,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Version:      BuildVersion(),
		Logger:       s.logger,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	if cfg.Health.Enabled {
		restConfig.HealthChecker = s.healthChecker
	}
	if cfg.Metrics.Enabled {
		restConfig.MetricsPath = cfg.Metrics.Path
	}
	if cfg.RateLimit.Enabled {
		s.limiter = ratelimit.New(cfg.RateLimit.Limiter())
		restConfig.Limiter = s.limiter
	}
	if cfg.TLS.Enabled {
		tlsConfig, err := cfg.TLS.LoadTLSConfig()
		if err != nil {
			return err
		}
		restConfig.TLSConfig = tlsConfig
	}

	s.restServer, err = rest.NewServer(restConfig)
	return err
}

// Start starts the HTTP service and returns once it is listening in the
// background.
func (s *Server) Start() error {
	s.logger.Info("Starting sss server...")

	if s.config.Metrics.Enabled {
		s.initializeMetrics()
	} else {
		metrics.Disable()
	}

	s.wg.Add(1)
	go s.startREST()

	if s.healthChecker != nil {
		s.healthChecker.MarkStarted()
		s.logger.Info("Health checker marked as started")
	}

	s.logger.Info("Server started", logger.String("addr", s.config.Server.Addr()))
	return nil
}

// startREST serves until the server stops. A serve failure cancels the
// server context.
func (s *Server) startREST() {
	defer s.wg.Done()

	if err := s.restServer.Start(); err != nil {
		s.logger.Error("REST server error", logger.Error(err))
		s.mu.Lock()
		s.serveErr = err
		s.mu.Unlock()
		s.cancel()
	}
}

// initializeMetrics enables metrics and starts the collector with the
// storage and cipher probes.
func (s *Server) initializeMetrics() {
	metrics.Enable()

	s.metricsCollector = metrics.NewCollector(s.config.Metrics.Interval)
	if store := s.components.Store; store != nil {
		backend := s.config.Storage.Backend
		s.metricsCollector.Register("storage", func(context.Context) error {
			ids, err := store.List()
			if err != nil {
				return err
			}
			metrics.SetStoredShareSets(backend, len(ids))
			return nil
		})
	}
	if cipher := s.components.Cipher; cipher.Enabled() {
		s.metricsCollector.Register("cipher", func(context.Context) error {
			usage := cipher.Usage()
			if usage == nil {
				return nil
			}
			metrics.SetCipherUsage(cipher.Algorithm(), usage.Encrypted(), usage.Remaining())
			return nil
		})
	}
	s.metricsCollector.Start(s.ctx)

	s.logger.Info("Metrics initialized", logger.String("path", s.config.Metrics.Path))
}

// Run starts the server, blocks until ctx is done or serving fails, and
// shuts down. It returns the serve error, if any.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-s.ctx.Done():
	}

	if err := s.Shutdown(); err != nil {
		return err
	}
	return s.Err()
}

// Err returns the error that stopped the REST server, if any.
func (s *Server) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.serveErr
}

// Shutdown gracefully shuts down the server. It is safe to call more than
// once.
func (s *Server) Shutdown() error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.shutdown()
	})
	return err
}

func (s *Server) shutdown() error {
	s.logger.Info("Shutting down server...")

	if s.healthChecker != nil {
		s.healthChecker.MarkNotStarted()
	}

	// Stop metrics collector if running
	if s.metricsCollector != nil {
		s.metricsCollector.Stop()
	}

	// Cancel context to signal all goroutines
	s.cancel()

	timeout := s.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var stopErr error
	if s.restServer != nil {
		if err := s.restServer.Stop(shutdownCtx); err != nil {
			s.logger.Error("Error shutting down REST server", logger.Error(err))
			stopErr = err
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("All servers stopped")
	case <-shutdownCtx.Done():
		s.logger.Warn("Shutdown timeout exceeded, forcing stop")
	}

	if s.limiter != nil {
		s.limiter.Stop()
		stats := s.limiter.Stats()
		s.logger.Info("Rate limiter stopped",
			logger.Int("active_clients", stats.ActiveClients),
			logger.Int64("rejected", int64(stats.Rejected)))
	}

	if err := s.components.Close(); err != nil {
		s.logger.Error("Error closing components", logger.Error(err))
		if stopErr == nil {
			stopErr = err
		}
	}

	close(s.shutdownCh)
	s.logger.Info("Server shutdown complete")

	return stopErr
}

// WaitForShutdown blocks until the server is shut down
func (s *Server) WaitForShutdown() {
	<-s.shutdownCh
}

// SetupSignalHandler returns a context canceled on SIGINT or SIGTERM, and a
// channel that receives SIGHUP for configuration reloads.
func SetupSignalHandler() (context.Context, <-chan os.Signal) {
	ctx, cancel := context.WithCancel(context.Background())

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)

	reloadCh := make(chan os.Signal, 1)
	signal.Notify(reloadCh, syscall.SIGHUP)

	go func() {
		<-signalCh
		cancel()
	}()

	return ctx, reloadCh
}

// RESTServer returns the REST server instance
func (s *Server) RESTServer() *rest.Server {
	return s.restServer
}

// HealthChecker returns the health checker
func (s *Server) HealthChecker() *health.Checker {
	return s.healthChecker
}

// Components returns the components built from the configuration
func (s *Server) Components() *Components {
	return s.components
}
