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

package server

import (
	"fmt"

	"github.com/jeremyhahn/go-sss/internal/config"
	"github.com/jeremyhahn/go-sss/pkg/adapters/logger"
)

// Reload attempts to reload the server configuration without restarting.
// Only the logging section takes effect; other changes require a restart
// and are reported as a warning.
func (s *Server) Reload(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("Reloading server configuration...")

	if err := s.reloadLogging(cfg); err != nil {
		return fmt.Errorf("failed to reload logging configuration: %w", err)
	}

	if cfg.Server != s.config.Server || cfg.Storage != s.config.Storage ||
		cfg.Encryption != s.config.Encryption || cfg.TLS != s.config.TLS {
		s.logger.Warn("Server, storage, encryption, and TLS changes take effect after restart")
	}

	logging := cfg.Logging
	next := *s.config
	next.Logging = logging
	s.config = &next

	s.logger.Info("Server configuration reloaded successfully")
	return nil
}

// reloadLogging swaps in a logger built from cfg when the logging section
// changed.
func (s *Server) reloadLogging(cfg *config.Config) error {
	if cfg.Logging == s.config.Logging {
		return nil
	}

	s.logger.Info("Updating logging configuration",
		logger.String("old_level", s.config.Logging.Level),
		logger.String("new_level", cfg.Logging.Level),
		logger.String("old_format", s.config.Logging.Format),
		logger.String("new_format", cfg.Logging.Format))

	newLogger, err := setupLogger(cfg.Logging, s.out)
	if err != nil {
		return err
	}
	s.logger.Swap(newLogger)

	s.logger.Info("Logging configuration updated",
		logger.String("level", cfg.Logging.Level),
		logger.String("format", cfg.Logging.Format))
	return nil
}
