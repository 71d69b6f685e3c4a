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
	"context"
	"io"
	"sync/atomic"

	"github.com/jeremyhahn/go-sss/internal/config"
	"github.com/jeremyhahn/go-sss/pkg/adapters/logger"
)

// setupLogger configures the logger based on config
func setupLogger(cfg config.LoggingConfig, out io.Writer) (logger.Logger, error) {
	l, err := logger.New(cfg.Level, cfg.Format, out)
	if err != nil {
		return nil, err
	}
	return l, nil
}

type loggerHolder struct {
	logger.Logger
}

// swapLogger is a Logger whose target can be replaced while in use, so a
// reload reaches the service and the HTTP handlers already holding it.
type swapLogger struct {
	v atomic.Value // loggerHolder
}

func newSwapLogger(l logger.Logger) *swapLogger {
	s := &swapLogger{}
	s.Swap(l)
	return s
}

// Swap replaces the target logger.
func (s *swapLogger) Swap(l logger.Logger) {
	s.v.Store(loggerHolder{l})
}

func (s *swapLogger) current() logger.Logger {
	return s.v.Load().(loggerHolder).Logger
}

func (s *swapLogger) Debug(msg string, fields ...logger.Field) { s.current().Debug(msg, fields...) }
func (s *swapLogger) Info(msg string, fields ...logger.Field)  { s.current().Info(msg, fields...) }
func (s *swapLogger) Warn(msg string, fields ...logger.Field)  { s.current().Warn(msg, fields...) }
func (s *swapLogger) Error(msg string, fields ...logger.Field) { s.current().Error(msg, fields...) }
func (s *swapLogger) Fatal(msg string, fields ...logger.Field) { s.current().Fatal(msg, fields...) }

// With returns a child of the current target. The child does not follow
// later swaps.
func (s *swapLogger) With(fields ...logger.Field) logger.Logger {
	return s.current().With(fields...)
}

func (s *swapLogger) WithError(err error) logger.Logger {
	return s.current().WithError(err)
}

func (s *swapLogger) DebugContext(ctx context.Context, msg string, fields ...logger.Field) {
	if cl, ok := s.current().(logger.ContextLogger); ok {
		cl.DebugContext(ctx, msg, fields...)
		return
	}
	s.current().Debug(msg, fields...)
}

func (s *swapLogger) InfoContext(ctx context.Context, msg string, fields ...logger.Field) {
	if cl, ok := s.current().(logger.ContextLogger); ok {
		cl.InfoContext(ctx, msg, fields...)
		return
	}
	s.current().Info(msg, fields...)
}

func (s *swapLogger) WarnContext(ctx context.Context, msg string, fields ...logger.Field) {
	if cl, ok := s.current().(logger.ContextLogger); ok {
		cl.WarnContext(ctx, msg, fields...)
		return
	}
	s.current().Warn(msg, fields...)
}

func (s *swapLogger) ErrorContext(ctx context.Context, msg string, fields ...logger.Field) {
	if cl, ok := s.current().(logger.ContextLogger); ok {
		cl.ErrorContext(ctx, msg, fields...)
		return
	}
	s.current().Error(msg, fields...)
}
