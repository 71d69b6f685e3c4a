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

package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jeremyhahn/go-sss/pkg/correlation"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Redacted replaces the value of sensitive keys in every record.
const Redacted = "[REDACTED]"

// sensitiveKeys are attribute keys whose values never reach the output.
var sensitiveKeys = map[string]struct{}{
	"secret":     {},
	"share_data": {},
	"key":        {},
	"passphrase": {},
	"password":   {},
}

// SlogAdapter implements ContextLogger on top of log/slog.
type SlogAdapter struct {
	logger *slog.Logger
	exit   func(int)
}

var _ ContextLogger = (*SlogAdapter)(nil)

// SlogConfig configures the slog adapter. Logger takes precedence over
// Handler, which takes precedence over Format and Output.
type SlogConfig struct {
	Logger  *slog.Logger
	Handler slog.Handler

	// Level is the minimum level written by the built handler.
	Level Level

	// Format is FormatText (default) or FormatJSON.
	Format string

	// Output defaults to os.Stderr.
	Output io.Writer

	AddSource bool
}

func NewSlogAdapter(config *SlogConfig) *SlogAdapter {
	var cfg SlogConfig
	if config != nil {
		cfg = *config
	}

	l := cfg.Logger
	switch {
	case l != nil:
	case cfg.Handler != nil:
		l = slog.New(cfg.Handler)
	default:
		l = slog.New(buildHandler(&cfg))
	}
	return &SlogAdapter{logger: l, exit: os.Exit}
}

// New builds an adapter from configuration strings as they appear in the
// YAML file or on the command line.
func New(level, format string, out io.Writer) (*SlogAdapter, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	format = strings.ToLower(format)
	if format != "" && format != FormatText && format != FormatJSON {
		return nil, fmt.Errorf("logger: unknown format %q", format)
	}
	return NewSlogAdapter(&SlogConfig{Level: lvl, Format: format, Output: out}), nil
}

func buildHandler(cfg *SlogConfig) slog.Handler {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:       cfg.Level.slogLevel(),
		AddSource:   cfg.AddSource,
		ReplaceAttr: redact,
	}
	if cfg.Format == FormatJSON {
		return slog.NewJSONHandler(out, opts)
	}
	return slog.NewTextHandler(out, opts)
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if _, ok := sensitiveKeys[a.Key]; ok {
		return slog.String(a.Key, Redacted)
	}
	return a
}

func (l *SlogAdapter) Debug(msg string, fields ...Field) {
	l.emit(context.Background(), slog.LevelDebug, msg, fields)
}

func (l *SlogAdapter) Info(msg string, fields ...Field) {
	l.emit(context.Background(), slog.LevelInfo, msg, fields)
}

func (l *SlogAdapter) Warn(msg string, fields ...Field) {
	l.emit(context.Background(), slog.LevelWarn, msg, fields)
}

func (l *SlogAdapter) Error(msg string, fields ...Field) {
	l.emit(context.Background(), slog.LevelError, msg, fields)
}

// Fatal logs at error level and exits with status 1.
func (l *SlogAdapter) Fatal(msg string, fields ...Field) {
	l.emit(context.Background(), slog.LevelError, msg, fields)
	l.exit(1)
}

// The Context variants add the correlation_id carried by ctx.

func (l *SlogAdapter) DebugContext(ctx context.Context, msg string, fields ...Field) {
	l.emitContext(ctx, slog.LevelDebug, msg, fields)
}

func (l *SlogAdapter) InfoContext(ctx context.Context, msg string, fields ...Field) {
	l.emitContext(ctx, slog.LevelInfo, msg, fields)
}

func (l *SlogAdapter) WarnContext(ctx context.Context, msg string, fields ...Field) {
	l.emitContext(ctx, slog.LevelWarn, msg, fields)
}

func (l *SlogAdapter) ErrorContext(ctx context.Context, msg string, fields ...Field) {
	l.emitContext(ctx, slog.LevelError, msg, fields)
}

// With returns a child carrying fields on every record.
func (l *SlogAdapter) With(fields ...Field) Logger {
	child := l.logger
	if len(fields) > 0 {
		args := make([]any, len(fields))
		for i, f := range fields {
			args[i] = f.attr()
		}
		child = child.With(args...)
	}
	return &SlogAdapter{logger: child, exit: l.exit}
}

func (l *SlogAdapter) WithError(err error) Logger {
	return l.With(Error(err))
}

func (l *SlogAdapter) emitContext(ctx context.Context, level slog.Level, msg string, fields []Field) {
	if ctx == nil {
		ctx = context.Background()
	}
	if id := correlation.GetCorrelationID(ctx); id != "" {
		fields = append(fields, String("correlation_id", id))
	}
	l.emit(ctx, level, msg, fields)
}

func (l *SlogAdapter) emit(ctx context.Context, level slog.Level, msg string, fields []Field) {
	if !l.logger.Enabled(ctx, level) {
		return
	}
	attrs := make([]slog.Attr, len(fields))
	for i, f := range fields {
		attrs[i] = f.attr()
	}
	l.logger.LogAttrs(ctx, level, msg, attrs...)
}

// attr converts a field, rendering errors by their message.
func (f Field) attr() slog.Attr {
	switch v := f.Value.(type) {
	case error:
		if v == nil {
			return slog.String(f.Key, "<nil>")
		}
		return slog.String(f.Key, v.Error())
	case fmt.Stringer:
		return slog.String(f.Key, v.String())
	default:
		return slog.Any(f.Key, v)
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError, LevelFatal:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
