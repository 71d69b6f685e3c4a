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

// Package logger defines the structured logging interface used by the
// go-sss service layer, CLI, and HTTP server, with a log/slog backed
// implementation.
//
// Secret material must never be passed as a field. The share helpers below
// log only indices, counts, and lengths.
package logger

import (
	"context"
	"fmt"
	"strings"
)

// Level represents the log level
type Level int

const (
	// LevelDebug is for detailed debugging information
	LevelDebug Level = iota
	// LevelInfo is for general informational messages
	LevelInfo
	// LevelWarn is for warning messages
	LevelWarn
	// LevelError is for error messages
	LevelError
	// LevelFatal is for fatal error messages (program will exit)
	LevelFatal
)

// String returns the string representation of the log level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a configuration value such as "debug" or "WARN" into
// a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	default:
		return LevelInfo, fmt.Errorf("logger: unknown level %q", s)
	}
}

// Logger is the interface for logging adapters
type Logger interface {
	// Debug logs a debug message with optional fields
	Debug(msg string, fields ...Field)

	// Info logs an informational message with optional fields
	Info(msg string, fields ...Field)

	// Warn logs a warning message with optional fields
	Warn(msg string, fields ...Field)

	// Error logs an error message with optional fields
	Error(msg string, fields ...Field)

	// Fatal logs a fatal error message and exits the program
	Fatal(msg string, fields ...Field)

	// With creates a child logger with the given fields
	With(fields ...Field) Logger

	// WithError creates a child logger with an error field
	WithError(err error) Logger
}

// ContextLogger is a Logger that also tags records with the correlation ID
// carried in a context.
type ContextLogger interface {
	Logger
	DebugContext(ctx context.Context, msg string, fields ...Field)
	InfoContext(ctx context.Context, msg string, fields ...Field)
	WarnContext(ctx context.Context, msg string, fields ...Field)
	ErrorContext(ctx context.Context, msg string, fields ...Field)
}

// Field represents a structured logging field
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 creates an int64 field
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Float64 creates a float64 field
func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a bool field
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Error creates an error field
func Error(err error) Field {
	return Field{Key: "error", Value: err}
}

// Any creates a field with any value
func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Ints creates an int slice field
func Ints(key string, values []int) Field {
	return Field{Key: key, Value: values}
}

// Threshold records the number of shares required to reconstruct.
func Threshold(t int) Field {
	return Int("threshold", t)
}

// Shares records a share count.
func Shares(n int) Field {
	return Int("shares", n)
}

// SecretLength records the length of a secret in bytes, never its content.
func SecretLength(n int) Field {
	return Int("secret_len", n)
}

// ShareIndices records the x-coordinates of a share set.
func ShareIndices(indices []byte) Field {
	out := make([]int, len(indices))
	for i, x := range indices {
		out[i] = int(x)
	}
	return Ints("share_indices", out)
}

// Format records a share encoding format.
func Format(name string) Field {
	return String("format", name)
}

// Operation records the operation name.
func Operation(name string) Field {
	return String("operation", name)
}

// NoOpLogger discards everything. Fatal does not exit.
type NoOpLogger struct{}

// NewNoOpLogger creates a logger that discards all records
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (NoOpLogger) Debug(string, ...Field)                         {}
func (NoOpLogger) Info(string, ...Field)                          {}
func (NoOpLogger) Warn(string, ...Field)                          {}
func (NoOpLogger) Error(string, ...Field)                         {}
func (NoOpLogger) Fatal(string, ...Field)                         {}
func (n NoOpLogger) With(...Field) Logger                         { return n }
func (n NoOpLogger) WithError(error) Logger                       { return n }
func (NoOpLogger) DebugContext(context.Context, string, ...Field) {}
func (NoOpLogger) InfoContext(context.Context, string, ...Field)  {}
func (NoOpLogger) WarnContext(context.Context, string, ...Field)  {}
func (NoOpLogger) ErrorContext(context.Context, string, ...Field) {}

var _ ContextLogger = NoOpLogger{}
