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

// Package correlation carries per-request operation IDs through
// context.Context so split and combine log lines from one request can be
// joined.
package correlation

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const (
	// CorrelationIDKey holds the ID in a context.
	CorrelationIDKey contextKey = "correlation-id"

	// CorrelationIDHeader is read from requests and echoed on responses.
	CorrelationIDHeader = "X-Correlation-ID"

	// RequestIDHeader is accepted from clients that do not send
	// CorrelationIDHeader.
	RequestIDHeader = "X-Request-ID"

	// MaxIDLength bounds IDs accepted from clients.
	MaxIDLength = 128
)

// WithCorrelationID returns a child of ctx carrying id. A nil ctx is
// treated as context.Background.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, CorrelationIDKey, id)
}

// GetCorrelationID returns the ID carried by ctx, or "".
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(CorrelationIDKey).(string)
	return id
}

// NewID returns a random UUID.
func NewID() string {
	return uuid.NewString()
}

// GetOrGenerate returns the ID carried by ctx, or a new one.
func GetOrGenerate(ctx context.Context) string {
	if id := GetCorrelationID(ctx); id != "" {
		return id
	}
	return NewID()
}

// FromHeaders returns the client supplied ID from X-Correlation-ID, falling
// back to X-Request-ID. IDs that are too long or contain characters outside
// printable ASCII are ignored so they cannot break log lines.
func FromHeaders(h http.Header) string {
	for _, name := range []string{CorrelationIDHeader, RequestIDHeader} {
		if id := h.Get(name); Valid(id) {
			return id
		}
	}
	return ""
}

// Valid reports whether id is non-empty, at most MaxIDLength bytes, and
// printable ASCII without spaces.
func Valid(id string) bool {
	if id == "" || len(id) > MaxIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}
