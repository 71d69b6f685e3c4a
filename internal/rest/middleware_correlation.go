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
	"net/http"

	"github.com/jeremyhahn/go-sss/pkg/adapters/logger"
	"github.com/jeremyhahn/go-sss/pkg/correlation"
)

// CorrelationMiddleware tags each request with a correlation ID. A valid
// X-Correlation-ID or X-Request-ID from the client is reused, in that
// order; otherwise a new ID is generated. The ID is stored in the request
// context and echoed in the X-Correlation-ID response header.
func (s *Server) CorrelationMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := correlation.FromHeaders(r.Header)
			if id == "" {
				id = correlation.NewID()
			}
			w.Header().Set(correlation.CorrelationIDHeader, id)
			next.ServeHTTP(w, r.WithContext(correlation.WithCorrelationID(r.Context(), id)))
		})
	}
}

// contextLogger returns the server logger as a ContextLogger, or nil when
// it cannot read correlation IDs.
func (s *Server) contextLogger() logger.ContextLogger {
	cl, _ := s.logger.(logger.ContextLogger)
	return cl
}

func (s *Server) logDebug(ctx context.Context, msg string, fields ...logger.Field) {
	if cl := s.contextLogger(); cl != nil {
		cl.DebugContext(ctx, msg, fields...)
		return
	}
	s.logger.Debug(msg, fields...)
}

func (s *Server) logInfo(ctx context.Context, msg string, fields ...logger.Field) {
	if cl := s.contextLogger(); cl != nil {
		cl.InfoContext(ctx, msg, fields...)
		return
	}
	s.logger.Info(msg, fields...)
}

func (s *Server) logWarn(ctx context.Context, msg string, fields ...logger.Field) {
	if cl := s.contextLogger(); cl != nil {
		cl.WarnContext(ctx, msg, fields...)
		return
	}
	s.logger.Warn(msg, fields...)
}
