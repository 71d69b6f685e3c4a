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
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jeremyhahn/go-sss/pkg/adapters/logger"
	"github.com/jeremyhahn/go-sss/pkg/correlation"
)

// responseWriter records the status and body size a handler produced.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	bytes      int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	if rw, ok := w.(*responseWriter); ok {
		return rw
	}
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

// WriteHeader forwards the first status code and drops the rest.
func (rw *responseWriter) WriteHeader(code int) {
	if rw.written {
		return
	}
	rw.statusCode = code
	rw.written = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.WriteHeader(http.StatusOK)
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// requestFields are the fields every request log line carries. Share
// payloads never appear in them.
func requestFields(r *http.Request) []logger.Field {
	fields := []logger.Field{
		logger.String("method", r.Method),
		logger.String("path", r.URL.Path),
	}
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			fields = append(fields, logger.String("route", pattern))
		}
	}
	return fields
}

// LoggingMiddleware logs each request at debug when it arrives and at info
// when it completes.
func (s *Server) LoggingMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			started := time.Now()
			rw := newResponseWriter(w)

			s.logDebug(ctx, "Request started",
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(rw, r)

			fields := append(requestFields(r),
				logger.Int("status", rw.statusCode),
				logger.Int("bytes", rw.bytes),
				logger.String("duration", time.Since(started).String()))
			if rw.statusCode >= http.StatusInternalServerError {
				s.logWarn(ctx, "Request completed", fields...)
				return
			}
			s.logInfo(ctx, "Request completed", fields...)
		})
	}
}

// RecoveryMiddleware turns a handler panic into a 500 response and logs the
// stack. http.ErrAbortHandler is re-raised so net/http can abort the
// connection.
func (s *Server) RecoveryMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := newResponseWriter(w)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				s.logger.Error("Panic recovered", append(requestFields(r),
					logger.Any("panic", rec),
					logger.String("correlation_id", correlation.GetCorrelationID(r.Context())),
					logger.String("stack", string(debug.Stack())))...)

				if !rw.written {
					writeError(rw, ErrInternalError, http.StatusInternalServerError, CodeInternal)
				}
			}()

			next.ServeHTTP(rw, r)
		})
	}
}

// BodyLimitMiddleware rejects request bodies larger than limit bytes. A
// declared Content-Length over the limit fails before the handler runs;
// chunked bodies fail when the handler reads past the limit. A limit of
// zero or less disables the cap.
func BodyLimitMiddleware(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				writeError(w, ErrRequestTooLarge, http.StatusRequestEntityTooLarge, CodeRequestTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
