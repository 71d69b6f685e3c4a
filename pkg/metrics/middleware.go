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

package metrics

import (
	"net/http"
	"strconv"
	"time"
)

const (
	// ProtocolHTTP identifies the REST listener in ActiveConnections.
	ProtocolHTTP = "http"

	// RouteUnmatched labels requests no route pattern matched.
	RouteUnmatched = "unmatched"
)

// RouteFunc returns the route pattern that served r, or "" when none did.
// It is called after the wrapped handler returns.
type RouteFunc func(r *http.Request) string

// HTTPMiddleware returns middleware that records request counts, latency,
// and response bytes labeled by the pattern route reports. Labeling by
// pattern keeps share set IDs out of the label values.
//
//	router := chi.NewRouter()
//	router.Use(metrics.HTTPMiddleware(func(r *http.Request) string {
//		return chi.RouteContext(r.Context()).RoutePattern()
//	}))
func HTTPMiddleware(route RouteFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsEnabled() {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			IncrementActiveConnections(ProtocolHTTP)
			defer DecrementActiveConnections(ProtocolHTTP)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			pattern := ""
			if route != nil {
				pattern = route(r)
			}
			if pattern == "" {
				pattern = RouteUnmatched
			}
			RecordHTTPRequest(r.Method, pattern, strconv.Itoa(rec.status), rec.bytes, time.Since(start).Seconds())
		})
	}
}

// statusRecorder keeps the first status code and counts body bytes.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (sr *statusRecorder) WriteHeader(status int) {
	if !sr.wroteHeader {
		sr.status = status
		sr.wroteHeader = true
	}
	sr.ResponseWriter.WriteHeader(status)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.wroteHeader {
		sr.WriteHeader(http.StatusOK)
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}
