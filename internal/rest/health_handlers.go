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

	"github.com/jeremyhahn/go-sss/pkg/health"
)

// HealthCheckResponse is the body of the liveness, readiness, and startup
// probes.
type HealthCheckResponse struct {
	Status  health.Status        `json:"status"`
	Message string               `json:"message,omitempty"`
	Checks  []health.CheckResult `json:"checks,omitempty"`
}

// readinessMessages describe the aggregate readiness status.
var readinessMessages = map[health.Status]string{
	health.StatusHealthy:   "All checks passed",
	health.StatusDegraded:  "Service is degraded",
	health.StatusUnhealthy: "One or more checks failed",
}

// serveProbe writes the probe response. Without a health checker every
// probe reports healthy with the idle message. Only unhealthy maps to 503.
func (h *HandlerContext) serveProbe(w http.ResponseWriter, r *http.Request, idle string,
	probe func(ctx context.Context, hc HealthChecker) HealthCheckResponse) {

	resp := HealthCheckResponse{Status: health.StatusHealthy, Message: idle}
	if h.HealthChecker != nil {
		resp = probe(r.Context(), h.HealthChecker)
	}

	code := http.StatusOK
	if resp.Status == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, resp, code)
}

func single(result health.CheckResult) HealthCheckResponse {
	return HealthCheckResponse{Status: result.Status, Message: result.Message}
}

// LivenessHandler handles GET /health/live.
func (h *HandlerContext) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	h.serveProbe(w, r, "Service is alive", func(ctx context.Context, hc HealthChecker) HealthCheckResponse {
		return single(hc.Live(ctx))
	})
}

// ReadinessHandler handles GET /health/ready and GET /ready. It runs the
// random source, self-test, and storage checks.
func (h *HandlerContext) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	h.serveProbe(w, r, "Service is ready", func(ctx context.Context, hc HealthChecker) HealthCheckResponse {
		results := hc.Ready(ctx)
		status := health.AggregateStatus(results)
		return HealthCheckResponse{
			Status:  status,
			Message: readinessMessages[status],
			Checks:  results,
		}
	})
}

// StartupHandler handles GET /health/startup.
func (h *HandlerContext) StartupHandler(w http.ResponseWriter, r *http.Request) {
	h.serveProbe(w, r, "Service has started", func(ctx context.Context, hc HealthChecker) HealthCheckResponse {
		return single(hc.Startup(ctx))
	})
}
