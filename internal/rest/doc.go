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

// Package rest provides the HTTP API for go-sss.
//
// The API exposes split, combine, and verify over JSON, with optional
// per-share encryption and persistence of share sets.
//
// # Server Setup
//
//	svc := secretsharing.NewService(&secretsharing.ServiceConfig{
//	    Source: metrics.SourceREST,
//	})
//
//	server, _ := rest.NewServer(&rest.Config{
//	    Addr:    "127.0.0.1:8443",
//	    Service: svc,
//	    Version: "1.0.0",
//	})
//
//	go server.Start()
//
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//	server.Stop(ctx)
//
// # API Endpoints
//
// Sharing:
//   - POST /v1/split - Split a secret into shares
//   - POST /v1/combine - Reconstruct a secret from shares
//   - POST /v1/verify - Check that shares agree on one secret
//
// Stored share sets (only when a share store is configured):
//   - GET /v1/sets - List stored set IDs
//   - GET /v1/sets/{id} - Fetch a stored set
//   - POST /v1/sets/{id}/combine - Reconstruct the secret of a stored set
//   - DELETE /v1/sets/{id} - Delete a stored set
//
// Health and metrics:
//   - GET /health - Service status and version
//   - GET /health/live, /health/ready, /health/startup - Kubernetes probes
//   - GET /ready - Alias for /health/ready
//   - GET /metrics - Prometheus metrics (when enabled)
//
// # Encoding
//
// Secrets travel as base64 (the encoding/json form of []byte). Shares travel
// as strings in any text format of package encoding: hex (default), base64,
// json, yaml, or pem.
//
// # Errors
//
// Failures return a JSON body of the form:
//
//	{"error": "secretsharing: validation failed: ...", "code": "validation"}
//
// Validation problems map to 400, inconsistent or undecryptable shares to
// 422, missing share sets to 404, and everything else to 500.
package rest
