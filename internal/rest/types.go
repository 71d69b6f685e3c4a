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

import "time"

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// SplitRequest represents a split request.
type SplitRequest struct {
	Secret    []byte `json:"secret"`
	Threshold int    `json:"threshold,omitempty"` // Defaults to the server's configured threshold
	Shares    int    `json:"shares,omitempty"`    // Defaults to the server's configured share count
	XValues   []int  `json:"x_values,omitempty"`
	Format    string `json:"format,omitempty"` // Text format of the returned shares
	Encrypt   bool   `json:"encrypt,omitempty"`
	Store     bool   `json:"store,omitempty"`
}

// SplitResponse represents the response for a split, and a fetched share set.
type SplitResponse struct {
	ID         string     `json:"id,omitempty"`
	Threshold  int        `json:"threshold"`
	Total      int        `json:"total"`
	Format     string     `json:"format"`
	Encryption string     `json:"encryption,omitempty"`
	Created    *time.Time `json:"created,omitempty"`
	Shares     []string   `json:"shares"`
}

// CombineRequest represents a combine request.
type CombineRequest struct {
	Shares    []string `json:"shares"`
	Format    string   `json:"format,omitempty"`
	Encrypted bool     `json:"encrypted,omitempty"`

	// Threshold enables a consistency check before combining when set.
	Threshold int `json:"threshold,omitempty"`
}

// CombineResponse represents the response for a combine.
type CombineResponse struct {
	Secret []byte `json:"secret"`
	Shares int    `json:"shares"`
}

// VerifyRequest represents a verify request.
type VerifyRequest struct {
	Shares    []string `json:"shares"`
	Format    string   `json:"format,omitempty"`
	Encrypted bool     `json:"encrypted,omitempty"`
	Threshold int      `json:"threshold"`
}

// VerifyResponse represents the response for a verify.
type VerifyResponse struct {
	Valid  bool `json:"valid"`
	Shares int  `json:"shares"`
}

// ListSetsResponse represents the response for listing stored share sets.
type ListSetsResponse struct {
	Sets []string `json:"sets"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
