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
	"fmt"
	"net/http"

	"github.com/jeremyhahn/go-sss/pkg/crypto/aead"
	"github.com/jeremyhahn/go-sss/pkg/encoding"
	"github.com/jeremyhahn/go-sss/pkg/health"
	"github.com/jeremyhahn/go-sss/pkg/secretsharing"
	"github.com/jeremyhahn/go-sss/pkg/storage"
)

// HandlerContext holds the dependencies shared by all handlers.
type HandlerContext struct {
	// Version is the API version
	Version string
	// HealthChecker manages health check probes
	HealthChecker HealthChecker

	service   *secretsharing.Service
	cipher    *aead.ShareCipher
	store     *storage.ShareStore
	threshold int
	shares    int
	format    encoding.Format
}

// HealthChecker defines the interface for health checking.
type HealthChecker interface {
	Live(ctx context.Context) health.CheckResult
	Ready(ctx context.Context) []health.CheckResult
	Startup(ctx context.Context) health.CheckResult
}

// SetHealthChecker sets the health checker for the handler context.
func (h *HandlerContext) SetHealthChecker(checker HealthChecker) {
	h.HealthChecker = checker
}

// HealthHandler handles GET /health requests.
func (h *HandlerContext) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "healthy",
		Version: h.Version,
	}
	writeJSON(w, resp, http.StatusOK)
}

// SplitHandler handles POST /v1/split requests.
func (h *HandlerContext) SplitHandler(w http.ResponseWriter, r *http.Request) {
	var req SplitRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, err)
		return
	}
	defer clear(req.Secret)

	format, err := textFormat(req.Format, h.format)
	if err != nil {
		handleError(w, err)
		return
	}
	if req.Encrypt && !h.encryptionEnabled() {
		handleError(w, ErrEncryptionUnavailable)
		return
	}
	if req.Store && h.store == nil {
		handleError(w, ErrStorageUnavailable)
		return
	}

	threshold := req.Threshold
	if threshold == 0 {
		threshold = h.threshold
	}
	total := req.Shares
	if total == 0 {
		total = h.shares
		if len(req.XValues) > 0 {
			total = len(req.XValues)
		}
	}

	shares, err := h.service.Split(r.Context(), &secretsharing.SplitRequest{
		Secret:      req.Secret,
		Threshold:   threshold,
		TotalShares: total,
		XValues:     req.XValues,
	})
	if err != nil {
		handleError(w, err)
		return
	}
	defer secretsharing.ZeroizeAll(shares)

	set := encoding.NewShareSet(threshold, shares)
	if req.Encrypt {
		sealed, err := h.cipher.EncryptShares(shares)
		if err != nil {
			handleError(w, err)
			return
		}
		defer secretsharing.ZeroizeAll(sealed)
		set.Shares = sealed
		set.Encryption = h.cipher.Algorithm()
	}

	if req.Store {
		if err := h.store.Save(set); err != nil {
			handleError(w, err)
			return
		}
	}

	resp, err := setResponse(set, format)
	if err != nil {
		handleError(w, err)
		return
	}
	if !req.Store {
		resp.ID = ""
		resp.Created = nil
	}
	writeJSON(w, resp, http.StatusOK)
}

// CombineHandler handles POST /v1/combine requests.
func (h *HandlerContext) CombineHandler(w http.ResponseWriter, r *http.Request) {
	var req CombineRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, err)
		return
	}

	shares, err := h.requestShares(req.Shares, req.Format, req.Encrypted)
	if err != nil {
		handleError(w, err)
		return
	}
	defer secretsharing.ZeroizeAll(shares)

	secret, err := h.combine(r.Context(), shares, req.Threshold)
	if err != nil {
		handleError(w, err)
		return
	}
	defer clear(secret)

	writeJSON(w, CombineResponse{Secret: secret, Shares: len(shares)}, http.StatusOK)
}

// VerifyHandler handles POST /v1/verify requests.
func (h *HandlerContext) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, err)
		return
	}

	shares, err := h.requestShares(req.Shares, req.Format, req.Encrypted)
	if err != nil {
		handleError(w, err)
		return
	}
	defer secretsharing.ZeroizeAll(shares)

	if err := h.service.Verify(r.Context(), shares, req.Threshold); err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, VerifyResponse{Valid: true, Shares: len(shares)}, http.StatusOK)
}

// combine reconstructs the secret, checking consistency first when
// threshold is set.
func (h *HandlerContext) combine(ctx context.Context, shares []secretsharing.Share, threshold int) ([]byte, error) {
	if threshold > 0 {
		if err := h.service.Verify(ctx, shares, threshold); err != nil {
			return nil, err
		}
	}
	return h.service.Combine(ctx, shares)
}

// requestShares decodes the share strings of a request and opens them when
// they are encrypted.
func (h *HandlerContext) requestShares(encoded []string, formatName string, encrypted bool) ([]secretsharing.Share, error) {
	if len(encoded) == 0 {
		return nil, fmt.Errorf("%w: no shares", ErrInvalidRequest)
	}
	if encrypted && !h.encryptionEnabled() {
		return nil, ErrEncryptionUnavailable
	}
	format, err := textFormat(formatName, h.format)
	if err != nil {
		return nil, err
	}

	shares := make([]secretsharing.Share, 0, len(encoded))
	for i, s := range encoded {
		share, err := encoding.DecodeString(s, format)
		if err != nil {
			secretsharing.ZeroizeAll(shares)
			return nil, fmt.Errorf("shares[%d]: %w", i, err)
		}
		shares = append(shares, share)
	}

	if !encrypted {
		return shares, nil
	}
	defer secretsharing.ZeroizeAll(shares)
	return h.cipher.DecryptShares(shares)
}

func (h *HandlerContext) encryptionEnabled() bool {
	return h.cipher != nil && h.cipher.Enabled()
}

// setResponse encodes every share of set in format.
func setResponse(set *encoding.ShareSet, format encoding.Format) (*SplitResponse, error) {
	out := make([]string, len(set.Shares))
	for i, share := range set.Shares {
		s, err := encoding.EncodeString(share, format)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	created := set.Created
	return &SplitResponse{
		ID:         set.ID,
		Threshold:  set.Threshold,
		Total:      set.Total,
		Format:     format.String(),
		Encryption: set.Encryption,
		Created:    &created,
		Shares:     out,
	}, nil
}
