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
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jeremyhahn/go-sss/pkg/encoding"
	"github.com/jeremyhahn/go-sss/pkg/secretsharing"
)

// ListSetsHandler handles GET /v1/sets requests.
func (h *HandlerContext) ListSetsHandler(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		handleError(w, ErrStorageUnavailable)
		return
	}

	ids, err := h.store.List()
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, ListSetsResponse{Sets: ids}, http.StatusOK)
}

// GetSetHandler handles GET /v1/sets/{id} requests. The optional format
// query parameter selects the share encoding.
func (h *HandlerContext) GetSetHandler(w http.ResponseWriter, r *http.Request) {
	set, ok := h.loadSet(w, r)
	if !ok {
		return
	}
	defer secretsharing.ZeroizeAll(set.Shares)

	format, err := textFormat(r.URL.Query().Get("format"), h.format)
	if err != nil {
		handleError(w, err)
		return
	}

	resp, err := setResponse(set, format)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, resp, http.StatusOK)
}

// CombineSetHandler handles POST /v1/sets/{id}/combine requests. Encrypted
// sets are opened with the server's cipher. With verify=true the shares are
// checked against the stored threshold first.
func (h *HandlerContext) CombineSetHandler(w http.ResponseWriter, r *http.Request) {
	set, ok := h.loadSet(w, r)
	if !ok {
		return
	}
	defer secretsharing.ZeroizeAll(set.Shares)

	verify := false
	if v := r.URL.Query().Get("verify"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			handleError(w, ErrInvalidRequest)
			return
		}
		verify = parsed
	}

	shares := set.Shares
	if set.Encryption != "" {
		if !h.encryptionEnabled() {
			handleError(w, ErrEncryptionUnavailable)
			return
		}
		opened, err := h.cipher.DecryptShares(set.Shares)
		if err != nil {
			handleError(w, err)
			return
		}
		defer secretsharing.ZeroizeAll(opened)
		shares = opened
	}

	threshold := 0
	if verify {
		threshold = set.Threshold
	}
	secret, err := h.combine(r.Context(), shares, threshold)
	if err != nil {
		handleError(w, err)
		return
	}
	defer clear(secret)

	writeJSON(w, CombineResponse{Secret: secret, Shares: len(shares)}, http.StatusOK)
}

// DeleteSetHandler handles DELETE /v1/sets/{id} requests.
func (h *HandlerContext) DeleteSetHandler(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		handleError(w, ErrStorageUnavailable)
		return
	}
	id := chi.URLParam(r, "id")
	if err := ValidateSetID(id); err != nil {
		handleError(w, err)
		return
	}

	if err := h.store.Delete(id); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HandlerContext) loadSet(w http.ResponseWriter, r *http.Request) (*encoding.ShareSet, bool) {
	if h.store == nil {
		handleError(w, ErrStorageUnavailable)
		return nil, false
	}
	id := chi.URLParam(r, "id")
	if err := ValidateSetID(id); err != nil {
		handleError(w, err)
		return nil, false
	}

	set, err := h.store.Load(id)
	if err != nil {
		handleError(w, err)
		return nil, false
	}
	return set, true
}
