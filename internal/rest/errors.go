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
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/jeremyhahn/go-sss/pkg/crypto/aead"
	"github.com/jeremyhahn/go-sss/pkg/encoding"
	"github.com/jeremyhahn/go-sss/pkg/secretsharing"
	"github.com/jeremyhahn/go-sss/pkg/storage"
)

// Common errors
var (
	ErrInvalidRequest        = errors.New("invalid request")
	ErrEncryptionUnavailable = errors.New("encryption is not configured")
	ErrStorageUnavailable    = errors.New("storage is not configured")
	ErrRequestTooLarge       = errors.New("request body too large")
	ErrInternalError         = errors.New("internal server error")
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeInvalidRequest     = "invalid_request"
	CodeValidation         = "validation"
	CodeInvalidShare       = "invalid_share"
	CodeInconsistentShares = "inconsistent_shares"
	CodeDecryptFailed      = "decrypt_failed"
	CodeNotFound           = "not_found"
	CodeConflict           = "conflict"
	CodeRequestTooLarge    = "request_too_large"
	CodeFeatureUnavailable = "unavailable"
	CodeCanceled           = "canceled"
	CodeRandomFailure      = "random_failure"
	CodeInternal           = "internal"
)

// writeError writes an error response to the client.
func writeError(w http.ResponseWriter, err error, statusCode int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := ErrorResponse{
		Error: err.Error(),
		Code:  code,
	}

	if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
		log.Printf("Failed to encode error response: %v", encErr)
	}
}

// mapError maps errors to an HTTP status code and error code.
func mapError(err error) (int, string) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes), errors.Is(err, ErrRequestTooLarge):
		return http.StatusRequestEntityTooLarge, CodeRequestTooLarge
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, CodeInvalidRequest
	case errors.Is(err, ErrEncryptionUnavailable),
		errors.Is(err, ErrStorageUnavailable):
		return http.StatusBadRequest, CodeFeatureUnavailable
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, storage.ErrAlreadyExists):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, storage.ErrInvalidID):
		return http.StatusBadRequest, CodeInvalidRequest
	case errors.Is(err, encoding.ErrInvalidData),
		errors.Is(err, encoding.ErrUnknownFormat),
		errors.Is(err, encoding.ErrInvalidIndex),
		errors.Is(err, encoding.ErrEmptyValue),
		errors.Is(err, encoding.ErrInvalidShareSet):
		return http.StatusBadRequest, CodeInvalidShare
	case errors.Is(err, aead.ErrDecrypt),
		errors.Is(err, aead.ErrCiphertextTooShort):
		return http.StatusUnprocessableEntity, CodeDecryptFailed
	}

	switch secretsharing.ClassifyError(err) {
	case secretsharing.ErrorTypeValidation:
		return http.StatusBadRequest, CodeValidation
	case secretsharing.ErrorTypeInconsistent:
		return http.StatusUnprocessableEntity, CodeInconsistentShares
	case secretsharing.ErrorTypeCanceled:
		return http.StatusServiceUnavailable, CodeCanceled
	case secretsharing.ErrorTypeRandom:
		return http.StatusInternalServerError, CodeRandomFailure
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// handleError is a convenience function that maps the error to a status code
// and writes the error response.
func handleError(w http.ResponseWriter, err error) {
	statusCode, code := mapError(err)
	writeError(w, err, statusCode, code)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON response: %v", err)
	}
}
