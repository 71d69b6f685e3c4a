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
	"fmt"
	"io"
	"net/http"
	"regexp"

	"github.com/jeremyhahn/go-sss/pkg/encoding"
)

var (
	// setIDPattern matches share set identifiers (alphanumeric, dash, underscore, dot)
	setIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]+$`)
)

// maxSetIDLength bounds set IDs accepted in URLs.
const maxSetIDLength = 128

// ValidateSetID checks if a share set ID is safe to use as a storage path
// component.
func ValidateSetID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: set ID cannot be empty", ErrInvalidRequest)
	}
	if len(id) > maxSetIDLength {
		return fmt.Errorf("%w: set ID too long (max %d characters)", ErrInvalidRequest, maxSetIDLength)
	}
	if id == "." || id == ".." || !setIDPattern.MatchString(id) {
		return fmt.Errorf("%w: set ID contains invalid characters (allowed: a-z, A-Z, 0-9, -, _, .)", ErrInvalidRequest)
	}
	return nil
}

// decodeJSON decodes a single JSON object from the request body into v.
// Unknown fields are rejected.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return fmt.Errorf("%w: limit %d bytes", ErrRequestTooLarge, maxBytes.Limit)
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrInvalidRequest)
		}
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON object", ErrInvalidRequest)
	}
	return nil
}

// textFormat resolves name to a share format that can be carried in a JSON
// string. An empty name selects fallback.
func textFormat(name string, fallback encoding.Format) (encoding.Format, error) {
	if name == "" {
		return fallback, nil
	}
	format, err := encoding.ParseFormat(name)
	if err != nil {
		return "", err
	}
	if !format.IsText() {
		return "", fmt.Errorf("%w: format %q cannot be carried in JSON", ErrInvalidRequest, name)
	}
	return format, nil
}
