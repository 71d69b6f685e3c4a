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

package secretsharing

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is the parent of every caller-input failure in Split,
	// Combine, and Verify.
	ErrValidation = errors.New("secretsharing: validation failed")

	ErrInvalidConfig       = fmt.Errorf("%w: invalid configuration", ErrValidation)
	ErrEmptySecret         = fmt.Errorf("%w: secret cannot be empty", ErrValidation)
	ErrInvalidXValue       = fmt.Errorf("%w: invalid x-value", ErrValidation)
	ErrNoShares            = fmt.Errorf("%w: at least one share is required", ErrValidation)
	ErrInvalidShareIndex   = fmt.Errorf("%w: share index must be in [1,255]", ErrValidation)
	ErrDuplicateShareIndex = fmt.Errorf("%w: duplicate share index", ErrValidation)
	ErrShareLengthMismatch = fmt.Errorf("%w: shares have different lengths", ErrValidation)
	ErrEmptyShare          = fmt.Errorf("%w: shares have empty values", ErrValidation)
	ErrInsufficientShares  = fmt.Errorf("%w: fewer shares than threshold", ErrValidation)

	// ErrInconsistentShares is returned by Verify when a share does not lie
	// on the polynomial defined by the others.
	ErrInconsistentShares = errors.New("secretsharing: shares are inconsistent")
)

// ShareError reports a problem with one share of an input slice.
type ShareError struct {
	// Position is the offset of the share in the caller's slice.
	Position int
	// Index is the share's x-coordinate.
	Index byte
	Err   error
}

func (e *ShareError) Error() string {
	return fmt.Sprintf("secretsharing: share %d (index %d): %v", e.Position, e.Index, e.Err)
}

func (e *ShareError) Unwrap() error {
	return e.Err
}
