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

package polynomial

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is the parent of every caller-input failure.
	ErrValidation = errors.New("polynomial: validation failed")

	// ErrInvariant is the parent of failures that validation should have
	// made unreachable.
	ErrInvariant = errors.New("polynomial: invariant violated")
)

var (
	ErrDuplicateX             = fmt.Errorf("%w: duplicate x-value", ErrValidation)
	ErrIndexOutOfRange        = fmt.Errorf("%w: basis index out of range", ErrValidation)
	ErrLengthMismatch         = fmt.Errorf("%w: x and y counts differ", ErrValidation)
	ErrNoPoints               = fmt.Errorf("%w: at least one point is required", ErrValidation)
	ErrInvalidDegree          = fmt.Errorf("%w: degree must be non-negative", ErrValidation)
	ErrInsufficientRandomness = fmt.Errorf("%w: random source returned too few bytes", ErrValidation)
	ErrNilRandom              = fmt.Errorf("%w: random source is nil", ErrValidation)
	ErrEmptyPolynomial        = fmt.Errorf("%w: polynomial needs at least one coefficient", ErrValidation)

	ErrZeroDenominator = fmt.Errorf("%w: zero denominator in Lagrange basis", ErrInvariant)
)
