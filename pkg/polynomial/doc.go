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

// Package polynomial builds and solves polynomials over GF(256).
//
// A polynomial is a coefficient sequence where coeffs[0] is the constant
// term. Split draws one random polynomial per secret byte with Build and
// evaluates it at each share's x-value; Combine recovers the constant term
// with InterpolateAtZero.
//
// Lagrange interpolation requires pairwise distinct x-values. The exported
// interpolation functions check distinctness up front and report
// ErrDuplicateX (a validation error). LagrangeBasisAtX does not pre-check and
// reports ErrZeroDenominator (an invariant violation) when it meets a
// repeated x-value.
package polynomial
