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
	"fmt"

	"github.com/jeremyhahn/go-sss/pkg/gf256"
)

// AssertDistinctXs returns ErrDuplicateX if any two x-values coincide.
func AssertDistinctXs(xs []byte) error {
	var seen [gf256.Order]bool
	for _, x := range xs {
		if seen[x] {
			return fmt.Errorf("%w: 0x%02x", ErrDuplicateX, x)
		}
		seen[x] = true
	}
	return nil
}

// LagrangeBasisAtX computes the i-th Lagrange basis polynomial for xs at X:
//
//	L_i(X) = Π_{j≠i} (X ⊕ x_j) / (x_i ⊕ x_j)
func LagrangeBasisAtX(xs []byte, i int, X byte) (byte, error) {
	if i < 0 || i >= len(xs) {
		return 0, fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, i, len(xs))
	}

	num, den := byte(1), byte(1)
	for j, xj := range xs {
		if j == i {
			continue
		}
		d := gf256.Sub(xs[i], xj)
		if d == 0 {
			return 0, fmt.Errorf("%w: x[%d] == x[%d] == 0x%02x", ErrZeroDenominator, i, j, xj)
		}
		num = gf256.Mul(num, gf256.Sub(X, xj))
		den = gf256.Mul(den, d)
	}

	// den is a product of nonzero elements, so it is nonzero
	l, err := gf256.Div(num, den)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrZeroDenominator, err)
	}
	return l, nil
}

// InterpolateAtX returns P(X) for the unique polynomial of degree < len(xs)
// passing through the points (xs[i], ys[i]).
func InterpolateAtX(xs, ys []byte, X byte) (byte, error) {
	if err := checkPoints(xs, ys); err != nil {
		return 0, err
	}

	var acc byte
	for i := range xs {
		l, err := LagrangeBasisAtX(xs, i, X)
		if err != nil {
			return 0, err
		}
		acc = gf256.Add(acc, gf256.Mul(ys[i], l))
	}
	return acc, nil
}

// InterpolateAtZero returns P(0), the constant term of the interpolating
// polynomial.
func InterpolateAtZero(xs, ys []byte) (byte, error) {
	if err := checkPoints(xs, ys); err != nil {
		return 0, err
	}
	basis, err := basisAtZero(xs)
	if err != nil {
		return 0, err
	}
	return dot(basis, ys), nil
}

// BasisAtZero returns L_i(0) for every i:
//
//	L_i(0) = Π_{j≠i} x_j / (x_i ⊕ x_j)
//
// The weights depend only on xs, so callers interpolating many y-vectors
// over the same x-values compute them once and apply them with Dot.
func BasisAtZero(xs []byte) ([]byte, error) {
	if len(xs) == 0 {
		return nil, ErrNoPoints
	}
	if err := AssertDistinctXs(xs); err != nil {
		return nil, err
	}
	return basisAtZero(xs)
}

// Dot returns Σ weights[i]·ys[i]. The slices must have equal length.
func Dot(weights, ys []byte) (byte, error) {
	if len(weights) != len(ys) {
		return 0, fmt.Errorf("%w: %d weights, %d values", ErrLengthMismatch, len(weights), len(ys))
	}
	return dot(weights, ys), nil
}

func basisAtZero(xs []byte) ([]byte, error) {
	basis := make([]byte, len(xs))
	for i, xi := range xs {
		num, den := byte(1), byte(1)
		for j, xj := range xs {
			if j == i {
				continue
			}
			d := gf256.Sub(xi, xj)
			if d == 0 {
				return nil, fmt.Errorf("%w: x[%d] == x[%d] == 0x%02x", ErrZeroDenominator, i, j, xj)
			}
			num = gf256.Mul(num, xj)
			den = gf256.Mul(den, d)
		}
		l, err := gf256.Div(num, den)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrZeroDenominator, err)
		}
		basis[i] = l
	}
	return basis, nil
}

func dot(weights, ys []byte) byte {
	var acc byte
	for i, w := range weights {
		acc = gf256.Add(acc, gf256.Mul(ys[i], w))
	}
	return acc
}

func checkPoints(xs, ys []byte) error {
	if len(xs) != len(ys) {
		return fmt.Errorf("%w: %d xs, %d ys", ErrLengthMismatch, len(xs), len(ys))
	}
	if len(xs) == 0 {
		return ErrNoPoints
	}
	return AssertDistinctXs(xs)
}
