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

	"github.com/jeremyhahn/go-sss/pkg/crypto/rand"
	"github.com/jeremyhahn/go-sss/pkg/gf256"
)

// Polynomial is a polynomial over GF(256).
//
//	f(x) = coeffs[0] + coeffs[1]*x + ... + coeffs[d]*x^d
type Polynomial struct {
	coeffs []byte
}

// New returns a polynomial with a copy of coeffs.
func New(coeffs []byte) (*Polynomial, error) {
	if len(coeffs) == 0 {
		return nil, ErrEmptyPolynomial
	}
	c := make([]byte, len(coeffs))
	copy(c, coeffs)
	return &Polynomial{coeffs: c}, nil
}

// Build returns a polynomial of the given degree whose constant term is
// secret and whose remaining coefficients are read from random in a single
// Rand(degree) call. A degree of zero draws nothing.
//
// Coefficients drawn as zero are kept, so the effective degree may be lower
// than requested.
func Build(secret byte, degree int, random rand.Generator) (*Polynomial, error) {
	if degree < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDegree, degree)
	}

	coeffs := make([]byte, degree+1)
	coeffs[0] = secret
	if degree == 0 {
		return &Polynomial{coeffs: coeffs}, nil
	}

	if random == nil {
		return nil, ErrNilRandom
	}
	r, err := random.Rand(degree)
	if err != nil {
		return nil, fmt.Errorf("polynomial: drawing %d coefficients: %w", degree, err)
	}
	if len(r) < degree {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInsufficientRandomness, len(r), degree)
	}
	copy(coeffs[1:], r)

	return &Polynomial{coeffs: coeffs}, nil
}

// Evaluate returns f(x) using Horner's method.
func (p *Polynomial) Evaluate(x byte) byte {
	return gf256.Evaluate(p.coeffs, x)
}

// Degree returns the number of coefficients minus one.
func (p *Polynomial) Degree() int {
	return len(p.coeffs) - 1
}

// Coefficients returns a copy of the coefficients, constant term first.
func (p *Polynomial) Coefficients() []byte {
	c := make([]byte, len(p.coeffs))
	copy(c, p.coeffs)
	return c
}

// Zeroize overwrites the coefficients. The polynomial must not be used
// afterwards.
func (p *Polynomial) Zeroize() {
	if p == nil {
		return
	}
	zero(p.coeffs)
	p.coeffs = nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
