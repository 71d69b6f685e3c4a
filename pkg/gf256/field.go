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

// Package gf256 implements arithmetic in the finite field GF(2^8).
//
// Elements are bytes. The field is defined by the irreducible polynomial
// x^8 + x^4 + x^3 + x + 1 (0x11B), the same field AES uses. Addition and
// subtraction are XOR; multiplication is carry-less multiplication reduced
// modulo the field polynomial.
//
// The byte type bounds every value to [0,255], so no operation in this
// package performs range checks on its operands.
package gf256

import (
	"errors"
	"fmt"
)

const (
	// ReductionPolynomial is x^8 + x^4 + x^3 + x + 1.
	ReductionPolynomial = 0x11B

	// Order is the number of elements in the field.
	Order = 256

	// reduction is the low byte of ReductionPolynomial, XORed in after a
	// left shift overflows bit 7.
	reduction byte = 0x1B

	// inverseExponent is |GF(256)*| - 1. For any a != 0, a^255 = 1, so
	// a^254 = a^-1.
	inverseExponent = Order - 2
)

var (
	// ErrDomain is the parent of every error raised for an operation that is
	// undefined over the field.
	ErrDomain = errors.New("gf256: operation undefined in GF(256)")

	// ErrZeroInverse is returned when inverting the zero element.
	ErrZeroInverse = fmt.Errorf("%w: zero has no multiplicative inverse", ErrDomain)

	// ErrDivisionByZero is returned when dividing by the zero element.
	ErrDivisionByZero = fmt.Errorf("%w: division by zero", ErrDomain)

	// ErrNegativeExponent is returned by Pow for e < 0.
	ErrNegativeExponent = fmt.Errorf("%w: negative exponent", ErrDomain)
)

// Add returns a + b. Addition in characteristic 2 is XOR.
func Add(a, b byte) byte {
	return a ^ b
}

// Sub returns a - b, which is identical to Add.
func Sub(a, b byte) byte {
	return a ^ b
}

// MulX returns a * x (the element 2), also known as xtime.
func MulX(a byte) byte {
	if a&0x80 != 0 {
		return (a << 1) ^ reduction
	}
	return a << 1
}

// Mul returns a * b using shift-and-add ("Russian peasant") multiplication.
func Mul(a, b byte) byte {
	var p byte
	for b != 0 {
		if b&1 != 0 {
			p ^= a
		}
		a = MulX(a)
		b >>= 1
	}
	return p
}

// Pow returns a^e by square-and-multiply. Pow(a, 0) is 1 for every a,
// including zero.
func Pow(a byte, e int) (byte, error) {
	if e < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeExponent, e)
	}
	result := byte(1)
	base := a
	for e > 0 {
		if e&1 != 0 {
			result = Mul(result, base)
		}
		base = Mul(base, base)
		e >>= 1
	}
	return result, nil
}

// Inv returns the multiplicative inverse of a, computed as a^254.
func Inv(a byte) (byte, error) {
	if a == 0 {
		return 0, ErrZeroInverse
	}
	// e is a non-negative constant, Pow cannot fail here
	inv, _ := Pow(a, inverseExponent)
	return inv, nil
}

// Div returns a / b.
func Div(a, b byte) (byte, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	inv, err := Inv(b)
	if err != nil {
		return 0, err
	}
	return Mul(a, inv), nil
}

// Evaluate returns the value at x of the polynomial whose coefficients are
// given constant term first. It uses Horner's method, so a polynomial of
// degree d costs d multiplications. An empty coefficient slice evaluates
// to zero.
func Evaluate(coeffs []byte, x byte) byte {
	var acc byte
	for i := len(coeffs) - 1; i >= 0; i-- {
		acc = Add(Mul(acc, x), coeffs[i])
	}
	return acc
}
