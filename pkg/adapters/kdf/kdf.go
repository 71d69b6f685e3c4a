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

// Package kdf derives share encryption keys from passphrases and from
// other keys.
//
// Argon2id, Argon2i, and PBKDF2 stretch low-entropy passphrases; HKDF
// separates high-entropy keys by purpose. Every adapter validates its
// parameters before deriving and never returns a partial key.
package kdf

import (
	"crypto"
	"errors"
	"fmt"
	"strings"
)

// Algorithm names a key derivation function
type Algorithm string

const (
	// AlgorithmHKDF is HMAC-based Extract-and-Expand (RFC 5869)
	AlgorithmHKDF Algorithm = "hkdf"

	// AlgorithmPBKDF2 is Password-Based Key Derivation Function 2 (RFC 8018)
	AlgorithmPBKDF2 Algorithm = "pbkdf2"

	// AlgorithmArgon2i is the data-independent Argon2 variant
	AlgorithmArgon2i Algorithm = "argon2i"

	// AlgorithmArgon2id is the hybrid Argon2 variant (RFC 9106)
	AlgorithmArgon2id Algorithm = "argon2id"
)

// KeySize is the share key length every default derives.
const KeySize = 32

// String returns the algorithm name
func (a Algorithm) String() string {
	return string(a)
}

// Params contains parameters for key derivation
type Params struct {
	Algorithm Algorithm

	// Salt should be random and unique per key. Required by PBKDF2 and
	// Argon2, optional for HKDF.
	Salt []byte

	// Info binds an HKDF output to its purpose (HKDF only)
	Info []byte

	// Iterations (PBKDF2 only)
	Iterations int

	// Memory is the memory cost in KiB (Argon2 only)
	Memory uint32

	// Threads is the parallelism (Argon2 only)
	Threads uint8

	// Time is the number of passes (Argon2 only)
	Time uint32

	KeyLength int

	// Hash (HKDF and PBKDF2)
	Hash crypto.Hash
}

// Adapter derives keys with one algorithm
type Adapter interface {
	// DeriveKey derives a key from the input key material
	DeriveKey(ikm []byte, params *Params) ([]byte, error)

	// Algorithm returns the algorithm this adapter implements
	Algorithm() Algorithm

	// ValidateParams reports whether params are usable by this adapter
	ValidateParams(params *Params) error
}

var (
	ErrInvalidSalt          = errors.New("kdf: invalid salt")
	ErrInvalidKeyLength     = errors.New("kdf: invalid key length")
	ErrInvalidIterations    = errors.New("kdf: invalid iterations")
	ErrInvalidMemory        = errors.New("kdf: invalid memory cost")
	ErrInvalidThreads       = errors.New("kdf: invalid threads")
	ErrInvalidTime          = errors.New("kdf: invalid time cost")
	ErrInvalidHash          = errors.New("kdf: invalid or unsupported hash function")
	ErrInvalidIKM           = errors.New("kdf: invalid input key material")
	ErrUnsupportedAlgorithm = errors.New("kdf: unsupported algorithm")
)

// ParseAlgorithm converts a case-insensitive name to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	a := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	switch a {
	case AlgorithmHKDF, AlgorithmPBKDF2, AlgorithmArgon2i, AlgorithmArgon2id:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
	}
}

// New returns the adapter for algorithm.
func New(algorithm Algorithm) (Adapter, error) {
	switch algorithm {
	case AlgorithmHKDF:
		return NewHKDFAdapter(), nil
	case AlgorithmPBKDF2:
		return NewPBKDF2Adapter(), nil
	case AlgorithmArgon2i, AlgorithmArgon2id:
		return NewArgon2Adapter(algorithm), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}
}

// DefaultParams returns recommended parameters producing a KeySize key,
// or nil for an unknown algorithm. The caller supplies Salt.
func DefaultParams(algorithm Algorithm) *Params {
	switch algorithm {
	case AlgorithmHKDF:
		return &Params{
			Algorithm: AlgorithmHKDF,
			KeyLength: KeySize,
			Hash:      crypto.SHA256,
		}
	case AlgorithmPBKDF2:
		return &Params{
			Algorithm:  AlgorithmPBKDF2,
			Iterations: 600000, // OWASP 2023 for PBKDF2-SHA256
			KeyLength:  KeySize,
			Hash:       crypto.SHA256,
		}
	case AlgorithmArgon2i, AlgorithmArgon2id:
		return &Params{
			Algorithm: algorithm,
			Memory:    64 * 1024,
			Time:      3,
			Threads:   4,
			KeyLength: KeySize,
		}
	default:
		return nil
	}
}

// Derive runs the adapter for params.Algorithm.
func Derive(ikm []byte, params *Params) ([]byte, error) {
	if params == nil {
		return nil, ErrInvalidKeyLength
	}
	adapter, err := New(params.Algorithm)
	if err != nil {
		return nil, err
	}
	return adapter.DeriveKey(ikm, params)
}

// checkCommon validates the fields every adapter shares: params present,
// the expected algorithm, and a key length in (0, maxLen].
func checkCommon(params *Params, want Algorithm, maxLen int) error {
	if params == nil {
		return fmt.Errorf("%w: params are required", ErrInvalidKeyLength)
	}
	if params.Algorithm != want {
		return fmt.Errorf("%w: %q given to the %s adapter", ErrUnsupportedAlgorithm, params.Algorithm, want)
	}
	if params.KeyLength <= 0 || params.KeyLength > maxLen {
		return fmt.Errorf("%w: %d not in [1,%d]", ErrInvalidKeyLength, params.KeyLength, maxLen)
	}
	return nil
}

// checkHash requires a hash that is linked into the binary.
func checkHash(h crypto.Hash) error {
	if h == 0 || !h.Available() {
		return fmt.Errorf("%w: %v", ErrInvalidHash, h)
	}
	return nil
}

// Subkey derives a KeySize key for purpose from a high-entropy key with
// HKDF-SHA256. Distinct purposes yield independent keys.
func Subkey(key []byte, purpose string) ([]byte, error) {
	params := DefaultParams(AlgorithmHKDF)
	params.Info = []byte(purpose)
	return Derive(key, params)
}
