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

package kdf

import (
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2 floors. Memory is in KiB; DefaultParams uses 64 MiB, 3 passes,
// and 4 lanes.
const (
	MinArgon2SaltLength = 16
	MinArgon2Memory     = 8 * 1024
	MinArgon2Time       = 1
	MinArgon2Threads    = 1

	argon2MaxKeyLength = 1 << 20
)

// Argon2Adapter stretches passphrases with Argon2id, or Argon2i when
// constructed for it.
type Argon2Adapter struct {
	variant Algorithm
}

// NewArgon2Adapter returns an Argon2i adapter for AlgorithmArgon2i and an
// Argon2id adapter for anything else.
func NewArgon2Adapter(variant Algorithm) *Argon2Adapter {
	if variant != AlgorithmArgon2i {
		variant = AlgorithmArgon2id
	}
	return &Argon2Adapter{variant: variant}
}

func (a *Argon2Adapter) Algorithm() Algorithm {
	return a.variant
}

func (a *Argon2Adapter) ValidateParams(params *Params) error {
	if err := checkCommon(params, a.variant, argon2MaxKeyLength); err != nil {
		return err
	}
	switch {
	case len(params.Salt) < MinArgon2SaltLength:
		return fmt.Errorf("%w: %d bytes, need at least %d", ErrInvalidSalt, len(params.Salt), MinArgon2SaltLength)
	case params.Memory < MinArgon2Memory:
		return fmt.Errorf("%w: %d KiB, need at least %d", ErrInvalidMemory, params.Memory, MinArgon2Memory)
	case params.Time < MinArgon2Time:
		return fmt.Errorf("%w: %d passes", ErrInvalidTime, params.Time)
	case params.Threads < MinArgon2Threads:
		return fmt.Errorf("%w: %d lanes", ErrInvalidThreads, params.Threads)
	}
	return nil
}

func (a *Argon2Adapter) DeriveKey(passphrase []byte, params *Params) ([]byte, error) {
	if err := a.ValidateParams(params); err != nil {
		return nil, err
	}
	if len(passphrase) == 0 {
		return nil, ErrInvalidIKM
	}

	derive := argon2.IDKey
	if a.variant == AlgorithmArgon2i {
		derive = argon2.Key
	}
	keyLen := uint32(params.KeyLength) // #nosec G115 - bounded by ValidateParams
	return derive(passphrase, params.Salt, params.Time, params.Memory, params.Threads, keyLen), nil
}
