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

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 floors. DefaultParams uses 600000 iterations.
const (
	MinPBKDF2Iterations = 100000
	MinPBKDF2SaltLength = 16

	pbkdf2MaxKeyLength = 1024
)

// PBKDF2Adapter stretches passphrases with PBKDF2-HMAC. Prefer Argon2id
// where the memory cost is acceptable.
type PBKDF2Adapter struct{}

func NewPBKDF2Adapter() *PBKDF2Adapter {
	return &PBKDF2Adapter{}
}

func (*PBKDF2Adapter) Algorithm() Algorithm {
	return AlgorithmPBKDF2
}

func (*PBKDF2Adapter) ValidateParams(params *Params) error {
	if err := checkCommon(params, AlgorithmPBKDF2, pbkdf2MaxKeyLength); err != nil {
		return err
	}
	switch {
	case len(params.Salt) < MinPBKDF2SaltLength:
		return fmt.Errorf("%w: %d bytes, need at least %d", ErrInvalidSalt, len(params.Salt), MinPBKDF2SaltLength)
	case params.Iterations < MinPBKDF2Iterations:
		return fmt.Errorf("%w: %d, need at least %d", ErrInvalidIterations, params.Iterations, MinPBKDF2Iterations)
	}
	return checkHash(params.Hash)
}

func (p *PBKDF2Adapter) DeriveKey(passphrase []byte, params *Params) ([]byte, error) {
	if err := p.ValidateParams(params); err != nil {
		return nil, err
	}
	if len(passphrase) == 0 {
		return nil, ErrInvalidIKM
	}
	return pbkdf2.Key(passphrase, params.Salt, params.Iterations, params.KeyLength, params.Hash.New), nil
}
