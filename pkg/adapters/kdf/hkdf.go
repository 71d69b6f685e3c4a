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
	_ "crypto/sha256" // crypto.SHA256 for DefaultParams
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// hkdfMaxBlocks is the RFC 5869 limit on output blocks per derivation.
const hkdfMaxBlocks = 255

// HKDFAdapter separates high-entropy keys by purpose. It does no key
// stretching and must not be given passphrases.
type HKDFAdapter struct{}

func NewHKDFAdapter() *HKDFAdapter {
	return &HKDFAdapter{}
}

func (*HKDFAdapter) Algorithm() Algorithm {
	return AlgorithmHKDF
}

// ValidateParams accepts any available hash and an output of at most 255
// hash blocks. Salt and Info are optional.
func (*HKDFAdapter) ValidateParams(params *Params) error {
	if params == nil {
		return checkCommon(nil, AlgorithmHKDF, 0)
	}
	if err := checkHash(params.Hash); err != nil {
		return err
	}
	return checkCommon(params, AlgorithmHKDF, hkdfMaxBlocks*params.Hash.Size())
}

// DeriveKey runs HKDF extract and expand over ikm.
func (h *HKDFAdapter) DeriveKey(ikm []byte, params *Params) ([]byte, error) {
	if err := h.ValidateParams(params); err != nil {
		return nil, err
	}
	if len(ikm) == 0 {
		return nil, ErrInvalidIKM
	}

	key := make([]byte, params.KeyLength)
	if _, err := io.ReadFull(hkdf.New(params.Hash.New, ikm, params.Salt, params.Info), key); err != nil {
		clear(key)
		return nil, fmt.Errorf("kdf: hkdf expand: %w", err)
	}
	return key, nil
}
