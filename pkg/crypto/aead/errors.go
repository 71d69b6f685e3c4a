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

package aead

import "errors"

var (
	// ErrInvalidKeySize is returned for a non-nil key that is not KeySize bytes.
	ErrInvalidKeySize = errors.New("aead: key must be 32 bytes")

	// ErrUnsupportedAlgorithm is returned for an unknown cipher name.
	ErrUnsupportedAlgorithm = errors.New("aead: unsupported algorithm")

	// ErrCiphertextTooShort is returned when a value cannot hold a nonce and tag.
	ErrCiphertextTooShort = errors.New("aead: ciphertext too short")

	// ErrDecrypt is returned when authentication fails: wrong key, wrong
	// share index, or a modified ciphertext.
	ErrDecrypt = errors.New("aead: message authentication failed")

	// ErrNonceReuse is returned when a nonce is drawn twice under one key.
	ErrNonceReuse = errors.New("aead: nonce reuse detected, encryption rejected")

	// ErrUsageLimit is returned once a key has encrypted its byte budget.
	ErrUsageLimit = errors.New("aead: key usage limit exceeded")
)
