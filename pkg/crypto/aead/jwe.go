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

import (
	"fmt"

	"github.com/go-jose/go-jose/v4"
)

// JWEContentType is written to the cty header of sealed tokens.
const JWEContentType = "application/vnd.sss.share"

// SealJWE encrypts payload as a JWE compact token with alg "dir" and enc
// "A256GCM". kid is written to the protected header when non-empty.
func SealJWE(payload, key []byte, kid string) (string, error) {
	if len(key) != KeySize {
		return "", fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(key))
	}

	extraHeaders := map[jose.HeaderKey]interface{}{
		jose.HeaderKey("cty"): JWEContentType,
	}
	if kid != "" {
		extraHeaders[jose.HeaderKey("kid")] = kid
	}
	opts := &jose.EncrypterOptions{
		Compression:  jose.NONE,
		ExtraHeaders: extraHeaders,
	}

	encrypter, err := jose.NewEncrypter(jose.A256GCM, jose.Recipient{
		Algorithm: jose.DIRECT,
		Key:       key,
	}, opts)
	if err != nil {
		return "", fmt.Errorf("aead: creating JWE encrypter: %w", err)
	}

	object, err := encrypter.Encrypt(payload)
	if err != nil {
		return "", fmt.Errorf("aead: JWE encryption failed: %w", err)
	}
	return object.CompactSerialize()
}

// OpenJWE decrypts a token produced by SealJWE.
func OpenJWE(token string, key []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(key))
	}

	object, err := jose.ParseEncrypted(token,
		[]jose.KeyAlgorithm{jose.DIRECT},
		[]jose.ContentEncryption{jose.A256GCM},
	)
	if err != nil {
		return nil, fmt.Errorf("aead: parsing JWE: %w", err)
	}

	payload, err := object.Decrypt(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return payload, nil
}

// JWEKeyID returns the kid header of a token without decrypting it.
func JWEKeyID(token string) (string, error) {
	object, err := jose.ParseEncrypted(token,
		[]jose.KeyAlgorithm{jose.DIRECT},
		[]jose.ContentEncryption{jose.A256GCM},
	)
	if err != nil {
		return "", fmt.Errorf("aead: parsing JWE: %w", err)
	}
	return object.Header.KeyID, nil
}
