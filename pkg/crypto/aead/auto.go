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

// Package aead encrypts share payloads at rest.
//
// Each share's Value is sealed independently under a 32-byte key with the
// share index bound in as associated data, so a ciphertext moved onto a
// different index fails to open. Encrypted values are laid out as
//
//	nonce || ciphertext || tag
//
// Two ciphers are supported:
//
//   - AES-256-GCM: preferred when the CPU has AES instructions.
//   - ChaCha20-Poly1305: preferred on CPUs without AES acceleration.
//
// SelectOptimal picks between them from CPU features. A ShareCipher built
// with a nil key is a pass-through, which lets callers keep one code path
// whether or not encryption is configured.
//
// SealJWE and OpenJWE wrap an arbitrary payload, typically an encoded
// share, as a JWE compact token using direct key agreement and A256GCM.
package aead

import (
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// Algorithm names for AEAD ciphers
const (
	// AES256GCM is AES-256 in Galois/Counter Mode
	AES256GCM = "A256GCM"

	// ChaCha20Poly1305 is ChaCha20-Poly1305 AEAD
	ChaCha20Poly1305 = "ChaCha20-Poly1305"

	// Auto selects an algorithm from CPU features
	Auto = "auto"
)

// Lowercase algorithm names accepted in configuration files
const (
	BackendAES256GCM        = "aes256-gcm"
	BackendChaCha20Poly1305 = "chacha20-poly1305"
)

// KeySize is the required key length for both ciphers.
const KeySize = 32

// HasAESNI returns true if the CPU has AES-NI (AES New Instructions) support.
//
// Supported architectures:
//   - amd64: Checks X86.HasAES
//   - arm64: Checks ARM64.HasAES
//   - Other architectures return false
func HasAESNI() bool {
	switch runtime.GOARCH {
	case "amd64":
		return cpu.X86.HasAES
	case "arm64":
		return cpu.ARM64.HasAES
	default:
		return false
	}
}

// SelectOptimal returns AES256GCM when the CPU accelerates AES and
// ChaCha20Poly1305 otherwise.
func SelectOptimal() string {
	if HasAESNI() {
		return AES256GCM
	}
	return ChaCha20Poly1305
}

// ParseAlgorithm normalizes an algorithm name. It accepts the JWE style
// names, the lowercase configuration names, and "" or "auto".
func ParseAlgorithm(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", Auto:
		return SelectOptimal(), nil
	case strings.ToLower(AES256GCM), BackendAES256GCM:
		return AES256GCM, nil
	case strings.ToLower(ChaCha20Poly1305), BackendChaCha20Poly1305:
		return ChaCha20Poly1305, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
	}
}

// ToBackend converts a JWE algorithm name to its configuration name.
// Unknown names are returned unchanged.
func ToBackend(algorithm string) string {
	switch algorithm {
	case AES256GCM:
		return BackendAES256GCM
	case ChaCha20Poly1305:
		return BackendChaCha20Poly1305
	default:
		return algorithm
	}
}
