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
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/jeremyhahn/go-sss/pkg/crypto/rand"
	"github.com/jeremyhahn/go-sss/pkg/secretsharing"
)

// CipherConfig configures a ShareCipher.
type CipherConfig struct {
	// Key must be nil (pass-through) or exactly KeySize bytes.
	Key []byte

	// Algorithm is AES256GCM, ChaCha20Poly1305, or "" / Auto.
	Algorithm string

	// Random supplies nonces. Defaults to crypto/rand.
	Random rand.Generator

	// TrackNonces rejects a repeated nonce under this key.
	TrackNonces bool

	// BytesLimit caps plaintext bytes under this key. 0 selects
	// DefaultBytesLimit; negative disables the limit.
	BytesLimit int64
}

// ShareCipher seals and opens share values under one key. It is safe for
// concurrent use.
type ShareCipher struct {
	aead      cipher.AEAD
	algorithm string
	random    rand.Generator
	nonces    *NonceTracker
	usage     *BytesTracker
}

// NewShareCipher creates a cipher for key using algorithm. A nil key yields a
// pass-through cipher.
func NewShareCipher(key []byte, algorithm string) (*ShareCipher, error) {
	return NewShareCipherWithConfig(&CipherConfig{Key: key, Algorithm: algorithm})
}

// NewShareCipherWithConfig creates a cipher from config.
func NewShareCipherWithConfig(config *CipherConfig) (*ShareCipher, error) {
	if config == nil {
		config = &CipherConfig{}
	}
	if config.Key == nil {
		return &ShareCipher{}, nil
	}
	if len(config.Key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(config.Key))
	}

	algorithm, err := ParseAlgorithm(config.Algorithm)
	if err != nil {
		return nil, err
	}

	var a cipher.AEAD
	switch algorithm {
	case AES256GCM:
		block, err := aes.NewCipher(config.Key)
		if err != nil {
			return nil, fmt.Errorf("aead: %w", err)
		}
		a, err = cipher.NewGCM(block)
		if err != nil {
			return nil, fmt.Errorf("aead: %w", err)
		}
	case ChaCha20Poly1305:
		a, err = chacha20poly1305.New(config.Key)
		if err != nil {
			return nil, fmt.Errorf("aead: %w", err)
		}
	}

	random := config.Random
	if random == nil {
		r, err := rand.NewResolver(rand.ModeSoftware)
		if err != nil {
			return nil, err
		}
		random = r
	}

	c := &ShareCipher{
		aead:      a,
		algorithm: algorithm,
		random:    random,
	}
	if config.TrackNonces {
		c.nonces = NewNonceTracker()
	}
	if config.BytesLimit >= 0 {
		c.usage = NewBytesTracker(config.BytesLimit)
	}
	return c, nil
}

// Enabled reports whether the cipher encrypts, as opposed to passing
// values through.
func (c *ShareCipher) Enabled() bool {
	return c.aead != nil
}

// Algorithm returns the cipher name, or "" for a pass-through cipher.
func (c *ShareCipher) Algorithm() string {
	return c.algorithm
}

// Overhead returns the bytes added to each value.
func (c *ShareCipher) Overhead() int {
	if c.aead == nil {
		return 0
	}
	return c.aead.NonceSize() + c.aead.Overhead()
}

// Usage returns the bytes encrypted so far, or nil when unlimited or
// disabled.
func (c *ShareCipher) Usage() *BytesTracker {
	return c.usage
}

// EncryptShare returns a copy of share with its Value sealed.
func (c *ShareCipher) EncryptShare(share secretsharing.Share) (secretsharing.Share, error) {
	if c.aead == nil {
		return share.Clone(), nil
	}
	if c.usage != nil {
		if err := c.usage.Reserve(int64(len(share.Value))); err != nil {
			return secretsharing.Share{}, err
		}
	}

	nonce, err := c.random.Rand(c.aead.NonceSize())
	if err != nil {
		return secretsharing.Share{}, fmt.Errorf("aead: generating nonce: %w", err)
	}
	if len(nonce) != c.aead.NonceSize() {
		return secretsharing.Share{}, fmt.Errorf("aead: generating nonce: %w", rand.ErrShortRead)
	}
	if c.nonces != nil {
		if err := c.nonces.CheckAndRecord(nonce); err != nil {
			return secretsharing.Share{}, err
		}
	}

	out := make([]byte, len(nonce), len(nonce)+len(share.Value)+c.aead.Overhead())
	copy(out, nonce)
	out = c.aead.Seal(out, nonce, share.Value, associatedData(share.Index))
	return secretsharing.Share{Index: share.Index, Value: out}, nil
}

// DecryptShare returns a copy of share with its Value opened.
func (c *ShareCipher) DecryptShare(share secretsharing.Share) (secretsharing.Share, error) {
	if c.aead == nil {
		return share.Clone(), nil
	}

	ns := c.aead.NonceSize()
	if len(share.Value) < ns+c.aead.Overhead() {
		return secretsharing.Share{}, fmt.Errorf("%w: share %d has %d bytes", ErrCiphertextTooShort, share.Index, len(share.Value))
	}
	nonce, sealed := share.Value[:ns], share.Value[ns:]

	plain, err := c.aead.Open(nil, nonce, sealed, associatedData(share.Index))
	if err != nil {
		return secretsharing.Share{}, fmt.Errorf("%w: share %d", ErrDecrypt, share.Index)
	}
	return secretsharing.Share{Index: share.Index, Value: plain}, nil
}

// EncryptShares seals every share. On error no shares are returned.
func (c *ShareCipher) EncryptShares(shares []secretsharing.Share) ([]secretsharing.Share, error) {
	return c.each(shares, c.EncryptShare)
}

// DecryptShares opens every share. On error no shares are returned.
func (c *ShareCipher) DecryptShares(shares []secretsharing.Share) ([]secretsharing.Share, error) {
	return c.each(shares, c.DecryptShare)
}

func (c *ShareCipher) each(shares []secretsharing.Share, fn func(secretsharing.Share) (secretsharing.Share, error)) ([]secretsharing.Share, error) {
	out := make([]secretsharing.Share, len(shares))
	for i, s := range shares {
		r, err := fn(s)
		if err != nil {
			secretsharing.ZeroizeAll(out[:i])
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

func associatedData(index byte) []byte {
	return []byte{'s', 's', 's', index}
}
