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
	"sync"
	"sync/atomic"
)

// DefaultBytesLimit is the default budget of plaintext bytes per key. It
// stays well inside the NIST SP 800-38D bound for random 96-bit nonces.
const DefaultBytesLimit = 68 * 1024 * 1024 * 1024

// NonceTracker records every nonce used under one key and rejects repeats.
// Memory grows with each encryption, so it suits bounded workloads such as
// encrypting the shares of a handful of splits.
type NonceTracker struct {
	mu     sync.Mutex
	nonces map[string]struct{}
}

// NewNonceTracker returns an empty tracker.
func NewNonceTracker() *NonceTracker {
	return &NonceTracker{nonces: make(map[string]struct{})}
}

// CheckAndRecord returns ErrNonceReuse if nonce was seen before, otherwise
// records it.
func (nt *NonceTracker) CheckAndRecord(nonce []byte) error {
	key := string(nonce)

	nt.mu.Lock()
	defer nt.mu.Unlock()

	if _, exists := nt.nonces[key]; exists {
		return ErrNonceReuse
	}
	nt.nonces[key] = struct{}{}
	return nil
}

// Count returns the number of recorded nonces.
func (nt *NonceTracker) Count() int {
	nt.mu.Lock()
	defer nt.mu.Unlock()
	return len(nt.nonces)
}

// BytesTracker counts plaintext bytes encrypted under one key.
type BytesTracker struct {
	encrypted atomic.Int64
	limit     int64
}

// NewBytesTracker returns a tracker with the given limit; 0 selects
// DefaultBytesLimit.
func NewBytesTracker(limit int64) *BytesTracker {
	if limit == 0 {
		limit = DefaultBytesLimit
	}
	return &BytesTracker{limit: limit}
}

// Reserve adds n bytes to the running total, or returns ErrUsageLimit and
// leaves the total unchanged if that would exceed the limit.
func (bt *BytesTracker) Reserve(n int64) error {
	total := bt.encrypted.Add(n)
	if total > bt.limit {
		bt.encrypted.Add(-n)
		return fmt.Errorf("%w: %d of %d bytes used, %d requested", ErrUsageLimit, total-n, bt.limit, n)
	}
	return nil
}

// Encrypted returns the running total.
func (bt *BytesTracker) Encrypted() int64 {
	return bt.encrypted.Load()
}

// Remaining returns the bytes left before the limit.
func (bt *BytesTracker) Remaining() int64 {
	if r := bt.limit - bt.encrypted.Load(); r > 0 {
		return r
	}
	return 0
}
