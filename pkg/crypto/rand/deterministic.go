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

package rand

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// xorshiftMultiplier is the output multiplier of xorshift64*.
const xorshiftMultiplier = 0x2545F4914F6CDD1D

// blockSize is the number of output bytes produced per state step.
const blockSize = 8

// zeroSeedReplacement is used instead of a zero seed, which would lock
// xorshift at zero forever.
const zeroSeedReplacement = 0x9E3779B97F4A7C15

// InsecureDeterministic is a seeded xorshift64* byte stream.
//
// INSECURE: the output is fully predictable from the seed. It exists so tests
// and fixtures can reproduce a split byte for byte. Never split a real
// secret with it.
type InsecureDeterministic struct {
	mu    sync.Mutex
	state uint64
	buf   [blockSize]byte
	off   int
}

var _ Generator = (*InsecureDeterministic)(nil)

// NewInsecureDeterministic returns a deterministic generator seeded with seed.
// Two generators with the same seed produce the same byte stream.
func NewInsecureDeterministic(seed uint64) *InsecureDeterministic {
	if seed == 0 {
		seed = zeroSeedReplacement
	}
	return &InsecureDeterministic{state: seed, off: blockSize}
}

// Rand returns the next n bytes of the stream.
func (d *InsecureDeterministic) Rand(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, n)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]byte, n)
	for i := range out {
		if d.off == blockSize {
			d.next()
		}
		out[i] = d.buf[d.off]
		d.off++
	}
	return out, nil
}

// Read implements io.Reader.
func (d *InsecureDeterministic) Read(p []byte) (int, error) {
	return readInto(d, p)
}

func (d *InsecureDeterministic) next() {
	x := d.state
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	d.state = x
	binary.LittleEndian.PutUint64(d.buf[:], x*xorshiftMultiplier)
	d.off = 0
}
