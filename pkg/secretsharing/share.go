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

package secretsharing

import "fmt"

// Share is one evaluation point of a split secret: the x-coordinate Index
// and one polynomial evaluation per secret byte.
type Share struct {
	Index byte   // Share index (1-255)
	Value []byte // One byte per secret byte
}

// Clone returns a deep copy of the share.
func (s Share) Clone() Share {
	v := make([]byte, len(s.Value))
	copy(v, s.Value)
	return Share{Index: s.Index, Value: v}
}

// Zeroize overwrites the share value.
func (s *Share) Zeroize() {
	for i := range s.Value {
		s.Value[i] = 0
	}
	s.Value = nil
}

// String describes the share without revealing its value.
func (s Share) String() string {
	return fmt.Sprintf("share{index=%d, len=%d}", s.Index, len(s.Value))
}

// Indices returns the Index of every share, in order.
func Indices(shares []Share) []byte {
	xs := make([]byte, len(shares))
	for i, s := range shares {
		xs[i] = s.Index
	}
	return xs
}

// ZeroizeAll zeroizes every share in the slice.
func ZeroizeAll(shares []Share) {
	for i := range shares {
		shares[i].Zeroize()
	}
}
