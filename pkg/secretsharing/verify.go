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

import (
	"bytes"
	"fmt"

	"github.com/jeremyhahn/go-sss/pkg/gf256"
	"github.com/jeremyhahn/go-sss/pkg/polynomial"
)

// Verify checks that every share beyond the first threshold lies on the
// polynomials those threshold shares define. It needs the threshold the
// shares were split with and at least that many shares; with exactly
// threshold shares there is nothing to compare and Verify succeeds.
//
// Verify detects a corrupted or foreign share only when the caller holds a
// surplus. It is not an integrity check and Combine never calls it.
func Verify(shares []Share, threshold int) error {
	if threshold < 1 || threshold > MaxShares {
		return fmt.Errorf("%w: threshold must be in [1,%d], got %d", ErrInvalidConfig, MaxShares, threshold)
	}
	xs, size, err := validateShares(shares)
	if err != nil {
		return err
	}
	if len(shares) < threshold {
		return fmt.Errorf("%w: need %d, got %d", ErrInsufficientShares, threshold, len(shares))
	}

	base := xs[:threshold]
	weights := make([]byte, threshold)
	ys := make([]byte, threshold)
	got := make([]byte, size)

	for k := threshold; k < len(shares); k++ {
		target := shares[k]
		for i := range base {
			l, err := polynomial.LagrangeBasisAtX(base, i, target.Index)
			if err != nil {
				return fmt.Errorf("secretsharing: %w", err)
			}
			weights[i] = l
		}
		for p := 0; p < size; p++ {
			for i := range base {
				ys[i] = shares[i].Value[p]
			}
			var acc byte
			for i, w := range weights {
				acc = gf256.Add(acc, gf256.Mul(ys[i], w))
			}
			got[p] = acc
		}
		if !bytes.Equal(got, target.Value) {
			return &ShareError{Position: k, Index: target.Index, Err: ErrInconsistentShares}
		}
	}
	return nil
}
