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

// Package secretsharing implements Shamir's Secret Sharing over GF(256).
//
// A secret is divided into N shares where any M shares (the threshold)
// reconstruct the original secret and M-1 or fewer shares reveal nothing
// about it.
//
// # Mathematical Foundation
//
// Each secret byte is the constant term of its own random polynomial of
// degree M-1:
//
//	p(x) = a0 + a1*x + a2*x^2 + ... + a(M-1)*x^(M-1)
//
// Every polynomial is evaluated at the same N distinct nonzero x-values, so
// a share is one x-value (its Index) plus one evaluation per secret byte.
// Combine recovers each byte by Lagrange interpolation at x=0. Field
// arithmetic lives in package gf256 and interpolation in package
// polynomial.
//
// # Usage Example
//
//	rng, err := rand.NewResolver(rand.ModeAuto)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rng.Close()
//
//	shares, err := secretsharing.Split([]byte("my secret data"), &secretsharing.SplitConfig{
//	    Threshold:   3,
//	    TotalShares: 5,
//	    Random:      rng,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Later, reconstruct with any 3 shares
//	secret, err := secretsharing.Combine(shares[:3])
//
// # What Combine Cannot Detect
//
// A share carries no threshold and no integrity tag. Combine given fewer
// than M shares returns a deterministic but wrong secret, and a corrupted
// share silently changes the output. Callers that hold more than M shares
// and know M can call Verify first.
//
// # Randomness
//
// Split draws exactly M-1 bytes per secret byte, one Rand(M-1) call per
// byte position in order. With a deterministic Generator the output is
// reproducible byte for byte, which is only appropriate in tests.
//
// # Constraints
//
//   - 1 <= M <= N <= 255
//   - Share indices are bytes 1-255; index 0 would hold the secret itself
//   - Secret size is limited only by available memory
package secretsharing
