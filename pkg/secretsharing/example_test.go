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

package secretsharing_test

import (
	"fmt"
	"log"

	"github.com/jeremyhahn/go-sss/pkg/crypto/rand"
	"github.com/jeremyhahn/go-sss/pkg/secretsharing"
)

// ExampleSplit demonstrates basic usage of Shamir's Secret Sharing.
func ExampleSplit() {
	rng, err := rand.NewResolver(rand.ModeSoftware)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = rng.Close() }()

	// any 3 of the 5 shares can reconstruct the secret
	secret := []byte("my secret key")
	shares, err := secretsharing.Split(secret, &secretsharing.SplitConfig{
		Threshold:   3,
		TotalShares: 5,
		Random:      rng,
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Secret split into %d shares\n", len(shares))

	reconstructed, err := secretsharing.Combine([]secretsharing.Share{shares[4], shares[0], shares[2]})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Secret reconstructed successfully: %v\n", string(reconstructed) == string(secret))

	// Output:
	// Secret split into 5 shares
	// Secret reconstructed successfully: true
}

// ExampleSplit_deterministic shows a reproducible split for test fixtures.
func ExampleSplit_deterministic() {
	shares, _ := secretsharing.Split([]byte{0x2A}, &secretsharing.SplitConfig{
		Threshold:   2,
		TotalShares: 3,
		Random:      rand.NewInsecureDeterministic(1),
	})
	for _, s := range shares {
		fmt.Printf("%d: %x\n", s.Index, s.Value)
	}

	// Output:
	// 1: 37
	// 2: 10
	// 3: 0d
}

// ExampleShamir demonstrates a reusable configuration with custom x-values.
func ExampleShamir() {
	s, err := secretsharing.NewShamir(&secretsharing.SplitConfig{
		Threshold:   2,
		TotalShares: 3,
		XValues:     []int{10, 20, 30},
	})
	if err != nil {
		log.Fatal(err)
	}

	shares, _ := s.Split([]byte("custodians"))
	fmt.Println(shares[0], shares[1], shares[2])

	if err := s.Verify(shares); err != nil {
		log.Fatal(err)
	}
	secret, _ := s.Combine(shares[1:])
	fmt.Println(string(secret))

	// Output:
	// share{index=10, len=10} share{index=20, len=10} share{index=30, len=10}
	// custodians
}

// ExampleCombine_insufficientShares shows that Combine cannot detect a
// missing share.
func ExampleCombine_insufficientShares() {
	secret := []byte("top secret")
	shares, _ := secretsharing.Split(secret, &secretsharing.SplitConfig{
		Threshold:   3,
		TotalShares: 5,
		Random:      rand.NewInsecureDeterministic(2025),
	})

	wrong, err := secretsharing.Combine(shares[:2])
	fmt.Println(err == nil, string(wrong) == string(secret))

	// Output: true false
}
