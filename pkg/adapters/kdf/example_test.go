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

package kdf_test

import (
	"bytes"
	"fmt"
	"log"

	"github.com/jeremyhahn/go-sss/pkg/adapters/kdf"
)

// Example derives a share key from a passphrase with Argon2id.
func Example() {
	params := kdf.DefaultParams(kdf.AlgorithmArgon2id)
	params.Salt = []byte("a unique 16+ byte salt")

	key, err := kdf.Derive([]byte("correct horse battery staple"), params)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Derived key length: %d bytes\n", len(key))
	// Output: Derived key length: 32 bytes
}

// ExampleSubkey separates keys by purpose.
func ExampleSubkey() {
	master := bytes.Repeat([]byte{0x01}, kdf.KeySize)

	aeadKey, _ := kdf.Subkey(master, "share values")
	jweKey, _ := kdf.Subkey(master, "share tokens")
	fmt.Println(bytes.Equal(aeadKey, jweKey))
	// Output: false
}
