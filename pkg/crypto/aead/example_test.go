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

package aead_test

import (
	"fmt"

	"github.com/jeremyhahn/go-sss/pkg/crypto/aead"
	"github.com/jeremyhahn/go-sss/pkg/secretsharing"
)

func ExampleShareCipher() {
	key := make([]byte, aead.KeySize)

	c, err := aead.NewShareCipher(key, aead.ChaCha20Poly1305)
	if err != nil {
		fmt.Println(err)
		return
	}

	sealed, err := c.EncryptShare(secretsharing.Share{Index: 1, Value: []byte("share")})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(len(sealed.Value) == len("share")+c.Overhead())

	opened, err := c.DecryptShare(sealed)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(string(opened.Value))
	// Output:
	// true
	// share
}
