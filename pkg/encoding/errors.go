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

// Package encoding serializes shares and share sets.
//
// A single share can be written in any of the following formats:
//
//	json    {"index":1,"value":"<hex>"}
//	yaml    index: 1 / value: <hex>
//	hex     01-<hex>
//	binary  [index][value...]
//	base64  sss1:<base64 of the binary form>
//	pem     -----BEGIN SSS SHARE----- with an Index header
//
// Every format round-trips losslessly. Decoding validates the index into
// [1,255] and rejects an empty value, so a decoded share is always safe to
// pass to secretsharing.Combine.
//
// A ShareSet carries every share of one split together with the
// threshold and total used to produce it. The threshold is informational:
// Combine never reads it.
package encoding

import "errors"

var (
	// ErrInvalidData is returned when data is nil, empty, or malformed
	ErrInvalidData = errors.New("encoding: invalid data")

	// ErrUnknownFormat is returned for an unsupported format name
	ErrUnknownFormat = errors.New("encoding: unknown format")

	// ErrInvalidIndex is returned when a share index is outside [1,255]
	ErrInvalidIndex = errors.New("encoding: share index out of range")

	// ErrEmptyValue is returned when a share has no value bytes
	ErrEmptyValue = errors.New("encoding: empty share value")

	// ErrInvalidShareSet is returned when a share set is malformed
	ErrInvalidShareSet = errors.New("encoding: invalid share set")
)
