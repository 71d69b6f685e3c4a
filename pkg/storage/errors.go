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

package storage

import "errors"

var (
	// ErrClosed is returned when attempting to use a closed storage.
	ErrClosed = errors.New("storage: closed")

	// ErrNotFound is returned when a key or share set is not found.
	ErrNotFound = errors.New("storage: not found")

	// ErrAlreadyExists is returned when saving a share set whose ID is taken.
	ErrAlreadyExists = errors.New("storage: already exists")

	// ErrInvalidID is returned when a share set ID is empty or unsafe.
	ErrInvalidID = errors.New("storage: invalid ID")

	// ErrInvalidKey is returned when a key is empty or escapes the backend root.
	ErrInvalidKey = errors.New("storage: invalid key")

	// ErrInvalidData is returned when stored data is malformed.
	ErrInvalidData = errors.New("storage: invalid data")
)
