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

// Package storage persists encoded shares in a key/value backend.
//
// Backends (memory and file) store opaque byte values under slash
// separated keys. ShareStore lays share sets out on top of any backend:
//
//	shares/<set-id>/set   set metadata (JSON)
//	shares/<set-id>/<n>   share n, encoded in the store's format
//
// so individual shares can be exported, deleted, or copied to separate
// media without touching the rest of the set.
package storage

import (
	"io/fs"
)

// Backend is a key/value store for encoded shares. Implementations are safe
// for concurrent use. Get and Delete of a missing key return ErrNotFound;
// the other methods return ErrClosed after Close, which is idempotent.
type Backend interface {
	Get(key string) ([]byte, error)

	// Put stores a copy of value, replacing any previous value.
	Put(key string, value []byte, opts *Options) error

	Delete(key string) error

	// List returns the keys starting with prefix in ascending order, or
	// every key when prefix is empty.
	List(prefix string) ([]string, error)

	Exists(key string) (bool, error)
	Close() error
}

// Options contains optional parameters for storage operations.
type Options struct {
	// Permissions sets the file permissions for file-based storage
	Permissions fs.FileMode
}

// DefaultOptions returns Options with owner-only permissions.
func DefaultOptions() *Options {
	return &Options{
		Permissions: 0600,
	}
}
