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

// Package memory provides an in-memory storage.Backend for tests and for
// CLI runs where shares need not outlive the process.
package memory

import (
	"slices"
	"strings"
	"sync"

	"github.com/jeremyhahn/go-sss/pkg/storage"
)

// Storage keeps values in a map and their keys in a sorted slice, so
// prefix listings are a binary search plus a contiguous scan. Values are
// copied on the way in and out.
type Storage struct {
	mu     sync.RWMutex
	values map[string][]byte
	keys   []string
	closed bool
}

// New returns an empty backend.
func New() storage.Backend {
	return &Storage{values: make(map[string][]byte)}
}

func (s *Storage) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storage.ErrClosed
	}
	value, ok := s.values[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return slices.Clone(value), nil
}

// Put stores a copy of value. Options are ignored.
func (s *Storage) Put(key string, value []byte, _ *storage.Options) error {
	if key == "" {
		return storage.ErrInvalidKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrClosed
	}
	if old, ok := s.values[key]; ok {
		clear(old)
	} else {
		i, _ := slices.BinarySearch(s.keys, key)
		s.keys = slices.Insert(s.keys, i, key)
	}
	s.values[key] = append([]byte{}, value...)
	return nil
}

// Delete zeroes the stored value before dropping it.
func (s *Storage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrClosed
	}
	value, ok := s.values[key]
	if !ok {
		return storage.ErrNotFound
	}
	clear(value)
	delete(s.values, key)
	if i, found := slices.BinarySearch(s.keys, key); found {
		s.keys = slices.Delete(s.keys, i, i+1)
	}
	return nil
}

// List returns the keys under prefix in sorted order.
func (s *Storage) List(prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storage.ErrClosed
	}
	start, _ := slices.BinarySearch(s.keys, prefix)
	end := start
	for end < len(s.keys) && strings.HasPrefix(s.keys[end], prefix) {
		end++
	}
	keys := make([]string, end-start)
	copy(keys, s.keys[start:end])
	return keys, nil
}

func (s *Storage) Exists(key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, storage.ErrClosed
	}
	_, ok := s.values[key]
	return ok, nil
}

// Len returns the number of stored keys.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// Close zeroes and drops every value. Later calls return storage.ErrClosed;
// closing twice is safe.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range s.values {
		clear(v)
	}
	s.values = nil
	s.keys = nil
	s.closed = true
	return nil
}
