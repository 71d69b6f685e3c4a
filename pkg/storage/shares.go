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

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jeremyhahn/go-sss/pkg/encoding"
	"github.com/jeremyhahn/go-sss/pkg/metrics"
	"github.com/jeremyhahn/go-sss/pkg/secretsharing"
)

const (
	// SharesPrefix is the key prefix of every share set.
	SharesPrefix = "shares/"

	metaKey = "set"
)

// SetPath returns the key prefix of a share set: shares/{id}/
func SetPath(id string) string {
	return SharesPrefix + id + "/"
}

// SharePath returns the key of one share: shares/{id}/{index}
func SharePath(id string, index byte) string {
	return SetPath(id) + strconv.Itoa(int(index))
}

// ShareStoreConfig configures a ShareStore.
type ShareStoreConfig struct {
	// Backend holds the encoded shares. Required.
	Backend Backend

	// Name labels the backend in metrics, e.g. "memory" or "file".
	Name string

	// Format encodes each share. Defaults to encoding.FormatBinary.
	Format encoding.Format
}

// ShareStore saves and loads share sets on a Backend.
type ShareStore struct {
	backend Backend
	name    string
	format  encoding.Format
}

// setMeta is stored at shares/{id}/set.
type setMeta struct {
	Threshold  int             `json:"threshold"`
	Total      int             `json:"total"`
	Encryption string          `json:"encryption,omitempty"`
	Format     encoding.Format `json:"format"`
	Created    time.Time       `json:"created"`
}

// NewShareStore creates a ShareStore from config.
func NewShareStore(config *ShareStoreConfig) (*ShareStore, error) {
	if config == nil || config.Backend == nil {
		return nil, fmt.Errorf("storage: share store requires a backend")
	}
	format := config.Format
	if format == "" {
		format = encoding.FormatBinary
	}
	if _, err := encoding.ParseFormat(string(format)); err != nil {
		return nil, err
	}
	name := config.Name
	if name == "" {
		name = "custom"
	}
	return &ShareStore{backend: config.Backend, name: name, format: format}, nil
}

// Backend returns the underlying backend.
func (s *ShareStore) Backend() Backend {
	return s.backend
}

// Save writes every share of set. It fails with ErrAlreadyExists if the ID
// is taken, and removes what it wrote if a later write fails.
func (s *ShareStore) Save(set *encoding.ShareSet) error {
	if err := set.Validate(); err != nil {
		return err
	}
	if err := validateID(set.ID); err != nil {
		return err
	}

	meta := SetPath(set.ID) + metaKey
	exists, err := s.backend.Exists(meta)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: share set %s", ErrAlreadyExists, set.ID)
	}

	written := make([]string, 0, len(set.Shares)+1)
	rollback := func() {
		for _, key := range written {
			_ = s.backend.Delete(key)
		}
	}

	for _, share := range set.Shares {
		data, err := encoding.Encode(share, s.format)
		if err != nil {
			rollback()
			return err
		}
		key := SharePath(set.ID, share.Index)
		if err := s.backend.Put(key, data, DefaultOptions()); err != nil {
			rollback()
			return err
		}
		written = append(written, key)
	}

	data, err := json.Marshal(setMeta{
		Threshold:  set.Threshold,
		Total:      set.Total,
		Encryption: set.Encryption,
		Format:     s.format,
		Created:    set.Created,
	})
	if err != nil {
		rollback()
		return fmt.Errorf("storage: encoding set metadata: %w", err)
	}
	if err := s.backend.Put(meta, data, DefaultOptions()); err != nil {
		rollback()
		return err
	}

	metrics.RecordCodec(metrics.OpStore, string(s.format), metrics.StatusSuccess)
	s.publishCount()
	return nil
}

// Load reads a share set with whichever of its shares are still stored.
func (s *ShareStore) Load(id string) (*encoding.ShareSet, error) {
	meta, err := s.meta(id)
	if err != nil {
		return nil, err
	}

	keys, err := s.backend.List(SetPath(id))
	if err != nil {
		return nil, err
	}

	set := &encoding.ShareSet{
		ID:         id,
		Threshold:  meta.Threshold,
		Total:      meta.Total,
		Encryption: meta.Encryption,
		Created:    meta.Created,
	}
	for _, key := range keys {
		if _, ok := shareIndex(id, key); !ok {
			continue
		}
		share, err := s.read(key, meta.Format)
		if err != nil {
			return nil, err
		}
		set.Shares = append(set.Shares, share)
	}
	sort.Slice(set.Shares, func(i, j int) bool { return set.Shares[i].Index < set.Shares[j].Index })

	if len(set.Shares) == 0 {
		return nil, fmt.Errorf("%w: share set %s has no shares", ErrNotFound, id)
	}
	metrics.RecordCodec(metrics.OpLoad, string(meta.Format), metrics.StatusSuccess)
	return set, nil
}

// LoadShare reads one share of a set.
func (s *ShareStore) LoadShare(id string, index byte) (secretsharing.Share, error) {
	meta, err := s.meta(id)
	if err != nil {
		return secretsharing.Share{}, err
	}
	return s.read(SharePath(id, index), meta.Format)
}

// DeleteShare removes one share of a set.
func (s *ShareStore) DeleteShare(id string, index byte) error {
	if err := validateID(id); err != nil {
		return err
	}
	return s.backend.Delete(SharePath(id, index))
}

// Delete removes a share set and all of its shares.
func (s *ShareStore) Delete(id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	keys, err := s.backend.List(SetPath(id))
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return fmt.Errorf("%w: share set %s", ErrNotFound, id)
	}
	for _, key := range keys {
		if err := s.backend.Delete(key); err != nil {
			return err
		}
	}
	s.publishCount()
	return nil
}

// List returns the IDs of every stored share set in sorted order.
func (s *ShareStore) List() ([]string, error) {
	keys, err := s.backend.List(SharesPrefix)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0)
	for _, key := range keys {
		rest := strings.TrimPrefix(key, SharesPrefix)
		id, leaf, ok := strings.Cut(rest, "/")
		if ok && leaf == metaKey && id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *ShareStore) meta(id string) (*setMeta, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	data, err := s.backend.Get(SetPath(id) + metaKey)
	if err != nil {
		return nil, err
	}
	var meta setMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: share set %s metadata: %v", ErrInvalidData, id, err)
	}
	if meta.Format == "" {
		meta.Format = s.format
	}
	return &meta, nil
}

func (s *ShareStore) read(key string, format encoding.Format) (secretsharing.Share, error) {
	data, err := s.backend.Get(key)
	if err != nil {
		return secretsharing.Share{}, err
	}
	share, err := encoding.Decode(data, format)
	if err != nil {
		return secretsharing.Share{}, fmt.Errorf("%w: %s: %v", ErrInvalidData, key, err)
	}
	return share, nil
}

func (s *ShareStore) publishCount() {
	if ids, err := s.List(); err == nil {
		metrics.SetStoredShareSets(s.name, len(ids))
	}
}

func shareIndex(id, key string) (byte, bool) {
	leaf := strings.TrimPrefix(key, SetPath(id))
	n, err := strconv.Atoi(leaf)
	if err != nil || n < 1 || n > secretsharing.MaxShares || strconv.Itoa(n) != leaf {
		return 0, false
	}
	return byte(n), true
}

func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidID)
	}
	if strings.ContainsAny(id, "/\\\x00") || id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
