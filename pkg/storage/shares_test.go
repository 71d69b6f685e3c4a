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

package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-sss/pkg/crypto/rand"
	"github.com/jeremyhahn/go-sss/pkg/encoding"
	"github.com/jeremyhahn/go-sss/pkg/secretsharing"
	"github.com/jeremyhahn/go-sss/pkg/storage"
	"github.com/jeremyhahn/go-sss/pkg/storage/file"
	"github.com/jeremyhahn/go-sss/pkg/storage/memory"
)

func newSet(t *testing.T, secret string) *encoding.ShareSet {
	t.Helper()
	shares, err := secretsharing.Split([]byte(secret), &secretsharing.SplitConfig{
		Threshold:   3,
		TotalShares: 5,
		Random:      rand.NewInsecureDeterministic(42),
	})
	require.NoError(t, err)
	return encoding.NewShareSet(3, shares)
}

func backends(t *testing.T) map[string]storage.Backend {
	fs, err := file.New(t.TempDir())
	require.NoError(t, err)
	return map[string]storage.Backend{
		"memory": memory.New(),
		"file":   fs,
	}
}

func TestSharePath(t *testing.T) {
	assert.Equal(t, "shares/abc/", storage.SetPath("abc"))
	assert.Equal(t, "shares/abc/17", storage.SharePath("abc", 17))
}

func TestNewShareStore(t *testing.T) {
	_, err := storage.NewShareStore(nil)
	assert.Error(t, err)

	_, err = storage.NewShareStore(&storage.ShareStoreConfig{})
	assert.Error(t, err)

	_, err = storage.NewShareStore(&storage.ShareStoreConfig{Backend: memory.New(), Format: "xml"})
	assert.ErrorIs(t, err, encoding.ErrUnknownFormat)
}

func TestShareStore_SaveLoad(t *testing.T) {
	for name, backend := range backends(t) {
		for _, format := range encoding.Formats() {
			t.Run(name+"/"+string(format), func(t *testing.T) {
				store, err := storage.NewShareStore(&storage.ShareStoreConfig{
					Backend: backend,
					Name:    name,
					Format:  format,
				})
				require.NoError(t, err)

				set := newSet(t, "stored secret")
				require.NoError(t, store.Save(set))

				got, err := store.Load(set.ID)
				require.NoError(t, err)
				assert.Equal(t, set.Threshold, got.Threshold)
				assert.Equal(t, set.Total, got.Total)
				assert.True(t, set.Created.Equal(got.Created))
				assert.Equal(t, set.Shares, got.Shares)

				secret, err := secretsharing.Combine(got.Shares[:3])
				require.NoError(t, err)
				assert.Equal(t, "stored secret", string(secret))

				share, err := store.LoadShare(set.ID, 4)
				require.NoError(t, err)
				assert.Equal(t, set.Shares[3], share)
			})
		}
	}
}

func TestShareStore_SaveDuplicate(t *testing.T) {
	store, err := storage.NewShareStore(&storage.ShareStoreConfig{Backend: memory.New()})
	require.NoError(t, err)

	set := newSet(t, "dup")
	require.NoError(t, store.Save(set))
	assert.ErrorIs(t, store.Save(set), storage.ErrAlreadyExists)
}

func TestShareStore_SaveInvalid(t *testing.T) {
	store, err := storage.NewShareStore(&storage.ShareStoreConfig{Backend: memory.New()})
	require.NoError(t, err)

	set := newSet(t, "bad id")
	set.ID = "../escape"
	assert.ErrorIs(t, store.Save(set), storage.ErrInvalidID)

	set = newSet(t, "no shares")
	set.Shares = nil
	assert.ErrorIs(t, store.Save(set), encoding.ErrInvalidShareSet)
}

func TestShareStore_PartialSet(t *testing.T) {
	store, err := storage.NewShareStore(&storage.ShareStoreConfig{Backend: memory.New(), Format: encoding.FormatHex})
	require.NoError(t, err)

	set := newSet(t, "partial")
	require.NoError(t, store.Save(set))
	require.NoError(t, store.DeleteShare(set.ID, 1))
	require.NoError(t, store.DeleteShare(set.ID, 5))

	got, err := store.Load(set.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 3, 4}, secretsharing.Indices(got.Shares))

	secret, err := secretsharing.Combine(got.Shares)
	require.NoError(t, err)
	assert.Equal(t, "partial", string(secret))

	_, err = store.LoadShare(set.ID, 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestShareStore_ListDelete(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store, err := storage.NewShareStore(&storage.ShareStoreConfig{Backend: backend, Name: name})
			require.NoError(t, err)

			ids, err := store.List()
			require.NoError(t, err)
			assert.Empty(t, ids)

			a, b := newSet(t, "a"), newSet(t, "b")
			require.NoError(t, store.Save(a))
			require.NoError(t, store.Save(b))

			ids, err = store.List()
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)

			require.NoError(t, store.Delete(a.ID))
			_, err = store.Load(a.ID)
			assert.ErrorIs(t, err, storage.ErrNotFound)
			assert.ErrorIs(t, store.Delete(a.ID), storage.ErrNotFound)

			ids, err = store.List()
			require.NoError(t, err)
			assert.Equal(t, []string{b.ID}, ids)
		})
	}
}

func TestShareStore_CorruptShare(t *testing.T) {
	backend := memory.New()
	store, err := storage.NewShareStore(&storage.ShareStoreConfig{Backend: backend, Format: encoding.FormatJSON})
	require.NoError(t, err)

	set := newSet(t, "corrupt")
	require.NoError(t, store.Save(set))
	require.NoError(t, backend.Put(storage.SharePath(set.ID, 2), []byte("{"), nil))

	_, err = store.Load(set.ID)
	assert.ErrorIs(t, err, storage.ErrInvalidData)

	require.NoError(t, backend.Put(storage.SetPath(set.ID)+"set", []byte("not json"), nil))
	_, err = store.Load(set.ID)
	assert.ErrorIs(t, err, storage.ErrInvalidData)
}

func TestShareStore_UnknownIDs(t *testing.T) {
	store, err := storage.NewShareStore(&storage.ShareStoreConfig{Backend: memory.New()})
	require.NoError(t, err)

	_, err = store.Load("missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	for _, id := range []string{"", "a/b", ".."} {
		_, err = store.Load(id)
		assert.ErrorIs(t, err, storage.ErrInvalidID, id)
	}
}
