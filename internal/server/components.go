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

package server

import (
	"errors"
	"fmt"

	"github.com/jeremyhahn/go-sss/internal/config"
	"github.com/jeremyhahn/go-sss/pkg/adapters/logger"
	"github.com/jeremyhahn/go-sss/pkg/crypto/aead"
	"github.com/jeremyhahn/go-sss/pkg/crypto/rand"
	"github.com/jeremyhahn/go-sss/pkg/encoding"
	"github.com/jeremyhahn/go-sss/pkg/secretsharing"
	"github.com/jeremyhahn/go-sss/pkg/storage"
	"github.com/jeremyhahn/go-sss/pkg/storage/file"
	"github.com/jeremyhahn/go-sss/pkg/storage/memory"
)

// Components are the pieces built from a Config that the CLI and the HTTP
// server share.
type Components struct {
	Logger  logger.Logger
	Random  rand.Resolver
	Service *secretsharing.Service
	Cipher  *aead.ShareCipher

	// Backend and Store are nil when the storage backend is "none".
	Backend storage.Backend
	Store   *storage.ShareStore
}

// Build creates the random resolver, secret sharing service, share cipher,
// and share store described by cfg. source labels the service's metrics.
// The caller must Close the result.
func Build(cfg *config.Config, source string, log logger.Logger) (*Components, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	c := &Components{Logger: log}

	random, err := rand.NewResolver(&cfg.Random)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize random source: %w", err)
	}
	c.Random = random
	log.Debug("Random source initialized", logger.String("mode", string(cfg.Random.Mode)))

	cipher, err := newCipher(cfg.Encryption, random)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Cipher = cipher
	if cipher.Enabled() {
		log.Debug("Share encryption enabled", logger.String("algorithm", cipher.Algorithm()))
	}

	backend, err := newStorageBackend(cfg.Storage)
	if err != nil {
		c.Close()
		return nil, err
	}
	if backend != nil {
		c.Backend = backend
		format, err := encoding.ParseFormat(cfg.Storage.Format)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Store, err = storage.NewShareStore(&storage.ShareStoreConfig{
			Backend: backend,
			Name:    cfg.Storage.Backend,
			Format:  format,
		})
		if err != nil {
			c.Close()
			return nil, err
		}
		log.Debug("Share storage initialized",
			logger.String("backend", cfg.Storage.Backend),
			logger.String("path", cfg.Storage.Path))
	}

	c.Service = secretsharing.NewService(&secretsharing.ServiceConfig{
		Logger:  log,
		Source:  source,
		Random:  random,
		Workers: cfg.Sharing.Workers,
	})
	return c, nil
}

// Close releases the storage backend and the random source.
func (c *Components) Close() error {
	var errs []error
	if c.Backend != nil {
		if err := c.Backend.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close storage: %w", err))
		}
	}
	if c.Random != nil {
		if err := c.Random.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close random source: %w", err))
		}
	}
	return errors.Join(errs...)
}

// newCipher returns a pass-through cipher when encryption is disabled.
func newCipher(cfg config.EncryptionConfig, random rand.Generator) (*aead.ShareCipher, error) {
	key, err := cfg.LoadKey()
	if err != nil {
		return nil, err
	}
	defer clear(key)

	cipher, err := aead.NewShareCipherWithConfig(&aead.CipherConfig{
		Key:         key,
		Algorithm:   cfg.Algorithm,
		Random:      random,
		TrackNonces: cfg.TrackNonces,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize share cipher: %w", err)
	}
	return cipher, nil
}

// newStorageBackend returns nil for the "none" backend.
func newStorageBackend(cfg config.StorageConfig) (storage.Backend, error) {
	switch cfg.Backend {
	case config.StorageNone, "":
		return nil, nil
	case config.StorageMemory:
		return memory.New(), nil
	case config.StorageFile:
		backend, err := file.New(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file storage: %w", err)
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", config.ErrInvalidConfig, cfg.Backend)
	}
}
