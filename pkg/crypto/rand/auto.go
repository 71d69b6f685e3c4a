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

package rand

import (
	"errors"
	"sync"
)

// candidate builds one hardware source for automatic selection.
type candidate struct {
	compiled bool
	open     func(cfg *Config) (Resolver, error)
}

// hardwareCandidates lists the hardware sources in preference order.
func hardwareCandidates(cfg *Config) []candidate {
	return []candidate{
		{
			compiled: pkcs11Available() && cfg.PKCS11Config != nil,
			open:     func(c *Config) (Resolver, error) { return newPKCS11Resolver(c.PKCS11Config) },
		},
		{
			compiled: tpm2Available(),
			open:     func(c *Config) (Resolver, error) { return newTPM2Resolver(c.TPM2Config) },
		},
	}
}

// autoResolver draws from the first usable source among PKCS#11, TPM2, and
// the operating system, and from the configured fallback when that source
// fails.
type autoResolver struct {
	mu       sync.RWMutex
	resolver Resolver
	fallback Resolver
}

var _ Resolver = (*autoResolver)(nil)

func newAutoResolver(cfg *Config) (Resolver, error) {
	primary := openHardware(cfg)
	if primary == nil {
		sw, err := newSoftwareResolver()
		if err != nil {
			return nil, err
		}
		primary = sw
	}

	a := &autoResolver{resolver: primary}
	if cfg.FallbackMode != "" && cfg.FallbackMode != ModeAuto {
		// An unusable fallback leaves the primary on its own.
		a.fallback, _ = newResolver(&Config{
			Mode:         cfg.FallbackMode,
			TPM2Config:   cfg.TPM2Config,
			PKCS11Config: cfg.PKCS11Config,
		})
	}
	return a, nil
}

// openHardware returns the first hardware source that opens and reports
// itself available, or nil.
func openHardware(cfg *Config) Resolver {
	for _, c := range hardwareCandidates(cfg) {
		if !c.compiled {
			continue
		}
		r, err := c.open(cfg)
		if err != nil {
			continue
		}
		if r.Available() {
			return r
		}
		_ = r.Close()
	}
	return nil
}

func (a *autoResolver) sources() (Resolver, Resolver) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.resolver, a.fallback
}

// Rand returns n bytes from the primary source. Only a failure on a valid
// length is retried against the fallback.
func (a *autoResolver) Rand(n int) ([]byte, error) {
	primary, fallback := a.sources()

	b, err := primary.Rand(n)
	if err == nil || fallback == nil || n < 0 {
		return b, err
	}
	return fallback.Rand(n)
}

func (a *autoResolver) Read(p []byte) (int, error) {
	return readInto(a, p)
}

// Source reports the primary source.
func (a *autoResolver) Source() Source {
	primary, _ := a.sources()
	return primary.Source()
}

func (a *autoResolver) Available() bool {
	primary, fallback := a.sources()
	if primary.Available() {
		return true
	}
	return fallback != nil && fallback.Available()
}

// Close closes both sources and reports their errors together.
func (a *autoResolver) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	for _, r := range []Resolver{a.resolver, a.fallback} {
		if r == nil {
			continue
		}
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
