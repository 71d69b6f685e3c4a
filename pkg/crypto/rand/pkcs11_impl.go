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

//go:build pkcs11

package rand

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/miekg/pkcs11"
)

// pkcs11Resolver draws share coefficients from C_GenerateRandom on a token
// session.
type pkcs11Resolver struct {
	mu      sync.RWMutex
	ctx     *pkcs11.Ctx
	session pkcs11.SessionHandle

	// release undoes the setup steps in reverse order.
	release []func()
}

var _ Resolver = (*pkcs11Resolver)(nil)

func pkcs11Available() bool {
	return true
}

func newPKCS11Resolver(config *PKCS11Config) (Resolver, error) {
	switch {
	case config == nil:
		return nil, errors.New("rand: PKCS#11 configuration required")
	case config.Module == "":
		return nil, errors.New("rand: PKCS#11 module path is required")
	}

	ctx := pkcs11.New(config.Module)
	if ctx == nil {
		return nil, fmt.Errorf("rand: failed to load PKCS#11 module: %s", config.Module)
	}
	p := &pkcs11Resolver{ctx: ctx}
	p.release = append(p.release, ctx.Destroy)

	fail := func(step string, err error) (Resolver, error) {
		p.unwind()
		return nil, fmt.Errorf("rand: PKCS#11 %s: %w", step, err)
	}

	if err := ctx.Initialize(); err != nil {
		return fail("initialize", err)
	}
	p.release = append(p.release, func() { _ = ctx.Finalize() })

	// Some tokens only expose their slots after a slot list query.
	if _, err := ctx.GetSlotList(true); err != nil {
		return fail("slot list", err)
	}

	session, err := ctx.OpenSession(config.SlotID, pkcs11.CKF_SERIAL_SESSION|pkcs11.CKF_RW_SESSION)
	if err != nil {
		return fail("open session", err)
	}
	p.session = session
	p.release = append(p.release, func() { _ = ctx.CloseSession(session) })

	if config.PINRequired && config.PIN != "" {
		if err := ctx.Login(session, pkcs11.CKU_USER, config.PIN); err != nil {
			return fail("login", err)
		}
		p.release = append(p.release, func() { _ = ctx.Logout(session) })
	}
	return p, nil
}

func (p *pkcs11Resolver) unwind() {
	for _, undo := range slices.Backward(p.release) {
		undo()
	}
	p.release = nil
	p.ctx = nil
}

func (p *pkcs11Resolver) Rand(n int) ([]byte, error) {
	switch {
	case n < 0:
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, n)
	case n == 0:
		return []byte{}, nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.ctx == nil {
		return nil, ErrClosed
	}

	b, err := p.ctx.GenerateRandom(p.session, n)
	if err != nil {
		return nil, fmt.Errorf("rand: PKCS#11 GenerateRandom failed: %w", err)
	}
	if len(b) < n {
		return nil, ErrShortRead
	}
	return b[:n], nil
}

func (p *pkcs11Resolver) Read(b []byte) (int, error) {
	return readInto(p, b)
}

func (p *pkcs11Resolver) Source() Source {
	return resolverSource{p}
}

func (p *pkcs11Resolver) Available() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ctx != nil
}

// Close releases the token session and unloads the module.
func (p *pkcs11Resolver) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctx != nil {
		p.unwind()
	}
	return nil
}
