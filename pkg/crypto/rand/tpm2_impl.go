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

//go:build tpm2

package rand

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/go-tpm/tpm2"
	"github.com/google/go-tpm/tpm2/transport"
	"github.com/google/go-tpm/tpm2/transport/tcp"
	"github.com/google/go-tpm/tpmutil"
)

const (
	tpm2DefaultChunk  = 32
	tpm2SimulatorHost = "localhost"
	tpm2SimulatorPort = 2321
)

// tpm2Devices are tried in order when no device is configured. tpmrm0 is
// the kernel resource manager.
var tpm2Devices = []string{"/dev/tpmrm0", "/dev/tpm0"}

// tpm2Resolver draws share coefficients from TPM2_GetRandom.
type tpm2Resolver struct {
	mu    sync.RWMutex
	tpm   transport.TPMCloser
	chunk int
}

var _ Resolver = (*tpm2Resolver)(nil)

func tpm2Available() bool {
	return true
}

func newTPM2Resolver(config *TPM2Config) (Resolver, error) {
	var cfg TPM2Config
	if config != nil {
		cfg = *config
	}

	tpm, err := openTPM(cfg)
	if err != nil {
		return nil, err
	}

	chunk := cfg.MaxRequestSize
	if chunk <= 0 {
		chunk = tpm2DefaultChunk
	}
	return &tpm2Resolver{tpm: tpm, chunk: chunk}, nil
}

// openTPM connects to the swtpm simulator or opens a character device.
func openTPM(cfg TPM2Config) (transport.TPMCloser, error) {
	if cfg.UseSimulator {
		host := cfg.SimulatorHost
		if host == "" {
			host = tpm2SimulatorHost
		}
		port := cfg.SimulatorPort
		if port <= 0 {
			port = tpm2SimulatorPort
		}
		cmd := fmt.Sprintf("%s:%d", host, port)
		tpm, err := tcp.Open(tcp.Config{
			CommandAddress:  cmd,
			PlatformAddress: fmt.Sprintf("%s:%d", host, port+1),
		})
		if err != nil {
			return nil, fmt.Errorf("rand: failed to connect to TPM simulator at %s: %w", cmd, err)
		}
		return tpm, nil
	}

	devices := tpm2Devices
	if cfg.Device != "" {
		devices = []string{cfg.Device}
	}
	var errs []error
	for _, dev := range devices {
		if _, err := os.Stat(dev); len(devices) > 1 && errors.Is(err, os.ErrNotExist) {
			continue
		}
		rwc, err := tpmutil.OpenTPM(dev)
		if err == nil {
			return transport.FromReadWriteCloser(rwc), nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", dev, err))
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("rand: no TPM2 device found in %v", devices)
	}
	return nil, fmt.Errorf("rand: failed to open TPM2 device: %w", errors.Join(errs...))
}

// Rand issues GetRandom in chunks until n bytes are collected. A TPM may
// return fewer bytes than asked; an empty response is a short read.
func (t *tpm2Resolver) Rand(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, n)
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.tpm == nil {
		return nil, ErrClosed
	}

	out := make([]byte, 0, n)
	for len(out) < n {
		want := min(n-len(out), t.chunk)
		rsp, err := tpm2.GetRandom{BytesRequested: uint16(want)}.Execute(t.tpm)
		if err != nil {
			return nil, fmt.Errorf("rand: TPM2 GetRandom failed: %w", err)
		}
		got := rsp.RandomBytes.Buffer
		if len(got) == 0 {
			return nil, ErrShortRead
		}
		out = append(out, got...)
	}
	return out[:n], nil
}

func (t *tpm2Resolver) Read(p []byte) (int, error) {
	return readInto(t, p)
}

func (t *tpm2Resolver) Source() Source {
	return resolverSource{t}
}

func (t *tpm2Resolver) Available() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tpm != nil
}

func (t *tpm2Resolver) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tpm == nil {
		return nil
	}
	err := t.tpm.Close()
	t.tpm = nil
	return err
}
