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

// Package rand provides the random byte sources consumed by the secret
// sharing core, with support for hardware-backed RNG from TPM2 and PKCS#11
// alongside the software crypto/rand source.
//
// # Overview
//
// The split operation needs (threshold-1) fresh random bytes per secret
// byte. Those bytes come from a Generator that is passed in explicitly; this
// package never installs a process-wide default. Applications resolve a
// source once at startup and hand it to every split:
//
//	rng, err := rand.NewResolver(rand.ModeAuto)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rng.Close()
//
//	shares, err := secretsharing.Split(secret, &secretsharing.SplitConfig{
//	    Threshold:   3,
//	    TotalShares: 5,
//	    Random:      rng,
//	})
//
// # RNG Sources
//
//   - Auto: PKCS#11 > TPM2 > Software, depending on what was compiled in
//   - Software: crypto/rand
//   - TPM2: TPM2_GetRandom (build tag "tpm2")
//   - PKCS#11: C_GenerateRandom (build tag "pkcs11")
//
// # Deterministic Output
//
// NewInsecureDeterministic returns a seeded xorshift generator for tests and
// reproducible fixtures. It is not reachable through NewResolver and must
// never be used to split real secrets.
//
// # Thread Safety
//
// All Resolver implementations are safe for concurrent use.
package rand

import (
	"crypto/rand"
	"errors"
	"fmt"
)

var (
	// ErrInvalidLength is returned when a negative byte count is requested.
	ErrInvalidLength = errors.New("rand: invalid length")

	// ErrUnknownMode is returned by NewResolver for an unrecognized Mode.
	ErrUnknownMode = errors.New("rand: unknown RNG mode")

	// ErrShortRead is returned when a source yields fewer bytes than requested.
	ErrShortRead = errors.New("rand: source returned fewer bytes than requested")

	// ErrClosed is returned when reading from a closed hardware resolver.
	ErrClosed = errors.New("rand: resolver closed")
)

// Mode names a random source in configuration.
type Mode string

const (
	ModeAuto     Mode = "auto"     // first usable of pkcs11, tpm2, software
	ModeSoftware Mode = "software" // crypto/rand
	ModeTPM2     Mode = "tpm2"     // TPM2_GetRandom
	ModePKCS11   Mode = "pkcs11"   // C_GenerateRandom
)

// Modes returns every mode accepted by NewResolver.
func Modes() []Mode {
	return []Mode{ModeAuto, ModeSoftware, ModeTPM2, ModePKCS11}
}

// Config is the random section of the sss configuration file.
type Config struct {
	// Mode is the primary source. Empty means ModeAuto.
	Mode Mode `yaml:"mode"`

	// FallbackMode is consulted by ModeAuto when the primary source fails
	// a draw, e.g. software behind a flaky TPM.
	FallbackMode Mode `yaml:"fallback_mode"`

	TPM2Config   *TPM2Config   `yaml:"tpm2,omitempty"`
	PKCS11Config *PKCS11Config `yaml:"pkcs11,omitempty"`
}

// TPM2Config selects the TPM that supplies share coefficients.
type TPM2Config struct {
	// Device defaults to /dev/tpmrm0, then /dev/tpm0.
	Device string `yaml:"device"`

	// MaxRequestSize limits the bytes requested per TPM2_GetRandom call.
	// Default: 32
	MaxRequestSize int `yaml:"max_request_size"`

	// UseSimulator connects to a TCP simulator (swtpm) instead of Device.
	UseSimulator bool `yaml:"use_simulator"`

	// SimulatorHost defaults to "localhost"
	SimulatorHost string `yaml:"simulator_host"`

	// SimulatorPort defaults to 2321; the platform port is SimulatorPort+1.
	SimulatorPort int `yaml:"simulator_port"`
}

// PKCS11Config selects the token slot that supplies share coefficients.
type PKCS11Config struct {
	// Module is the path of the PKCS#11 library, such as libsofthsm2.so.
	Module string `yaml:"module"`
	SlotID uint   `yaml:"slot_id"`

	// PIN logs in to the slot when PINRequired is set.
	PINRequired bool   `yaml:"pin_required"`
	PIN         string `yaml:"pin"`
}

// Generator produces random bytes on demand. This is the only capability
// the secret sharing core requires of a randomness source.
type Generator interface {
	// Rand returns exactly n random bytes, or an error.
	// A negative n returns ErrInvalidLength.
	Rand(n int) ([]byte, error)
}

// GeneratorFunc adapts an ordinary function to the Generator interface.
type GeneratorFunc func(n int) ([]byte, error)

// Rand calls f(n).
func (f GeneratorFunc) Rand(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, n)
	}
	return f(n)
}

// Source is one device or library that yields random bytes.
type Source interface {
	Generator
	Available() bool
	Close() error
}

// Resolver is the long-lived handle a process resolves once and passes to
// every split. It is also an io.Reader.
type Resolver interface {
	Generator
	Read(p []byte) (int, error)

	// Source is the source draws currently come from.
	Source() Source

	// Available reports whether any configured source can serve a draw.
	Available() bool
	Close() error
}

// NewResolver opens the source described by config, which may be nil, a
// Mode, or a *Config. Nil and any other type select ModeAuto.
func NewResolver(config any) (Resolver, error) {
	return newResolver(asConfig(config))
}

func asConfig(config any) *Config {
	cfg := Config{Mode: ModeAuto}
	switch v := config.(type) {
	case Mode:
		cfg.Mode = v
	case *Config:
		if v != nil {
			cfg = *v
		}
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeAuto
	}
	return &cfg
}

func newResolver(cfg *Config) (Resolver, error) {
	switch cfg.Mode {
	case ModeAuto, "":
		return newAutoResolver(cfg)
	case ModeSoftware:
		return newSoftwareResolver()
	case ModeTPM2:
		return newTPM2Resolver(cfg.TPM2Config)
	case ModePKCS11:
		return newPKCS11Resolver(cfg.PKCS11Config)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMode, cfg.Mode)
	}
}

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// readInto fills p from g. It is shared by the Read method of every resolver.
func readInto(g Generator, p []byte) (int, error) {
	data, err := g.Rand(len(p))
	if err != nil {
		return 0, err
	}
	if len(data) < len(p) {
		return copy(p, data), ErrShortRead
	}
	return copy(p, data), nil
}

// SoftwareResolver draws from the operating system through crypto/rand.
type SoftwareResolver struct{}

var _ Resolver = (*SoftwareResolver)(nil)

func newSoftwareResolver() (Resolver, error) {
	return &SoftwareResolver{}, nil
}

func (s *SoftwareResolver) Rand(n int) ([]byte, error) {
	return softwareRand(n)
}

func (s *SoftwareResolver) Read(p []byte) (int, error) {
	return rand.Read(p)
}

func (s *SoftwareResolver) Source() Source {
	return &softwareSource{}
}

func (s *SoftwareResolver) Available() bool {
	return true
}

func (s *SoftwareResolver) Close() error {
	return nil
}

type softwareSource struct{}

func (s *softwareSource) Rand(n int) ([]byte, error) {
	return softwareRand(n)
}

func (s *softwareSource) Available() bool {
	return true
}

func (s *softwareSource) Close() error {
	return nil
}

func softwareRand(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, n)
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("rand: crypto/rand read failed: %w", err)
	}
	return buf, nil
}

// resolverSource exposes a hardware resolver as its own Source.
type resolverSource struct {
	r Resolver
}

func (s resolverSource) Rand(n int) ([]byte, error) { return s.r.Rand(n) }
func (s resolverSource) Available() bool            { return s.r.Available() }
func (s resolverSource) Close() error               { return s.r.Close() }
