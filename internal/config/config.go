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

// Package config loads the YAML configuration shared by the sss CLI and
// the sss-server HTTP service.
//
// Values are resolved in order: built-in defaults, the YAML file, then
// SSS_* environment variables. The result is validated before use.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeremyhahn/go-sss/pkg/adapters/kdf"
	"github.com/jeremyhahn/go-sss/pkg/adapters/logger"
	"github.com/jeremyhahn/go-sss/pkg/crypto/aead"
	"github.com/jeremyhahn/go-sss/pkg/crypto/rand"
	"github.com/jeremyhahn/go-sss/pkg/encoding"
	"github.com/jeremyhahn/go-sss/pkg/ratelimit"
	"github.com/jeremyhahn/go-sss/pkg/secretsharing"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SSS_"

// Storage backend names
const (
	StorageNone   = "none"
	StorageMemory = "memory"
	StorageFile   = "file"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config represents the complete configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	TLS        TLSConfig        `yaml:"tls"`
	Logging    LoggingConfig    `yaml:"logging"`
	Sharing    SharingConfig    `yaml:"sharing"`
	Random     rand.Config      `yaml:"random"`
	Encryption EncryptionConfig `yaml:"encryption"`
	Storage    StorageConfig    `yaml:"storage"`
	RateLimit  RateLimitConfig  `yaml:"ratelimit"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Health     HealthConfig     `yaml:"health"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SharingConfig holds split and combine defaults
type SharingConfig struct {
	Threshold int    `yaml:"threshold"`
	Shares    int    `yaml:"shares"`
	Format    string `yaml:"format"`
	Workers   int    `yaml:"workers"`

	// Verify checks surplus shares for consistency before combining.
	Verify bool `yaml:"verify"`
}

// EncryptionConfig controls at-rest encryption of share values
type EncryptionConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Algorithm string `yaml:"algorithm"`

	// KeyFile holds a 32-byte key as raw bytes or 64 hex characters.
	KeyFile string `yaml:"key_file"`

	// PassphraseEnv names an environment variable holding a passphrase
	// the key is derived from. Used only when KeyFile is empty.
	PassphraseEnv string    `yaml:"passphrase_env"`
	KDF           KDFConfig `yaml:"kdf"`

	TrackNonces bool `yaml:"track_nonces"`
}

// KDFConfig tunes passphrase key derivation. Zero values keep the
// algorithm's defaults.
type KDFConfig struct {
	// Algorithm is argon2id, argon2i, or pbkdf2
	Algorithm string `yaml:"algorithm"`

	// Salt is hex encoded, at least 16 bytes
	Salt string `yaml:"salt"`

	Iterations int    `yaml:"iterations"`
	Memory     uint32 `yaml:"memory"`
	Time       uint32 `yaml:"time"`
	Threads    uint8  `yaml:"threads"`
}

// StorageConfig selects the share set backend
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
	Format  string `yaml:"format"`
}

// RateLimitConfig controls rate limiting
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	Burst             int  `yaml:"burst"`
	TrustProxyHeaders bool `yaml:"trust_proxy_headers"`
}

// Limiter converts the section to a ratelimit.Config.
func (r RateLimitConfig) Limiter() *ratelimit.Config {
	return &ratelimit.Config{
		Enabled:           r.Enabled,
		RequestsPerMinute: r.RequestsPerMinute,
		Burst:             r.Burst,
		TrustProxyHeaders: r.TrustProxyHeaders,
	}
}

// MetricsConfig controls the metrics endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`

	// Interval between refreshes of the process, storage, and cipher gauges.
	Interval time.Duration `yaml:"interval"`
}

// HealthConfig controls the health endpoints
type HealthConfig struct {
	Enabled      bool          `yaml:"enabled"`
	CheckTimeout time.Duration `yaml:"check_timeout"`

	// CacheTTL reuses readiness results younger than this; 0 runs the
	// checks on every probe.
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8443,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		TLS: TLSConfig{
			MinVersion: "TLS1.2",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Sharing: SharingConfig{
			Threshold: 3,
			Shares:    5,
			Format:    string(encoding.FormatHex),
		},
		Random: rand.Config{
			Mode: rand.ModeSoftware,
		},
		Encryption: EncryptionConfig{
			Algorithm: aead.Auto,
			KDF: KDFConfig{
				Algorithm: string(kdf.AlgorithmArgon2id),
			},
		},
		Storage: StorageConfig{
			Backend: StorageMemory,
			Format:  string(encoding.FormatBinary),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 600,
		},
		Metrics: MetricsConfig{
			Enabled:  true,
			Path:     "/metrics",
			Interval: 30 * time.Second,
		},
		Health: HealthConfig{
			Enabled:      true,
			CheckTimeout: 5 * time.Second,
		},
	}
}

// Load reads configuration from a YAML file over the defaults and applies
// environment variable overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		// #nosec G304 - Config file path is provided by admin/user
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv applies SSS_* overrides using lookup, typically os.LookupEnv.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q: %v", ErrInvalidConfig, EnvPrefix, name, v, err)
		}
		*dst = n
		return nil
	}
	flag := func(name string, dst *bool) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q: %v", ErrInvalidConfig, EnvPrefix, name, v, err)
		}
		*dst = b
		return nil
	}

	str("HOST", &cfg.Server.Host)
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_FORMAT", &cfg.Logging.Format)
	str("FORMAT", &cfg.Sharing.Format)
	str("ENCRYPTION_ALGORITHM", &cfg.Encryption.Algorithm)
	str("ENCRYPTION_KEY_FILE", &cfg.Encryption.KeyFile)
	str("ENCRYPTION_PASSPHRASE_ENV", &cfg.Encryption.PassphraseEnv)
	str("STORAGE_BACKEND", &cfg.Storage.Backend)
	str("STORAGE_PATH", &cfg.Storage.Path)
	str("TLS_CERT_FILE", &cfg.TLS.CertFile)
	str("TLS_KEY_FILE", &cfg.TLS.KeyFile)

	var mode string
	str("RANDOM_MODE", &mode)
	if mode != "" {
		cfg.Random.Mode = rand.Mode(strings.ToLower(mode))
	}

	for _, n := range []struct {
		name string
		dst  *int
	}{
		{"PORT", &cfg.Server.Port},
		{"THRESHOLD", &cfg.Sharing.Threshold},
		{"SHARES", &cfg.Sharing.Shares},
		{"WORKERS", &cfg.Sharing.Workers},
		{"RATELIMIT_RPM", &cfg.RateLimit.RequestsPerMinute},
	} {
		if err := num(n.name, n.dst); err != nil {
			return err
		}
	}

	for _, b := range []struct {
		name string
		dst  *bool
	}{
		{"VERIFY", &cfg.Sharing.Verify},
		{"ENCRYPTION_ENABLED", &cfg.Encryption.Enabled},
		{"TLS_ENABLED", &cfg.TLS.Enabled},
		{"RATELIMIT_ENABLED", &cfg.RateLimit.Enabled},
		{"METRICS_ENABLED", &cfg.Metrics.Enabled},
	} {
		if err := flag(b.name, b.dst); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid("server port %d out of range 1-65535", c.Server.Port)
	}
	if c.Server.MaxBodyBytes < 0 {
		return invalid("server max_body_bytes must not be negative")
	}

	if c.TLS.Enabled {
		if c.TLS.CertFile == "" {
			return invalid("tls cert_file is required when TLS is enabled")
		}
		if c.TLS.KeyFile == "" {
			return invalid("tls key_file is required when TLS is enabled")
		}
		if _, err := parseTLSVersion(c.TLS.MinVersion); err != nil {
			return invalid("%v", err)
		}
		if _, err := parseClientAuthType(c.TLS.ClientAuth); err != nil {
			return invalid("tls client_auth: %v", err)
		}
	}

	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return invalid("logging level: %v", err)
	}
	switch c.Logging.Format {
	case logger.FormatText, logger.FormatJSON:
	default:
		return invalid("logging format %q (must be text or json)", c.Logging.Format)
	}

	s := c.Sharing
	if s.Threshold < 1 || s.Threshold > s.Shares || s.Shares > secretsharing.MaxShares {
		return invalid("sharing requires 1 <= threshold (%d) <= shares (%d) <= %d", s.Threshold, s.Shares, secretsharing.MaxShares)
	}
	if _, err := encoding.ParseFormat(s.Format); err != nil {
		return invalid("sharing format: %v", err)
	}
	if s.Workers < 0 {
		return invalid("sharing workers must not be negative")
	}

	if _, err := rand.ParseMode(string(c.Random.Mode)); err != nil {
		return invalid("random mode: %v", err)
	}
	if c.Random.FallbackMode != "" {
		if _, err := rand.ParseMode(string(c.Random.FallbackMode)); err != nil {
			return invalid("random fallback_mode: %v", err)
		}
	}

	if c.Encryption.Enabled {
		if _, err := aead.ParseAlgorithm(c.Encryption.Algorithm); err != nil {
			return invalid("encryption algorithm: %v", err)
		}
		switch {
		case c.Encryption.KeyFile != "" && c.Encryption.PassphraseEnv != "":
			return invalid("encryption key_file and passphrase_env are mutually exclusive")
		case c.Encryption.KeyFile == "" && c.Encryption.PassphraseEnv == "":
			return invalid("encryption key_file or passphrase_env is required when encryption is enabled")
		case c.Encryption.PassphraseEnv != "":
			if _, err := c.Encryption.KDF.Params(); err != nil {
				return invalid("encryption kdf: %v", err)
			}
		}
	}

	switch c.Storage.Backend {
	case StorageNone, StorageMemory:
	case StorageFile:
		if c.Storage.Path == "" {
			return invalid("storage path is required for the file backend")
		}
	default:
		return invalid("storage backend %q (must be none, memory, or file)", c.Storage.Backend)
	}
	if _, err := encoding.ParseFormat(c.Storage.Format); err != nil {
		return invalid("storage format: %v", err)
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute < 1 {
		return invalid("ratelimit requests_per_minute must be positive when enabled")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return invalid("metrics path %q must start with /", c.Metrics.Path)
	}
	if c.Health.CacheTTL < 0 {
		return invalid("health cache_ttl must not be negative")
	}
	if c.Metrics.Interval < 0 {
		return invalid("metrics interval must not be negative")
	}
	return nil
}

// LoadKey reads the encryption key from KeyFile or derives it from the
// passphrase in PassphraseEnv. It returns nil when encryption is disabled.
func (e EncryptionConfig) LoadKey() ([]byte, error) {
	if !e.Enabled {
		return nil, nil
	}
	if e.KeyFile == "" && e.PassphraseEnv != "" {
		return e.deriveKey()
	}
	// #nosec G304 - Key file path is provided by admin/user
	data, err := os.ReadFile(e.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read encryption key: %w", err)
	}
	return ParseKey(data)
}

// ParseKey accepts a 32-byte key as raw bytes or as 64 hex characters,
// with surrounding whitespace ignored for the hex form.
func ParseKey(data []byte) ([]byte, error) {
	if len(data) == aead.KeySize {
		return data, nil
	}
	text := strings.TrimSpace(string(data))
	key, err := hex.DecodeString(text)
	if err != nil || len(key) != aead.KeySize {
		return nil, fmt.Errorf("%w: key must be %d raw bytes or %d hex characters", aead.ErrInvalidKeySize, aead.KeySize, 2*aead.KeySize)
	}
	return key, nil
}

func (e EncryptionConfig) deriveKey() ([]byte, error) {
	passphrase, ok := os.LookupEnv(e.PassphraseEnv)
	if !ok || passphrase == "" {
		return nil, fmt.Errorf("%w: passphrase variable %s is not set", ErrInvalidConfig, e.PassphraseEnv)
	}
	params, err := e.KDF.Params()
	if err != nil {
		return nil, err
	}
	return kdf.Derive([]byte(passphrase), params)
}

// Params resolves the section into derivation parameters for a share key.
func (k KDFConfig) Params() (*kdf.Params, error) {
	name := k.Algorithm
	if name == "" {
		name = string(kdf.AlgorithmArgon2id)
	}
	algorithm, err := kdf.ParseAlgorithm(name)
	if err != nil {
		return nil, err
	}
	if algorithm == kdf.AlgorithmHKDF {
		return nil, fmt.Errorf("%w: hkdf cannot stretch a passphrase", kdf.ErrUnsupportedAlgorithm)
	}

	salt, err := hex.DecodeString(strings.TrimSpace(k.Salt))
	if err != nil {
		return nil, fmt.Errorf("%w: salt must be hex: %v", kdf.ErrInvalidSalt, err)
	}

	params := kdf.DefaultParams(algorithm)
	params.Salt = salt
	if k.Iterations > 0 {
		params.Iterations = k.Iterations
	}
	if k.Memory > 0 {
		params.Memory = k.Memory
	}
	if k.Time > 0 {
		params.Time = k.Time
	}
	if k.Threads > 0 {
		params.Threads = k.Threads
	}

	adapter, err := kdf.New(algorithm)
	if err != nil {
		return nil, err
	}
	if err := adapter.ValidateParams(params); err != nil {
		return nil, err
	}
	return params, nil
}
