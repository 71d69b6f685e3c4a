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

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeremyhahn/go-sss/pkg/crypto/aead"
	"github.com/jeremyhahn/go-sss/pkg/crypto/rand"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefault_Valid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
}

// TestLoad_Success tests successful loading of a valid config file
func TestLoad_Success(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  host: "0.0.0.0"
  port: 9000
  read_timeout: 3s

logging:
  level: "debug"
  format: "json"

sharing:
  threshold: 2
  shares: 4
  format: "base64"
  workers: 4
  verify: true

random:
  mode: "auto"
  fallback_mode: "software"

encryption:
  enabled: true
  algorithm: "chacha20-poly1305"
  key_file: "/etc/sss/key"

storage:
  backend: "file"
  path: "/var/lib/sss"

ratelimit:
  enabled: true
  requests_per_minute: 30
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr() != "0.0.0.0:9000" {
		t.Errorf("Addr() = %q", cfg.Server.Addr())
	}
	if cfg.Server.ReadTimeout != 3*time.Second {
		t.Errorf("ReadTimeout = %v, want 3s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != 10*time.Second {
		t.Errorf("WriteTimeout = %v, want default 10s", cfg.Server.WriteTimeout)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Sharing.Threshold != 2 || cfg.Sharing.Shares != 4 || !cfg.Sharing.Verify {
		t.Errorf("Sharing = %+v", cfg.Sharing)
	}
	if cfg.Random.Mode != rand.ModeAuto || cfg.Random.FallbackMode != rand.ModeSoftware {
		t.Errorf("Random = %+v", cfg.Random)
	}
	if cfg.Storage.Backend != StorageFile || cfg.Storage.Format != "binary" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if r := cfg.RateLimit.Limiter(); !r.Enabled || r.RequestsPerMinute != 30 {
		t.Errorf("Limiter() = %+v", r)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics default lost: %+v", cfg.Metrics)
	}
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Sharing.Threshold != 3 || cfg.Sharing.Shares != 5 {
		t.Errorf("defaults not applied: %+v", cfg.Sharing)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of missing file succeeded")
	}

	bad := writeFile(t, "bad.yaml", "server: [")
	if _, err := Load(bad); err == nil || !strings.Contains(err.Error(), "parse") {
		t.Errorf("Load() of bad YAML error = %v", err)
	}

	invalid := writeFile(t, "invalid.yaml", "sharing:\n  threshold: 9\n  shares: 3\n")
	if _, err := Load(invalid); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Load() of invalid config error = %v, want ErrInvalidConfig", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SSS_PORT", "7000")
	t.Setenv("SSS_THRESHOLD", "4")
	t.Setenv("SSS_SHARES", "6")
	t.Setenv("SSS_RANDOM_MODE", "AUTO")
	t.Setenv("SSS_VERIFY", "true")
	t.Setenv("SSS_STORAGE_BACKEND", "none")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("Port = %d, want 7000", cfg.Server.Port)
	}
	if cfg.Sharing.Threshold != 4 || cfg.Sharing.Shares != 6 || !cfg.Sharing.Verify {
		t.Errorf("Sharing = %+v", cfg.Sharing)
	}
	if cfg.Random.Mode != rand.ModeAuto {
		t.Errorf("Random.Mode = %q", cfg.Random.Mode)
	}
	if cfg.Storage.Backend != StorageNone {
		t.Errorf("Storage.Backend = %q", cfg.Storage.Backend)
	}
}

func TestApplyEnv_Invalid(t *testing.T) {
	tests := map[string]string{
		"SSS_PORT":            "http",
		"SSS_THRESHOLD":       "three",
		"SSS_METRICS_ENABLED": "maybe",
	}
	for name, value := range tests {
		t.Run(name, func(t *testing.T) {
			lookup := func(k string) (string, bool) {
				if k == name {
					return value, true
				}
				return "", false
			}
			if err := ApplyEnv(Default(), lookup); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("ApplyEnv() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"negative body", func(c *Config) { c.Server.MaxBodyBytes = -1 }},
		{"tls without cert", func(c *Config) { c.TLS.Enabled = true; c.TLS.KeyFile = "k" }},
		{"tls without key", func(c *Config) { c.TLS.Enabled = true; c.TLS.CertFile = "c" }},
		{"tls old version", func(c *Config) { c.TLS = TLSConfig{Enabled: true, CertFile: "c", KeyFile: "k", MinVersion: "TLS1.0"} }},
		{"tls bad client auth", func(c *Config) { c.TLS = TLSConfig{Enabled: true, CertFile: "c", KeyFile: "k", ClientAuth: "sometimes"} }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"zero threshold", func(c *Config) { c.Sharing.Threshold = 0 }},
		{"threshold above shares", func(c *Config) { c.Sharing.Threshold = 6 }},
		{"too many shares", func(c *Config) { c.Sharing.Shares = 256 }},
		{"bad share format", func(c *Config) { c.Sharing.Format = "xml" }},
		{"negative workers", func(c *Config) { c.Sharing.Workers = -1 }},
		{"bad random mode", func(c *Config) { c.Random.Mode = "dice" }},
		{"bad fallback mode", func(c *Config) { c.Random.FallbackMode = "dice" }},
		{"encryption without key", func(c *Config) { c.Encryption.Enabled = true }},
		{"key file and passphrase", func(c *Config) {
			c.Encryption = EncryptionConfig{Enabled: true, Algorithm: aead.Auto, KeyFile: "k", PassphraseEnv: "P"}
		}},
		{"passphrase short salt", func(c *Config) {
			c.Encryption = EncryptionConfig{Enabled: true, Algorithm: aead.Auto, PassphraseEnv: "P", KDF: KDFConfig{Salt: "00ff"}}
		}},
		{"passphrase hkdf", func(c *Config) {
			c.Encryption = EncryptionConfig{Enabled: true, Algorithm: aead.Auto, PassphraseEnv: "P",
				KDF: KDFConfig{Algorithm: "hkdf", Salt: strings.Repeat("ab", 16)}}
		}},
		{"bad algorithm", func(c *Config) { c.Encryption = EncryptionConfig{Enabled: true, Algorithm: "des", KeyFile: "k"} }},
		{"bad storage backend", func(c *Config) { c.Storage.Backend = "s3" }},
		{"file storage without path", func(c *Config) { c.Storage.Backend = StorageFile }},
		{"bad storage format", func(c *Config) { c.Storage.Format = "xml" }},
		{"ratelimit without rate", func(c *Config) { c.RateLimit = RateLimitConfig{Enabled: true} }},
		{"relative metrics path", func(c *Config) { c.Metrics.Path = "metrics" }},
		{"negative health cache ttl", func(c *Config) { c.Health.CacheTTL = -time.Second }},
		{"negative metrics interval", func(c *Config) { c.Metrics.Interval = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestParseKey(t *testing.T) {
	raw := make([]byte, aead.KeySize)
	for i := range raw {
		raw[i] = byte(i)
	}
	hexKey := "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f\n"

	tests := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{"raw", raw, false},
		{"hex with newline", []byte(hexKey), false},
		{"short", []byte("abcd"), true},
		{"bad hex", []byte(strings.Repeat("zz", 32)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := ParseKey(tt.data)
			if tt.wantErr {
				if !errors.Is(err, aead.ErrInvalidKeySize) {
					t.Errorf("ParseKey() error = %v, want ErrInvalidKeySize", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseKey() error = %v", err)
			}
			if string(key) != string(raw) {
				t.Errorf("ParseKey() = %x", key)
			}
		})
	}
}

func TestLoadKey(t *testing.T) {
	key, err := EncryptionConfig{}.LoadKey()
	if err != nil || key != nil {
		t.Errorf("disabled LoadKey() = %x, %v", key, err)
	}

	path := writeFile(t, "key", strings.Repeat("ab", 32))
	key, err = EncryptionConfig{Enabled: true, KeyFile: path}.LoadKey()
	if err != nil {
		t.Fatalf("LoadKey() error = %v", err)
	}
	if len(key) != aead.KeySize || key[0] != 0xab {
		t.Errorf("LoadKey() = %x", key)
	}

	if _, err := (EncryptionConfig{Enabled: true, KeyFile: path + ".missing"}).LoadKey(); err == nil {
		t.Error("LoadKey() of missing file succeeded")
	}
}

func TestLoadTLSConfig_Disabled(t *testing.T) {
	cfg := &TLSConfig{}
	tlsConfig, err := cfg.LoadTLSConfig()
	if err != nil || tlsConfig != nil {
		t.Errorf("LoadTLSConfig() = %v, %v; want nil, nil", tlsConfig, err)
	}

	cfg = &TLSConfig{Enabled: true, CertFile: "/missing/cert.pem", KeyFile: "/missing/key.pem"}
	if _, err := cfg.LoadTLSConfig(); err == nil {
		t.Error("LoadTLSConfig() with missing files succeeded")
	}
}

func TestLoadKey_Passphrase(t *testing.T) {
	t.Setenv("SSS_TEST_PASSPHRASE", "correct horse battery staple")

	enc := EncryptionConfig{
		Enabled:       true,
		PassphraseEnv: "SSS_TEST_PASSPHRASE",
		KDF: KDFConfig{
			Algorithm:  "pbkdf2",
			Salt:       strings.Repeat("5a", 16),
			Iterations: 100000,
		},
	}
	key, err := enc.LoadKey()
	if err != nil {
		t.Fatalf("LoadKey() error = %v", err)
	}
	if len(key) != aead.KeySize {
		t.Fatalf("LoadKey() length = %d, want %d", len(key), aead.KeySize)
	}

	again, err := enc.LoadKey()
	if err != nil || string(again) != string(key) {
		t.Errorf("LoadKey() is not deterministic: %x vs %x (%v)", key, again, err)
	}

	enc.KDF.Salt = strings.Repeat("a5", 16)
	other, err := enc.LoadKey()
	if err != nil || string(other) == string(key) {
		t.Errorf("LoadKey() with a new salt = %x, %v", other, err)
	}

	enc.PassphraseEnv = "SSS_TEST_PASSPHRASE_UNSET"
	if _, err := enc.LoadKey(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("LoadKey() with unset variable error = %v, want ErrInvalidConfig", err)
	}
}

func TestKDFConfig_Params(t *testing.T) {
	params, err := KDFConfig{Salt: strings.Repeat("01", 16), Memory: 16 * 1024, Threads: 2}.Params()
	if err != nil {
		t.Fatalf("Params() error = %v", err)
	}
	if params.Algorithm != "argon2id" || params.Memory != 16*1024 || params.Threads != 2 || params.Time != 3 {
		t.Errorf("Params() = %+v", params)
	}

	if _, err := (KDFConfig{Salt: "not hex"}).Params(); err == nil {
		t.Error("Params() accepted a non-hex salt")
	}
}
