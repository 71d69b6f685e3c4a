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
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// TLSConfig controls TLS for the HTTP service
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`

	// CAFile holds the PEM roots that client certificates are checked
	// against.
	CAFile string `yaml:"ca_file"`

	// ClientAuth is none, request, require, verify, or require_and_verify
	ClientAuth string `yaml:"client_auth"`

	// MinVersion is TLS1.2 (default) or TLS1.3
	MinVersion string `yaml:"min_version"`
}

var tlsVersions = map[string]uint16{
	"":       tls.VersionTLS12,
	"TLS1.2": tls.VersionTLS12,
	"TLS1.3": tls.VersionTLS13,
}

var clientAuthModes = map[string]tls.ClientAuthType{
	"":                   tls.NoClientCert,
	"none":               tls.NoClientCert,
	"request":            tls.RequestClientCert,
	"require":            tls.RequireAnyClientCert,
	"verify":             tls.VerifyClientCertIfGiven,
	"require_and_verify": tls.RequireAndVerifyClientCert,
}

func parseTLSVersion(version string) (uint16, error) {
	v, ok := tlsVersions[version]
	if !ok {
		return 0, fmt.Errorf("unsupported TLS min_version %q (must be TLS1.2 or TLS1.3)", version)
	}
	return v, nil
}

func parseClientAuthType(mode string) (tls.ClientAuthType, error) {
	a, ok := clientAuthModes[mode]
	if !ok {
		return tls.NoClientCert, fmt.Errorf("unknown client auth type: %s", mode)
	}
	return a, nil
}

// LoadTLSConfig reads the server key pair and client CA roots. It returns
// nil when TLS is disabled.
func (cfg *TLSConfig) LoadTLSConfig() (*tls.Config, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	version, err := parseTLSVersion(cfg.MinVersion)
	if err != nil {
		return nil, err
	}
	auth, err := parseClientAuthType(cfg.ClientAuth)
	if err != nil {
		return nil, fmt.Errorf("invalid client_auth value: %w", err)
	}

	pair, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load server certificate: %w", err)
	}

	// #nosec G402 - MinVersion is at least TLS 1.2
	out := &tls.Config{
		Certificates: []tls.Certificate{pair},
		MinVersion:   version,
		ClientAuth:   auth,
	}
	if cfg.CAFile == "" {
		return out, nil
	}

	// #nosec G304 - CA file path from trusted config
	pem, err := os.ReadFile(cfg.CAFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file %s: %w", cfg.CAFile, err)
	}
	out.ClientCAs = x509.NewCertPool()
	if !out.ClientCAs.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no CA certificates found in %s", cfg.CAFile)
	}
	return out, nil
}
