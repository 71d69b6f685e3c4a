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

package cli

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-sss/pkg/adapters/kdf"
	"github.com/jeremyhahn/go-sss/pkg/crypto/aead"
	"github.com/jeremyhahn/go-sss/pkg/encoding"
	"github.com/jeremyhahn/go-sss/pkg/secretsharing"
)

// Envelope names
const (
	EnvelopeNone = "none"
	EnvelopeAEAD = "aead"
	EnvelopeJWE  = "jwe"
)

var (
	// ErrEncryptionDisabled is returned when an envelope needs the
	// configured encryption key and encryption is disabled.
	ErrEncryptionDisabled = errors.New("cli: encryption is not enabled in the configuration")

	// ErrStorageDisabled is returned by store operations when the storage
	// backend is none.
	ErrStorageDisabled = errors.New("cli: storage backend is none")

	// ErrNoInput is returned when a command was given nothing to read.
	ErrNoInput = errors.New("cli: no input")

	// ErrBinaryOutput is returned when binary shares would go to a terminal.
	ErrBinaryOutput = errors.New("cli: binary shares require --out-dir")
)

// jweKeyPurpose separates the token key from the key that seals share
// values.
const jweKeyPurpose = "sss share token v1"

// envelope seals shares on the way out and opens them on the way in.
// aead seals each share value with the share cipher; jwe wraps each encoded
// share in a JWE compact token.
type envelope struct {
	name   string
	cipher *aead.ShareCipher
	key    []byte
}

func (s *session) envelope(name string) (*envelope, error) {
	switch strings.ToLower(name) {
	case EnvelopeNone, "":
		return &envelope{name: EnvelopeNone}, nil
	case EnvelopeAEAD:
		if !s.components.Cipher.Enabled() {
			return nil, ErrEncryptionDisabled
		}
		return &envelope{name: EnvelopeAEAD, cipher: s.components.Cipher}, nil
	case EnvelopeJWE:
		key, err := s.cfg.Encryption.LoadKey()
		if err != nil {
			return nil, err
		}
		if key == nil {
			return nil, ErrEncryptionDisabled
		}
		defer clear(key)
		tokenKey, err := kdf.Subkey(key, jweKeyPurpose)
		if err != nil {
			return nil, err
		}
		return &envelope{name: EnvelopeJWE, key: tokenKey}, nil
	default:
		return nil, fmt.Errorf("unknown envelope %q (must be none, aead, or jwe)", name)
	}
}

// wipe clears the JWE key.
func (e *envelope) wipe() {
	clear(e.key)
}

// encryption is the algorithm recorded on share sets sealed by e.
func (e *envelope) encryption() string {
	if e.name == EnvelopeAEAD {
		return e.cipher.Algorithm()
	}
	return ""
}

func (e *envelope) seal(shares []secretsharing.Share) ([]secretsharing.Share, error) {
	if e.name != EnvelopeAEAD {
		return shares, nil
	}
	return e.cipher.EncryptShares(shares)
}

func (e *envelope) open(shares []secretsharing.Share) ([]secretsharing.Share, error) {
	if e.name != EnvelopeAEAD {
		return shares, nil
	}
	return e.cipher.DecryptShares(shares)
}

// encode serializes sealed shares and wraps them when the envelope is jwe.
func (e *envelope) encode(shares []secretsharing.Share, format encoding.Format) ([][]byte, error) {
	out := make([][]byte, len(shares))
	for i, share := range shares {
		data, err := encoding.Encode(share, format)
		if err != nil {
			return nil, err
		}
		if e.name == EnvelopeJWE {
			token, err := aead.SealJWE(data, e.key, strconv.Itoa(int(share.Index)))
			if err != nil {
				return nil, err
			}
			data = []byte(token)
		}
		out[i] = data
	}
	return out, nil
}

// decode reverses encode and opens the result.
func (e *envelope) decode(items [][]byte, format encoding.Format) ([]secretsharing.Share, error) {
	shares := make([]secretsharing.Share, 0, len(items))
	for i, data := range items {
		if e.name == EnvelopeJWE {
			payload, err := aead.OpenJWE(string(bytes.TrimSpace(data)), e.key)
			if err != nil {
				return nil, fmt.Errorf("share %d: %w", i+1, err)
			}
			data = payload
		}
		share, err := encoding.Decode(data, format)
		if err != nil {
			return nil, fmt.Errorf("share %d: %w", i+1, err)
		}
		shares = append(shares, share)
	}
	return e.open(shares)
}

// lineOriented reports whether one input file may hold several shares,
// one per line.
func (e *envelope) lineOriented(format encoding.Format) bool {
	return e.name == EnvelopeJWE || format == encoding.FormatHex || format == encoding.FormatBase64
}

// readItems collects encoded shares from args and files. A file named "-"
// is read from stdin.
func readItems(cmd *cobra.Command, args, files []string, lines bool) ([][]byte, error) {
	items := make([][]byte, 0, len(args)+len(files))
	for _, arg := range args {
		items = append(items, []byte(arg))
	}

	for _, path := range files {
		data, err := readFile(cmd, path)
		if err != nil {
			return nil, err
		}
		if !lines {
			items = append(items, data)
			continue
		}
		scanner := bufio.NewScanner(bytes.NewReader(data))
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				items = append(items, []byte(line))
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: pass shares as arguments or with --in", ErrNoInput)
	}
	return items, nil
}

func readFile(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	// #nosec G304 - Input path is provided by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// shareFileName is the file split writes a share to.
func shareFileName(index byte, format encoding.Format, env string) string {
	ext := format.String()
	switch {
	case env == EnvelopeJWE:
		ext = "jwe"
	case format == encoding.FormatBinary:
		ext = "bin"
	}
	return fmt.Sprintf("share-%03d.%s", index, ext)
}

// writeShares writes one file per share into dir and returns the paths.
func writeShares(dir string, shares []secretsharing.Share, items [][]byte, format encoding.Format, env string) ([]string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	paths := make([]string, len(items))
	for i, data := range items {
		path := filepath.Join(dir, shareFileName(shares[i].Index, format, env))
		if format.IsText() || env == EnvelopeJWE {
			data = append(bytes.TrimRight(data, "\n"), '\n')
		}
		if err := os.WriteFile(path, data, 0600); err != nil {
			return nil, fmt.Errorf("failed to write share: %w", err)
		}
		paths[i] = path
	}
	return paths, nil
}

// textItems converts encoded shares for printing.
func textItems(items [][]byte) []string {
	out := make([]string, len(items))
	for i, data := range items {
		out[i] = strings.TrimRight(string(data), "\n")
	}
	return out
}

// formatFlag returns the named format flag, or fallback when it was not set.
func formatFlag(cmd *cobra.Command, name, fallback string) (encoding.Format, error) {
	value := fallback
	if cmd.Flags().Changed(name) {
		value, _ = cmd.Flags().GetString(name)
	}
	return encoding.ParseFormat(value)
}

// intFlag returns the named int flag, or fallback when it was not set.
func intFlag(cmd *cobra.Command, name string, fallback int) int {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetInt(name)
		return v
	}
	return fallback
}
