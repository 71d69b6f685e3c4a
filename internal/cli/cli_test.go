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
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-sss/pkg/crypto/aead"
	"github.com/jeremyhahn/go-sss/pkg/encoding"
	"github.com/jeremyhahn/go-sss/pkg/secretsharing"
	"github.com/jeremyhahn/go-sss/pkg/storage"
)

type testEnv struct {
	dir        string
	configPath string
}

// newTestEnv writes a config with file storage and, when encrypt is set, a
// ChaCha20-Poly1305 key.
func newTestEnv(t *testing.T, encrypt bool) *testEnv {
	t.Helper()
	dir := t.TempDir()

	var b strings.Builder
	fmt.Fprintf(&b, "storage:\n  backend: file\n  path: %s\n", filepath.Join(dir, "store"))
	if encrypt {
		keyPath := filepath.Join(dir, "share.key")
		key := bytes.Repeat([]byte{0x42}, aead.KeySize)
		require.NoError(t, os.WriteFile(keyPath, []byte(hex.EncodeToString(key)), 0600))
		fmt.Fprintf(&b, "encryption:\n  enabled: true\n  algorithm: %s\n  key_file: %s\n", aead.ChaCha20Poly1305, keyPath)
	}

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0600))
	return &testEnv{dir: dir, configPath: path}
}

func (e *testEnv) run(stdin string, args ...string) (string, string, error) {
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func decodeJSON[T any](t *testing.T, data string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(data), &v), data)
	return v
}

type secretOutput struct {
	Secret   string `json:"secret"`
	Encoding string `json:"encoding"`
	Shares   int    `json:"shares"`
}

func (e *testEnv) split(t *testing.T, args ...string) *SplitResult {
	t.Helper()
	out, _, err := e.run("", append([]string{"split", "-o", "json"}, args...)...)
	require.NoError(t, err)
	return decodeJSON[*SplitResult](t, out)
}

func (e *testEnv) combine(t *testing.T, args ...string) secretOutput {
	t.Helper()
	out, _, err := e.run("", append([]string{"combine", "-o", "json"}, args...)...)
	require.NoError(t, err)
	return decodeJSON[secretOutput](t, out)
}

func TestSplit_DefaultXValues(t *testing.T) {
	env := newTestEnv(t, false)

	result := env.split(t, "--secret", "hello", "-t", "2", "-n", "3", "--format", "hex")
	require.Len(t, result.Shares, 3)
	for i, share := range result.Shares {
		assert.True(t, strings.HasPrefix(share, fmt.Sprintf("%02x-", i+1)), share)
	}

	out, _, err := env.run("", "split", "--secret", "hello", "-t", "2", "-n", "3")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestCombine_PEMArgumentsNeedSeparator(t *testing.T) {
	env := newTestEnv(t, false)
	result := env.split(t, "--secret", "pem secret", "-t", "2", "-n", "2", "--format", "pem")
	require.Len(t, result.Shares, 2)

	_, _, err := env.run("", append([]string{"combine", "--format", "pem"}, result.Shares...)...)
	assert.Error(t, err)

	got := env.combine(t, append([]string{"--format", "pem", "--"}, result.Shares...)...)
	assert.Equal(t, "pem secret", got.Secret)
}

func TestSplitCombineRoundTrip(t *testing.T) {
	env := newTestEnv(t, false)

	for _, format := range []encoding.Format{
		encoding.FormatHex,
		encoding.FormatBase64,
		encoding.FormatJSON,
		encoding.FormatYAML,
		encoding.FormatPEM,
	} {
		t.Run(format.String(), func(t *testing.T) {
			result := env.split(t, "--secret", "correct horse battery staple",
				"-t", "3", "-n", "5", "--format", format.String())
			require.Len(t, result.Shares, 5)
			assert.Equal(t, 3, result.Threshold)
			assert.Equal(t, format.String(), result.Format)
			assert.False(t, result.Stored)

			args := []string{"--format", format.String(), "--"}
			args = append(args, result.Shares[1], result.Shares[4], result.Shares[2])
			got := env.combine(t, args...)
			assert.Equal(t, "correct horse battery staple", got.Secret)
			assert.Equal(t, "utf8", got.Encoding)
			assert.Equal(t, 3, got.Shares)
		})
	}
}

func TestSplitDefaults(t *testing.T) {
	env := newTestEnv(t, false)

	out, _, err := env.run("", "split", "--secret", "s3cret")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	for i, line := range lines {
		assert.True(t, strings.HasPrefix(line, fmt.Sprintf("%02x-", i+1)), line)
	}

	out, _, err = env.run("", "combine", lines[0], lines[2], lines[3])
	require.NoError(t, err)
	assert.Equal(t, "s3cret\n", out)
}

func TestSplitInputs(t *testing.T) {
	env := newTestEnv(t, false)

	t.Run("Hex from stdin", func(t *testing.T) {
		out, _, err := env.run("00ff10\n", "split", "--in", "-", "--hex", "-t", "2", "-n", "2", "-o", "json")
		require.NoError(t, err)
		result := decodeJSON[*SplitResult](t, out)

		got := env.combine(t, result.Shares...)
		assert.Equal(t, "hex", got.Encoding)
		assert.Equal(t, "00ff10", got.Secret)
	})

	t.Run("File", func(t *testing.T) {
		path := filepath.Join(env.dir, "secret.txt")
		require.NoError(t, os.WriteFile(path, []byte("from a file"), 0600))
		result := env.split(t, "--in", path, "-t", "2", "-n", "3")

		got := env.combine(t, "--hex", result.Shares[0], result.Shares[2])
		assert.Equal(t, hex.EncodeToString([]byte("from a file")), got.Secret)
	})

	t.Run("Explicit x-values", func(t *testing.T) {
		result := env.split(t, "--secret", "xs", "-t", "2", "--x-values", "7,9,200")
		require.Len(t, result.Shares, 3)
		assert.True(t, strings.HasPrefix(result.Shares[2], "c8-"), result.Shares[2])
	})
}

func TestSplitErrors(t *testing.T) {
	env := newTestEnv(t, false)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"no secret", []string{"split"}, ErrNoInput},
		{"threshold above shares", []string{"split", "--secret", "x", "-t", "6", "-n", "5"}, secretsharing.ErrValidation},
		{"x-value out of range", []string{"split", "--secret", "x", "-t", "1", "--x-values", "0"}, secretsharing.ErrValidation},
		{"binary without out-dir", []string{"split", "--secret", "x", "--format", "binary"}, ErrBinaryOutput},
		{"aead without key", []string{"split", "--secret", "x", "--envelope", "aead"}, ErrEncryptionDisabled},
		{"jwe without key", []string{"split", "--secret", "x", "--envelope", "jwe"}, ErrEncryptionDisabled},
		{"unknown format", []string{"split", "--secret", "x", "--format", "xml"}, encoding.ErrUnknownFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := env.run("", tt.args...)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("Secret and in", func(t *testing.T) {
		_, _, err := env.run("", "split", "--secret", "x", "--in", "-")
		assert.Error(t, err)
	})
}

func TestBinaryShareFiles(t *testing.T) {
	env := newTestEnv(t, false)
	outDir := filepath.Join(env.dir, "shares")

	result := env.split(t, "--secret", "binary secret", "-t", "2", "-n", "3",
		"--format", "binary", "--out-dir", outDir)
	require.Len(t, result.Files, 3)
	assert.Empty(t, result.Shares)
	assert.Equal(t, filepath.Join(outDir, "share-001.bin"), result.Files[0])

	info, err := os.Stat(result.Files[0])
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got := env.combine(t, "--format", "binary", "--in", result.Files[2], "--in", result.Files[0])
	assert.Equal(t, "binary secret", got.Secret)
}

func TestEnvelopes(t *testing.T) {
	env := newTestEnv(t, true)

	t.Run("AEAD", func(t *testing.T) {
		result := env.split(t, "--secret", "sealed", "-t", "2", "-n", "3", "--envelope", "aead")
		assert.Equal(t, aead.ChaCha20Poly1305, result.Encryption)

		got := env.combine(t, "--envelope", "aead", result.Shares[0], result.Shares[1])
		assert.Equal(t, "sealed", got.Secret)

		// Sealed values combine to ciphertext noise, never the secret.
		raw := env.combine(t, "--hex", result.Shares[0], result.Shares[1])
		assert.NotEqual(t, hex.EncodeToString([]byte("sealed")), raw.Secret)
	})

	t.Run("AEAD tampered", func(t *testing.T) {
		result := env.split(t, "--secret", "sealed", "-t", "2", "-n", "2", "--envelope", "aead")
		share := []byte(result.Shares[1])
		last := len(share) - 1
		if share[last] == '0' {
			share[last] = '1'
		} else {
			share[last] = '0'
		}
		_, _, err := env.run("", "combine", "--envelope", "aead", result.Shares[0], string(share))
		assert.ErrorIs(t, err, aead.ErrDecrypt)
	})

	t.Run("JWE binary", func(t *testing.T) {
		result := env.split(t, "--secret", "wrapped", "-t", "2", "-n", "3",
			"--format", "binary", "--envelope", "jwe")
		require.Len(t, result.Shares, 3)
		assert.Equal(t, 4, strings.Count(result.Shares[0], "."))

		id, err := aead.JWEKeyID(result.Shares[2])
		require.NoError(t, err)
		assert.Equal(t, "3", id)

		path := filepath.Join(env.dir, "tokens.txt")
		body := result.Shares[2] + "\n\n" + result.Shares[0] + "\n"
		require.NoError(t, os.WriteFile(path, []byte(body), 0600))

		got := env.combine(t, "--format", "binary", "--envelope", "jwe", "--in", path)
		assert.Equal(t, "wrapped", got.Secret)
		assert.Equal(t, 2, got.Shares)
	})
}

func TestVerify(t *testing.T) {
	env := newTestEnv(t, false)
	result := env.split(t, "--secret", "consistent", "-t", "2", "-n", "4")

	t.Run("Consistent", func(t *testing.T) {
		out, _, err := env.run("", "verify", "-t", "2", "-o", "json",
			result.Shares[0], result.Shares[1], result.Shares[3])
		require.NoError(t, err)
		assert.Contains(t, out, `"valid": true`)
	})

	tampered := result.Shares[3][:len(result.Shares[3])-2] + "00"
	if tampered == result.Shares[3] {
		tampered = result.Shares[3][:len(result.Shares[3])-2] + "ff"
	}

	t.Run("Inconsistent", func(t *testing.T) {
		out, _, err := env.run("", "verify", "-t", "2", "-o", "json",
			result.Shares[0], result.Shares[1], tampered)
		assert.ErrorIs(t, err, secretsharing.ErrInconsistentShares)
		assert.Contains(t, out, `"valid": false`)
	})

	t.Run("Combine with verify", func(t *testing.T) {
		_, _, err := env.run("", "combine", "--verify", "-t", "2",
			result.Shares[0], result.Shares[1], tampered)
		assert.ErrorIs(t, err, secretsharing.ErrInconsistentShares)
	})

	t.Run("Combine without verify", func(t *testing.T) {
		_, _, err := env.run("", "combine", result.Shares[0], result.Shares[1], tampered)
		assert.NoError(t, err)
	})
}

func TestEncode(t *testing.T) {
	env := newTestEnv(t, false)
	result := env.split(t, "--secret", "convert", "-t", "2", "-n", "2")

	out, _, err := env.run("", "encode", "--from", "hex", "--to", "base64", "-o", "json",
		result.Shares[0], result.Shares[1])
	require.NoError(t, err)
	converted := decodeJSON[struct {
		Format string   `json:"format"`
		Shares []string `json:"shares"`
	}](t, out)
	assert.Equal(t, "base64", converted.Format)
	require.Len(t, converted.Shares, 2)
	assert.True(t, strings.HasPrefix(converted.Shares[0], encoding.Base64Prefix))

	out, _, err = env.run("", append([]string{"encode", "--from", "base64", "--to", "hex"}, converted.Shares...)...)
	require.NoError(t, err)
	assert.Equal(t, result.Shares, strings.Split(strings.TrimSpace(out), "\n"))

	t.Run("Binary requires out-dir", func(t *testing.T) {
		_, _, err := env.run("", "encode", "--from", "hex", "--to", "binary", result.Shares[0])
		assert.ErrorIs(t, err, ErrBinaryOutput)
	})

	t.Run("Missing to", func(t *testing.T) {
		_, _, err := env.run("", "encode", result.Shares[0])
		assert.Error(t, err)
	})
}

func TestStore(t *testing.T) {
	env := newTestEnv(t, true)

	result := env.split(t, "--secret", "kept", "-t", "2", "-n", "3", "--envelope", "aead", "--store")
	require.True(t, result.Stored)
	require.NotEmpty(t, result.ID)

	out, _, err := env.run("", "store", "list", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, []string{result.ID}, decodeJSON[map[string][]string](t, out)["sets"])

	out, _, err = env.run("", "store", "show", result.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Indices:    1, 2, 3")
	assert.Contains(t, out, aead.ChaCha20Poly1305)

	got := env.combine(t, "--set", result.ID, "--verify")
	assert.Equal(t, "kept", got.Secret)

	exported := filepath.Join(env.dir, "set.yaml")
	_, _, err = env.run("", "store", "export", result.ID, "--format", "yaml", "--out", exported)
	require.NoError(t, err)

	_, _, err = env.run("", "store", "import", exported, "--format", "yaml")
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	_, _, err = env.run("", "store", "delete", result.ID)
	require.NoError(t, err)
	_, _, err = env.run("", "store", "show", result.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	out, _, err = env.run("", "store", "import", exported, "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, result.ID)

	got = env.combine(t, "--set", result.ID)
	assert.Equal(t, "kept", got.Secret)

	t.Run("Set with share arguments", func(t *testing.T) {
		_, _, err := env.run("", "combine", "--set", result.ID, "01-00")
		assert.Error(t, err)
	})
}

func TestStoreDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: none\n"), 0600))
	env := &testEnv{dir: dir, configPath: path}

	_, _, err := env.run("", "store", "list")
	assert.ErrorIs(t, err, ErrStorageDisabled)

	_, _, err = env.run("", "split", "--secret", "x", "--store")
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func TestCombineOut(t *testing.T) {
	env := newTestEnv(t, false)
	result := env.split(t, "--secret", "to disk", "-t", "2", "-n", "2")

	path := filepath.Join(env.dir, "secret.out")
	out, _, err := env.run("", "combine", "--out", path, result.Shares[0], result.Shares[1])
	require.NoError(t, err)
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "to disk", string(data))
}

func TestConfigCommands(t *testing.T) {
	env := newTestEnv(t, false)
	path := filepath.Join(env.dir, "new.yaml")

	_, _, err := env.run("", "config", "init", path)
	require.NoError(t, err)
	_, _, err = env.run("", "config", "init", path)
	assert.Error(t, err)
	_, _, err = env.run("", "config", "init", "--force", path)
	require.NoError(t, err)

	out, _, err := env.run("", "config", "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")

	bad := filepath.Join(env.dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("sharing:\n  threshold: 9\n  shares: 2\n"), 0600))
	_, _, err = env.run("", "config", "validate", bad)
	assert.Error(t, err)

	out, _, err = env.run("", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "backend: file")
	assert.Contains(t, out, "threshold: 3")
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t, false)

	out, _, err := env.run("", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "sss version "+Version)

	out, _, err = env.run("", "version", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, Version, decodeJSON[map[string]string](t, out)["version"])
}

func TestVerboseLogsToStderr(t *testing.T) {
	env := newTestEnv(t, false)

	out, errOut, err := env.run("", "split", "--secret", "x", "-t", "1", "-n", "1", "-v")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, errOut, "Configuration loaded")
}

func TestPassphraseKey(t *testing.T) {
	t.Setenv("SSS_CLI_TEST_PASSPHRASE", "correct horse battery staple")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `storage:
  backend: none
encryption:
  enabled: true
  passphrase_env: SSS_CLI_TEST_PASSPHRASE
  kdf:
    algorithm: pbkdf2
    salt: 000102030405060708090a0b0c0d0e0f
    iterations: 100000
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	env := &testEnv{dir: dir, configPath: path}

	for _, envelope := range []string{EnvelopeAEAD, EnvelopeJWE} {
		t.Run(envelope, func(t *testing.T) {
			result := env.split(t, "--secret", "derived", "-t", "2", "-n", "2", "--envelope", envelope)
			got := env.combine(t, append([]string{"--envelope", envelope}, result.Shares...)...)
			assert.Equal(t, "derived", got.Secret)
		})
	}

	t.Run("Wrong passphrase", func(t *testing.T) {
		result := env.split(t, "--secret", "derived", "-t", "2", "-n", "2", "--envelope", EnvelopeAEAD)
		t.Setenv("SSS_CLI_TEST_PASSPHRASE", "wrong")
		_, _, err := env.run("", append([]string{"combine", "--envelope", EnvelopeAEAD}, result.Shares...)...)
		assert.ErrorIs(t, err, aead.ErrDecrypt)
	})
}
