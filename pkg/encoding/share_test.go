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

package encoding

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-sss/pkg/secretsharing"
)

func TestParseFormat(t *testing.T) {
	for _, f := range Formats() {
		got, err := ParseFormat(strings.ToUpper(string(f)))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	_, err := ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestEncode_KnownForms(t *testing.T) {
	share := secretsharing.Share{Index: 1, Value: []byte{0xde, 0xad}}

	tests := []struct {
		format Format
		want   string
	}{
		{FormatJSON, `{"index":1,"value":"dead"}`},
		{FormatYAML, "index: 1\nvalue: dead\n"},
		{FormatHex, "01-dead"},
		{FormatBinary, "\x01\xde\xad"},
		{FormatBase64, "sss1:Ad6t"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			got, err := Encode(share, tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	shares := []secretsharing.Share{
		{Index: 1, Value: []byte{0x00}},
		{Index: 0x7f, Value: []byte("hello, world")},
		{Index: 255, Value: []byte{0xff, 0x00, 0xff, 0x00}},
	}

	for _, f := range Formats() {
		for _, s := range shares {
			t.Run(string(f)+"/"+s.String(), func(t *testing.T) {
				data, err := Encode(s, f)
				require.NoError(t, err)

				got, err := Decode(data, f)
				require.NoError(t, err)
				assert.Equal(t, s.Index, got.Index)
				assert.Equal(t, s.Value, got.Value)
			})
		}
	}
}

func TestEncode_RejectsInvalidShare(t *testing.T) {
	for _, f := range Formats() {
		_, err := Encode(secretsharing.Share{Index: 0, Value: []byte{1}}, f)
		assert.ErrorIs(t, err, ErrInvalidIndex, f)

		_, err = Encode(secretsharing.Share{Index: 1}, f)
		assert.ErrorIs(t, err, ErrEmptyValue, f)
	}

	_, err := Encode(secretsharing.Share{Index: 1, Value: []byte{1}}, Format("xml"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestEncodeString(t *testing.T) {
	s := secretsharing.Share{Index: 2, Value: []byte{0xab}}

	got, err := EncodeString(s, FormatHex)
	require.NoError(t, err)
	assert.Equal(t, "02-ab", got)

	_, err = EncodeString(s, FormatBinary)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
		want   error
	}{
		{"empty", FormatJSON, "", ErrInvalidData},
		{"json garbage", FormatJSON, "{", ErrInvalidData},
		{"json index zero", FormatJSON, `{"index":0,"value":"aa"}`, ErrInvalidIndex},
		{"json index 256", FormatJSON, `{"index":256,"value":"aa"}`, ErrInvalidIndex},
		{"json negative index", FormatJSON, `{"index":-1,"value":"aa"}`, ErrInvalidIndex},
		{"json bad hex", FormatJSON, `{"index":1,"value":"zz"}`, ErrInvalidData},
		{"json empty value", FormatJSON, `{"index":1,"value":""}`, ErrEmptyValue},
		{"yaml index 300", FormatYAML, "index: 300\nvalue: aa\n", ErrInvalidIndex},
		{"hex no separator", FormatHex, "01dead", ErrInvalidData},
		{"hex wide index", FormatHex, "001-dead", ErrInvalidData},
		{"hex index zero", FormatHex, "00-dead", ErrInvalidIndex},
		{"hex empty value", FormatHex, "01-", ErrEmptyValue},
		{"hex odd value", FormatHex, "01-abc", ErrInvalidData},
		{"binary one byte", FormatBinary, "\x01", ErrInvalidData},
		{"binary index zero", FormatBinary, "\x00\x01", ErrInvalidIndex},
		{"base64 no prefix", FormatBase64, "Ad6t", ErrInvalidData},
		{"base64 garbage", FormatBase64, "sss1:!!!", ErrInvalidData},
		{"pem no block", FormatPEM, "not pem", ErrInvalidData},
		{"pem wrong type", FormatPEM, "-----BEGIN CERTIFICATE-----\nAQ==\n-----END CERTIFICATE-----\n", ErrInvalidData},
		{"pem missing index", FormatPEM, "-----BEGIN SSS SHARE-----\nAQ==\n-----END SSS SHARE-----\n", ErrInvalidData},
		{"unknown format", Format("xml"), "x", ErrUnknownFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeString(tt.data, tt.format)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecode_TrimsWhitespace(t *testing.T) {
	got, err := DecodeString("  03-beef\n", FormatHex)
	require.NoError(t, err)
	assert.Equal(t, byte(3), got.Index)
	assert.Equal(t, []byte{0xbe, 0xef}, got.Value)

	got, err = DecodeString("sss1:Ad6t\n", FormatBase64)
	require.NoError(t, err)
	assert.Equal(t, byte(1), got.Index)
}

func TestDecodeBinary_DoesNotAlias(t *testing.T) {
	raw := []byte{1, 2, 3}
	got, err := Decode(raw, FormatBinary)
	require.NoError(t, err)
	raw[1] = 0xff
	assert.Equal(t, []byte{2, 3}, got.Value)
}
