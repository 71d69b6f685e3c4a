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
	"fmt"
	"strings"
)

// Format names a share serialization.
type Format string

const (
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatHex    Format = "hex"
	FormatBinary Format = "binary"
	FormatBase64 Format = "base64"
	FormatPEM    Format = "pem"
)

// Base64Prefix tags the base64 format and versions it.
const Base64Prefix = "sss1:"

// PEMType is the block type of the pem format.
const PEMType = "SSS SHARE"

// Formats returns every supported format.
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatHex, FormatBinary, FormatBase64, FormatPEM}
}

// ParseFormat converts a case-insensitive name to a Format.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// String returns the format name.
func (f Format) String() string {
	return string(f)
}

// IsText reports whether the format produces printable text.
func (f Format) IsText() bool {
	return f != FormatBinary
}

// SupportsSets reports whether EncodeSet accepts the format.
func (f Format) SupportsSets() bool {
	return f == FormatJSON || f == FormatYAML
}
