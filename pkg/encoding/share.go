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
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jeremyhahn/go-sss/pkg/metrics"
	"github.com/jeremyhahn/go-sss/pkg/secretsharing"
)

// shareDTO is the JSON and YAML form of a share. Index is an int so that
// out-of-range values are rejected instead of wrapping.
type shareDTO struct {
	Index int    `json:"index" yaml:"index"`
	Value string `json:"value" yaml:"value"`
}

func toDTO(s secretsharing.Share) shareDTO {
	return shareDTO{Index: int(s.Index), Value: hex.EncodeToString(s.Value)}
}

func (d shareDTO) share() (secretsharing.Share, error) {
	index, err := checkIndex(d.Index)
	if err != nil {
		return secretsharing.Share{}, err
	}
	value, err := hex.DecodeString(strings.TrimSpace(d.Value))
	if err != nil {
		return secretsharing.Share{}, fmt.Errorf("%w: share %d value: %v", ErrInvalidData, d.Index, err)
	}
	if len(value) == 0 {
		return secretsharing.Share{}, fmt.Errorf("%w: share %d", ErrEmptyValue, d.Index)
	}
	return secretsharing.Share{Index: index, Value: value}, nil
}

func checkIndex(i int) (byte, error) {
	if i < 1 || i > secretsharing.MaxShares {
		return 0, fmt.Errorf("%w: %d", ErrInvalidIndex, i)
	}
	return byte(i), nil
}

func checkShare(s secretsharing.Share) error {
	if s.Index == 0 {
		return fmt.Errorf("%w: 0", ErrInvalidIndex)
	}
	if len(s.Value) == 0 {
		return fmt.Errorf("%w: share %d", ErrEmptyValue, s.Index)
	}
	return nil
}

// Encode serializes share in format.
func Encode(share secretsharing.Share, format Format) ([]byte, error) {
	out, err := encode(share, format)
	metrics.RecordCodec(metrics.OpEncode, string(format), status(err))
	return out, err
}

// EncodeString is Encode for text formats.
func EncodeString(share secretsharing.Share, format Format) (string, error) {
	if !format.IsText() {
		return "", fmt.Errorf("%w: %s is not a text format", ErrUnknownFormat, format)
	}
	out, err := Encode(share, format)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func encode(share secretsharing.Share, format Format) ([]byte, error) {
	if err := checkShare(share); err != nil {
		return nil, err
	}

	switch format {
	case FormatJSON:
		return json.Marshal(toDTO(share))
	case FormatYAML:
		return yaml.Marshal(toDTO(share))
	case FormatHex:
		return []byte(fmt.Sprintf("%02x-%s", share.Index, hex.EncodeToString(share.Value))), nil
	case FormatBinary:
		return binaryForm(share), nil
	case FormatBase64:
		return []byte(Base64Prefix + base64.StdEncoding.EncodeToString(binaryForm(share))), nil
	case FormatPEM:
		block := &pem.Block{
			Type:    PEMType,
			Headers: map[string]string{"Index": strconv.Itoa(int(share.Index))},
			Bytes:   share.Value,
		}
		var buf bytes.Buffer
		if err := pem.Encode(&buf, block); err != nil {
			return nil, fmt.Errorf("failed to encode PEM: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func binaryForm(share secretsharing.Share) []byte {
	out := make([]byte, 1+len(share.Value))
	out[0] = share.Index
	copy(out[1:], share.Value)
	return out
}

// Decode parses a share written by Encode in format.
func Decode(data []byte, format Format) (secretsharing.Share, error) {
	s, err := decode(data, format)
	metrics.RecordCodec(metrics.OpDecode, string(format), status(err))
	return s, err
}

// DecodeString is Decode for text formats.
func DecodeString(data string, format Format) (secretsharing.Share, error) {
	return Decode([]byte(data), format)
}

func decode(data []byte, format Format) (secretsharing.Share, error) {
	if len(data) == 0 {
		return secretsharing.Share{}, ErrInvalidData
	}

	switch format {
	case FormatJSON:
		var d shareDTO
		if err := json.Unmarshal(data, &d); err != nil {
			return secretsharing.Share{}, fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		return d.share()
	case FormatYAML:
		var d shareDTO
		if err := yaml.Unmarshal(data, &d); err != nil {
			return secretsharing.Share{}, fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		return d.share()
	case FormatHex:
		return decodeHex(strings.TrimSpace(string(data)))
	case FormatBinary:
		return decodeBinary(data)
	case FormatBase64:
		text := strings.TrimSpace(string(data))
		if !strings.HasPrefix(text, Base64Prefix) {
			return secretsharing.Share{}, fmt.Errorf("%w: missing %q prefix", ErrInvalidData, Base64Prefix)
		}
		raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(text, Base64Prefix))
		if err != nil {
			return secretsharing.Share{}, fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		return decodeBinary(raw)
	case FormatPEM:
		block, _ := pem.Decode(data)
		if block == nil || block.Type != PEMType {
			return secretsharing.Share{}, fmt.Errorf("%w: no %s block", ErrInvalidData, PEMType)
		}
		i, err := strconv.Atoi(block.Headers["Index"])
		if err != nil {
			return secretsharing.Share{}, fmt.Errorf("%w: Index header: %v", ErrInvalidData, err)
		}
		index, err := checkIndex(i)
		if err != nil {
			return secretsharing.Share{}, err
		}
		if len(block.Bytes) == 0 {
			return secretsharing.Share{}, fmt.Errorf("%w: share %d", ErrEmptyValue, index)
		}
		return secretsharing.Share{Index: index, Value: block.Bytes}, nil
	default:
		return secretsharing.Share{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func decodeHex(text string) (secretsharing.Share, error) {
	prefix, body, ok := strings.Cut(text, "-")
	if !ok || len(prefix) != 2 {
		return secretsharing.Share{}, fmt.Errorf("%w: want <index>-<value>", ErrInvalidData)
	}
	i, err := strconv.ParseUint(prefix, 16, 8)
	if err != nil {
		return secretsharing.Share{}, fmt.Errorf("%w: index: %v", ErrInvalidData, err)
	}
	index, err := checkIndex(int(i))
	if err != nil {
		return secretsharing.Share{}, err
	}
	value, err := hex.DecodeString(body)
	if err != nil {
		return secretsharing.Share{}, fmt.Errorf("%w: value: %v", ErrInvalidData, err)
	}
	if len(value) == 0 {
		return secretsharing.Share{}, fmt.Errorf("%w: share %d", ErrEmptyValue, index)
	}
	return secretsharing.Share{Index: index, Value: value}, nil
}

func decodeBinary(raw []byte) (secretsharing.Share, error) {
	if len(raw) < 2 {
		return secretsharing.Share{}, fmt.Errorf("%w: %d bytes", ErrInvalidData, len(raw))
	}
	if raw[0] == 0 {
		return secretsharing.Share{}, fmt.Errorf("%w: 0", ErrInvalidIndex)
	}
	value := make([]byte, len(raw)-1)
	copy(value, raw[1:])
	return secretsharing.Share{Index: raw[0], Value: value}, nil
}

func status(err error) string {
	if err != nil {
		return metrics.StatusError
	}
	return metrics.StatusSuccess
}
