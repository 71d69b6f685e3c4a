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
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jeremyhahn/go-sss/pkg/metrics"
	"github.com/jeremyhahn/go-sss/pkg/secretsharing"
)

// ShareSet is every share produced by one split.
type ShareSet struct {
	// ID identifies the set in storage.
	ID string

	// Threshold is the t the split was made with. Informational only.
	Threshold int

	// Total is the n the split was made with.
	Total int

	// Encryption names the AEAD algorithm share values are sealed with,
	// or is empty when values are plaintext.
	Encryption string

	Shares  []secretsharing.Share
	Created time.Time
}

// NewShareSet wraps the shares of one split with a fresh ID.
func NewShareSet(threshold int, shares []secretsharing.Share) *ShareSet {
	return &ShareSet{
		ID:        uuid.NewString(),
		Threshold: threshold,
		Total:     len(shares),
		Shares:    shares,
		Created:   time.Now().UTC().Truncate(time.Second),
	}
}

// Validate checks the set's shape. Individual shares are checked for range
// and non-empty values; share consistency is left to secretsharing.Verify.
func (s *ShareSet) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil", ErrInvalidShareSet)
	}
	if s.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidShareSet)
	}
	if s.Threshold < 1 || s.Threshold > secretsharing.MaxShares {
		return fmt.Errorf("%w: threshold %d", ErrInvalidShareSet, s.Threshold)
	}
	if s.Total < s.Threshold || s.Total > secretsharing.MaxShares {
		return fmt.Errorf("%w: total %d with threshold %d", ErrInvalidShareSet, s.Total, s.Threshold)
	}
	if len(s.Shares) == 0 || len(s.Shares) > s.Total {
		return fmt.Errorf("%w: %d shares for total %d", ErrInvalidShareSet, len(s.Shares), s.Total)
	}
	seen := make(map[byte]struct{}, len(s.Shares))
	for _, share := range s.Shares {
		if err := checkShare(share); err != nil {
			return err
		}
		if _, dup := seen[share.Index]; dup {
			return fmt.Errorf("%w: duplicate index %d", ErrInvalidShareSet, share.Index)
		}
		seen[share.Index] = struct{}{}
	}
	return nil
}

type shareSetDTO struct {
	ID         string     `json:"id" yaml:"id"`
	Threshold  int        `json:"threshold" yaml:"threshold"`
	Total      int        `json:"total" yaml:"total"`
	Encryption string     `json:"encryption,omitempty" yaml:"encryption,omitempty"`
	Created    time.Time  `json:"created" yaml:"created"`
	Shares     []shareDTO `json:"shares" yaml:"shares"`
}

// EncodeSet serializes a validated set as JSON or YAML.
func EncodeSet(set *ShareSet, format Format) ([]byte, error) {
	out, err := encodeSet(set, format)
	metrics.RecordCodec(metrics.OpEncode, "set-"+string(format), status(err))
	return out, err
}

func encodeSet(set *ShareSet, format Format) ([]byte, error) {
	if !format.SupportsSets() {
		return nil, fmt.Errorf("%w: %q for share sets", ErrUnknownFormat, format)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}

	dto := shareSetDTO{
		ID:         set.ID,
		Threshold:  set.Threshold,
		Total:      set.Total,
		Encryption: set.Encryption,
		Created:    set.Created,
		Shares:     make([]shareDTO, len(set.Shares)),
	}
	for i, s := range set.Shares {
		dto.Shares[i] = toDTO(s)
	}

	if format == FormatYAML {
		return yaml.Marshal(dto)
	}
	return json.MarshalIndent(dto, "", "  ")
}

// DecodeSet parses a set written by EncodeSet and validates it.
func DecodeSet(data []byte, format Format) (*ShareSet, error) {
	set, err := decodeSet(data, format)
	metrics.RecordCodec(metrics.OpDecode, "set-"+string(format), status(err))
	return set, err
}

func decodeSet(data []byte, format Format) (*ShareSet, error) {
	if !format.SupportsSets() {
		return nil, fmt.Errorf("%w: %q for share sets", ErrUnknownFormat, format)
	}
	if len(data) == 0 {
		return nil, ErrInvalidData
	}

	var dto shareSetDTO
	var err error
	if format == FormatYAML {
		err = yaml.Unmarshal(data, &dto)
	} else {
		err = json.Unmarshal(data, &dto)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	set := &ShareSet{
		ID:         dto.ID,
		Threshold:  dto.Threshold,
		Total:      dto.Total,
		Encryption: dto.Encryption,
		Created:    dto.Created,
		Shares:     make([]secretsharing.Share, len(dto.Shares)),
	}
	for i, d := range dto.Shares {
		s, err := d.share()
		if err != nil {
			return nil, err
		}
		set.Shares[i] = s
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}
