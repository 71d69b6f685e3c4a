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
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(strings.ToLower(format)),
		writer: writer,
	}
}

// SplitResult describes the shares written by split.
type SplitResult struct {
	ID         string    `json:"id,omitempty"`
	Threshold  int       `json:"threshold"`
	Total      int       `json:"total"`
	Format     string    `json:"format"`
	Envelope   string    `json:"envelope"`
	Encryption string    `json:"encryption,omitempty"`
	Stored     bool      `json:"stored"`
	Created    time.Time `json:"created"`

	// Shares holds the encoded shares when they are printed, and Files the
	// paths when they are written to a directory.
	Shares []string `json:"shares,omitempty"`
	Files  []string `json:"files,omitempty"`
}

// PrintSplit prints the result of a split
func (p *Printer) PrintSplit(r *SplitResult) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(r)
	case OutputFormatText:
		for _, share := range r.Shares {
			fmt.Fprintln(p.writer, share)
		}
		for _, file := range r.Files {
			fmt.Fprintln(p.writer, file)
		}
		if r.Stored {
			fmt.Fprintf(p.writer, "Stored share set: %s\n", r.ID)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintShares prints encoded shares, one per line in text mode
func (p *Printer) PrintShares(format string, shares []string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"format": format,
			"shares": shares,
		})
	case OutputFormatText:
		for _, share := range shares {
			fmt.Fprintln(p.writer, share)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintFiles prints the paths shares were written to
func (p *Printer) PrintFiles(format string, paths []string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"format": format,
			"files":  paths,
		})
	case OutputFormatText:
		for _, path := range paths {
			fmt.Fprintln(p.writer, path)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintSecret prints a reconstructed secret. Secrets that are not valid
// UTF-8 are always printed as hex.
func (p *Printer) PrintSecret(secret []byte, asHex bool, shares int) error {
	encoding := "utf8"
	text := string(secret)
	if asHex || !utf8.Valid(secret) {
		encoding = "hex"
		text = hex.EncodeToString(secret)
	}

	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"secret":   text,
			"encoding": encoding,
			"shares":   shares,
		})
	case OutputFormatText:
		fmt.Fprintln(p.writer, text)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintVerify prints the outcome of a consistency check
func (p *Printer) PrintVerify(valid bool, shares, threshold int, reason error) error {
	switch p.format {
	case OutputFormatJSON:
		out := map[string]interface{}{
			"valid":     valid,
			"shares":    shares,
			"threshold": threshold,
		}
		if reason != nil {
			out["error"] = reason.Error()
		}
		return p.printJSON(out)
	case OutputFormatText:
		if valid {
			fmt.Fprintf(p.writer, "%d shares are consistent with threshold %d\n", shares, threshold)
		} else {
			fmt.Fprintf(p.writer, "Shares are inconsistent: %v\n", reason)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// SetInfo summarizes a stored share set.
type SetInfo struct {
	ID         string    `json:"id"`
	Threshold  int       `json:"threshold"`
	Total      int       `json:"total"`
	Indices    []int     `json:"indices"`
	Encryption string    `json:"encryption,omitempty"`
	Created    time.Time `json:"created"`
}

// PrintSetList prints the IDs of stored share sets
func (p *Printer) PrintSetList(ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"sets": ids,
		})
	case OutputFormatText:
		if len(ids) == 0 {
			fmt.Fprintln(p.writer, "No share sets found")
			return nil
		}
		for _, id := range ids {
			fmt.Fprintln(p.writer, id)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintSetInfo prints detailed share set information
func (p *Printer) PrintSetInfo(info *SetInfo) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(info)
	case OutputFormatText:
		indices := make([]string, len(info.Indices))
		for i, idx := range info.Indices {
			indices[i] = fmt.Sprintf("%d", idx)
		}
		encryption := info.Encryption
		if encryption == "" {
			encryption = "none"
		}
		fmt.Fprintf(p.writer, "Share Set:\n")
		fmt.Fprintf(p.writer, "  ID:         %s\n", info.ID)
		fmt.Fprintf(p.writer, "  Threshold:  %d\n", info.Threshold)
		fmt.Fprintf(p.writer, "  Total:      %d\n", info.Total)
		fmt.Fprintf(p.writer, "  Indices:    %s\n", strings.Join(indices, ", "))
		fmt.Fprintf(p.writer, "  Encryption: %s\n", encryption)
		fmt.Fprintf(p.writer, "  Created:    %s\n", info.Created.Format(time.RFC3339))
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintSuccess prints a success message
func (p *Printer) PrintSuccess(message string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status":  "success",
			"message": message,
		})
	case OutputFormatText:
		fmt.Fprintln(p.writer, message)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		})
	default:
		fmt.Fprintf(p.writer, "Error: %v\n", err)
		return nil
	}
}

// printJSON prints data as JSON
func (p *Printer) printJSON(data interface{}) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
