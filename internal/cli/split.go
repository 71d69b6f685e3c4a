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
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-sss/internal/config"
	"github.com/jeremyhahn/go-sss/pkg/adapters/logger"
	"github.com/jeremyhahn/go-sss/pkg/encoding"
	"github.com/jeremyhahn/go-sss/pkg/secretsharing"
)

func (a *app) newSplitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a secret into shares",
		Long: `Split a secret into n shares, any t of which reconstruct it.

The secret is read from --secret, or from --in (a file, or "-" for stdin).
With --hex the input is hex decoded first. Threshold, share count, and
format default to the sharing section of the configuration.

Shares are printed one per line, or written to --out-dir as one file each.
The binary format requires --out-dir unless the jwe envelope is used.`,
		Example: `  sss split --secret "correct horse" -t 2 -n 3
  sss split --in secret.bin -t 3 -n 5 --format base64 --envelope aead
  echo -n 00ff10 | sss split --in - --hex --format binary --out-dir ./shares`,
		Args: cobra.NoArgs,
		RunE: a.runSplit,
	}

	cmd.Flags().String("secret", "", "secret to split")
	cmd.Flags().String("in", "", `file to read the secret from ("-" for stdin)`)
	cmd.Flags().Bool("hex", false, "the secret is hex encoded")
	cmd.Flags().IntP("threshold", "t", 0, "shares required to reconstruct (default from config)")
	cmd.Flags().IntP("shares", "n", 0, "total shares to produce (default from config)")
	cmd.Flags().IntSlice("x-values", nil, "distinct x-coordinates in [1,255], one per share (default 1..n)")
	cmd.Flags().StringP("format", "f", "", "share format: json, yaml, hex, binary, base64, pem (default from config)")
	cmd.Flags().String("envelope", EnvelopeNone, "share envelope: none, aead, jwe")
	cmd.Flags().String("out-dir", "", "write one file per share into this directory")
	cmd.Flags().Bool("store", false, "save the share set in the configured storage backend")
	return cmd
}

func (a *app) runSplit(cmd *cobra.Command, _ []string) error {
	secret, err := readSecret(cmd)
	if err != nil {
		return err
	}
	defer clear(secret)

	sess, err := a.open(cmd)
	if err != nil {
		return err
	}
	defer closeSession(sess, cmd.ErrOrStderr())

	threshold := intFlag(cmd, "threshold", sess.cfg.Sharing.Threshold)
	total := intFlag(cmd, "shares", sess.cfg.Sharing.Shares)
	xValues, _ := cmd.Flags().GetIntSlice("x-values")
	if len(xValues) > 0 && !cmd.Flags().Changed("shares") {
		total = len(xValues)
	}

	format, err := formatFlag(cmd, "format", sess.cfg.Sharing.Format)
	if err != nil {
		return err
	}
	envName, _ := cmd.Flags().GetString("envelope")
	env, err := sess.envelope(envName)
	if err != nil {
		return err
	}
	defer env.wipe()

	outDir, _ := cmd.Flags().GetString("out-dir")
	if outDir == "" && !format.IsText() && env.name != EnvelopeJWE {
		return ErrBinaryOutput
	}
	store, _ := cmd.Flags().GetBool("store")
	if store && sess.components.Store == nil {
		return ErrStorageDisabled
	}

	shares, err := sess.components.Service.Split(cmd.Context(), &secretsharing.SplitRequest{
		Secret:      secret,
		Threshold:   threshold,
		TotalShares: total,
		XValues:     xValues,
	})
	if err != nil {
		return err
	}
	defer secretsharing.ZeroizeAll(shares)

	sealed, err := env.seal(shares)
	if err != nil {
		return err
	}
	set := encoding.NewShareSet(threshold, sealed)
	set.Encryption = env.encryption()

	result := &SplitResult{
		Threshold:  threshold,
		Total:      len(sealed),
		Format:     format.String(),
		Envelope:   env.name,
		Encryption: set.Encryption,
		Created:    set.Created,
	}

	if store {
		if err := sess.components.Store.Save(set); err != nil {
			return fmt.Errorf("failed to store share set: %w", err)
		}
		if sess.cfg.Storage.Backend == config.StorageMemory {
			sess.log.Warn("Memory storage does not outlive this command", logger.String("id", set.ID))
		}
		result.ID = set.ID
		result.Stored = true
	}

	items, err := env.encode(sealed, format)
	if err != nil {
		return err
	}
	if outDir != "" {
		result.Files, err = writeShares(outDir, sealed, items, format, env.name)
		if err != nil {
			return err
		}
	} else {
		result.Shares = textItems(items)
	}

	return a.printer(cmd).PrintSplit(result)
}

// readSecret reads the secret named by --secret or --in.
func readSecret(cmd *cobra.Command) ([]byte, error) {
	text, _ := cmd.Flags().GetString("secret")
	in, _ := cmd.Flags().GetString("in")
	isHex, _ := cmd.Flags().GetBool("hex")

	var secret []byte
	switch {
	case text != "" && in != "":
		return nil, fmt.Errorf("--secret and --in are mutually exclusive")
	case text != "":
		secret = []byte(text)
	case in != "":
		data, err := readFile(cmd, in)
		if err != nil {
			return nil, err
		}
		secret = data
	default:
		return nil, fmt.Errorf("%w: pass --secret or --in", ErrNoInput)
	}

	if isHex {
		decoded, err := hex.DecodeString(strings.TrimSpace(string(secret)))
		clear(secret)
		if err != nil {
			return nil, fmt.Errorf("invalid hex secret: %w", err)
		}
		secret = decoded
	}
	return secret, nil
}
