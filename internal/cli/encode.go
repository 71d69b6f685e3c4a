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
	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-sss/pkg/secretsharing"
)

func (a *app) newEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode [share...]",
		Short: "Convert shares between formats",
		Long: `Decode shares in one format and re-encode them in another. Share values
are carried over unchanged, so aead-sealed shares stay sealed. Share
arguments that begin with a dash, such as pem blocks, must follow "--".`,
		Example: `  sss encode --from hex --to base64 01-8a3f 02-77d0
  sss encode --from binary --to pem --in share-001.bin`,
		RunE: a.runEncode,
	}
	cmd.Flags().StringSlice("in", nil, `share files to read ("-" for stdin); repeatable`)
	cmd.Flags().String("from", "", "input format (default from config)")
	cmd.Flags().String("to", "", "output format")
	cmd.Flags().String("out-dir", "", "write one file per share into this directory")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func (a *app) runEncode(cmd *cobra.Command, args []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	from, err := formatFlag(cmd, "from", cfg.Sharing.Format)
	if err != nil {
		return err
	}
	to, err := formatFlag(cmd, "to", "")
	if err != nil {
		return err
	}
	outDir, _ := cmd.Flags().GetString("out-dir")
	if outDir == "" && !to.IsText() {
		return ErrBinaryOutput
	}

	plain := &envelope{name: EnvelopeNone}
	files, _ := cmd.Flags().GetStringSlice("in")
	items, err := readItems(cmd, args, files, plain.lineOriented(from))
	if err != nil {
		return err
	}
	shares, err := plain.decode(items, from)
	if err != nil {
		return err
	}
	defer secretsharing.ZeroizeAll(shares)

	encoded, err := plain.encode(shares, to)
	if err != nil {
		return err
	}

	printer := a.printer(cmd)
	if outDir != "" {
		paths, err := writeShares(outDir, shares, encoded, to, EnvelopeNone)
		if err != nil {
			return err
		}
		return printer.PrintFiles(to.String(), paths)
	}
	return printer.PrintShares(to.String(), textItems(encoded))
}
