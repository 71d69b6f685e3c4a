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
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-sss/pkg/adapters/logger"
	"github.com/jeremyhahn/go-sss/pkg/secretsharing"
)

// addShareInputFlags registers the flags that select input shares.
func addShareInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("in", nil, `share files to read ("-" for stdin); repeatable`)
	cmd.Flags().String("set", "", "read the shares of a stored share set")
	cmd.Flags().StringP("format", "f", "", "share format (default from config)")
	cmd.Flags().String("envelope", EnvelopeNone, "share envelope: none, aead, jwe")
	cmd.Flags().IntP("threshold", "t", 0, "threshold the shares were split with")
}

// loadShares returns the shares selected by args, --in, or --set, opened
// from their envelope, and the threshold to verify them against.
func (a *app) loadShares(cmd *cobra.Command, sess *session, args []string) ([]secretsharing.Share, int, error) {
	threshold := intFlag(cmd, "threshold", sess.cfg.Sharing.Threshold)

	if id, _ := cmd.Flags().GetString("set"); id != "" {
		if len(args) > 0 || cmd.Flags().Changed("in") {
			return nil, 0, fmt.Errorf("--set cannot be combined with share arguments or --in")
		}
		if sess.components.Store == nil {
			return nil, 0, ErrStorageDisabled
		}
		set, err := sess.components.Store.Load(id)
		if err != nil {
			return nil, 0, err
		}
		if !cmd.Flags().Changed("threshold") {
			threshold = set.Threshold
		}
		shares := set.Shares
		if set.Encryption != "" {
			if !sess.components.Cipher.Enabled() {
				return nil, 0, fmt.Errorf("share set %s is encrypted: %w", id, ErrEncryptionDisabled)
			}
			shares, err = sess.components.Cipher.DecryptShares(shares)
			if err != nil {
				return nil, 0, err
			}
		}
		return shares, threshold, nil
	}

	format, err := formatFlag(cmd, "format", sess.cfg.Sharing.Format)
	if err != nil {
		return nil, 0, err
	}
	envName, _ := cmd.Flags().GetString("envelope")
	env, err := sess.envelope(envName)
	if err != nil {
		return nil, 0, err
	}
	defer env.wipe()

	files, _ := cmd.Flags().GetStringSlice("in")
	items, err := readItems(cmd, args, files, env.lineOriented(format))
	if err != nil {
		return nil, 0, err
	}
	shares, err := env.decode(items, format)
	if err != nil {
		return nil, 0, err
	}
	return shares, threshold, nil
}

func (a *app) newCombineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "combine [share...]",
		Short: "Reconstruct a secret from shares",
		Long: `Reconstruct a secret from at least t shares.

Shares are taken from the arguments, from --in files, or from a stored set
with --set. Share arguments that begin with a dash, such as pem blocks, must
follow "--". Combining fewer than t shares yields a wrong secret without an
error; pass --verify to first check surplus shares for consistency.`,
		Example: `  sss combine 01-8a3f 03-51c2
  sss combine --format pem -- "$(cat share-001.pem)" "$(cat share-002.pem)"
  sss combine --in share-001.bin --in share-002.bin --format binary
  sss combine --set 6f1c... --verify --hex`,
		RunE: a.runCombine,
	}
	addShareInputFlags(cmd)
	cmd.Flags().Bool("verify", false, "check share consistency against --threshold before combining")
	cmd.Flags().Bool("hex", false, "print the secret hex encoded")
	cmd.Flags().String("out", "", "write the raw secret to this file instead of printing it")
	return cmd
}

func (a *app) runCombine(cmd *cobra.Command, args []string) error {
	sess, err := a.open(cmd)
	if err != nil {
		return err
	}
	defer closeSession(sess, cmd.ErrOrStderr())

	shares, threshold, err := a.loadShares(cmd, sess, args)
	if err != nil {
		return err
	}
	defer secretsharing.ZeroizeAll(shares)

	verify, _ := cmd.Flags().GetBool("verify")
	if verify || sess.cfg.Sharing.Verify {
		if err := sess.components.Service.Verify(cmd.Context(), shares, threshold); err != nil {
			return err
		}
	}

	secret, err := sess.components.Service.Combine(cmd.Context(), shares)
	if err != nil {
		return err
	}
	defer clear(secret)

	printer := a.printer(cmd)
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if err := os.WriteFile(out, secret, 0600); err != nil {
			return fmt.Errorf("failed to write secret: %w", err)
		}
		return printer.PrintSuccess(fmt.Sprintf("Secret written to %s", out))
	}
	asHex, _ := cmd.Flags().GetBool("hex")
	return printer.PrintSecret(secret, asHex, len(shares))
}

func (a *app) newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [share...]",
		Short: "Check that shares lie on one polynomial",
		Long: `Check that every share beyond the first t agrees with the polynomial the
first t define. At least t+1 shares are needed for the check to detect
anything. Share arguments that begin with a dash must follow "--". Exits
non-zero when the shares are inconsistent.`,
		RunE: a.runVerify,
	}
	addShareInputFlags(cmd)
	return cmd
}

func (a *app) runVerify(cmd *cobra.Command, args []string) error {
	sess, err := a.open(cmd)
	if err != nil {
		return err
	}
	defer closeSession(sess, cmd.ErrOrStderr())

	shares, threshold, err := a.loadShares(cmd, sess, args)
	if err != nil {
		return err
	}
	defer secretsharing.ZeroizeAll(shares)

	if len(shares) <= threshold {
		sess.log.Warn("Verification needs more shares than the threshold to detect inconsistency",
			logger.Int("shares", len(shares)),
			logger.Int("threshold", threshold))
	}

	err = sess.components.Service.Verify(cmd.Context(), shares, threshold)
	if err != nil && !errors.Is(err, secretsharing.ErrInconsistentShares) {
		return err
	}
	if perr := a.printer(cmd).PrintVerify(err == nil, len(shares), threshold, err); perr != nil {
		return perr
	}
	return err
}
