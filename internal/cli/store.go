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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-sss/pkg/encoding"
)

func (a *app) newStoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage stored share sets",
		Long: `List, inspect, export, import, and delete the share sets kept in the
configured storage backend. Use the file backend for sets that outlive a
single command.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored share set IDs",
		Args:  cobra.NoArgs,
		RunE: a.withStore(func(cmd *cobra.Command, sess *session, _ []string) error {
			ids, err := sess.components.Store.List()
			if err != nil {
				return err
			}
			return a.printer(cmd).PrintSetList(ids)
		}),
	}

	showCmd := &cobra.Command{
		Use:   "show <set-id>",
		Short: "Show share set details",
		Args:  cobra.ExactArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, sess *session, args []string) error {
			set, err := sess.components.Store.Load(args[0])
			if err != nil {
				return err
			}
			indices := make([]int, len(set.Shares))
			for i, share := range set.Shares {
				indices[i] = int(share.Index)
			}
			return a.printer(cmd).PrintSetInfo(&SetInfo{
				ID:         set.ID,
				Threshold:  set.Threshold,
				Total:      set.Total,
				Indices:    indices,
				Encryption: set.Encryption,
				Created:    set.Created,
			})
		}),
	}

	exportCmd := &cobra.Command{
		Use:   "export <set-id>",
		Short: "Write a share set as a JSON or YAML document",
		Args:  cobra.ExactArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, sess *session, args []string) error {
			format, err := formatFlag(cmd, "format", string(encoding.FormatJSON))
			if err != nil {
				return err
			}
			set, err := sess.components.Store.Load(args[0])
			if err != nil {
				return err
			}
			data, err := encoding.EncodeSet(set, format)
			if err != nil {
				return err
			}
			if out, _ := cmd.Flags().GetString("out"); out != "" {
				if err := os.WriteFile(out, data, 0600); err != nil {
					return fmt.Errorf("failed to write share set: %w", err)
				}
				return a.printer(cmd).PrintSuccess(fmt.Sprintf("Share set written to %s", out))
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}),
	}
	exportCmd.Flags().StringP("format", "f", string(encoding.FormatJSON), "document format: json, yaml")
	exportCmd.Flags().String("out", "", "write the document to this file")

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Store a share set document written by export",
		Args:  cobra.ExactArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, sess *session, args []string) error {
			format, err := formatFlag(cmd, "format", string(encoding.FormatJSON))
			if err != nil {
				return err
			}
			data, err := readFile(cmd, args[0])
			if err != nil {
				return err
			}
			set, err := encoding.DecodeSet(data, format)
			if err != nil {
				return err
			}
			if err := sess.components.Store.Save(set); err != nil {
				return err
			}
			return a.printer(cmd).PrintSuccess(fmt.Sprintf("Imported share set: %s", set.ID))
		}),
	}
	importCmd.Flags().StringP("format", "f", string(encoding.FormatJSON), "document format: json, yaml")

	deleteCmd := &cobra.Command{
		Use:   "delete <set-id>",
		Short: "Delete a stored share set",
		Args:  cobra.ExactArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, sess *session, args []string) error {
			if err := sess.components.Store.Delete(args[0]); err != nil {
				return err
			}
			return a.printer(cmd).PrintSuccess(fmt.Sprintf("Deleted share set: %s", args[0]))
		}),
	}

	cmd.AddCommand(listCmd, showCmd, exportCmd, importCmd, deleteCmd)
	return cmd
}

// withStore opens a session that has a share store and runs fn with it.
func (a *app) withStore(fn func(*cobra.Command, *session, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		sess, err := a.open(cmd)
		if err != nil {
			return err
		}
		defer closeSession(sess, cmd.ErrOrStderr())

		if sess.components.Store == nil {
			return ErrStorageDisabled
		}
		return fn(cmd, sess, args)
	}
}
