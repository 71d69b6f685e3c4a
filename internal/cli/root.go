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

// Package cli implements the sss command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jeremyhahn/go-sss/internal/config"
	"github.com/jeremyhahn/go-sss/internal/server"
	"github.com/jeremyhahn/go-sss/pkg/adapters/logger"
	"github.com/jeremyhahn/go-sss/pkg/correlation"
	"github.com/jeremyhahn/go-sss/pkg/metrics"
)

// DefaultLogLevel keeps stderr quiet unless asked otherwise.
const DefaultLogLevel = "warn"

// app carries the state shared by every command of one root command.
type app struct {
	v *viper.Viper
}

// NewRootCmd creates the sss command tree. Flags, SSS_* environment
// variables, and the config file are resolved through a private viper
// instance so that each root command is independent.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "sss",
		Short: "Shamir's Secret Sharing over GF(256)",
		Long: `sss splits a secret into n shares such that any t of them reconstruct it,
while fewer than t reveal nothing about it.

Shares can be written as json, yaml, hex, binary, base64, or pem, optionally
sealed per share with AES-256-GCM or ChaCha20-Poly1305, or wrapped in JWE
tokens. Share sets can be kept in the configured storage backend.

Configuration is read from --config, $SSS_CONFIG, ./config.yaml, or
$HOME/.sss/config.yaml, in that order. SSS_* variables override the file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is ./config.yaml or $HOME/.sss/config.yaml)")
	flags.StringP("output", "o", string(OutputFormatText), "output format (text, json)")
	flags.String("log-level", "", "log level written to stderr (default warn)")
	flags.BoolP("verbose", "v", false, "verbose output (log level debug)")

	a.v.SetEnvPrefix("SSS")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	_ = a.v.BindPFlag("config", flags.Lookup("config"))
	_ = a.v.BindPFlag("output", flags.Lookup("output"))
	_ = a.v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("verbose", flags.Lookup("verbose"))

	rootCmd.AddCommand(
		a.newSplitCmd(),
		a.newCombineCmd(),
		a.newVerifyCmd(),
		a.newEncodeCmd(),
		a.newStoreCmd(),
		a.newConfigCmd(),
		a.newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command against the process arguments. Errors are
// printed to stderr in the selected output format.
func Execute() error {
	rootCmd := NewRootCmd()
	cmd, err := rootCmd.ExecuteC()
	if err != nil {
		printer := NewPrinter(outputFormat(cmd), os.Stderr)
		_ = printer.PrintError(err) // best-effort
	}
	return err
}

// outputFormat reads the persistent --output flag of cmd, falling back to
// text when the command never parsed it.
func outputFormat(cmd *cobra.Command) string {
	if cmd == nil {
		return string(OutputFormatText)
	}
	if f := cmd.Flags().Lookup("output"); f != nil {
		return f.Value.String()
	}
	return string(OutputFormatText)
}

// printer writes command results to the command's stdout.
func (a *app) printer(cmd *cobra.Command) *Printer {
	return NewPrinter(a.v.GetString("output"), cmd.OutOrStdout())
}

// configPath returns the config file to load, or "" when none exists.
func (a *app) configPath() (string, error) {
	if path := a.v.GetString("config"); path != "" {
		return path, nil
	}

	finder := viper.New()
	finder.SetConfigName("config")
	finder.SetConfigType("yaml")
	finder.AddConfigPath(".")
	finder.AddConfigPath("$HOME/.sss")
	if err := finder.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read config file: %w", err)
	}
	return finder.ConfigFileUsed(), nil
}

// loadConfig resolves the effective configuration.
func (a *app) loadConfig() (*config.Config, error) {
	path, err := a.configPath()
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

// logger writes to the command's stderr at the level chosen by
// --verbose, --log-level, or SSS_LOG_LEVEL.
func (a *app) logger(cmd *cobra.Command, cfg *config.Config) (logger.Logger, error) {
	level := a.v.GetString("log_level")
	if level == "" {
		level = DefaultLogLevel
	}
	if a.v.GetBool("verbose") {
		level = "debug"
	}
	return logger.New(level, cfg.Logging.Format, cmd.ErrOrStderr())
}

// session is the configuration and components one command runs with.
type session struct {
	cfg        *config.Config
	log        logger.Logger
	components *server.Components
}

// open loads the configuration, builds the components, and tags the
// command context with a correlation ID for its log lines. The caller must
// Close the session.
func (a *app) open(cmd *cobra.Command) (*session, error) {
	id := correlation.GetOrGenerate(cmd.Context())
	cmd.SetContext(correlation.WithCorrelationID(cmd.Context(), id))

	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := a.logger(cmd, cfg)
	if err != nil {
		return nil, err
	}
	components, err := server.Build(cfg, metrics.SourceCLI, log)
	if err != nil {
		return nil, err
	}
	log.Debug("Configuration loaded",
		logger.String("correlation_id", id),
		logger.String("storage", cfg.Storage.Backend),
		logger.String("random", string(cfg.Random.Mode)),
		logger.Bool("encryption", cfg.Encryption.Enabled))
	return &session{cfg: cfg, log: log, components: components}, nil
}

// Close releases the session's components.
func (s *session) Close() error {
	return s.components.Close()
}

// closeSession reports a close failure without masking err.
func closeSession(s *session, w io.Writer) {
	if err := s.Close(); err != nil {
		fmt.Fprintf(w, "warning: %v\n", err)
	}
}
