// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wepieces Contributors

package main

import (
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/wepieces/wepieces/internal/config"
	"github.com/wepieces/wepieces/internal/logging"
)

const serviceName = "wepieces"

// globals is shared by every subcommand once PersistentPreRunE has run.
type globals struct {
	configFile string
	cfg        *config.Config
	logger     *slog.Logger
}

// NewRootCmd creates the root command for the wepieces CLI.
func NewRootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:   "wepieces",
		Short: "wepieces - accounts, sessions and notes",
		Long: `wepieces serves the account and session API backed by PostgreSQL,
and manages its schema and seed data.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&g.configFile, "config", "", "config file path (default: $XDG_CONFIG_HOME/wepieces/config.yaml)")
	flags.String("env", "", "environment (development or production)")
	flags.String("database-url", "", "PostgreSQL connection URL")
	flags.String("log-format", "", "log format (json or text)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(NewServeCmd(g, nil))
	cmd.AddCommand(NewMigrateCmd(g, nil))
	cmd.AddCommand(NewSeedCmd(g, nil))
	cmd.AddCommand(NewStatusCmd(g))

	return cmd
}

// load resolves configuration and installs the default logger.
func (g *globals) load(cmd *cobra.Command) error {
	cfg, err := config.Load(config.LoadOptions{
		File:  g.configFile,
		Flags: cmd.Flags(),
	})
	if err != nil {
		return err //nolint:wrapcheck // config errors carry their own codes
	}
	if err := cfg.Validate(); err != nil {
		return err //nolint:wrapcheck // config errors carry their own codes
	}

	logger, err := logging.SetDefault(logging.Options{
		Service: serviceName,
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
	})
	if err != nil {
		return oops.Code("LOGGING_SETUP_FAILED").Wrap(err)
	}

	g.cfg = cfg
	g.logger = logger
	return nil
}
