// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wepieces Contributors

package main

import (
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/wepieces/wepieces/internal/store"
)

// NewMigrateCmd creates the migrate command group.
func NewMigrateCmd(g *globals, deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long:  `Apply, roll back or inspect the embedded PostgreSQL schema migrations.`,
	}

	run := func(fn func(*cobra.Command, Migrator, []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			return withMigrator(g, deps, func(m Migrator) error {
				return fn(cmd, m, args)
			})
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE:  run(runMigrateUp),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		Args:  cobra.NoArgs,
		RunE:  run(runMigrateDown),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE:  run(runMigrateStatus),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the current schema version",
		Args:  cobra.NoArgs,
		RunE:  run(runMigrateVersion),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Set the schema version without running migrations",
		Long: `Set the recorded schema version and clear the dirty flag. Use after
fixing a failed migration by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: run(runMigrateForce),
	})

	return cmd
}

func withMigrator(g *globals, deps *Deps, fn func(Migrator) error) error {
	if err := g.cfg.ValidateDatabase(); err != nil {
		return err //nolint:wrapcheck // config errors carry their own codes
	}

	m, err := deps.withDefaults().MigratorFactory(g.cfg.Database.URL)
	if err != nil {
		return oops.Code("MIGRATION_INIT_FAILED").Wrap(err)
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil && g.logger != nil {
			g.logger.Warn("failed to close migrator", "error", closeErr)
		}
	}()
	return fn(m)
}

func runMigrateUp(cmd *cobra.Command, m Migrator, _ []string) error {
	cmd.Println("Running migrations...")
	if err := m.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("direction", "up").Wrap(err)
	}
	cmd.Println("Migrations completed successfully")
	return nil
}

func runMigrateDown(cmd *cobra.Command, m Migrator, _ []string) error {
	cmd.Println("Rolling back migrations...")
	if err := m.Down(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("direction", "down").Wrap(err)
	}
	cmd.Println("Rollback completed successfully")
	return nil
}

func runMigrateStatus(cmd *cobra.Command, m Migrator, _ []string) error {
	status, err := m.Status()
	if err != nil {
		return oops.Code("MIGRATION_STATUS_FAILED").Wrap(err)
	}

	if status.Version == 0 {
		cmd.Println("Current version: none")
	} else {
		cmd.Printf("Current version: %d (%s)\n", status.Version, status.Name)
	}
	if status.Dirty {
		cmd.Println("WARNING: schema is dirty; fix it and run 'wepieces migrate force VERSION'")
	}
	cmd.Printf("Applied: %d\n", len(status.Applied))
	if len(status.Pending) == 0 {
		cmd.Println("Pending: none")
		return nil
	}
	cmd.Printf("Pending: %d\n", len(status.Pending))
	for _, v := range status.Pending {
		name, nameErr := store.MigrationName(v)
		if nameErr != nil {
			name = "unknown"
		}
		cmd.Printf("  %s\n", name)
	}
	return nil
}

func runMigrateVersion(cmd *cobra.Command, m Migrator, _ []string) error {
	v, dirty, err := m.Version()
	if err != nil {
		return oops.Code("MIGRATION_VERSION_FAILED").Wrap(err)
	}
	if dirty {
		cmd.Printf("%d (dirty)\n", v)
		return nil
	}
	cmd.Println(v)
	return nil
}

func runMigrateForce(cmd *cobra.Command, m Migrator, args []string) error {
	v, err := parseForceVersion(args[0])
	if err != nil {
		return err
	}
	if err := m.Force(v); err != nil {
		return oops.Code("MIGRATION_FORCE_FAILED").With("version", v).Wrap(err)
	}
	cmd.Printf("Schema version forced to %d\n", v)
	return nil
}

// parseForceVersion parses a non-negative schema version.
func parseForceVersion(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Wrapf(err, "version must be an integer")
	}
	if v < 0 {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Errorf("version must be non-negative")
	}
	return v, nil
}
