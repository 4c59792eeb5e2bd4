// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wepieces Contributors

package main

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wepieces/wepieces/internal/auth"
	"github.com/wepieces/wepieces/internal/auth/postgres"
	"github.com/wepieces/wepieces/internal/store"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

//go:embed seed.yaml
var seedFixture []byte

// seedData is the decoded fixture.
type seedData struct {
	Notes []struct {
		Title string `yaml:"title"`
	} `yaml:"notes"`
	Users []struct {
		Name     string `yaml:"name"`
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
		Role     string `yaml:"role"`
	} `yaml:"users"`
}

func parseSeed(raw []byte) (*seedData, error) {
	var data seedData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, oops.Code("SEED_INVALID").Wrap(err)
	}
	for _, u := range data.Users {
		if !auth.Role(u.Role).Valid() {
			return nil, oops.Code("SEED_INVALID").With("email", u.Email).Errorf("unknown role %q", u.Role)
		}
	}
	return &data, nil
}

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	timeout time.Duration
	migrate bool
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd(g *globals, deps *Deps) *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed demo notes and the admin account",
		Long: `Inserts the demo notes and the admin account.
This command is idempotent - rows that already exist are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd, g, cfg, deps)
		},
	}

	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")
	cmd.Flags().BoolVar(&cfg.migrate, "migrate", true, "apply pending migrations first")

	return cmd
}

func runSeed(cmd *cobra.Command, g *globals, cfg *seedConfig, deps *Deps) error {
	if err := g.cfg.ValidateDatabase(); err != nil {
		return err //nolint:wrapcheck // config errors carry their own codes
	}
	deps = deps.withDefaults()
	logger := g.logger
	if logger == nil {
		logger = slog.Default()
	}

	data, err := parseSeed(seedFixture)
	if err != nil {
		return err
	}

	// cmd.Context() carries SIGINT/SIGTERM cancellation.
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	if cfg.migrate {
		cmd.Println("Running migrations...")
		if err := autoMigrate(deps, g.cfg.Database.URL, logger); err != nil {
			return err
		}
	}

	cmd.Println("Connecting to database...")
	pool, err := deps.PoolFactory(ctx, g.cfg.Database.URL)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()

	return seed(ctx, cmd, data, store.NewNoteRepository(pool), postgres.NewUserRepository(pool), auth.NewArgon2idHasher(), logger)
}

type noteInserter interface {
	Insert(ctx context.Context, title string) (store.Note, error)
}

type userInserter interface {
	Insert(ctx context.Context, user *auth.User) error
}

func seed(
	ctx context.Context,
	cmd *cobra.Command,
	data *seedData,
	notes noteInserter,
	users userInserter,
	hasher auth.PasswordHasher,
	logger *slog.Logger,
) error {
	var created, skipped int

	for _, n := range data.Notes {
		note, err := notes.Insert(ctx, n.Title)
		switch {
		case errors.Is(err, store.ErrDuplicate):
			skipped++
		case err != nil:
			return oops.Code("SEED_FAILED").With("operation", "insert note").With("title", n.Title).Wrap(err)
		default:
			created++
			logger.Info("seeded note", "id", note.ID, "title", note.Title)
		}
	}

	for _, u := range data.Users {
		hash, err := hasher.Hash(u.Password)
		if err != nil {
			return oops.Code("SEED_FAILED").With("operation", "hash password").With("email", u.Email).Wrap(err)
		}
		user, err := auth.NewUser(u.Email, hash, auth.Role(u.Role))
		if err != nil {
			return oops.Code("SEED_FAILED").With("operation", "build user").With("email", u.Email).Wrap(err)
		}
		if u.Name != "" {
			name := u.Name
			user.Name = &name
		}

		err = users.Insert(ctx, user)
		switch {
		case errors.Is(err, auth.ErrConflict):
			skipped++
			cmd.Printf("User %s already exists, skipping\n", u.Email)
		case err != nil:
			return oops.Code("SEED_FAILED").With("operation", "insert user").With("email", u.Email).Wrap(err)
		default:
			created++
			logger.Info("seeded user", "id", user.ID, "email", user.Email, "role", user.Role)
		}
	}

	cmd.Printf("Seeding complete: %d created, %d skipped\n", created, skipped)
	return nil
}
