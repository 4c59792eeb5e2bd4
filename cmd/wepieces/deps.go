// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wepieces Contributors

package main

import (
	"context"
	"log/slog"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wepieces/wepieces/internal/observability"
	"github.com/wepieces/wepieces/internal/store"
)

// DBPool is the subset of pgxpool.Pool the commands use.
type DBPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Migrator wraps the store.Migrator methods used by the commands.
type Migrator interface {
	Up() error
	Down() error
	Force(version int) error
	Version() (version uint, dirty bool, err error)
	Status() (store.MigrationStatus, error)
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// Deps contains injectable dependencies for the commands. Nil fields use
// their default implementations.
type Deps struct {
	// PoolFactory connects to the database. Default: store.Open.
	PoolFactory func(ctx context.Context, dsn string) (DBPool, error)

	// MigratorFactory creates a migrator. Default: store.NewMigrator.
	MigratorFactory func(dsn string) (Migrator, error)

	// ObservabilityServerFactory creates the metrics/health server.
	// Default: observability.NewServer.
	ObservabilityServerFactory func(addr string, checker observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer

	// Listen opens the web listener. Default: web.Listen.
	Listen func(ctx context.Context, addr string) (net.Listener, error)
}

func (d *Deps) withDefaults() *Deps {
	out := Deps{}
	if d != nil {
		out = *d
	}
	if out.PoolFactory == nil {
		out.PoolFactory = func(ctx context.Context, dsn string) (DBPool, error) {
			return store.Open(ctx, dsn)
		}
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(dsn string) (Migrator, error) {
			return store.NewMigrator(dsn)
		}
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, checker observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer {
			return observability.NewServer(addr, checker, logger)
		}
	}
	if out.Listen == nil {
		out.Listen = defaultListen
	}
	return &out
}
