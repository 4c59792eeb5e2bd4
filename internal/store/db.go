// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wepieces Contributors

// Package store owns the PostgreSQL connection, the embedded schema
// migrations and the notes table.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Connection retry policy for Open.
const (
	connectBaseDelay  = 200 * time.Millisecond
	connectMaxRetries = 5
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Open creates a pool for dsn and waits until the database answers a ping,
// retrying with exponential backoff.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, oops.Code("DB_URL_MISSING").Errorf("database url is required")
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").Wrap(err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("host", cfg.ConnConfig.Host).
			Wrap(err)
	}

	if err := WaitReady(ctx, pool, retry.WithMaxRetries(connectMaxRetries, retry.NewExponential(connectBaseDelay))); err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("host", cfg.ConnConfig.Host).
			Wrap(err)
	}
	return pool, nil
}

// WaitReady pings db until it answers or backoff gives up.
func WaitReady(ctx context.Context, db Pinger, backoff retry.Backoff) error {
	attempts := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		if err := db.Ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.With("attempts", attempts).Wrapf(err, "database not ready")
	}
	return nil
}
