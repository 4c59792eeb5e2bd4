// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wepieces Contributors

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wepieces/wepieces/internal/auth"
	"github.com/wepieces/wepieces/internal/auth/postgres"
	"github.com/wepieces/wepieces/internal/observability"
	"github.com/wepieces/wepieces/internal/store"
	"github.com/wepieces/wepieces/internal/web"
)

const observabilityStopTimeout = 5 * time.Second

var defaultListen = web.Listen

// serveConfig holds flags local to the serve command.
type serveConfig struct {
	autoMigrate bool
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd(g *globals, deps *Deps) *cobra.Command {
	cfg := &serveConfig{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web and observability servers",
		Long: `Start the HTTP server exposing the account actions and notes, plus the
metrics and health server. Stops gracefully on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, g, cfg, deps)
		},
	}

	cmd.Flags().String("http-addr", "", "web listen address (default 127.0.0.1:3000)")
	cmd.Flags().String("metrics-addr", "", "metrics/health HTTP address")
	cmd.Flags().BoolVar(&cfg.autoMigrate, "auto-migrate", false, "apply pending migrations before serving")

	return cmd
}

// runServe wires the application and blocks until ctx is canceled or a
// server fails.
func runServe(ctx context.Context, cmd *cobra.Command, g *globals, sc *serveConfig, deps *Deps) error {
	deps = deps.withDefaults()
	cfg := g.cfg
	logger := g.logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := cfg.ValidateServe(); err != nil {
		return err //nolint:wrapcheck // config errors carry their own codes
	}

	if sc.autoMigrate {
		if err := autoMigrate(deps, cfg.Database.URL, logger); err != nil {
			return err
		}
	}

	pool, err := deps.PoolFactory(ctx, cfg.Database.URL)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()
	logger.InfoContext(ctx, "connected to database")

	users := postgres.NewUserRepository(pool)
	codec, err := auth.NewTokenCodec([]byte(cfg.Auth.Secret), cfg.Auth.SessionTTL)
	if err != nil {
		return err //nolint:wrapcheck // auth errors carry their own codes
	}
	authn, err := auth.NewAuthenticator(users, codec, logger)
	if err != nil {
		return err //nolint:wrapcheck // auth errors carry their own codes
	}
	accounts, err := auth.NewAccountService(users, auth.NewArgon2idHasher(), codec, authn, logger)
	if err != nil {
		return err //nolint:wrapcheck // auth errors carry their own codes
	}

	grp, gctx := errgroup.WithContext(ctx)

	var (
		obsServer ObservabilityServer
		metrics   *observability.Metrics
	)
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, pool.Ping, logger)
		obsErrs, startErr := obsServer.Start()
		if startErr != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").With("addr", cfg.Metrics.Addr).Wrap(startErr)
		}
		defer stopObservability(obsServer, logger)
		grp.Go(func() error { return watchServer(gctx, obsErrs, "observability") })
		metrics = obsServer.Metrics()
		logger.InfoContext(ctx, "observability server started", "addr", obsServer.Addr())
	}

	app, err := web.New(web.Config{
		Actions:    accounts.Actions(),
		Users:      authn,
		Notes:      store.NewNoteRepository(pool),
		Metrics:    metrics,
		Logger:     logger,
		Production: cfg.IsProduction(),
	})
	if err != nil {
		return err //nolint:wrapcheck // web errors carry their own codes
	}

	listener, err := deps.Listen(gctx, cfg.HTTP.Addr)
	if err != nil {
		return oops.Code("HTTP_LISTEN_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err)
	}
	srv := &http.Server{Handler: app} //nolint:gosec // web.Serve sets timeouts
	web.Serve(gctx, grp, srv, listener, web.ShutdownTimeout)

	logger.InfoContext(ctx, "web server started", "addr", listener.Addr().String(), "env", cfg.Env)
	cmd.Printf("wepieces listening on http://%s\n", listener.Addr())

	if err := grp.Wait(); err != nil {
		return oops.Code("SERVER_FAILED").Wrap(err)
	}
	logger.InfoContext(ctx, "shutdown complete")
	return nil
}

// watchServer turns a server's asynchronous failure into a group error.
func watchServer(ctx context.Context, errs <-chan error, name string) error {
	select {
	case err, ok := <-errs:
		if ok && err != nil {
			return oops.With("server", name).Wrapf(err, "%s server failed", name)
		}
		<-ctx.Done()
		return nil
	case <-ctx.Done():
		return nil
	}
}

func stopObservability(srv ObservabilityServer, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), observabilityStopTimeout)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		logger.Warn("error stopping observability server", "error", err)
	}
}

// autoMigrate applies pending migrations and always closes the migrator.
func autoMigrate(deps *Deps, dsn string, logger *slog.Logger) (err error) {
	migrator, err := deps.MigratorFactory(dsn)
	if err != nil {
		return oops.Code("MIGRATION_INIT_FAILED").Wrap(err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Warn("failed to close migrator", "error", closeErr)
		}
	}()

	logger.Info("applying database migrations")
	if err := migrator.Up(); err != nil {
		return oops.Code("AUTO_MIGRATION_FAILED").Wrap(err)
	}
	return nil
}
