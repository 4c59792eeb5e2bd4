// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wepieces Contributors

// Package web exposes the account actions and the notes listing over HTTP.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/wepieces/wepieces/internal/auth"
	"github.com/wepieces/wepieces/internal/logging"
	"github.com/wepieces/wepieces/internal/observability"
	"github.com/wepieces/wepieces/internal/store"
)

// CSRF token sources. Unsafe requests must echo the _csrf cookie value in one
// of them.
const (
	CSRFHeader    = echo.HeaderXCSRFToken
	CSRFFormField = "_csrf"
)

const bodyLimit = "64K"

// SafeUserResolver resolves the presentation-safe current user.
type SafeUserResolver interface {
	CurrentSafeUser(ctx context.Context, token string) *auth.SafeUser
}

// NoteLister lists notes for the home page.
type NoteLister interface {
	List(ctx context.Context) ([]store.Note, error)
}

// Config holds the server's collaborators.
type Config struct {
	Actions auth.Actions
	Users   SafeUserResolver
	Notes   NoteLister
	// Metrics may be nil when the observability server is disabled.
	Metrics *observability.Metrics
	Logger  *slog.Logger
	// Production marks the session and CSRF cookies Secure.
	Production bool
}

// New creates the web front-end.
func New(cfg Config) (*echo.Echo, error) {
	if cfg.Users == nil {
		return nil, oops.Code("WEB_INVALID_DEPENDENCY").Errorf("user resolver is required")
	}
	if cfg.Notes == nil {
		return nil, oops.Code("WEB_INVALID_DEPENDENCY").Errorf("note lister is required")
	}
	if cfg.Actions.Login == nil {
		return nil, oops.Code("WEB_INVALID_DEPENDENCY").Errorf("account actions are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	srv := echo.New()
	srv.HideBanner = true
	srv.HidePort = true
	srv.Logger.SetLevel(log.OFF)

	srv.Use(
		middleware.Recover(),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			Generator: func() string { return ulid.Make().String() },
			RequestIDHandler: func(c echo.Context, id string) {
				req := c.Request()
				c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), id)))
			},
		}),
		observeRequests(logger, cfg.Metrics),
		middleware.Secure(),
		middleware.BodyLimit(bodyLimit),
		middleware.CSRFWithConfig(middleware.CSRFConfig{
			TokenLookup:    "header:" + CSRFHeader + ",form:" + CSRFFormField,
			CookiePath:     "/",
			CookieHTTPOnly: true,
			CookieSameSite: http.SameSiteLaxMode,
			CookieSecure:   cfg.Production,
		}),
	)

	handler{
		actions: cfg.Actions,
		users:   cfg.Users,
		notes:   cfg.Notes,
		metrics: cfg.Metrics,
		logger:  logger,
		cookie:  SessionCookie{Secure: cfg.Production},
	}.register(srv)
	return srv, nil
}

// observeRequests logs every request and records it in the HTTP metrics.
func observeRequests(logger *slog.Logger, metrics *observability.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			latency := time.Since(start)

			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.ObserveRequest(req.Method, route, res.Status, latency)

			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("uri", req.RequestURI),
				slog.String("route", route),
				slog.Duration("latency", latency),
				slog.Int("status", res.Status),
			}
			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
			}
			logger.LogAttrs(req.Context(), slog.LevelDebug, "request handled", attrs...)
			return nil
		}
	}
}
