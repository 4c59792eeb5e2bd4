// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wepieces Contributors

package web

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/wepieces/wepieces/internal/auth"
	"github.com/wepieces/wepieces/internal/observability"
	"github.com/wepieces/wepieces/internal/store"
	"github.com/wepieces/wepieces/pkg/errutil"
)

// Action outcomes recorded in wepieces_auth_actions_total.
const (
	OutcomeSuccess         = "success"
	OutcomeRedirect        = "redirect"
	OutcomeError           = "error"
	OutcomeUnauthenticated = "unauthenticated"
)

const msgNotesFailed = "Failed to load notes."

type handler struct {
	actions auth.Actions
	users   SafeUserResolver
	notes   NoteLister
	metrics *observability.Metrics
	logger  *slog.Logger
	cookie  SessionCookie
}

func (h handler) register(e *echo.Echo) {
	e.GET("/", h.home)
	e.GET("/api/me", h.me)

	e.POST("/login", h.action("login", h.actions.Login))
	e.POST("/register", h.action("register", h.actions.Register))
	e.POST("/logout", h.action("logout", h.actions.Logout))
	e.POST("/session/refresh", h.action("refresh_session", h.actions.RefreshSession))

	account := e.Group("/account")
	account.POST("", h.action("update_account", h.actions.UpdateAccount))
	account.POST("/password", h.action("update_password", h.actions.UpdatePassword))
	account.POST("/delete", h.action("delete_account", h.actions.DeleteAccount))
}

type homeResponse struct {
	Notes []store.Note   `json:"notes"`
	User  *auth.SafeUser `json:"user"`
	CSRF  string         `json:"csrf,omitempty"`
}

func (h handler) home(c echo.Context) error {
	ctx := c.Request().Context()
	notes, err := h.notes.List(ctx)
	if err != nil {
		errutil.LogErrorContext(ctx, h.logger, "list notes failed", err)
		return echo.NewHTTPError(http.StatusInternalServerError, msgNotesFailed)
	}

	csrf, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return c.JSON(http.StatusOK, homeResponse{
		Notes: notes,
		User:  h.users.CurrentSafeUser(ctx, h.cookie.Token(c)),
		CSRF:  csrf,
	})
}

func (h handler) me(c echo.Context) error {
	user := h.users.CurrentSafeUser(c.Request().Context(), h.cookie.Token(c))
	if user == nil {
		return c.JSON(http.StatusUnauthorized, auth.Failure(auth.MsgNotAuthenticated))
	}
	return c.JSON(http.StatusOK, user)
}

// action adapts a gated auth action to an echo handler.
func (h handler) action(name string, act auth.Action) echo.HandlerFunc {
	return func(c echo.Context) error {
		values, err := c.FormParams()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Malformed form submission.")
		}

		res := act(c.Request().Context(), auth.Request{
			Form:         values,
			SessionToken: h.cookie.Token(c),
		})
		h.metrics.RecordAuthAction(name, outcome(res))
		return h.respond(c, res)
	}
}

// respond applies the result's session directives and renders it.
func (h handler) respond(c echo.Context, res auth.Result) error {
	if res.ClearSession {
		h.cookie.Clear(c)
	}
	if res.Session != nil {
		h.cookie.Write(c, *res.Session)
	}

	switch {
	case res.Redirect != "":
		return c.Redirect(http.StatusSeeOther, res.Redirect)
	case res.Unauthenticated:
		return c.JSON(http.StatusUnauthorized, res)
	case res.Failed():
		return c.JSON(http.StatusUnprocessableEntity, res)
	default:
		return c.JSON(http.StatusOK, res)
	}
}

func outcome(res auth.Result) string {
	switch {
	case res.Redirect != "":
		return OutcomeRedirect
	case res.Unauthenticated:
		return OutcomeUnauthenticated
	case res.Failed():
		return OutcomeError
	default:
		return OutcomeSuccess
	}
}
