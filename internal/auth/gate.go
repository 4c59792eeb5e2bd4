// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wepieces Contributors

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"

	"github.com/wepieces/wepieces/internal/form"
	"github.com/wepieces/wepieces/pkg/errutil"
)

// MsgNotAuthenticated is returned by ValidatedWithUser when no user is signed in.
const MsgNotAuthenticated = "User is not authenticated."

// Result is the outcome of an Action. Error and Success are user-facing
// messages; Extra fields are merged into the JSON form. Redirect, Session and
// ClearSession are directives for the transport layer and are never serialized.
type Result struct {
	Error   string
	Success string
	Extra   map[string]any

	// Redirect is a terminal navigation signal. No other data is returned.
	Redirect string
	// Session, when set, must be written to the client.
	Session *Session
	// ClearSession asks the transport to drop the client's session.
	ClearSession bool
	// Unauthenticated marks an error produced because no user was signed in.
	Unauthenticated bool
}

// Failure returns an error Result.
func Failure(msg string) Result {
	return Result{Error: msg}
}

// Succeeded returns a success Result with optional extra fields.
func Succeeded(msg string, extra map[string]any) Result {
	return Result{Success: msg, Extra: extra}
}

// RedirectTo returns a redirect Result.
func RedirectTo(path string) Result {
	return Result{Redirect: path}
}

// Failed reports whether the result carries an error message.
func (r Result) Failed() bool {
	return r.Error != ""
}

// MarshalJSON encodes the result as {error?, success?, ...extra}.
func (r Result) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+2)
	for k, v := range r.Extra {
		out[k] = v
	}
	if r.Error != "" {
		out["error"] = r.Error
	}
	if r.Success != "" {
		out["success"] = r.Success
	}
	return json.Marshal(out)
}

// Request is an untrusted form submission together with the bearer session
// token presented by the client (empty when none).
type Request struct {
	Form         url.Values
	SessionToken string
}

// Action is the sole entry point for a mutating operation.
type Action func(ctx context.Context, req Request) Result

// Handler receives validated form data.
type Handler[T any] func(ctx context.Context, data T) Result

// UserHandler receives validated form data and the signed-in user.
type UserHandler[T any] func(ctx context.Context, data T, user *User) Result

// Validated wraps handler with form validation. Invalid input yields the first
// violation's message and the handler is not invoked.
func Validated[T any](schema *form.Schema[T], handler Handler[T]) Action {
	return func(ctx context.Context, req Request) Result {
		data, res, ok := parse(ctx, schema, req.Form)
		if !ok {
			return res
		}
		return handler(ctx, data)
	}
}

// ValidatedWithUser wraps handler with authentication and form validation. The
// current user is resolved first; without one the action fails with
// MsgNotAuthenticated.
func ValidatedWithUser[T any](users CurrentUserResolver, schema *form.Schema[T], handler UserHandler[T]) Action {
	return func(ctx context.Context, req Request) Result {
		user := users.CurrentUser(ctx, req.SessionToken)
		if user == nil {
			return Result{Error: MsgNotAuthenticated, Unauthenticated: true}
		}

		data, res, ok := parse(ctx, schema, req.Form)
		if !ok {
			return res
		}
		return handler(ctx, data, user)
	}
}

func parse[T any](ctx context.Context, schema *form.Schema[T], values url.Values) (T, Result, bool) {
	data, err := schema.Parse(values)
	if err == nil {
		return data, Result{}, true
	}

	var fe *form.FieldError
	if errors.As(err, &fe) {
		return data, Failure(fe.Message), false
	}
	errutil.LogErrorContext(ctx, slog.Default(), "form parse failed", err)
	return data, Failure("Invalid input."), false
}
