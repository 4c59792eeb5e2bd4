// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wepieces Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/wepieces/wepieces/pkg/errutil"
)

// CurrentUserResolver resolves the signed-in user for a session token.
type CurrentUserResolver interface {
	// CurrentUser returns the active user the token belongs to, or nil.
	CurrentUser(ctx context.Context, token string) *User
}

// Authenticator derives the current user from a session token. Every failure
// (missing, tampered, expired, unknown or deleted user) collapses to nil.
type Authenticator struct {
	users  UserRepository
	tokens SessionCodec
	logger *slog.Logger
	now    func() time.Time
}

// NewAuthenticator creates a new Authenticator. A nil logger uses slog.Default.
func NewAuthenticator(users UserRepository, tokens SessionCodec, logger *slog.Logger) (*Authenticator, error) {
	if users == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("users repository is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("session codec is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{
		users:  users,
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}, nil
}

// CurrentUser returns the full user row for token, or nil.
func (a *Authenticator) CurrentUser(ctx context.Context, token string) *User {
	if token == "" {
		return nil
	}

	claims, ok := a.tokens.Verify(token)
	if !ok {
		return nil
	}
	if claims.IsExpiredAt(a.now()) {
		return nil
	}

	user, err := a.users.FindActiveByID(ctx, claims.UserID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			errutil.LogErrorContext(ctx, a.logger, "session user lookup failed", err)
		}
		return nil
	}
	if user.IsDeleted() {
		return nil
	}
	return user
}

// CurrentSafeUser is CurrentUser without the password hash and timestamps.
func (a *Authenticator) CurrentSafeUser(ctx context.Context, token string) *SafeUser {
	return a.CurrentUser(ctx, token).Safe()
}

// Compile-time interface check.
var _ CurrentUserResolver = (*Authenticator)(nil)
