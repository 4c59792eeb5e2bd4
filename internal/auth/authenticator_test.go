// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wepieces Contributors

package auth_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wepieces/wepieces/internal/auth"
	"github.com/wepieces/wepieces/internal/auth/mocks"
)

func TestNewAuthenticator_NilDependencies(t *testing.T) {
	_, err := auth.NewAuthenticator(nil, mocks.NewMockSessionCodec(t), nil)
	assert.ErrorContains(t, err, "users repository is required")

	_, err = auth.NewAuthenticator(mocks.NewMockUserRepository(t), nil, nil)
	assert.ErrorContains(t, err, "session codec is required")
}

func TestAuthenticator_CurrentUser(t *testing.T) {
	ctx := context.Background()
	codec := newCodec(t)
	userID := uuid.New()
	active := &auth.User{ID: userID, Email: "a@x.com", PasswordHash: "hash", Role: auth.RoleUser}

	validToken, err := codec.Sign(userID, time.Now().Add(time.Hour))
	require.NoError(t, err)

	t.Run("valid token resolves active user", func(t *testing.T) {
		users := mocks.NewMockUserRepository(t)
		users.On("FindActiveByID", ctx, userID).Return(active, nil)

		authn, err := auth.NewAuthenticator(users, codec, nil)
		require.NoError(t, err)

		got := authn.CurrentUser(ctx, validToken)
		require.NotNil(t, got)
		assert.Equal(t, userID, got.ID)
	})

	t.Run("no token", func(t *testing.T) {
		authn, err := auth.NewAuthenticator(mocks.NewMockUserRepository(t), codec, nil)
		require.NoError(t, err)
		assert.Nil(t, authn.CurrentUser(ctx, ""))
	})

	t.Run("tampered token never reaches the store", func(t *testing.T) {
		authn, err := auth.NewAuthenticator(mocks.NewMockUserRepository(t), codec, nil)
		require.NoError(t, err)
		assert.Nil(t, authn.CurrentUser(ctx, validToken+"x"))
	})

	t.Run("expired token never reaches the store", func(t *testing.T) {
		expired, err := codec.Sign(userID, time.Now().Add(-time.Minute))
		require.NoError(t, err)

		authn, err := auth.NewAuthenticator(mocks.NewMockUserRepository(t), codec, nil)
		require.NoError(t, err)
		assert.Nil(t, authn.CurrentUser(ctx, expired))
	})

	t.Run("deleted or unknown user", func(t *testing.T) {
		users := mocks.NewMockUserRepository(t)
		users.On("FindActiveByID", ctx, userID).Return(nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound))

		var buf bytes.Buffer
		authn, err := auth.NewAuthenticator(users, codec, slog.New(slog.NewJSONHandler(&buf, nil)))
		require.NoError(t, err)

		assert.Nil(t, authn.CurrentUser(ctx, validToken))
		assert.Empty(t, buf.String(), "absence is not an error")
	})

	t.Run("row flagged deleted", func(t *testing.T) {
		deletedAt := time.Now()
		deleted := *active
		deleted.DeletedAt = &deletedAt

		users := mocks.NewMockUserRepository(t)
		users.On("FindActiveByID", ctx, userID).Return(&deleted, nil)

		authn, err := auth.NewAuthenticator(users, codec, nil)
		require.NoError(t, err)
		assert.Nil(t, authn.CurrentUser(ctx, validToken))
	})

	t.Run("store failure is logged and collapses to nil", func(t *testing.T) {
		users := mocks.NewMockUserRepository(t)
		users.On("FindActiveByID", ctx, mock.Anything).Return(nil, errors.New("connection reset"))

		var buf bytes.Buffer
		authn, err := auth.NewAuthenticator(users, codec, slog.New(slog.NewJSONHandler(&buf, nil)))
		require.NoError(t, err)

		assert.Nil(t, authn.CurrentUser(ctx, validToken))
		assert.Contains(t, buf.String(), "session user lookup failed")
		assert.Contains(t, buf.String(), "connection reset")
	})
}

func TestAuthenticator_CurrentSafeUser(t *testing.T) {
	ctx := context.Background()
	codec := newCodec(t)
	userID := uuid.New()
	token, err := codec.Sign(userID, time.Now().Add(time.Hour))
	require.NoError(t, err)

	users := mocks.NewMockUserRepository(t)
	users.On("FindActiveByID", ctx, userID).
		Return(&auth.User{ID: userID, Email: "a@x.com", PasswordHash: "hash", Role: auth.RoleAdmin}, nil)

	authn, err := auth.NewAuthenticator(users, codec, nil)
	require.NoError(t, err)

	safe := authn.CurrentSafeUser(ctx, token)
	require.NotNil(t, safe)
	assert.Equal(t, &auth.SafeUser{ID: userID, Email: "a@x.com", Role: auth.RoleAdmin}, safe)

	assert.Nil(t, authn.CurrentSafeUser(ctx, ""))
}
