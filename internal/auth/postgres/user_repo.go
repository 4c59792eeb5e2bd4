// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wepieces Contributors

// Package postgres implements auth persistence on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/wepieces/wepieces/internal/auth"
)

// Pool is the subset of pgxpool.Pool used by the repositories.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const userColumns = `id, name, email, password_hash, role, created_at, updated_at, deleted_at`

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	pool Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// FindByEmail retrieves a user by exact email. Soft-deleted rows are included.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1 LIMIT 1`, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_FIND_BY_EMAIL_FAILED").
			With("operation", "find user by email").
			With("email", email).
			Wrap(err)
	}
	return user, nil
}

// FindActiveByID retrieves a user by id that has not been soft-deleted.
func (r *UserRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND deleted_at IS NULL LIMIT 1`,
		id.String())

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_FIND_BY_ID_FAILED").
			With("operation", "find active user by id").
			With("id", id.String()).
			Wrap(err)
	}
	return user, nil
}

// Insert stores a new user.
func (r *UserRepository) Insert(ctx context.Context, user *auth.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		user.ID.String(),
		user.Name,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("USER_EMAIL_TAKEN").
				With("email", user.Email).
				Wrap(auth.ErrConflict)
		}
		return oops.Code("USER_INSERT_FAILED").
			With("operation", "insert user").
			With("email", user.Email).
			Wrap(err)
	}
	return nil
}

// Update applies a partial update to an active user. An empty update is a
// no-op.
func (r *UserRepository) Update(ctx context.Context, id uuid.UUID, fields auth.UserUpdate) error {
	if fields.IsEmpty() {
		return nil
	}

	sets := make([]string, 0, 4)
	args := []any{id.String()}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if fields.Name != nil {
		add("name", *fields.Name)
	}
	if fields.Email != nil {
		add("email", *fields.Email)
	}
	if fields.PasswordHash != nil {
		add("password_hash", *fields.PasswordHash)
	}
	add("updated_at", time.Now().UTC())

	result, err := r.pool.Exec(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = $1 AND deleted_at IS NULL`,
		args...)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("USER_EMAIL_TAKEN").
				With("id", id.String()).
				Wrap(auth.ErrConflict)
		}
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "update user").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// SoftDelete stamps deleted_at and moves the email to a tombstone value
// ("<email>-<id>-deleted") so the address can be registered again.
func (r *UserRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users SET
			deleted_at = now(),
			updated_at = now(),
			email = email || '-' || id::text || '-deleted'
		WHERE id = $1 AND deleted_at IS NULL
	`, id.String())
	if err != nil {
		return oops.Code("USER_SOFT_DELETE_FAILED").
			With("operation", "soft delete user").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// scanUser scans a single row into a User. Errors are left uncoded so the
// caller's oops code is the one reported.
func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		idStr        string
		name         *string
		email        string
		passwordHash string
		role         string
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    *time.Time
	)

	err := row.Scan(&idStr, &name, &email, &passwordHash, &role, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, oops.With("stored_id", idStr).Wrapf(err, "parse user id")
	}

	return &auth.User{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         auth.Role(role),
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
	}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// Compile-time interface check.
var _ auth.UserRepository = (*UserRepository)(nil)
