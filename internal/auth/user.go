// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wepieces Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Role is the authorization level of a user.
type Role string

// Known roles.
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Field length limits enforced by the users table.
const (
	MaxNameLength  = 100
	MaxEmailLength = 255
)

// User is an account row. A user with a non-nil DeletedAt is soft-deleted and
// must be treated as absent by every lookup except FindByEmail.
type User struct {
	ID           uuid.UUID
	Name         *string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// IsDeleted reports whether the user has been soft-deleted.
func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

// Safe returns the user without its password hash and timestamps.
func (u *User) Safe() *SafeUser {
	if u == nil {
		return nil
	}
	return &SafeUser{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

// SafeUser is the projection of a User that may be handed to presentation code.
type SafeUser struct {
	ID    uuid.UUID `json:"id"`
	Name  *string   `json:"name"`
	Email string    `json:"email"`
	Role  Role      `json:"role"`
}

// NewUser creates a validated User ready for insertion.
func NewUser(email, passwordHash string, role Role) (*User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, oops.Code("USER_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if len(email) > MaxEmailLength {
		return nil, oops.Code("USER_INVALID_EMAIL").
			With("max", MaxEmailLength).
			Errorf("email must be at most %d characters", MaxEmailLength)
	}
	if strings.TrimSpace(passwordHash) == "" {
		return nil, oops.Code("USER_INVALID_PASSWORD").Errorf("password hash cannot be empty")
	}
	if !role.Valid() {
		return nil, oops.Code("USER_INVALID_ROLE").
			With("role", string(role)).
			Errorf("unknown role %q", role)
	}

	now := time.Now().UTC()
	return &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// UserUpdate lists the columns to change in a partial update. Nil fields are
// left untouched.
type UserUpdate struct {
	Name         *string
	Email        *string
	PasswordHash *string
}

// IsEmpty reports whether the update changes nothing.
func (u UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.PasswordHash == nil
}

// UserRepository manages user persistence.
type UserRepository interface {
	// FindByEmail retrieves a user by exact email, including soft-deleted rows.
	// Returns ErrNotFound if no row has the given email.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindActiveByID retrieves a user by id that has not been soft-deleted.
	// Returns ErrNotFound otherwise.
	FindActiveByID(ctx context.Context, id uuid.UUID) (*User, error)

	// Insert stores a new user. Returns ErrConflict if the email is taken.
	Insert(ctx context.Context, user *User) error

	// Update applies a partial update to an active user. Returns ErrNotFound
	// if no active user has id, ErrConflict if a new email is taken.
	Update(ctx context.Context, id uuid.UUID, fields UserUpdate) error

	// SoftDelete marks the user deleted and rewrites its email to a unique
	// tombstone so the original address can be registered again.
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// TombstoneEmail returns the email a soft-deleted user is stored under.
func TombstoneEmail(email string, id uuid.UUID) string {
	return email + "-" + id.String() + "-deleted"
}
