// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wepieces Contributors

// Package mocks provides testify mocks for the auth package interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/wepieces/wepieces/internal/auth"
)

type cleanupT interface {
	mock.TestingT
	Cleanup(func())
}

// MockUserRepository is a mock auth.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

// NewMockUserRepository creates a mock that asserts its expectations on cleanup.
func NewMockUserRepository(t cleanupT) *MockUserRepository {
	m := &MockUserRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) Insert(ctx context.Context, user *auth.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, id uuid.UUID, fields auth.UserUpdate) error {
	return m.Called(ctx, id, fields).Error(0)
}

func (m *MockUserRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockPasswordHasher is a mock auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a mock that asserts its expectations on cleanup.
func NewMockPasswordHasher(t cleanupT) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Compare(password, digest string) bool {
	return m.Called(password, digest).Bool(0)
}

func (m *MockPasswordHasher) NeedsUpgrade(digest string) bool {
	return m.Called(digest).Bool(0)
}

// MockSessionCodec is a mock auth.SessionCodec.
type MockSessionCodec struct {
	mock.Mock
}

// NewMockSessionCodec creates a mock that asserts its expectations on cleanup.
func NewMockSessionCodec(t cleanupT) *MockSessionCodec {
	m := &MockSessionCodec{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSessionCodec) Sign(userID uuid.UUID, expires time.Time) (string, error) {
	args := m.Called(userID, expires)
	return args.String(0), args.Error(1)
}

func (m *MockSessionCodec) Verify(token string) (auth.SessionClaims, bool) {
	args := m.Called(token)
	claims, _ := args.Get(0).(auth.SessionClaims)
	return claims, args.Bool(1)
}

func (m *MockSessionCodec) Issue(userID uuid.UUID, now time.Time) (auth.Session, error) {
	args := m.Called(userID, now)
	session, _ := args.Get(0).(auth.Session)
	return session, args.Error(1)
}

// MockCurrentUserResolver is a mock auth.CurrentUserResolver.
type MockCurrentUserResolver struct {
	mock.Mock
}

// NewMockCurrentUserResolver creates a mock that asserts its expectations on cleanup.
func NewMockCurrentUserResolver(t cleanupT) *MockCurrentUserResolver {
	m := &MockCurrentUserResolver{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCurrentUserResolver) CurrentUser(ctx context.Context, token string) *auth.User {
	user, _ := m.Called(ctx, token).Get(0).(*auth.User)
	return user
}

var (
	_ auth.UserRepository      = (*MockUserRepository)(nil)
	_ auth.PasswordHasher      = (*MockPasswordHasher)(nil)
	_ auth.SessionCodec        = (*MockSessionCodec)(nil)
	_ auth.CurrentUserResolver = (*MockCurrentUserResolver)(nil)
)
