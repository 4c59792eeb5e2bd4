// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wepieces Contributors

// Package auth provides the account and session core for wepieces.
//
// # Building Blocks
//
//   - Argon2idHasher - one-way password digests with constant-time comparison
//   - TokenCodec - signs and verifies the session token carried in the cookie
//   - UserRepository - persistence contract for users, honoring soft delete
//   - Authenticator - resolves the current user from a session token
//
// # Actions
//
// Every mutating operation is an Action. Validated wraps a handler with form
// validation; ValidatedWithUser additionally requires a signed-in user and
// hands the resolved *User to the handler. AccountService builds the login,
// register, logout, password, deletion and account-update actions on top of
// these gates.
//
// Actions never touch HTTP directly. A Result carries the user-facing message
// plus directives (redirect, write session, clear session) that the web layer
// applies.
package auth
