// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wepieces Contributors

package auth

import "errors"

// Sentinel errors. Repository and service errors wrap one of these beneath an
// oops code so callers can branch with errors.Is.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("conflict")

	// ErrConfig is returned when required configuration is missing or invalid.
	ErrConfig = errors.New("invalid configuration")

	// ErrUnauthenticated is returned when an operation requires a signed-in user.
	ErrUnauthenticated = errors.New("not authenticated")
)
