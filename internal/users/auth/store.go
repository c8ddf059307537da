// Copyright (c) 2026 Amanat. All rights reserved.
// Author: a.saparov.dev@gmail.com

package auth

import (
	"context"
	"time"
)

// UserRepository defines the data access contract for user accounts.
//
// # Review Process
//
// This interface is placed in a separate file from user.go so entity changes
// and storage-contract changes can be reviewed independently by the team.
//
// # Implementations
//
// The canonical implementation for Amanat is PostgreSQL (store_postgres.go).
type UserRepository interface {
	// FindByID returns the account with the given ID.
	//
	// Soft-deleted accounts are treated as absent.
	// Returns [apperr.NotFound] if the account does not exist.
	FindByID(ctx context.Context, id int64) (*User, error)

	// FindByEmail returns the account with the given (lower-cased) email.
	//
	// Returns [apperr.NotFound] if no user is registered with this email.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Create persists a brand-new user account and populates its ID.
	//
	// Returns a wrapped error if the email unique constraint fails.
	Create(ctx context.Context, user *User) error

	// Update persists changes to mutable profile fields (names only).
	// Email, password, and flags are updated via dedicated operations.
	Update(ctx context.Context, user *User) error

	// SetActive toggles the is_active flag.
	// Deactivation makes every session and token of the user unusable,
	// because identity resolution requires an active account.
	SetActive(ctx context.Context, id int64, active bool) error

	// SoftDelete marks the account as deleted without removing the row.
	// This preserves relational integrity (e.g., orders placed by the user).
	SoftDelete(ctx context.Context, id int64) error
}

// SessionRepository defines the data access contract for login sessions.
//
// # Domain Ownership
//
// This is kept alongside [UserRepository] because sessions are owned entirely
// by the users' domain, despite serving authentication security.
type SessionRepository interface {
	// Create persists a new session for an authenticated login.
	Create(ctx context.Context, session *Session) error

	// FindByID returns the session with the given opaque id.
	//
	// The implementation must not return rows past their expiry.
	// Returns [apperr.NotFound] if the session is absent or expired.
	FindByID(ctx context.Context, id string) (*Session, error)

	// Delete removes a session record. Deleting an unknown id is not an
	// error: logout must be idempotent.
	Delete(ctx context.Context, id string) error

	// DeleteAllForUser removes every session belonging to the user.
	// Crucial for security event responses (account deactivation).
	DeleteAllForUser(ctx context.Context, userID int64) error

	// DeleteExpired physically removes sessions whose ExpireAt is in the past.
	// Intended for periodic maintenance, never on the request path.
	DeleteExpired(ctx context.Context) (int64, error)
}

// RevokedTokenRepository defines the contract for the JWT revocation list.
//
// # Semantics
//
// Presence of a unique id (jti) in the list means the token is revoked.
// Entries carry the token's natural expiry so storage can drop them once
// the expiry check alone would reject the token anyway.
//
// # Implementations
//
// The canonical implementation is Redis (store_redis.go), where the key TTL
// equals the token's remaining lifetime, making garbage collection automatic.
type RevokedTokenRepository interface {
	// Record marks the unique id as revoked until expiresAt.
	// Recording an already-revoked id is a no-op.
	Record(ctx context.Context, uniqueID string, expiresAt time.Time) error

	// IsRevoked reports whether the unique id is on the revocation list.
	IsRevoked(ctx context.Context, uniqueID string) (bool, error)
}
