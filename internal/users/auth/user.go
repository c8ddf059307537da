// Copyright (c) 2026 Amanat. All rights reserved.
// Author: a.saparov.dev@gmail.com

// Package auth implements dual-mode authentication for the Amanat platform.
//
// # Architecture
//
// A request proves its identity in one of two ways:
//
//   - An opaque server-side session id, carried in an HttpOnly cookie.
//   - A signed JWT access token, carried in the Authorization header.
//
// The session cookie always takes precedence. Resolution of either credential
// into a [sec.AuthContext] happens exactly once per request in [Resolver];
// everything downstream (handlers, the permission engine) consumes the result
// from the request context.
//
// Entities in this file represent the "Truth" of the users domain. They have
// no dependencies on outer layers (databases, APIs, routers).
package auth

import (
	"time"
)

// User represents a registered account on the Amanat platform.
//
// # Rules
//   - Email is unique and stored lower-cased.
//   - PasswordHash is generated via Bcrypt exclusively by the account [Service].
//   - IsActive gates every authentication path: an inactive account cannot
//     resolve an identity via session or token.
//   - IsSuperuser bypasses the permission matrix (see the rbac package).
//   - DeletedAt implements soft deletion; a soft-deleted account is treated
//     as non-existent by all lookups.
type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Explicitly omitted from JSON for security.
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	MiddleName   string     `json:"middle_name,omitempty"`
	IsActive     bool       `json:"is_active"`
	IsSuperuser  bool       `json:"is_superuser"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"-"`
}

// Session represents a server-side login session.
//
// # Security Concept
//
// The session id is an opaque 256-bit random value, hex-encoded and delivered
// to the browser as an HttpOnly cookie. Unlike a JWT it carries no claims:
// every request pays one store lookup, in exchange for instant revocability.
// A session past ExpireAt is logically absent even if the row still exists;
// no reader may trust an expired row.
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpireAt  time.Time `json:"expire_at"`
	UserAgent string    `json:"user_agent"`
	ClientIP  string    `json:"client_ip"`
}

// Expired reports whether the session is past its absolute expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpireAt.After(now)
}
