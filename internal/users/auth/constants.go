// Copyright (c) 2026 Amanat. All rights reserved.
// Author: a.saparov.dev@gmail.com

package auth

import "time"

// # Credential Lifetimes
//
// These are fallback defaults; the running server takes its values from the
// config package (ACCESS_TOKEN_TTL, REFRESH_TOKEN_TTL, SESSION_TTL).

const (
	// DefaultAccessTokenTTL keeps the leak window of a bearer token short.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL matches the session lifetime (30 days).
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour

	// DefaultSessionTTL is the absolute lifetime of a server-side session.
	DefaultSessionTTL = 30 * 24 * time.Hour
)

// # Credential Formats

const (
	// SessionIDBytes is the entropy of an opaque session id (256 bits).
	SessionIDBytes = 32

	// TokenTypeAccess marks a JWT usable for request authentication.
	TokenTypeAccess = "access"

	// TokenTypeRefresh marks a JWT usable only to mint a new pair.
	// Refresh tokens may never authenticate a request.
	TokenTypeRefresh = "refresh"
)

// MinPasswordLength is the floor enforced at registration.
const MinPasswordLength = 8
