// Copyright (c) 2026 Amanat. All rights reserved.
// Author: a.saparov.dev@gmail.com

/*
Package sec provides cryptographic primitives and the request identity model.

It isolates security-sensitive code (password hashing, opaque token generation)
and the per-request identity snapshot from the domain logic, so that upper
layers (middleware, handlers, the RBAC engine) never depend on storage entities.
*/
package sec

import "time"

// # Request Identity

// Identity is the immutable per-request snapshot of an authenticated user.
//
// It carries only what authorization decisions need. The full account entity
// stays inside the auth domain package; this snapshot is what travels through
// the request context.
type Identity struct {
	ID          int64
	Email       string
	IsActive    bool
	IsSuperuser bool
}

// ProvenanceType names the mechanism that established the identity.
type ProvenanceType string

const (
	// ProvenanceSession means the identity came from the session cookie.
	ProvenanceSession ProvenanceType = "session"

	// ProvenanceToken means the identity came from a bearer access token.
	ProvenanceToken ProvenanceType = "token"
)

// Provenance records how the current identity was established.
//
// Logout needs it to reverse the right mechanism: a session-based login is
// terminated by deleting the session row, a token-based one by revoking the
// token's unique id until its natural expiry.
type Provenance struct {
	Type ProvenanceType

	// Session fields (Type == ProvenanceSession)
	SessionID string

	// Token fields (Type == ProvenanceToken)
	TokenID        string // the JWT unique id (jti)
	TokenExpiresAt time.Time
	RawToken       string
}

// AuthContext is the result of identity resolution for one request.
//
// Resolution runs exactly once per request, before any protected operation.
// An anonymous request carries a non-nil AuthContext with a nil Identity.
type AuthContext struct {
	Identity   *Identity
	Provenance *Provenance
}

// IsAnonymous reports whether no identity could be established.
func (a *AuthContext) IsAnonymous() bool {
	return a == nil || a.Identity == nil
}

// Anonymous returns the AuthContext for an unauthenticated request.
func Anonymous() *AuthContext {
	return &AuthContext{}
}
