// Copyright (c) 2026 Amanat. All rights reserved.
// Author: a.saparov.dev@gmail.com

package auth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/saparov/amanat/internal/platform/apperr"
	"github.com/saparov/amanat/internal/platform/constants"
	"github.com/saparov/amanat/internal/platform/sec"
)

// RequestMetadata is the slice of an HTTP request the session service records.
type RequestMetadata struct {
	UserAgent     string
	ForwardedFor  string // raw X-Forwarded-For header value
	RemoteAddress string // direct peer, host:port
}

// MetadataFromRequest captures session-relevant metadata from a request.
func MetadataFromRequest(request *http.Request) RequestMetadata {
	return RequestMetadata{
		UserAgent:     request.UserAgent(),
		ForwardedFor:  request.Header.Get(constants.HeaderXForwardedFor),
		RemoteAddress: request.RemoteAddr,
	}
}

// ClientIP resolves the client address: the first X-Forwarded-For entry when
// present, otherwise the direct peer address without its port.
func (m RequestMetadata) ClientIP() string {
	if m.ForwardedFor != "" {
		return strings.TrimSpace(strings.Split(m.ForwardedFor, ",")[0])
	}

	host, _, err := net.SplitHostPort(m.RemoteAddress)
	if err != nil {
		return m.RemoteAddress
	}
	return host
}

// SessionService issues, looks up, and revokes server-side login sessions.
type SessionService struct {
	sessionRepository SessionRepository
	userRepository    UserRepository
	sessionTTL        time.Duration
}

// NewSessionService constructs a [SessionService].
func NewSessionService(
	sessionRepo SessionRepository,
	userRepo UserRepository,
	sessionTTL time.Duration,
) *SessionService {
	return &SessionService{
		sessionRepository: sessionRepo,
		userRepository:    userRepo,
		sessionTTL:        sessionTTL,
	}
}

// Create issues a new session for the user and persists it.
//
// # Flow
//  1. Generate an opaque 256-bit random id (hex-encoded).
//  2. Compute the absolute expiry from the configured TTL.
//  3. Capture user agent and client IP from the request metadata.
func (service *SessionService) Create(ctx context.Context, userID int64, metadata RequestMetadata) (*Session, error) {
	sessionID, err := sec.GenerateSecureToken(SessionIDBytes)
	if err != nil {
		return nil, fmt.Errorf("auth: session id generation failed: %w", err)
	}

	now := time.Now()
	session := &Session{
		ID:        sessionID,
		UserID:    userID,
		CreatedAt: now,
		ExpireAt:  now.Add(service.sessionTTL),
		UserAgent: metadata.UserAgent,
		ClientIP:  metadata.ClientIP(),
	}

	if err := service.sessionRepository.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("auth: session creation failed: %w", err)
	}

	return session, nil
}

// Lookup returns the session only if it exists and has not expired.
//
// An expired row is treated identically to an absent one, even when the store
// has not physically purged it yet.
func (service *SessionService) Lookup(ctx context.Context, sessionID string) (*Session, error) {
	session, err := service.sessionRepository.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// The store is expected to filter expired rows, but never trust one.
	if session.Expired(time.Now()) {
		return nil, apperr.NotFound("Session")
	}

	return session, nil
}

// Revoke deletes the session record.
//
// Revoking an unknown id is not an error: logout must be idempotent.
func (service *SessionService) Revoke(ctx context.Context, sessionID string) error {
	if err := service.sessionRepository.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("auth: session revocation failed: %w", err)
	}
	return nil
}

// RevokeAllForUser deletes every session belonging to the user.
//
// Invoked on account deactivation so no live cookie survives it.
func (service *SessionService) RevokeAllForUser(ctx context.Context, userID int64) error {
	if err := service.sessionRepository.DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("auth: session purge failed: %w", err)
	}
	return nil
}

// PurgeExpired physically removes expired session rows.
//
// Expired sessions are already logically absent; this only reclaims storage.
// It runs off the request path, triggered by the admin surface.
func (service *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	removed, err := service.sessionRepository.DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("auth: expired session purge failed: %w", err)
	}
	return removed, nil
}

// ResolveIdentity resolves a session id into an identity snapshot.
//
// # Contract
//
// Like the token path, failure is not an error — it means "not authenticated
// this way":
//
//   - Session absent or expired → nil.
//   - Owning account missing, soft-deleted, or inactive → nil.
func (service *SessionService) ResolveIdentity(ctx context.Context, sessionID string) (*sec.Identity, *Session) {
	session, err := service.Lookup(ctx, sessionID)
	if err != nil {
		return nil, nil
	}

	user, err := service.userRepository.FindByID(ctx, session.UserID)
	if err != nil || !user.IsActive || user.DeletedAt != nil {
		return nil, nil
	}

	return &sec.Identity{
		ID:          user.ID,
		Email:       user.Email,
		IsActive:    user.IsActive,
		IsSuperuser: user.IsSuperuser,
	}, session
}
