// Copyright (c) 2026 Amanat. All rights reserved.
// Author: a.saparov.dev@gmail.com

package auth

import (
	"net/http"
	"strings"

	"github.com/saparov/amanat/internal/platform/constants"
	"github.com/saparov/amanat/internal/platform/sec"
)

// Resolver turns a request's credentials into an authentication context.
//
// # Precedence
//
// The session cookie always wins over the Authorization header. A request
// carrying both is authenticated via its session; the bearer token is not
// even verified.
//
// # Contract
//
// Resolve never fails the request. Expired sessions, revoked or malformed
// tokens, and inactive accounts all degrade to the anonymous context; it is
// each protected operation's job to reject anonymous access.
type Resolver struct {
	sessionService *SessionService
	tokenService   *TokenService
	cookieName     string
}

// NewResolver constructs a [Resolver].
//
// cookieName is the configured session cookie (default "sessionid").
func NewResolver(sessionService *SessionService, tokenService *TokenService, cookieName string) *Resolver {
	return &Resolver{
		sessionService: sessionService,
		tokenService:   tokenService,
		cookieName:     cookieName,
	}
}

// Resolve implements [middleware.IdentityResolver].
//
// # Algorithm (strict order, first success wins)
//  1. Session cookie → [SessionService.ResolveIdentity].
//  2. Authorization header → [TokenService.ResolveIdentity]. The header must
//     be exactly "Bearer <token>" (scheme case-insensitive); anything else is
//     treated as if the header were absent.
//  3. Anonymous.
func (resolver *Resolver) Resolve(request *http.Request) *sec.AuthContext {
	ctx := request.Context()

	// ── 1. Session Cookie ─────────────────────────────────────────────────

	if cookie, err := request.Cookie(resolver.cookieName); err == nil && cookie.Value != "" {
		if identity, session := resolver.sessionService.ResolveIdentity(ctx, cookie.Value); identity != nil {
			return &sec.AuthContext{
				Identity: identity,
				Provenance: &sec.Provenance{
					Type:      sec.ProvenanceSession,
					SessionID: session.ID,
				},
			}
		}
	}

	// ── 2. Bearer Token ───────────────────────────────────────────────────

	if rawToken := bearerToken(request.Header.Get(constants.HeaderAuthorization)); rawToken != "" {
		if identity, claims := resolver.tokenService.ResolveIdentity(ctx, rawToken); identity != nil {
			return &sec.AuthContext{
				Identity: identity,
				Provenance: &sec.Provenance{
					Type:           sec.ProvenanceToken,
					TokenID:        claims.ID,
					TokenExpiresAt: claims.ExpiresAt.Time,
					RawToken:       rawToken,
				},
			}
		}
	}

	// ── 3. Anonymous ──────────────────────────────────────────────────────

	return sec.Anonymous()
}

// bearerToken extracts the token from an Authorization header value.
//
// A malformed header (wrong scheme, wrong part count) is treated as absent,
// never as an error.
func bearerToken(headerValue string) string {
	if headerValue == "" {
		return ""
	}

	parts := strings.Split(headerValue, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return parts[1]
}
