// Copyright (c) 2026 Amanat. All rights reserved.
// Author: a.saparov.dev@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/saparov/amanat/internal/platform/sec"
)

// # Verification Failure Taxonomy
//
// These sentinels are internal to the auth package: [TokenService.Verify]
// distinguishes them so tests and the refresh flow can react precisely, but
// [TokenService.ResolveIdentity] collapses all of them into "not
// authenticated via token" and the HTTP layer never sees them.
var (
	// ErrTokenExpired means the token is past its exp claim.
	ErrTokenExpired = errors.New("auth: token expired")

	// ErrTokenMalformed covers every decode or signature failure
	// that is not an expiry.
	ErrTokenMalformed = errors.New("auth: token malformed or invalid signature")

	// ErrTokenRevoked means the token's unique id is on the revocation list.
	ErrTokenRevoked = errors.New("auth: token revoked")
)

// Claims is the payload embedded inside an Amanat JWT.
//
// The registered claims carry sub (subject id), iat, exp, and jti (unique
// id); TokenType distinguishes access tokens from refresh tokens, because
// only the former may authenticate a request.
type Claims struct {
	jwt.RegisteredClaims

	TokenType string `json:"typ"`
}

// SubjectID parses the sub claim as the numeric user id.
func (c *Claims) SubjectID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("auth: non-numeric subject %q: %w", c.Subject, err)
	}
	return id, nil
}

// TokenPair is the access+refresh pair issued together at login.
type TokenPair struct {
	Access  string `json:"access_token"`
	Refresh string `json:"refresh_token"`
}

// TokenService issues, verifies, and revokes HS256-signed JWTs.
//
// # Design
//
// Signature and expiry are stateless checks; revocation is the only stateful
// one, kept as a single indexed lookup by jti so the hot path (valid,
// unrevoked token) costs one verification plus one store read.
type TokenService struct {
	secret          []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	revokedTokens   RevokedTokenRepository
	userRepository  UserRepository
}

// NewTokenService constructs a [TokenService].
//
// # Parameters
//   - secret: The process-wide HMAC signing secret.
//   - accessTTL / refreshTTL: Lifetimes for the two token types.
//   - revokedTokens: The revocation list store.
//   - userRepo: Account lookups for identity resolution.
func NewTokenService(
	secret string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
	revokedTokens RevokedTokenRepository,
	userRepo UserRepository,
) *TokenService {
	return &TokenService{
		secret:          []byte(secret),
		accessTokenTTL:  accessTTL,
		refreshTokenTTL: refreshTTL,
		revokedTokens:   revokedTokens,
		userRepository:  userRepo,
	}
}

// Issue signs a JWT for the subject with the given lifetime and type.
//
// Every token receives a fresh random jti so it can be revoked individually.
func (service *TokenService) Issue(subjectID int64, timeToLive time.Duration, tokenType string) (string, error) {
	currentTime := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subjectID, 10),
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
			ID:        uuid.NewString(),
		},
		TokenType: tokenType,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("auth: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// IssuePair issues the access+refresh pair for a subject, as produced at login.
func (service *TokenService) IssuePair(subjectID int64) (*TokenPair, error) {
	accessToken, err := service.Issue(subjectID, service.accessTokenTTL, TokenTypeAccess)
	if err != nil {
		return nil, err
	}

	refreshToken, err := service.Issue(subjectID, service.refreshTokenTTL, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	return &TokenPair{Access: accessToken, Refresh: refreshToken}, nil
}

// Verify checks the signature, expiry, and revocation status of a token.
//
// # Returns
//   - [*Claims] when every check passes.
//   - [ErrTokenExpired] when the token is past its exp claim.
//   - [ErrTokenRevoked] when the jti is on the revocation list.
//   - [ErrTokenMalformed] for any other decode/signature failure.
func (service *TokenService) Verify(ctx context.Context, tokenString string) (*Claims, error) {

	// ── 1. Stateless Checks (signature + expiry) ──────────────────────────

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}

	// ── 2. Stateful Check (revocation list) ───────────────────────────────

	if claims.ID != "" {
		revoked, err := service.revokedTokens.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("auth: revocation check failed: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	return claims, nil
}

// Revoke records the unique id on the revocation list until expiresAt.
//
// The operation is idempotent: revoking an already-revoked id is a no-op.
func (service *TokenService) Revoke(ctx context.Context, uniqueID string, expiresAt time.Time) error {
	if err := service.revokedTokens.Record(ctx, uniqueID, expiresAt); err != nil {
		return fmt.Errorf("auth: token revocation failed: %w", err)
	}
	return nil
}

// ResolveIdentity resolves a bearer token into an identity snapshot.
//
// # Contract
//
// Verification failure is not an error to the caller — it simply means "not
// authenticated this way", so all failures collapse into a nil identity:
//
//   - Verify fails (expired, malformed, revoked) → nil.
//   - Token is not an access token (refresh tokens may not authenticate
//     requests) → nil.
//   - Subject account is missing or inactive → nil.
//
// On success the returned claims let the caller record provenance (jti and
// natural expiry are what logout needs to revoke the token).
func (service *TokenService) ResolveIdentity(ctx context.Context, tokenString string) (*sec.Identity, *Claims) {
	claims, err := service.Verify(ctx, tokenString)
	if err != nil {
		return nil, nil
	}

	// Refresh tokens only mint new pairs; they never authenticate requests.
	if claims.TokenType != TokenTypeAccess {
		return nil, nil
	}

	subjectID, err := claims.SubjectID()
	if err != nil {
		return nil, nil
	}

	user, err := service.userRepository.FindByID(ctx, subjectID)
	if err != nil || !user.IsActive {
		return nil, nil
	}

	return &sec.Identity{
		ID:          user.ID,
		Email:       user.Email,
		IsActive:    user.IsActive,
		IsSuperuser: user.IsSuperuser,
	}, claims
}
