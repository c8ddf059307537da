// Copyright (c) 2026 Amanat. All rights reserved.
// Author: a.saparov.dev@gmail.com

// Account lifecycle use cases: registration, login, logout, profile.
//
// # Architecture
//
// The service orchestrates domain entities and interacts with repositories
// through interfaces. It is technology-agnostic and does not know about HTTP
// or SQL.
package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/saparov/amanat/internal/platform/apperr"
	"github.com/saparov/amanat/internal/platform/sec"
)

// Service implements user account use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or login logic must be reviewed by the security team.
type Service struct {
	userRepository UserRepository
	sessionService *SessionService
	tokenService   *TokenService
}

// NewService constructs the account [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	sessionService *SessionService,
	tokenService *TokenService,
) *Service {
	return &Service{
		userRepository: userRepo,
		sessionService: sessionService,
		tokenService:   tokenService,
	}
}

// RegisterInput holds the data required to enroll a new account.
type RegisterInput struct {
	FirstName  string
	LastName   string
	MiddleName string
	Email      string
	Password   string
}

// Register validates, hashes, and persists a brand new user account.
//
// # Returns
//   - A pointer to the newly created [*User].
//   - Returns [apperr.Conflict] if the email is already registered.
//
// # Business Rules
//   - Emails are normalized to lower case before storage and lookup.
//   - New accounts start active, without superuser rights.
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	// ── 1. Uniqueness Check ───────────────────────────────────────────────

	// Verify email uniqueness. Return a client-safe Conflict error.
	_, err := service.userRepository.FindByEmail(context, email)
	if err == nil {
		return nil, apperr.Conflict("Email is already registered")
	}

	// ── 2. Security ───────────────────────────────────────────────────────

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// ── 3. Entity Construction ────────────────────────────────────────────

	user := &User{
		Email:        email,
		PasswordHash: hashedPassword,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		MiddleName:   input.MiddleName,
		IsActive:     true,
		IsSuperuser:  false,
	}

	// ── 4. Persistence ────────────────────────────────────────────────────

	// The unique index on email backstops the check in step 1 against races;
	// dberr maps its violation to the same Conflict.
	if err := service.userRepository.Create(context, user); err != nil {
		return nil, err
	}

	return user, nil
}

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email    string
	Password string
	Metadata RequestMetadata
}

// LoginResult represents a successfully established dual-mode login:
// a server-side session (cookie continuity) plus a JWT pair (API clients).
type LoginResult struct {
	User    *User
	Session *Session
	Tokens  *TokenPair
}

// Login validates user credentials and establishes both credential modes.
//
// # Returns
//   - A pointer to [LoginResult] with the session and token pair.
//   - Returns [apperr.Unauthorized] if credentials do not match.
//
// # Flow
//  1. Lookup user by lower-cased email.
//  2. Verify password hash using Bcrypt.
//  3. Create the server-side session (user agent + client IP captured).
//  4. Issue the access+refresh token pair.
func (service *Service) Login(context context.Context, input LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	// ── 1. Fetch User Profile ─────────────────────────────────────────────

	// Return a generic unauthorized error for every failure mode below:
	// unknown email, wrong password, and deactivated account must be
	// indistinguishable to prevent account enumeration.
	user, err := service.userRepository.FindByEmail(context, email)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	// ── 2. Security Verification ──────────────────────────────────────────

	// Bcrypt comparison is constant-time, preventing timing attacks.
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	if !user.IsActive {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	// ── 3. Session Issuance ───────────────────────────────────────────────

	session, err := service.sessionService.Create(context, user.ID, input.Metadata)
	if err != nil {
		return nil, fmt.Errorf("auth_service_session_failed: %w", err)
	}

	// ── 4. Token Issuance ─────────────────────────────────────────────────

	tokens, err := service.tokenService.IssuePair(user.ID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_issuance_failed: %w", err)
	}

	return &LoginResult{User: user, Session: session, Tokens: tokens}, nil
}

// Logout reverses whichever mechanism established the current identity.
//
// # Flow
//
// Provenance decides what to revoke: a session login deletes the session
// row; a token login records the token's jti on the revocation list until
// the token's natural expiry. Both paths are idempotent.
func (service *Service) Logout(context context.Context, authContext *sec.AuthContext) error {
	if authContext.IsAnonymous() || authContext.Provenance == nil {
		return apperr.Unauthorized("Authentication required")
	}

	switch authContext.Provenance.Type {
	case sec.ProvenanceSession:
		return service.sessionService.Revoke(context, authContext.Provenance.SessionID)
	case sec.ProvenanceToken:
		return service.tokenService.Revoke(context,
			authContext.Provenance.TokenID,
			authContext.Provenance.TokenExpiresAt,
		)
	default:
		return apperr.Unauthorized("Authentication required")
	}
}

// Profile returns the account of the given user.
func (service *Service) Profile(context context.Context, userID int64) (*User, error) {
	return service.userRepository.FindByID(context, userID)
}

// UpdateProfileInput holds the mutable profile fields.
type UpdateProfileInput struct {
	FirstName  string
	LastName   string
	MiddleName string
}

// UpdateProfile changes the name fields of the account.
// Email and password changes are deliberately out of this operation's scope.
func (service *Service) UpdateProfile(context context.Context, userID int64, input UpdateProfileInput) (*User, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	user.FirstName = input.FirstName
	user.LastName = input.LastName
	user.MiddleName = input.MiddleName

	if err := service.userRepository.Update(context, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Deactivate disables the account and purges every session it owns.
//
// The user's outstanding access tokens die on their own: identity resolution
// requires an active account, so they stop resolving immediately.
func (service *Service) Deactivate(context context.Context, userID int64) error {
	if err := service.userRepository.SetActive(context, userID, false); err != nil {
		return err
	}

	if err := service.sessionService.RevokeAllForUser(context, userID); err != nil {
		return err
	}

	return nil
}
