// Copyright (c) 2026 Amanat. All rights reserved.
// Author: a.saparov.dev@gmail.com

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saparov/amanat/internal/users/auth"
)

/*
TestTokenService_RoundTrip verifies that issue-then-verify preserves the
subject and token type.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	stack := newTestStack()

	signed, err := stack.tokens.Issue(42, time.Minute, auth.TokenTypeAccess)
	require.NoError(t, err)

	claims, err := stack.tokens.Verify(context.Background(), signed)
	require.NoError(t, err)

	subject, err := claims.SubjectID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), subject)
	assert.Equal(t, auth.TokenTypeAccess, claims.TokenType)
	assert.NotEmpty(t, claims.ID, "every token carries a fresh jti")
}

/*
TestTokenService_Verify_Expired checks that an expired token fails with the
expiry sentinel regardless of its valid signature.
*/
func TestTokenService_Verify_Expired(t *testing.T) {
	stack := newTestStack()

	signed, err := stack.tokens.Issue(42, -time.Minute, auth.TokenTypeAccess)
	require.NoError(t, err)

	_, err = stack.tokens.Verify(context.Background(), signed)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

/*
TestTokenService_Verify_Malformed covers garbage input and wrong-secret
signatures, both collapsing into the malformed sentinel.
*/
func TestTokenService_Verify_Malformed(t *testing.T) {
	stack := newTestStack()

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt-at-all"},
		{"empty", ""},
		{"truncated", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiI0MiJ9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := stack.tokens.Verify(context.Background(), tt.token)
			assert.ErrorIs(t, err, auth.ErrTokenMalformed)
		})
	}

	// A structurally valid token signed with a different secret.
	foreign := auth.NewTokenService("some-other-secret-entirely-here!", time.Minute, time.Hour, stack.revoked, stack.users)
	signed, err := foreign.Issue(42, time.Minute, auth.TokenTypeAccess)
	require.NoError(t, err)

	_, err = stack.tokens.Verify(context.Background(), signed)
	assert.ErrorIs(t, err, auth.ErrTokenMalformed)
}

/*
TestTokenService_Revocation verifies that revoking one token of an issued
pair rejects only that token, and that revocation is idempotent.
*/
func TestTokenService_Revocation(t *testing.T) {
	stack := newTestStack()
	ctx := context.Background()

	pair, err := stack.tokens.IssuePair(7)
	require.NoError(t, err)

	accessClaims, err := stack.tokens.Verify(ctx, pair.Access)
	require.NoError(t, err)

	// Revoke the access token's jti until its natural expiry.
	require.NoError(t, stack.tokens.Revoke(ctx, accessClaims.ID, accessClaims.ExpiresAt.Time))

	// Revoking the same id again is a no-op.
	require.NoError(t, stack.tokens.Revoke(ctx, accessClaims.ID, accessClaims.ExpiresAt.Time))

	_, err = stack.tokens.Verify(ctx, pair.Access)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked)

	// The refresh token carries a different jti and still verifies.
	refreshClaims, err := stack.tokens.Verify(ctx, pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, auth.TokenTypeRefresh, refreshClaims.TokenType)
	assert.NotEqual(t, accessClaims.ID, refreshClaims.ID)
}

/*
TestTokenService_ResolveIdentity covers the identity resolution contract:
failures never error, refresh tokens never authenticate, inactive accounts
never resolve.
*/
func TestTokenService_ResolveIdentity(t *testing.T) {
	stack := newTestStack()
	ctx := context.Background()

	activeUser := stack.seedUser("active@amanat.app", "password123", true, false)
	inactiveUser := stack.seedUser("inactive@amanat.app", "password123", false, false)

	t.Run("valid_access_token", func(t *testing.T) {
		signed, err := stack.tokens.Issue(activeUser.ID, time.Minute, auth.TokenTypeAccess)
		require.NoError(t, err)

		identity, claims := stack.tokens.ResolveIdentity(ctx, signed)
		require.NotNil(t, identity)
		require.NotNil(t, claims)
		assert.Equal(t, activeUser.ID, identity.ID)
		assert.Equal(t, "active@amanat.app", identity.Email)
	})

	t.Run("refresh_token_rejected", func(t *testing.T) {
		signed, err := stack.tokens.Issue(activeUser.ID, time.Hour, auth.TokenTypeRefresh)
		require.NoError(t, err)

		identity, _ := stack.tokens.ResolveIdentity(ctx, signed)
		assert.Nil(t, identity)
	})

	t.Run("inactive_user_rejected", func(t *testing.T) {
		signed, err := stack.tokens.Issue(inactiveUser.ID, time.Minute, auth.TokenTypeAccess)
		require.NoError(t, err)

		identity, _ := stack.tokens.ResolveIdentity(ctx, signed)
		assert.Nil(t, identity)
	})

	t.Run("expired_token_swallowed", func(t *testing.T) {
		signed, err := stack.tokens.Issue(activeUser.ID, -time.Minute, auth.TokenTypeAccess)
		require.NoError(t, err)

		identity, _ := stack.tokens.ResolveIdentity(ctx, signed)
		assert.Nil(t, identity)
	})

	t.Run("unknown_subject_rejected", func(t *testing.T) {
		signed, err := stack.tokens.Issue(99999, time.Minute, auth.TokenTypeAccess)
		require.NoError(t, err)

		identity, _ := stack.tokens.ResolveIdentity(ctx, signed)
		assert.Nil(t, identity)
	})
}
