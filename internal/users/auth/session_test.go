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
TestSessionService_Create verifies the opaque id format and metadata capture.
*/
func TestSessionService_Create(t *testing.T) {
	stack := newTestStack()
	user := stack.seedUser("owner@amanat.app", "password123", true, false)

	session, err := stack.session.Create(context.Background(), user.ID, auth.RequestMetadata{
		UserAgent:     "amanat-test/1.0",
		ForwardedFor:  "203.0.113.7, 10.0.0.1",
		RemoteAddress: "10.0.0.1:53211",
	})
	require.NoError(t, err)

	// 256 bits of entropy, hex-encoded.
	assert.Len(t, session.ID, auth.SessionIDBytes*2)
	assert.Equal(t, user.ID, session.UserID)
	assert.Equal(t, "amanat-test/1.0", session.UserAgent)
	assert.Equal(t, "203.0.113.7", session.ClientIP, "first X-Forwarded-For entry wins")
	assert.True(t, session.ExpireAt.After(session.CreatedAt))
}

/*
TestRequestMetadata_ClientIP covers the forwarded-vs-direct address choice.
*/
func TestRequestMetadata_ClientIP(t *testing.T) {
	tests := []struct {
		name     string
		metadata auth.RequestMetadata
		expected string
	}{
		{
			"forwarded_first_entry",
			auth.RequestMetadata{ForwardedFor: "198.51.100.4, 192.0.2.1", RemoteAddress: "10.0.0.1:1234"},
			"198.51.100.4",
		},
		{
			"direct_peer_without_port",
			auth.RequestMetadata{RemoteAddress: "192.0.2.33:40123"},
			"192.0.2.33",
		},
		{
			"unparseable_peer_kept_as_is",
			auth.RequestMetadata{RemoteAddress: "192.0.2.33"},
			"192.0.2.33",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.metadata.ClientIP())
		})
	}
}

/*
TestSessionService_Lookup_Expired proves an expired session is logically
absent even while its row physically exists in the store.
*/
func TestSessionService_Lookup_Expired(t *testing.T) {
	stack := newTestStack()
	ctx := context.Background()

	// Plant an already-expired row directly in the store.
	expired := &auth.Session{
		ID:        "deadbeef",
		UserID:    1,
		CreatedAt: time.Now().Add(-2 * time.Hour),
		ExpireAt:  time.Now().Add(-time.Hour),
	}
	require.NoError(t, stack.sessions.Create(ctx, expired))

	_, err := stack.session.Lookup(ctx, "deadbeef")
	assert.Error(t, err, "expired rows must be treated as absent")

	// The row is physically still there until maintenance purges it.
	assert.Equal(t, 1, stack.sessions.count())

	removed, err := stack.session.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Equal(t, 0, stack.sessions.count())
}

/*
TestSessionService_Revoke_Idempotent checks that revoking unknown ids is not
an error.
*/
func TestSessionService_Revoke_Idempotent(t *testing.T) {
	stack := newTestStack()
	ctx := context.Background()

	assert.NoError(t, stack.session.Revoke(ctx, "never-existed"))
	assert.NoError(t, stack.session.Revoke(ctx, "never-existed"))
}

/*
TestSessionService_ResolveIdentity covers the account gating rules of the
session resolution path.
*/
func TestSessionService_ResolveIdentity(t *testing.T) {
	stack := newTestStack()
	ctx := context.Background()

	activeUser := stack.seedUser("active@amanat.app", "password123", true, false)
	inactiveUser := stack.seedUser("inactive@amanat.app", "password123", false, false)
	deletedUser := stack.seedUser("deleted@amanat.app", "password123", true, false)
	require.NoError(t, stack.users.SoftDelete(ctx, deletedUser.ID))

	newSession := func(userID int64) *auth.Session {
		session, err := stack.session.Create(ctx, userID, auth.RequestMetadata{})
		require.NoError(t, err)
		return session
	}

	t.Run("active_user_resolves", func(t *testing.T) {
		session := newSession(activeUser.ID)
		identity, resolved := stack.session.ResolveIdentity(ctx, session.ID)
		require.NotNil(t, identity)
		assert.Equal(t, activeUser.ID, identity.ID)
		assert.Equal(t, session.ID, resolved.ID)
	})

	t.Run("inactive_user_rejected", func(t *testing.T) {
		session := newSession(inactiveUser.ID)
		identity, _ := stack.session.ResolveIdentity(ctx, session.ID)
		assert.Nil(t, identity)
	})

	t.Run("soft_deleted_user_rejected", func(t *testing.T) {
		session := newSession(deletedUser.ID)
		identity, _ := stack.session.ResolveIdentity(ctx, session.ID)
		assert.Nil(t, identity)
	})

	t.Run("unknown_session_rejected", func(t *testing.T) {
		identity, _ := stack.session.ResolveIdentity(ctx, "no-such-session")
		assert.Nil(t, identity)
	})
}
