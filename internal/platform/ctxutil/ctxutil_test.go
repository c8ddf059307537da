// Copyright (c) 2026 Amanat. All rights reserved.
// Author: a.saparov.dev@gmail.com

package ctxutil_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saparov/amanat/internal/platform/ctxutil"
	"github.com/saparov/amanat/internal/platform/sec"
)

/*
TestContext_RequestID verifies that Request IDs can be injected and retrieved.
*/
func TestContext_RequestID(t *testing.T) {
	ctx := context.Background()
	requestID := "test-request-id"

	// 1. Initially should be empty
	assert.Empty(t, ctxutil.GetRequestID(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithRequestID(ctx, requestID)
	assert.Equal(t, requestID, ctxutil.GetRequestID(ctx))
}

/*
TestContext_Logger verifies that a custom logger can be stored in context.
*/
func TestContext_Logger(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// 1. Initially should return the default logger
	assert.Equal(t, slog.Default(), ctxutil.GetLogger(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithLogger(ctx, logger)
	assert.Equal(t, logger, ctxutil.GetLogger(ctx))
}

/*
TestContext_AuthContext verifies that the resolved identity can be stored in context.
*/
func TestContext_AuthContext(t *testing.T) {
	ctx := context.Background()

	// 1. A bare context yields an anonymous AuthContext, never nil
	initial := ctxutil.GetAuthContext(ctx)
	assert.NotNil(t, initial)
	assert.True(t, initial.IsAnonymous())

	// 2. Inject and retrieve
	authCtx := &sec.AuthContext{
		Identity:   &sec.Identity{ID: 42, Email: "u@amanat.app", IsActive: true},
		Provenance: &sec.Provenance{Type: sec.ProvenanceSession, SessionID: "abc"},
	}
	ctx = ctxutil.WithAuthContext(ctx, authCtx)
	retrieved := ctxutil.GetAuthContext(ctx)

	assert.False(t, retrieved.IsAnonymous())
	assert.Equal(t, int64(42), retrieved.Identity.ID)
	assert.Equal(t, sec.ProvenanceSession, retrieved.Provenance.Type)
}
