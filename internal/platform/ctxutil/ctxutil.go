// Copyright (c) 2026 Amanat. All rights reserved.
// Author: a.saparov.dev@gmail.com

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/saparov/amanat/internal/platform/ctxkey"
	"github.com/saparov/amanat/internal/platform/sec"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}

// # Identity & Access

// WithAuthContext returns a new context with the resolved identity attached.
func WithAuthContext(ctx context.Context, authCtx *sec.AuthContext) context.Context {
	return context.WithValue(ctx, ctxkey.KeyAuth, authCtx)
}

// GetAuthContext retrieves the [*sec.AuthContext] from the [context.Context].
//
// It never returns nil: requests that did not pass through identity resolution
// are treated as anonymous.
func GetAuthContext(ctx context.Context) *sec.AuthContext {
	authCtx, ok := ctx.Value(ctxkey.KeyAuth).(*sec.AuthContext)
	if !ok || authCtx == nil {
		return sec.Anonymous()
	}
	return authCtx
}
