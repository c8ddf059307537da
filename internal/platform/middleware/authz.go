// Copyright (c) 2026 Amanat. All rights reserved.
// Author: a.saparov.dev@gmail.com

package middleware

import (
	"net/http"

	"github.com/saparov/amanat/internal/platform/apperr"
	"github.com/saparov/amanat/internal/platform/ctxutil"
	"github.com/saparov/amanat/internal/platform/respond"
	"github.com/saparov/amanat/internal/platform/sec"
)

// IdentityResolver resolves the credentials on an HTTP request into an
// authentication context.
//
// # Why an interface?
//
// Defining IdentityResolver here decouples the middleware from the `auth`
// domain implementation, allowing us to easily inject mocks during unit testing.
//
// # Contract
//
// Resolve must never fail the request: invalid, expired, or malformed
// credentials yield the anonymous context, and the implementation must never
// return nil.
type IdentityResolver interface {
	Resolve(request *http.Request) *sec.AuthContext
}

// ResolveIdentity resolves the request's credentials and injects the resulting
// [*sec.AuthContext] into the request context.
//
// # Flow
//  1. Delegate to the [IdentityResolver] (session cookie first, bearer second).
//  2. Inject the resulting context — possibly anonymous — for downstream use.
//
// Resolution never rejects the request; enforcement belongs to [RequireAuth]
// and the permission guards mounted per route group.
func ResolveIdentity(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authContext := resolver.Resolve(request)
			ctx := ctxutil.WithAuthContext(request.Context(), authContext)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [ResolveIdentity].
//
// # Flow
//  1. Check if the context carries a non-anonymous [*sec.AuthContext].
//  2. If missing, abort with HTTP 401 Unauthorized.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		authContext := ctxutil.GetAuthContext(request.Context())
		if authContext.IsAnonymous() {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireSuperuser blocks requests from non-superuser identities.
//
// # Usage
//
// Must be registered in the router AFTER [ResolveIdentity]. It automatically
// implies [RequireAuth] so you don't need to mount both.
func RequireSuperuser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		authContext := ctxutil.GetAuthContext(request.Context())

		// ── 1. Authentication Check ───────────────────────────────────────
		if authContext.IsAnonymous() {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}

		// ── 2. Authorization Check ────────────────────────────────────────
		if !authContext.Identity.IsSuperuser {
			respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
			return
		}

		next.ServeHTTP(writer, request)
	})
}
