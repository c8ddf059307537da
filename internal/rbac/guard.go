// Copyright (c) 2026 Amanat. All rights reserved.
// Author: a.saparov.dev@gmail.com

package rbac

import (
	"net/http"

	"github.com/saparov/amanat/internal/platform/apperr"
	"github.com/saparov/amanat/internal/platform/ctxutil"
	"github.com/saparov/amanat/internal/platform/respond"
)

/*
Guard turns the decision engine into route middleware.

Protect maps the HTTP method to an action (GET→read, POST→create,
PUT/PATCH→update, DELETE→delete), evaluates the identity on the request
context against the given resource code, and rejects with 401 for anonymous
requests or 403 for denials.

The guard never passes an owner id — at routing time no record has been
loaded yet. A request admitted under the "own" scope has therefore only
proven it may touch records in general; handlers performing per-record
work must compare the owner themselves via [Engine.Evaluate].
*/
type Guard struct {
	engine *Engine
}

// NewGuard creates route middleware backed by the engine.
func NewGuard(engine *Engine) *Guard {
	return &Guard{engine: engine}
}

var methodActions = map[string]Action{
	http.MethodGet:    ActionRead,
	http.MethodPost:   ActionCreate,
	http.MethodPut:    ActionUpdate,
	http.MethodPatch:  ActionUpdate,
	http.MethodDelete: ActionDelete,
}

// Protect authorizes every request against the resource, deriving the action
// from the HTTP method. Overrides replace the derived action for specific
// methods (e.g. a POST search endpoint that should require read).
func (guard *Guard) Protect(resourceCode string, overrides ...map[string]Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			action, ok := methodActions[request.Method]
			for _, override := range overrides {
				if overridden, found := override[request.Method]; found {
					action, ok = overridden, true
				}
			}
			if !ok {
				respond.Error(writer, request, apperr.Forbidden("Method not permitted"))
				return
			}

			authCtx := ctxutil.GetAuthContext(request.Context())
			if authCtx.IsAnonymous() {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			decision, err := guard.engine.Evaluate(request.Context(), authCtx.Identity, resourceCode, action, nil)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}
			if !decision.Allowed {
				respond.Error(writer, request, apperr.Forbidden("Permission denied"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
