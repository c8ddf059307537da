// Copyright (c) 2026 Amanat. All rights reserved.
// Author: a.saparov.dev@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/saparov/amanat/internal/platform/apperr"
	"github.com/saparov/amanat/internal/platform/ctxutil"
	"github.com/saparov/amanat/internal/platform/sec"
	"github.com/saparov/amanat/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
IntParam retrieves a named URL parameter and parses it as a positive int64.

Returns:
  - int64: The parsed identifier
  - error: apperr.ValidationError if the value is missing or not a positive integer
*/
func IntParam(request *http.Request, name string) (int64, error) {
	return ParseID(chi.URLParam(request, name), name)
}

/*
ParseID parses a raw string as a positive int64 identifier.

Returns:
  - int64: The parsed identifier
  - error: apperr.ValidationError if the value is missing or not a positive integer
*/
func ParseID(raw, name string) (int64, error) {
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, apperr.ValidationError("Invalid " + name + " parameter")
	}

	return value, nil
}

/*
Auth extracts the authentication context from the request.

It never returns nil: unauthenticated requests yield the anonymous context.
*/
func Auth(request *http.Request) *sec.AuthContext {
	return ctxutil.GetAuthContext(request.Context())
}

/*
RequiredAuth ensures the request is authenticated and returns its auth context.

Returns:
  - *sec.AuthContext: The authenticated context (identity + provenance)
  - error: apperr.Unauthorized if the request is anonymous
*/
func RequiredAuth(request *http.Request) (*sec.AuthContext, error) {

	// Get the authentication context
	authContext := ctxutil.GetAuthContext(request.Context())

	// If the request carries no valid credential, return an error
	if authContext.IsAnonymous() {
		return nil, apperr.Unauthorized("Authentication required")
	}

	return authContext, nil
}

/*
RequiredUserID returns the User ID of the currently logged-in user.

Returns:
  - int64: User ID
  - error: apperr.Unauthorized if not authenticated
*/
func RequiredUserID(request *http.Request) (int64, error) {

	// Get the authentication context
	authContext, err := RequiredAuth(request)

	// If the user is not authenticated, return an error
	if err != nil {
		return 0, err
	}

	return authContext.Identity.ID, nil
}
