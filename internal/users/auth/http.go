// Copyright (c) 2026 Amanat. All rights reserved.
// Author: a.saparov.dev@gmail.com

// HTTP delivery layer for the auth domain.
//
// # Architecture
//
// Handlers act as the "gatekeepers" to the system. They are responsible for:
//   - JSON Request parsing and strict input validation.
//   - Mapping HTTP contexts to service layer method calls.
//   - Standardizing JSON response formats via the [respond] package.
//
// They contain NO business logic or database queries.
package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/saparov/amanat/internal/platform/config"
	"github.com/saparov/amanat/internal/platform/middleware"
	requestutil "github.com/saparov/amanat/internal/platform/request"
	"github.com/saparov/amanat/internal/platform/respond"
	"github.com/saparov/amanat/internal/platform/validate"
)

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages the user lifecycle entry points (registration, login,
// logout) and the current-user profile surface.
type Handler struct {
	accountService *Service
	cfg            *config.Config
}

// NewHandler constructs a new [Handler] with its dependencies.
//
// The config supplies the session cookie attributes (name, Secure, HttpOnly,
// SameSite) the login and logout responses must carry.
func NewHandler(service *Service, cfg *config.Config) *Handler {
	return &Handler{accountService: service, cfg: cfg}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /register : Creates a new account.
//   - POST /login    : Authenticates; sets the session cookie and returns a JWT pair.
//   - POST /logout   : Revokes the current credential (session or token).
//   - GET  /profile  : Returns the current account.
//   - PUT  /profile  : Updates the name fields.
//   - DELETE /profile: Deactivates the account.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/register", handler.register)
	router.Post("/login", handler.login)

	router.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth)
		protected.Post("/logout", handler.logout)
		protected.Get("/profile", handler.profile)
		protected.Put("/profile", handler.updateProfile)
		protected.Delete("/profile", handler.deactivate)
	})

	return router
}

// registerRequest represents the JSON payload expected for account creation.
type registerRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	MiddleName     string `json:"middle_name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	PasswordRepeat string `json:"password_repeat"`
}

// register handles POST /api/v1/auth/register requests.
//
// # Returns
//   - Writes HTTP 201 Created on success with the User profile.
//   - Writes HTTP 400 Bad Request if validation rules fail.
//   - Writes HTTP 409 Conflict if the email is taken.
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	// ── 1. Payload Extraction ─────────────────────────────────────────────

	var input registerRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 2. Boundary Validation ────────────────────────────────────────────

	// Prevent malformed data from reaching the service layer.
	validator := &validate.Validator{}
	validator.Required("first_name", input.FirstName).
		MaxLen("first_name", input.FirstName, 150).
		Required("last_name", input.LastName).
		MaxLen("last_name", input.LastName, 150).
		Required("email", input.Email).
		Email("email", input.Email).
		MinLen("password", input.Password, MinPasswordLength).
		Equals("password_repeat", input.PasswordRepeat, input.Password, "Passwords do not match")

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 3. Application Execution ──────────────────────────────────────────

	user, err := handler.accountService.Register(request.Context(), RegisterInput{
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		MiddleName: input.MiddleName,
		Email:      input.Email,
		Password:   input.Password,
	})

	// Service handles uniqueness checks and Bcrypt hashing.
	// If it fails, we simply pass the domain error to the respond helper
	// which will automatically map it to the correct HTTP status code.
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 4. Presentation Output ────────────────────────────────────────────

	respond.Created(writer, user)
}

// loginRequest represents the JSON payload expected for authentication.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// login handles POST /api/v1/auth/login requests.
//
// # Returns
//   - Writes HTTP 200 OK on success, sets the session cookie, and returns
//     the JWT pair with the User profile.
//   - Writes HTTP 401 Unauthorized for bad credentials.
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	// ── 1. Payload Extraction ─────────────────────────────────────────────

	var input loginRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 2. Boundary Validation ────────────────────────────────────────────

	if input.Email == "" || input.Password == "" {
		respond.Error(writer, request, validate.RequiredError("email/password", "are required"))
		return
	}

	// ── 3. Application Execution ──────────────────────────────────────────

	result, err := handler.accountService.Login(request.Context(), LoginInput{
		Email:    input.Email,
		Password: input.Password,
		Metadata: MetadataFromRequest(request),
	})

	if err != nil {
		// Returns HTTP 401 without leaking the reason (wrong pass vs unknown email)
		respond.Error(writer, request, err)
		return
	}

	// ── 4. Presentation Output ────────────────────────────────────────────

	// Browser clients continue via the cookie; API clients via the JWT pair.
	http.SetCookie(writer, handler.sessionCookie(result.Session))

	respond.OK(writer, map[string]any{
		"access_token":  result.Tokens.Access,
		"refresh_token": result.Tokens.Refresh,
		"user":          result.User,
	})
}

// logout handles POST /api/v1/auth/logout requests.
//
// The provenance recorded at identity resolution decides whether a session
// row is deleted or a token jti is revoked.
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	authContext, err := requestutil.RequiredAuth(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.Logout(request.Context(), authContext); err != nil {
		respond.Error(writer, request, err)
		return
	}

	http.SetCookie(writer, handler.expiredSessionCookie())
	respond.NoContent(writer)
}

// profile handles GET /api/v1/auth/profile requests.
func (handler *Handler) profile(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.Profile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// updateProfileRequest represents the JSON payload for profile updates.
type updateProfileRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	MiddleName string `json:"middle_name"`
}

// updateProfile handles PUT /api/v1/auth/profile requests.
func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateProfileRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required("first_name", input.FirstName).
		MaxLen("first_name", input.FirstName, 150).
		Required("last_name", input.LastName).
		MaxLen("last_name", input.LastName, 150).
		MaxLen("middle_name", input.MiddleName, 150)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdateProfile(request.Context(), userID, UpdateProfileInput{
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		MiddleName: input.MiddleName,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// deactivate handles DELETE /api/v1/auth/profile requests.
//
// Deactivation disables the account, purges its sessions, and clears the
// cookie, so neither credential mode survives.
func (handler *Handler) deactivate(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.Deactivate(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	http.SetCookie(writer, handler.expiredSessionCookie())
	respond.NoContent(writer)
}

// ── Cookie Construction ──────────────────────────────────────────────────────

// sessionCookie builds the session cookie with the configured attributes.
// Its Expires matches the session's absolute expiry exactly.
func (handler *Handler) sessionCookie(session *Session) *http.Cookie {
	return &http.Cookie{
		Name:     handler.cfg.SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpireAt,
		Secure:   handler.cfg.SessionCookieSecure,
		HttpOnly: handler.cfg.SessionCookieHTTPOnly,
		SameSite: handler.cfg.SameSite(),
	}
}

// expiredSessionCookie builds the cookie that instructs the browser to drop
// the session id immediately.
func (handler *Handler) expiredSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     handler.cfg.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   handler.cfg.SessionCookieSecure,
		HttpOnly: handler.cfg.SessionCookieHTTPOnly,
		SameSite: handler.cfg.SameSite(),
	}
}
