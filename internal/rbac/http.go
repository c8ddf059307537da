// Copyright (c) 2026 Amanat. All rights reserved.
// Author: a.saparov.dev@gmail.com

// HTTP delivery layer for permission-matrix administration.
//
// Every endpoint sits behind the admin gate: superusers and members of the
// "admin" role pass, everyone else receives 403. The handlers contain no
// matrix logic of their own — they parse, validate, and delegate to [Service].
package rbac

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/saparov/amanat/internal/platform/apperr"
	requestutil "github.com/saparov/amanat/internal/platform/request"
	"github.com/saparov/amanat/internal/platform/respond"
	"github.com/saparov/amanat/internal/platform/validate"
	"github.com/saparov/amanat/pkg/pagination"
)

// SessionPurger deletes expired login sessions. Satisfied by the auth
// session service; declared here so the admin surface does not import it.
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Handler implements the administrative HTTP endpoints.
type Handler struct {
	adminService *Service
	sessions     SessionPurger
}

// NewHandler constructs a new [Handler] with its dependencies.
func NewHandler(service *Service, sessions SessionPurger) *Handler {
	return &Handler{adminService: service, sessions: sessions}
}

// Routes returns a [chi.Router] configured with the admin routes.
//
// # Endpoints
//   - /roles                  : CRUD over roles.
//   - /resources              : CRUD over resources.
//   - /rules                  : List/upsert/delete permission rules.
//   - /users/{userID}/roles   : List/assign/remove role assignments.
//   - POST /cache/clear       : Drop every engine cache.
//   - POST /maintenance/sessions/purge : Delete expired login sessions.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(handler.adminOnly)

	router.Get("/roles", handler.listRoles)
	router.Post("/roles", handler.createRole)
	router.Get("/roles/{roleID}", handler.getRole)
	router.Put("/roles/{roleID}", handler.updateRole)
	router.Delete("/roles/{roleID}", handler.deleteRole)

	router.Get("/resources", handler.listResources)
	router.Post("/resources", handler.createResource)
	router.Get("/resources/{resourceID}", handler.getResource)
	router.Put("/resources/{resourceID}", handler.updateResource)
	router.Delete("/resources/{resourceID}", handler.deleteResource)

	router.Get("/rules", handler.listRules)
	router.Post("/rules", handler.setRule)
	router.Delete("/rules/{ruleID}", handler.deleteRule)

	router.Get("/users/{userID}/roles", handler.listUserRoles)
	router.Post("/users/{userID}/roles", handler.assignRole)
	router.Delete("/users/{userID}/roles/{roleID}", handler.removeRole)

	router.Post("/cache/clear", handler.clearCache)
	router.Post("/maintenance/sessions/purge", handler.purgeSessions)

	return router
}

// adminOnly rejects requests from non-administrators before any handler runs.
func (handler *Handler) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		authCtx, err := requestutil.RequiredAuth(request)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		isAdmin, err := handler.adminService.IsAdmin(request.Context(), authCtx.Identity)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		if !isAdmin {
			respond.Error(writer, request, apperr.Forbidden("Administrator access required"))
			return
		}

		next.ServeHTTP(writer, request)
	})
}

// ── Roles ────────────────────────────────────────────────────────────────────

type roleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (payload *roleRequest) validate() error {
	return validate.New().
		Required("name", payload.Name).
		MaxLen("name", payload.Name, 150).
		MaxLen("description", payload.Description, 500).
		Err()
}

func (handler *Handler) listRoles(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	roles, total, err := handler.adminService.ListRoles(request.Context(), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, roles, pagination.NewMeta(params.Page, params.Limit, total))
}

func (handler *Handler) createRole(writer http.ResponseWriter, request *http.Request) {
	var payload roleRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if err := payload.validate(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	role, err := handler.adminService.CreateRole(request.Context(), payload.Name, payload.Description)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, role)
}

func (handler *Handler) getRole(writer http.ResponseWriter, request *http.Request) {
	roleID, err := requestutil.IntParam(request, "roleID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	role, err := handler.adminService.GetRole(request.Context(), roleID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, role)
}

func (handler *Handler) updateRole(writer http.ResponseWriter, request *http.Request) {
	roleID, err := requestutil.IntParam(request, "roleID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload roleRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if err := payload.validate(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	role, err := handler.adminService.UpdateRole(request.Context(), roleID, payload.Name, payload.Description)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, role)
}

func (handler *Handler) deleteRole(writer http.ResponseWriter, request *http.Request) {
	roleID, err := requestutil.IntParam(request, "roleID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.adminService.DeleteRole(request.Context(), roleID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// ── Resources ────────────────────────────────────────────────────────────────

type resourceRequest struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (payload *resourceRequest) validate() error {
	return validate.New().
		Required("code", payload.Code).
		MaxLen("code", payload.Code, 150).
		MaxLen("description", payload.Description, 500).
		Err()
}

func (handler *Handler) listResources(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	resources, total, err := handler.adminService.ListResources(request.Context(), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, resources, pagination.NewMeta(params.Page, params.Limit, total))
}

func (handler *Handler) createResource(writer http.ResponseWriter, request *http.Request) {
	var payload resourceRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if err := payload.validate(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	resource, err := handler.adminService.CreateResource(request.Context(), payload.Code, payload.Description)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, resource)
}

func (handler *Handler) getResource(writer http.ResponseWriter, request *http.Request) {
	resourceID, err := requestutil.IntParam(request, "resourceID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	resource, err := handler.adminService.GetResource(request.Context(), resourceID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, resource)
}

func (handler *Handler) updateResource(writer http.ResponseWriter, request *http.Request) {
	resourceID, err := requestutil.IntParam(request, "resourceID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload resourceRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if err := payload.validate(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	resource, err := handler.adminService.UpdateResource(request.Context(), resourceID, payload.Code, payload.Description)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, resource)
}

func (handler *Handler) deleteResource(writer http.ResponseWriter, request *http.Request) {
	resourceID, err := requestutil.IntParam(request, "resourceID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.adminService.DeleteResource(request.Context(), resourceID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// ── Permission Rules ─────────────────────────────────────────────────────────

type ruleRequest struct {
	RoleID     int64 `json:"role_id"`
	ResourceID int64 `json:"resource_id"`
	RuleFlags
}

func (handler *Handler) listRules(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	var roleID int64
	if raw := request.URL.Query().Get("role_id"); raw != "" {
		parsed, err := requestutil.ParseID(raw, "role_id")
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		roleID = parsed
	}

	rules, total, err := handler.adminService.ListRules(request.Context(), roleID, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, rules, pagination.NewMeta(params.Page, params.Limit, total))
}

func (handler *Handler) setRule(writer http.ResponseWriter, request *http.Request) {
	var payload ruleRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validationErr := validate.New().
		Custom("role_id", payload.RoleID <= 0, "Must be a positive integer").
		Custom("resource_id", payload.ResourceID <= 0, "Must be a positive integer").
		Err()
	if validationErr != nil {
		respond.Error(writer, request, validationErr)
		return
	}

	rule, err := handler.adminService.SetRule(request.Context(), payload.RoleID, payload.ResourceID, payload.RuleFlags)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, rule)
}

func (handler *Handler) deleteRule(writer http.ResponseWriter, request *http.Request) {
	ruleID, err := requestutil.IntParam(request, "ruleID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.adminService.DeleteRule(request.Context(), ruleID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// ── User-Role Assignments ────────────────────────────────────────────────────

type assignRoleRequest struct {
	RoleID int64 `json:"role_id"`
}

func (handler *Handler) listUserRoles(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.IntParam(request, "userID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	assignments, err := handler.adminService.ListUserRoles(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, assignments)
}

func (handler *Handler) assignRole(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.IntParam(request, "userID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload assignRoleRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validationErr := validate.New().
		Custom("role_id", payload.RoleID <= 0, "Must be a positive integer").
		Err()
	if validationErr != nil {
		respond.Error(writer, request, validationErr)
		return
	}

	assignment, err := handler.adminService.AssignRole(request.Context(), userID, payload.RoleID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, assignment)
}

func (handler *Handler) removeRole(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.IntParam(request, "userID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	roleID, err := requestutil.IntParam(request, "roleID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.adminService.RemoveRole(request.Context(), userID, roleID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// ── Maintenance ──────────────────────────────────────────────────────────────

func (handler *Handler) clearCache(writer http.ResponseWriter, request *http.Request) {
	handler.adminService.FlushCaches()
	respond.OK(writer, map[string]string{"status": "caches cleared"})
}

func (handler *Handler) purgeSessions(writer http.ResponseWriter, request *http.Request) {
	purged, err := handler.sessions.PurgeExpired(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]int64{"purged": purged})
}
