// Copyright (c) 2026 Amanat. All rights reserved.
// Author: a.saparov.dev@gmail.com

package rbac

import (
	"context"

	"github.com/saparov/amanat/internal/platform/sec"
	"github.com/saparov/amanat/pkg/pagination"
)

// AdminRoleName is the role whose members may manage the permission matrix,
// in addition to superusers.
const AdminRoleName = "admin"

/*
Service is the administrative surface over the permission matrix.

Every mutation flushes the engine caches so subsequent checks observe the
new matrix. Reads go straight to the store — the admin surface is cold-path
by design and must show the stored truth, not a cached snapshot.
*/
type Service struct {
	store  AdminStore
	engine *Engine
}

// NewService creates the admin service.
func NewService(store AdminStore, engine *Engine) *Service {
	return &Service{store: store, engine: engine}
}

// IsAdmin reports whether the identity may use the admin surface:
// superusers always, otherwise members of the [AdminRoleName] role.
func (service *Service) IsAdmin(ctx context.Context, identity *sec.Identity) (bool, error) {
	if identity == nil || !identity.IsActive {
		return false, nil
	}
	if identity.IsSuperuser {
		return true, nil
	}
	return service.store.UserHasRoleNamed(ctx, identity.ID, AdminRoleName)
}

// ── Roles ────────────────────────────────────────────────────────────────────

func (service *Service) ListRoles(ctx context.Context, params pagination.Params) ([]Role, int, error) {
	return service.store.ListRoles(ctx, params)
}

func (service *Service) GetRole(ctx context.Context, id int64) (*Role, error) {
	return service.store.FindRoleByID(ctx, id)
}

func (service *Service) CreateRole(ctx context.Context, name, description string) (*Role, error) {
	role := &Role{Name: name, Description: description}
	if err := service.store.CreateRole(ctx, role); err != nil {
		return nil, err
	}

	service.engine.ClearCaches()
	return role, nil
}

func (service *Service) UpdateRole(ctx context.Context, id int64, name, description string) (*Role, error) {
	role, err := service.store.FindRoleByID(ctx, id)
	if err != nil {
		return nil, err
	}

	role.Name = name
	role.Description = description
	if err := service.store.UpdateRole(ctx, role); err != nil {
		return nil, err
	}

	service.engine.ClearCaches()
	return role, nil
}

func (service *Service) DeleteRole(ctx context.Context, id int64) error {
	if _, err := service.store.FindRoleByID(ctx, id); err != nil {
		return err
	}
	if err := service.store.DeleteRole(ctx, id); err != nil {
		return err
	}

	service.engine.ClearCaches()
	return nil
}

// ── Resources ────────────────────────────────────────────────────────────────

func (service *Service) ListResources(ctx context.Context, params pagination.Params) ([]Resource, int, error) {
	return service.store.ListResources(ctx, params)
}

func (service *Service) GetResource(ctx context.Context, id int64) (*Resource, error) {
	return service.store.FindResourceByID(ctx, id)
}

func (service *Service) CreateResource(ctx context.Context, code, description string) (*Resource, error) {
	resource := &Resource{Code: code, Description: description}
	if err := service.store.CreateResource(ctx, resource); err != nil {
		return nil, err
	}

	service.engine.ClearCaches()
	return resource, nil
}

func (service *Service) UpdateResource(ctx context.Context, id int64, code, description string) (*Resource, error) {
	resource, err := service.store.FindResourceByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resource.Code = code
	resource.Description = description
	if err := service.store.UpdateResource(ctx, resource); err != nil {
		return nil, err
	}

	service.engine.ClearCaches()
	return resource, nil
}

func (service *Service) DeleteResource(ctx context.Context, id int64) error {
	if _, err := service.store.FindResourceByID(ctx, id); err != nil {
		return err
	}
	if err := service.store.DeleteResource(ctx, id); err != nil {
		return err
	}

	service.engine.ClearCaches()
	return nil
}

// ── Permission Rules ─────────────────────────────────────────────────────────

func (service *Service) ListRules(ctx context.Context, roleID int64, params pagination.Params) ([]PermissionRule, int, error) {
	return service.store.ListRules(ctx, roleID, params)
}

// SetRule inserts or replaces the rule for (roleID, resourceID). Both sides
// are verified to exist so a typo surfaces as 404 rather than a silent
// foreign-key failure.
func (service *Service) SetRule(ctx context.Context, roleID, resourceID int64, flags RuleFlags) (*PermissionRule, error) {
	if _, err := service.store.FindRoleByID(ctx, roleID); err != nil {
		return nil, err
	}
	if _, err := service.store.FindResourceByID(ctx, resourceID); err != nil {
		return nil, err
	}

	rule := &PermissionRule{RoleID: roleID, ResourceID: resourceID, RuleFlags: flags}
	if err := service.store.UpsertRule(ctx, rule); err != nil {
		return nil, err
	}

	service.engine.ClearCaches()
	return rule, nil
}

func (service *Service) DeleteRule(ctx context.Context, id int64) error {
	if err := service.store.DeleteRule(ctx, id); err != nil {
		return err
	}

	service.engine.ClearCaches()
	return nil
}

// ── User-Role Assignments ────────────────────────────────────────────────────

func (service *Service) ListUserRoles(ctx context.Context, userID int64) ([]UserRole, error) {
	return service.store.ListUserRoles(ctx, userID)
}

func (service *Service) AssignRole(ctx context.Context, userID, roleID int64) (*UserRole, error) {
	if _, err := service.store.FindRoleByID(ctx, roleID); err != nil {
		return nil, err
	}

	assignment, err := service.store.AssignRole(ctx, userID, roleID)
	if err != nil {
		return nil, err
	}

	service.engine.ClearCaches()
	return assignment, nil
}

func (service *Service) RemoveRole(ctx context.Context, userID, roleID int64) error {
	if err := service.store.RemoveRole(ctx, userID, roleID); err != nil {
		return err
	}

	service.engine.ClearCaches()
	return nil
}

// ── Caches ───────────────────────────────────────────────────────────────────

// FlushCaches drops every engine cache. Exposed for the admin endpoint.
func (service *Service) FlushCaches() {
	service.engine.ClearCaches()
}
