// Copyright (c) 2026 Amanat. All rights reserved.
// Author: a.saparov.dev@gmail.com

package rbac

import (
	"context"

	"github.com/saparov/amanat/pkg/pagination"
)

// MatrixStore is the read path the decision engine requires.
//
// # Performance Contract
//
// Each method is a single indexed query. The engine calls them only on cache
// misses, so the hot path (warm caches) touches the store not at all.
type MatrixStore interface {
	// ResourceIDByCode resolves a resource code to its id.
	// The second return is false when the code is unknown — unknown codes
	// are a legitimate (and cached) outcome, not an error.
	ResourceIDByCode(ctx context.Context, code string) (int64, bool, error)

	// RoleIDsForUser returns the ids of every role assigned to the user.
	// A user without roles yields an empty slice.
	RoleIDsForUser(ctx context.Context, userID int64) ([]int64, error)

	// PermissionRowsFor returns the rule rows for the given roles on the
	// resource. Pairs without a stored rule simply contribute no row.
	PermissionRowsFor(ctx context.Context, roleIDs []int64, resourceID int64) ([]RuleFlags, error)
}

// AdminStore is the mutation and listing surface behind the [Service].
type AdminStore interface {
	// # Roles

	ListRoles(ctx context.Context, params pagination.Params) ([]Role, int, error)
	FindRoleByID(ctx context.Context, id int64) (*Role, error)
	CreateRole(ctx context.Context, role *Role) error
	UpdateRole(ctx context.Context, role *Role) error
	DeleteRole(ctx context.Context, id int64) error

	// EnsureRole creates the role if absent and returns it either way.
	// Existing descriptions are left untouched (fixture semantics).
	EnsureRole(ctx context.Context, name, description string) (*Role, error)

	// # Resources

	ListResources(ctx context.Context, params pagination.Params) ([]Resource, int, error)
	FindResourceByID(ctx context.Context, id int64) (*Resource, error)
	CreateResource(ctx context.Context, resource *Resource) error
	UpdateResource(ctx context.Context, resource *Resource) error
	DeleteResource(ctx context.Context, id int64) error

	// EnsureResource creates the resource if absent and returns it either way.
	EnsureResource(ctx context.Context, code, description string) (*Resource, error)

	// # Permission Rules

	// ListRules returns rule rows, optionally filtered to one role.
	// roleID == 0 means no filter.
	ListRules(ctx context.Context, roleID int64, params pagination.Params) ([]PermissionRule, int, error)

	// UpsertRule inserts or replaces the row for (RoleID, ResourceID).
	UpsertRule(ctx context.Context, rule *PermissionRule) error

	// EnsureRule inserts the row only if the (role, resource) pair has none.
	// Existing flags are left untouched (fixture semantics).
	EnsureRule(ctx context.Context, rule *PermissionRule) error

	DeleteRule(ctx context.Context, id int64) error

	// # User-Role Assignments

	ListUserRoles(ctx context.Context, userID int64) ([]UserRole, error)
	AssignRole(ctx context.Context, userID, roleID int64) (*UserRole, error)
	RemoveRole(ctx context.Context, userID, roleID int64) error

	// UserHasRoleNamed reports whether the user holds a role with the given
	// name (case-insensitive). Backs the admin gate of the HTTP surface.
	UserHasRoleNamed(ctx context.Context, userID int64, name string) (bool, error)
}
