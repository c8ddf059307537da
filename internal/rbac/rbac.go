// Copyright (c) 2026 Amanat. All rights reserved.
// Author: a.saparov.dev@gmail.com

/*
Package rbac implements the role-based access control core of Amanat.

# Model

Permissions form a matrix: for every (role, resource) pair a rule row holds
seven boolean flags — read, read_all, create, update, update_all, delete,
delete_all. A user's effective permission is the logical OR across the rule
rows of all their roles: grants are additive, there is no explicit deny.

The non-_all flags grant an action only on records the caller owns ("own"
scope); the _all variants grant it unconditionally ("any" scope). Create has
no scope: there is no pre-existing owner to scope against.

# Components

[Engine] answers allow/deny per request through three bounded read-through
caches. [Service] is the administrator surface mutating the matrix, clearing
the caches after every change. [Guard] is the chi middleware wiring HTTP
methods to engine checks.
*/
package rbac

// Action is a matrix-checkable operation on a resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Valid reports whether the value is one of the four known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionRead, ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// Scope qualifies a granted permission.
type Scope string

const (
	// ScopeOwn limits the grant to records owned by the acting identity.
	ScopeOwn Scope = "own"

	// ScopeAny grants the action unconditionally.
	ScopeAny Scope = "any"

	// ScopeNone is carried by denials and by create grants.
	ScopeNone Scope = ""
)

// Decision is the engine's answer for one (identity, resource, action) check.
//
// Scope tells the caller which rule justified an allowance: handlers use it
// to decide whether a list endpoint may return everything or must filter to
// the caller's own records.
type Decision struct {
	Allowed bool  `json:"allowed"`
	Scope   Scope `json:"scope,omitempty"`
}

// Deny is the zero Decision.
var Deny = Decision{Allowed: false, Scope: ScopeNone}

// RuleFlags is one row of the permission matrix.
type RuleFlags struct {
	Read      bool `json:"read"`
	ReadAll   bool `json:"read_all"`
	Create    bool `json:"create"`
	Update    bool `json:"update"`
	UpdateAll bool `json:"update_all"`
	Delete    bool `json:"delete"`
	DeleteAll bool `json:"delete_all"`
}

// Merge ORs another row into this one. Absent rules contribute all-false,
// so merging is how multiple roles combine additively.
func (f *RuleFlags) Merge(other RuleFlags) {
	f.Read = f.Read || other.Read
	f.ReadAll = f.ReadAll || other.ReadAll
	f.Create = f.Create || other.Create
	f.Update = f.Update || other.Update
	f.UpdateAll = f.UpdateAll || other.UpdateAll
	f.Delete = f.Delete || other.Delete
	f.DeleteAll = f.DeleteAll || other.DeleteAll
}

// AllGranted returns the row with every flag set (the admin fixture row).
func AllGranted() RuleFlags {
	return RuleFlags{
		Read: true, ReadAll: true, Create: true,
		Update: true, UpdateAll: true,
		Delete: true, DeleteAll: true,
	}
}

// Role is a named grant bundle assigned to users.
type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Resource names a protected entity type by a stable string code
// (e.g. "orders", "users", "rbac.rules").
type Resource struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
}

// PermissionRule is the stored matrix row for one (role, resource) pair.
// The pair is unique; an administrator edits flags in place.
type PermissionRule struct {
	ID         int64 `json:"id"`
	RoleID     int64 `json:"role_id"`
	ResourceID int64 `json:"resource_id"`
	RuleFlags
}

// UserRole assigns a role to a user; the pair is unique.
type UserRole struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"user_id"`
	RoleID int64 `json:"role_id"`
}
