// Copyright (c) 2026 Amanat. All rights reserved.
// Author: a.saparov.dev@gmail.com

package rbac

import (
	"context"
	"fmt"
	"log/slog"
)

/*
Seed installs the default permission matrix.

It is idempotent: roles and resources are created only when absent, and
existing rules are never overwritten, so operator edits survive restarts.

The default matrix:

	admin   — every flag on every resource
	manager — users: read+read_all; orders: read, read_all, create, update
	user    — users: read, update; orders: read, create, update, delete
*/
func Seed(ctx context.Context, store AdminStore, logger *slog.Logger) error {
	roleSpecs := []struct {
		name        string
		description string
	}{
		{"admin", "Full access to every resource"},
		{"manager", "Read-everything access plus order management"},
		{"user", "Self-service access to own records"},
	}

	resourceSpecs := []struct {
		code        string
		description string
	}{
		{"users", "User accounts"},
		{"rbac.rules", "Permission matrix administration"},
		{"orders", "Customer orders"},
	}

	roles := map[string]*Role{}
	for _, spec := range roleSpecs {
		role, err := store.EnsureRole(ctx, spec.name, spec.description)
		if err != nil {
			return fmt.Errorf("rbac_seed_role_failed: %w", err)
		}
		roles[spec.name] = role
	}

	resources := map[string]*Resource{}
	for _, spec := range resourceSpecs {
		resource, err := store.EnsureResource(ctx, spec.code, spec.description)
		if err != nil {
			return fmt.Errorf("rbac_seed_resource_failed: %w", err)
		}
		resources[spec.code] = resource
	}

	allGranted := RuleFlags{
		Read: true, ReadAll: true, Create: true,
		Update: true, UpdateAll: true,
		Delete: true, DeleteAll: true,
	}

	ruleSpecs := []struct {
		role     string
		resource string
		flags    RuleFlags
	}{
		{"admin", "users", allGranted},
		{"admin", "rbac.rules", allGranted},
		{"admin", "orders", allGranted},

		{"manager", "users", RuleFlags{Read: true, ReadAll: true}},
		{"manager", "orders", RuleFlags{Read: true, ReadAll: true, Create: true, Update: true}},

		{"user", "users", RuleFlags{Read: true, Update: true}},
		{"user", "orders", RuleFlags{Read: true, Create: true, Update: true, Delete: true}},
	}

	for _, spec := range ruleSpecs {
		rule := &PermissionRule{
			RoleID:     roles[spec.role].ID,
			ResourceID: resources[spec.resource].ID,
			RuleFlags:  spec.flags,
		}
		if err := store.EnsureRule(ctx, rule); err != nil {
			return fmt.Errorf("rbac_seed_rule_failed: %w", err)
		}
	}

	logger.Info("rbac matrix seeded",
		slog.Int("roles", len(roleSpecs)),
		slog.Int("resources", len(resourceSpecs)),
		slog.Int("rules", len(ruleSpecs)),
	)

	return nil
}
