// Copyright (c) 2026 Amanat. All rights reserved.
// Author: a.saparov.dev@gmail.com

// PostgreSQL implementation of the rbac storage contracts.
package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saparov/amanat/internal/platform/apperr"
	"github.com/saparov/amanat/internal/platform/dberr"
	"github.com/saparov/amanat/pkg/pagination"
)

// PostgresStore implements [MatrixStore] and [AdminStore] using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewStore creates the PostgreSQL implementation of the rbac stores.
func NewStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// ── Matrix Read Path ─────────────────────────────────────────────────────────

// ResourceIDByCode resolves a resource code to its id.
func (store *PostgresStore) ResourceIDByCode(ctx context.Context, code string) (int64, bool, error) {
	const query = "SELECT id FROM rbac.resource WHERE code = $1"

	var id int64
	err := store.pool.QueryRow(ctx, query, code).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("postgres_rbac_resource_id_failed: %w", err)
	}

	return id, true, nil
}

// RoleIDsForUser returns every role id assigned to the user.
func (store *PostgresStore) RoleIDsForUser(ctx context.Context, userID int64) ([]int64, error) {
	const query = "SELECT role_id FROM rbac.user_role WHERE user_id = $1"

	rows, err := store.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_rbac_role_ids_failed: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres_rbac_role_ids_scan_failed: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// PermissionRowsFor returns the rule rows for the roles on the resource.
func (store *PostgresStore) PermissionRowsFor(ctx context.Context, roleIDs []int64, resourceID int64) ([]RuleFlags, error) {
	const query = `
		SELECT read, read_all, "create", "update", update_all, "delete", delete_all
		FROM rbac.permission_rule
		WHERE role_id = ANY($1) AND resource_id = $2`

	rows, err := store.pool.Query(ctx, query, roleIDs, resourceID)
	if err != nil {
		return nil, fmt.Errorf("postgres_rbac_rules_failed: %w", err)
	}
	defer rows.Close()

	result := []RuleFlags{}
	for rows.Next() {
		var flags RuleFlags
		err := rows.Scan(
			&flags.Read, &flags.ReadAll, &flags.Create,
			&flags.Update, &flags.UpdateAll,
			&flags.Delete, &flags.DeleteAll,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres_rbac_rules_scan_failed: %w", err)
		}
		result = append(result, flags)
	}

	return result, rows.Err()
}

// ── Roles ────────────────────────────────────────────────────────────────────

// ListRoles returns one page of roles with the total count.
func (store *PostgresStore) ListRoles(ctx context.Context, params pagination.Params) ([]Role, int, error) {
	const countQuery = "SELECT COUNT(*) FROM rbac.role"
	const listQuery = `
		SELECT id, name, description FROM rbac.role
		ORDER BY id LIMIT $1 OFFSET $2`

	var total int
	if err := store.pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_rbac_role_count_failed: %w", err)
	}

	rows, err := store.pool.Query(ctx, listQuery, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_rbac_role_list_failed: %w", err)
	}
	defer rows.Close()

	roles := []Role{}
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description); err != nil {
			return nil, 0, fmt.Errorf("postgres_rbac_role_scan_failed: %w", err)
		}
		roles = append(roles, role)
	}

	return roles, total, rows.Err()
}

// FindRoleByID returns the role or [apperr.NotFound].
func (store *PostgresStore) FindRoleByID(ctx context.Context, id int64) (*Role, error) {
	const query = "SELECT id, name, description FROM rbac.role WHERE id = $1"

	role := &Role{}
	err := store.pool.QueryRow(ctx, query, id).Scan(&role.ID, &role.Name, &role.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Role")
		}
		return nil, fmt.Errorf("postgres_rbac_role_find_failed: %w", err)
	}

	return role, nil
}

// CreateRole persists a new role and populates its ID.
func (store *PostgresStore) CreateRole(ctx context.Context, role *Role) error {
	const query = "INSERT INTO rbac.role (name, description) VALUES ($1, $2) RETURNING id"

	err := store.pool.QueryRow(ctx, query, role.Name, role.Description).Scan(&role.ID)
	if err != nil {
		return dberr.Wrap(err, "postgres_rbac_role_create_failed")
	}
	return nil
}

// UpdateRole persists name/description changes.
func (store *PostgresStore) UpdateRole(ctx context.Context, role *Role) error {
	const query = "UPDATE rbac.role SET name = $2, description = $3 WHERE id = $1"

	_, err := store.pool.Exec(ctx, query, role.ID, role.Name, role.Description)
	if err != nil {
		return dberr.Wrap(err, "postgres_rbac_role_update_failed")
	}
	return nil
}

// DeleteRole removes the role; rules and assignments cascade in the schema.
func (store *PostgresStore) DeleteRole(ctx context.Context, id int64) error {
	const query = "DELETE FROM rbac.role WHERE id = $1"

	_, err := store.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("postgres_rbac_role_delete_failed: %w", err)
	}
	return nil
}

// EnsureRole creates the role if absent and returns the stored row.
func (store *PostgresStore) EnsureRole(ctx context.Context, name, description string) (*Role, error) {
	const insertQuery = `
		INSERT INTO rbac.role (name, description) VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING`
	const selectQuery = "SELECT id, name, description FROM rbac.role WHERE name = $1"

	if _, err := store.pool.Exec(ctx, insertQuery, name, description); err != nil {
		return nil, fmt.Errorf("postgres_rbac_role_ensure_failed: %w", err)
	}

	role := &Role{}
	err := store.pool.QueryRow(ctx, selectQuery, name).Scan(&role.ID, &role.Name, &role.Description)
	if err != nil {
		return nil, fmt.Errorf("postgres_rbac_role_ensure_select_failed: %w", err)
	}

	return role, nil
}

// ── Resources ────────────────────────────────────────────────────────────────

// ListResources returns one page of resources with the total count.
func (store *PostgresStore) ListResources(ctx context.Context, params pagination.Params) ([]Resource, int, error) {
	const countQuery = "SELECT COUNT(*) FROM rbac.resource"
	const listQuery = `
		SELECT id, code, description FROM rbac.resource
		ORDER BY id LIMIT $1 OFFSET $2`

	var total int
	if err := store.pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_rbac_resource_count_failed: %w", err)
	}

	rows, err := store.pool.Query(ctx, listQuery, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_rbac_resource_list_failed: %w", err)
	}
	defer rows.Close()

	resources := []Resource{}
	for rows.Next() {
		var resource Resource
		if err := rows.Scan(&resource.ID, &resource.Code, &resource.Description); err != nil {
			return nil, 0, fmt.Errorf("postgres_rbac_resource_scan_failed: %w", err)
		}
		resources = append(resources, resource)
	}

	return resources, total, rows.Err()
}

// FindResourceByID returns the resource or [apperr.NotFound].
func (store *PostgresStore) FindResourceByID(ctx context.Context, id int64) (*Resource, error) {
	const query = "SELECT id, code, description FROM rbac.resource WHERE id = $1"

	resource := &Resource{}
	err := store.pool.QueryRow(ctx, query, id).Scan(&resource.ID, &resource.Code, &resource.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Resource")
		}
		return nil, fmt.Errorf("postgres_rbac_resource_find_failed: %w", err)
	}

	return resource, nil
}

// CreateResource persists a new resource and populates its ID.
func (store *PostgresStore) CreateResource(ctx context.Context, resource *Resource) error {
	const query = "INSERT INTO rbac.resource (code, description) VALUES ($1, $2) RETURNING id"

	err := store.pool.QueryRow(ctx, query, resource.Code, resource.Description).Scan(&resource.ID)
	if err != nil {
		return dberr.Wrap(err, "postgres_rbac_resource_create_failed")
	}
	return nil
}

// UpdateResource persists code/description changes.
func (store *PostgresStore) UpdateResource(ctx context.Context, resource *Resource) error {
	const query = "UPDATE rbac.resource SET code = $2, description = $3 WHERE id = $1"

	_, err := store.pool.Exec(ctx, query, resource.ID, resource.Code, resource.Description)
	if err != nil {
		return dberr.Wrap(err, "postgres_rbac_resource_update_failed")
	}
	return nil
}

// DeleteResource removes the resource; its rules cascade in the schema.
func (store *PostgresStore) DeleteResource(ctx context.Context, id int64) error {
	const query = "DELETE FROM rbac.resource WHERE id = $1"

	_, err := store.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("postgres_rbac_resource_delete_failed: %w", err)
	}
	return nil
}

// EnsureResource creates the resource if absent and returns the stored row.
func (store *PostgresStore) EnsureResource(ctx context.Context, code, description string) (*Resource, error) {
	const insertQuery = `
		INSERT INTO rbac.resource (code, description) VALUES ($1, $2)
		ON CONFLICT (code) DO NOTHING`
	const selectQuery = "SELECT id, code, description FROM rbac.resource WHERE code = $1"

	if _, err := store.pool.Exec(ctx, insertQuery, code, description); err != nil {
		return nil, fmt.Errorf("postgres_rbac_resource_ensure_failed: %w", err)
	}

	resource := &Resource{}
	err := store.pool.QueryRow(ctx, selectQuery, code).Scan(&resource.ID, &resource.Code, &resource.Description)
	if err != nil {
		return nil, fmt.Errorf("postgres_rbac_resource_ensure_select_failed: %w", err)
	}

	return resource, nil
}

// ── Permission Rules ─────────────────────────────────────────────────────────

// ListRules returns rule rows, optionally filtered to one role (roleID != 0).
func (store *PostgresStore) ListRules(ctx context.Context, roleID int64, params pagination.Params) ([]PermissionRule, int, error) {
	const countQuery = `
		SELECT COUNT(*) FROM rbac.permission_rule
		WHERE ($1 = 0 OR role_id = $1)`
	const listQuery = `
		SELECT id, role_id, resource_id,
		       read, read_all, "create", "update", update_all, "delete", delete_all
		FROM rbac.permission_rule
		WHERE ($1 = 0 OR role_id = $1)
		ORDER BY id LIMIT $2 OFFSET $3`

	var total int
	if err := store.pool.QueryRow(ctx, countQuery, roleID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_rbac_rule_count_failed: %w", err)
	}

	rows, err := store.pool.Query(ctx, listQuery, roleID, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_rbac_rule_list_failed: %w", err)
	}
	defer rows.Close()

	rules := []PermissionRule{}
	for rows.Next() {
		var rule PermissionRule
		err := rows.Scan(
			&rule.ID, &rule.RoleID, &rule.ResourceID,
			&rule.Read, &rule.ReadAll, &rule.Create,
			&rule.Update, &rule.UpdateAll,
			&rule.Delete, &rule.DeleteAll,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_rbac_rule_scan_failed: %w", err)
		}
		rules = append(rules, rule)
	}

	return rules, total, rows.Err()
}

// UpsertRule inserts or replaces the row for (RoleID, ResourceID).
func (store *PostgresStore) UpsertRule(ctx context.Context, rule *PermissionRule) error {
	const query = `
		INSERT INTO rbac.permission_rule (
			role_id, resource_id,
			read, read_all, "create", "update", update_all, "delete", delete_all
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (role_id, resource_id) DO UPDATE SET
			read = EXCLUDED.read, read_all = EXCLUDED.read_all,
			"create" = EXCLUDED."create",
			"update" = EXCLUDED."update", update_all = EXCLUDED.update_all,
			"delete" = EXCLUDED."delete", delete_all = EXCLUDED.delete_all
		RETURNING id`

	err := store.pool.QueryRow(ctx, query,
		rule.RoleID, rule.ResourceID,
		rule.Read, rule.ReadAll, rule.Create,
		rule.Update, rule.UpdateAll,
		rule.Delete, rule.DeleteAll,
	).Scan(&rule.ID)

	if err != nil {
		return dberr.Wrap(err, "postgres_rbac_rule_upsert_failed")
	}
	return nil
}

// EnsureRule inserts the row only if the (role, resource) pair has none.
func (store *PostgresStore) EnsureRule(ctx context.Context, rule *PermissionRule) error {
	const query = `
		INSERT INTO rbac.permission_rule (
			role_id, resource_id,
			read, read_all, "create", "update", update_all, "delete", delete_all
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (role_id, resource_id) DO NOTHING`

	_, err := store.pool.Exec(ctx, query,
		rule.RoleID, rule.ResourceID,
		rule.Read, rule.ReadAll, rule.Create,
		rule.Update, rule.UpdateAll,
		rule.Delete, rule.DeleteAll,
	)

	if err != nil {
		return fmt.Errorf("postgres_rbac_rule_ensure_failed: %w", err)
	}
	return nil
}

// DeleteRule removes a single rule row.
func (store *PostgresStore) DeleteRule(ctx context.Context, id int64) error {
	const query = "DELETE FROM rbac.permission_rule WHERE id = $1"

	_, err := store.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("postgres_rbac_rule_delete_failed: %w", err)
	}
	return nil
}

// ── User-Role Assignments ────────────────────────────────────────────────────

// ListUserRoles returns every assignment of the user.
func (store *PostgresStore) ListUserRoles(ctx context.Context, userID int64) ([]UserRole, error) {
	const query = "SELECT id, user_id, role_id FROM rbac.user_role WHERE user_id = $1 ORDER BY id"

	rows, err := store.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_rbac_user_role_list_failed: %w", err)
	}
	defer rows.Close()

	assignments := []UserRole{}
	for rows.Next() {
		var assignment UserRole
		if err := rows.Scan(&assignment.ID, &assignment.UserID, &assignment.RoleID); err != nil {
			return nil, fmt.Errorf("postgres_rbac_user_role_scan_failed: %w", err)
		}
		assignments = append(assignments, assignment)
	}

	return assignments, rows.Err()
}

// AssignRole creates the (user, role) assignment.
func (store *PostgresStore) AssignRole(ctx context.Context, userID, roleID int64) (*UserRole, error) {
	const query = `
		INSERT INTO rbac.user_role (user_id, role_id) VALUES ($1, $2)
		RETURNING id`

	assignment := &UserRole{UserID: userID, RoleID: roleID}
	err := store.pool.QueryRow(ctx, query, userID, roleID).Scan(&assignment.ID)
	if err != nil {
		return nil, dberr.Wrap(err, "postgres_rbac_user_role_assign_failed")
	}

	return assignment, nil
}

// RemoveRole deletes the (user, role) assignment. Unknown pairs are ignored.
func (store *PostgresStore) RemoveRole(ctx context.Context, userID, roleID int64) error {
	const query = "DELETE FROM rbac.user_role WHERE user_id = $1 AND role_id = $2"

	_, err := store.pool.Exec(ctx, query, userID, roleID)
	if err != nil {
		return fmt.Errorf("postgres_rbac_user_role_remove_failed: %w", err)
	}
	return nil
}

// UserHasRoleNamed reports whether the user holds a role with the given name.
func (store *PostgresStore) UserHasRoleNamed(ctx context.Context, userID int64, name string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM rbac.user_role assignment
			JOIN rbac.role role ON role.id = assignment.role_id
			WHERE assignment.user_id = $1 AND LOWER(role.name) = LOWER($2)
		)`

	var exists bool
	if err := store.pool.QueryRow(ctx, query, userID, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres_rbac_user_role_named_failed: %w", err)
	}

	return exists, nil
}
