// Copyright (c) 2026 Amanat. All rights reserved.
// Author: a.saparov.dev@gmail.com

package rbac_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saparov/amanat/internal/platform/apperr"
	"github.com/saparov/amanat/internal/rbac"
	"github.com/saparov/amanat/pkg/pagination"
)

/*
fakeAdminStore is an in-memory implementation of both store contracts, so a
single instance can back the admin service and the engine at once. That lets
the tests observe the real interaction the production wiring has: a mutation
through the service must become visible to the engine.
*/
type fakeAdminStore struct {
	mu sync.Mutex

	nextID      int64
	roles       map[int64]*rbac.Role
	resources   map[int64]*rbac.Resource
	rules       map[int64]*rbac.PermissionRule
	assignments map[int64]*rbac.UserRole
}

func newFakeAdminStore() *fakeAdminStore {
	return &fakeAdminStore{
		roles:       map[int64]*rbac.Role{},
		resources:   map[int64]*rbac.Resource{},
		rules:       map[int64]*rbac.PermissionRule{},
		assignments: map[int64]*rbac.UserRole{},
	}
}

func (store *fakeAdminStore) id() int64 {
	store.nextID++
	return store.nextID
}

// ── MatrixStore ──────────────────────────────────────────────────────────────

func (store *fakeAdminStore) ResourceIDByCode(_ context.Context, code string) (int64, bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, resource := range store.resources {
		if resource.Code == code {
			return resource.ID, true, nil
		}
	}
	return 0, false, nil
}

func (store *fakeAdminStore) RoleIDsForUser(_ context.Context, userID int64) ([]int64, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	ids := []int64{}
	for _, assignment := range store.assignments {
		if assignment.UserID == userID {
			ids = append(ids, assignment.RoleID)
		}
	}
	return ids, nil
}

func (store *fakeAdminStore) PermissionRowsFor(_ context.Context, roleIDs []int64, resourceID int64) ([]rbac.RuleFlags, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	rows := []rbac.RuleFlags{}
	for _, rule := range store.rules {
		if rule.ResourceID != resourceID {
			continue
		}
		for _, roleID := range roleIDs {
			if rule.RoleID == roleID {
				rows = append(rows, rule.RuleFlags)
				break
			}
		}
	}
	return rows, nil
}

// ── AdminStore: roles ────────────────────────────────────────────────────────

func (store *fakeAdminStore) ListRoles(_ context.Context, params pagination.Params) ([]rbac.Role, int, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	roles := []rbac.Role{}
	for _, role := range store.roles {
		roles = append(roles, *role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })
	return paginate(roles, params), len(store.roles), nil
}

func (store *fakeAdminStore) FindRoleByID(_ context.Context, id int64) (*rbac.Role, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	role, ok := store.roles[id]
	if !ok {
		return nil, apperr.NotFound("Role")
	}
	copied := *role
	return &copied, nil
}

func (store *fakeAdminStore) CreateRole(_ context.Context, role *rbac.Role) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, existing := range store.roles {
		if existing.Name == role.Name {
			return apperr.Conflict("Resource already exists")
		}
	}
	role.ID = store.id()
	copied := *role
	store.roles[role.ID] = &copied
	return nil
}

func (store *fakeAdminStore) UpdateRole(_ context.Context, role *rbac.Role) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	copied := *role
	store.roles[role.ID] = &copied
	return nil
}

func (store *fakeAdminStore) DeleteRole(_ context.Context, id int64) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.roles, id)
	for ruleID, rule := range store.rules {
		if rule.RoleID == id {
			delete(store.rules, ruleID)
		}
	}
	for assignmentID, assignment := range store.assignments {
		if assignment.RoleID == id {
			delete(store.assignments, assignmentID)
		}
	}
	return nil
}

func (store *fakeAdminStore) EnsureRole(ctx context.Context, name, description string) (*rbac.Role, error) {
	store.mu.Lock()
	for _, role := range store.roles {
		if role.Name == name {
			copied := *role
			store.mu.Unlock()
			return &copied, nil
		}
	}
	store.mu.Unlock()

	role := &rbac.Role{Name: name, Description: description}
	if err := store.CreateRole(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// ── AdminStore: resources ────────────────────────────────────────────────────

func (store *fakeAdminStore) ListResources(_ context.Context, params pagination.Params) ([]rbac.Resource, int, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	resources := []rbac.Resource{}
	for _, resource := range store.resources {
		resources = append(resources, *resource)
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].ID < resources[j].ID })
	return paginate(resources, params), len(store.resources), nil
}

func (store *fakeAdminStore) FindResourceByID(_ context.Context, id int64) (*rbac.Resource, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	resource, ok := store.resources[id]
	if !ok {
		return nil, apperr.NotFound("Resource")
	}
	copied := *resource
	return &copied, nil
}

func (store *fakeAdminStore) CreateResource(_ context.Context, resource *rbac.Resource) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, existing := range store.resources {
		if existing.Code == resource.Code {
			return apperr.Conflict("Resource already exists")
		}
	}
	resource.ID = store.id()
	copied := *resource
	store.resources[resource.ID] = &copied
	return nil
}

func (store *fakeAdminStore) UpdateResource(_ context.Context, resource *rbac.Resource) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	copied := *resource
	store.resources[resource.ID] = &copied
	return nil
}

func (store *fakeAdminStore) DeleteResource(_ context.Context, id int64) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.resources, id)
	for ruleID, rule := range store.rules {
		if rule.ResourceID == id {
			delete(store.rules, ruleID)
		}
	}
	return nil
}

func (store *fakeAdminStore) EnsureResource(ctx context.Context, code, description string) (*rbac.Resource, error) {
	store.mu.Lock()
	for _, resource := range store.resources {
		if resource.Code == code {
			copied := *resource
			store.mu.Unlock()
			return &copied, nil
		}
	}
	store.mu.Unlock()

	resource := &rbac.Resource{Code: code, Description: description}
	if err := store.CreateResource(ctx, resource); err != nil {
		return nil, err
	}
	return resource, nil
}

// ── AdminStore: rules ────────────────────────────────────────────────────────

func (store *fakeAdminStore) ListRules(_ context.Context, roleID int64, params pagination.Params) ([]rbac.PermissionRule, int, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	rules := []rbac.PermissionRule{}
	for _, rule := range store.rules {
		if roleID == 0 || rule.RoleID == roleID {
			rules = append(rules, *rule)
		}
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return paginate(rules, params), len(rules), nil
}

func (store *fakeAdminStore) UpsertRule(_ context.Context, rule *rbac.PermissionRule) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, existing := range store.rules {
		if existing.RoleID == rule.RoleID && existing.ResourceID == rule.ResourceID {
			rule.ID = existing.ID
			copied := *rule
			store.rules[rule.ID] = &copied
			return nil
		}
	}
	rule.ID = store.id()
	copied := *rule
	store.rules[rule.ID] = &copied
	return nil
}

func (store *fakeAdminStore) EnsureRule(ctx context.Context, rule *rbac.PermissionRule) error {
	store.mu.Lock()
	for _, existing := range store.rules {
		if existing.RoleID == rule.RoleID && existing.ResourceID == rule.ResourceID {
			store.mu.Unlock()
			return nil
		}
	}
	store.mu.Unlock()

	return store.UpsertRule(ctx, rule)
}

func (store *fakeAdminStore) DeleteRule(_ context.Context, id int64) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.rules, id)
	return nil
}

// ── AdminStore: assignments ──────────────────────────────────────────────────

func (store *fakeAdminStore) ListUserRoles(_ context.Context, userID int64) ([]rbac.UserRole, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	assignments := []rbac.UserRole{}
	for _, assignment := range store.assignments {
		if assignment.UserID == userID {
			assignments = append(assignments, *assignment)
		}
	}
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].ID < assignments[j].ID })
	return assignments, nil
}

func (store *fakeAdminStore) AssignRole(_ context.Context, userID, roleID int64) (*rbac.UserRole, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, assignment := range store.assignments {
		if assignment.UserID == userID && assignment.RoleID == roleID {
			return nil, apperr.Conflict("Resource already exists")
		}
	}
	assignment := &rbac.UserRole{ID: store.id(), UserID: userID, RoleID: roleID}
	store.assignments[assignment.ID] = assignment
	copied := *assignment
	return &copied, nil
}

func (store *fakeAdminStore) RemoveRole(_ context.Context, userID, roleID int64) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for id, assignment := range store.assignments {
		if assignment.UserID == userID && assignment.RoleID == roleID {
			delete(store.assignments, id)
		}
	}
	return nil
}

func (store *fakeAdminStore) UserHasRoleNamed(_ context.Context, userID int64, name string) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, assignment := range store.assignments {
		if assignment.UserID != userID {
			continue
		}
		role, ok := store.roles[assignment.RoleID]
		if ok && strings.EqualFold(role.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func paginate[T any](items []T, params pagination.Params) []T {
	offset := params.Offset()
	if offset >= len(items) {
		return []T{}
	}
	end := offset + params.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestSeed_Idempotent(t *testing.T) {
	store := newFakeAdminStore()
	ctx := context.Background()

	require.NoError(t, rbac.Seed(ctx, store, testLogger()))
	require.NoError(t, rbac.Seed(ctx, store, testLogger()))

	params := pagination.Params{Page: 1, Limit: 50}

	roles, total, err := store.ListRoles(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	names := []string{}
	for _, role := range roles {
		names = append(names, role.Name)
	}
	assert.ElementsMatch(t, []string{"admin", "manager", "user"}, names)

	_, total, err = store.ListResources(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	_, total, err = store.ListRules(ctx, 0, params)
	require.NoError(t, err)
	assert.Equal(t, 7, total)
}

func TestSeed_PreservesOperatorEdits(t *testing.T) {
	store := newFakeAdminStore()
	ctx := context.Background()

	require.NoError(t, rbac.Seed(ctx, store, testLogger()))

	// An operator revokes delete from the user role on orders.
	userRole, err := store.EnsureRole(ctx, "user", "")
	require.NoError(t, err)
	orders, err := store.EnsureResource(ctx, "orders", "")
	require.NoError(t, err)

	edited := &rbac.PermissionRule{
		RoleID:     userRole.ID,
		ResourceID: orders.ID,
		RuleFlags:  rbac.RuleFlags{Read: true},
	}
	require.NoError(t, store.UpsertRule(ctx, edited))

	require.NoError(t, rbac.Seed(ctx, store, testLogger()))

	rows, err := store.PermissionRowsFor(ctx, []int64{userRole.ID}, orders.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].Delete, "reseeding must not restore edited flags")
}

func TestService_MutationsReachTheEngine(t *testing.T) {
	store := newFakeAdminStore()
	engine := rbac.NewEngine(store)
	service := rbac.NewService(store, engine)
	ctx := context.Background()

	require.NoError(t, rbac.Seed(ctx, store, testLogger()))

	role, err := store.EnsureRole(ctx, "manager", "")
	require.NoError(t, err)
	_, err = service.AssignRole(ctx, 42, role.ID)
	require.NoError(t, err)

	manager := activeUser(42)

	decision, err := engine.Evaluate(ctx, manager, "orders", rbac.ActionRead, ownerRef(7))
	require.NoError(t, err)
	require.True(t, decision.Allowed)

	// Revoking the assignment through the service must take effect
	// immediately even though the engine had already cached the roles.
	require.NoError(t, service.RemoveRole(ctx, 42, role.ID))

	decision, err = engine.Evaluate(ctx, manager, "orders", rbac.ActionRead, ownerRef(7))
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestService_SetRule_ValidatesReferences(t *testing.T) {
	store := newFakeAdminStore()
	engine := rbac.NewEngine(store)
	service := rbac.NewService(store, engine)
	ctx := context.Background()

	require.NoError(t, rbac.Seed(ctx, store, testLogger()))

	_, err := service.SetRule(ctx, 9999, 1, rbac.RuleFlags{Read: true})
	require.Error(t, err)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestService_IsAdmin(t *testing.T) {
	store := newFakeAdminStore()
	engine := rbac.NewEngine(store)
	service := rbac.NewService(store, engine)
	ctx := context.Background()

	require.NoError(t, rbac.Seed(ctx, store, testLogger()))

	adminRole, err := store.EnsureRole(ctx, "admin", "")
	require.NoError(t, err)
	_, err = store.AssignRole(ctx, 7, adminRole.ID)
	require.NoError(t, err)

	isAdmin, err := service.IsAdmin(ctx, superuser(1))
	require.NoError(t, err)
	assert.True(t, isAdmin, "superusers pass without any role")

	isAdmin, err = service.IsAdmin(ctx, activeUser(7))
	require.NoError(t, err)
	assert.True(t, isAdmin, "admin role members pass")

	isAdmin, err = service.IsAdmin(ctx, activeUser(8))
	require.NoError(t, err)
	assert.False(t, isAdmin)

	isAdmin, err = service.IsAdmin(ctx, nil)
	require.NoError(t, err)
	assert.False(t, isAdmin)
}
