// Copyright (c) 2026 Amanat. All rights reserved.
// Author: a.saparov.dev@gmail.com

package rbac

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/saparov/amanat/internal/platform/sec"
)

// Cache capacities. Matrix data is mutated rarely relative to read volume,
// so bounded LRU eviction plus the explicit [Engine.ClearCaches] hook keep
// memory flat without a TTL.
const (
	resourceCacheSize = 512
	roleCacheSize     = 1024
	flagsCacheSize    = 4096
)

// resourceEntry caches both outcomes of a code lookup: unknown codes are a
// legitimate, repeatable answer and deserve caching as much as hits do.
type resourceEntry struct {
	id    int64
	found bool
}

// Engine evaluates the permission matrix for one (identity, resource,
// action, owner) tuple at a time.
//
// # Caching
//
// Three layered read-through caches back the evaluation:
//
//   - resource code → id
//   - user id → sorted role-id set
//   - (role-id set, resource id) → merged rule flags
//
// # Concurrency
//
// The caches are internally synchronized; Engine is safe for concurrent use
// by every request handler. Concurrent misses for the same key may race and
// redundantly populate an entry — the results are identical, so the race is
// benign and deliberately not deduplicated.
//
// The engine is constructed once at process start and owns its caches;
// tests get isolation by constructing a fresh instance.
type Engine struct {
	store MatrixStore

	resourceIDs *lru.Cache[string, resourceEntry]
	userRoles   *lru.Cache[int64, []int64]
	ruleFlags   *lru.Cache[string, RuleFlags]
}

// NewEngine constructs an [Engine] over the given matrix store.
func NewEngine(store MatrixStore) *Engine {
	// lru.New errors only on a non-positive size; the sizes are constants.
	resourceIDs, _ := lru.New[string, resourceEntry](resourceCacheSize)
	userRoles, _ := lru.New[int64, []int64](roleCacheSize)
	ruleFlags, _ := lru.New[string, RuleFlags](flagsCacheSize)

	return &Engine{
		store:       store,
		resourceIDs: resourceIDs,
		userRoles:   userRoles,
		ruleFlags:   ruleFlags,
	}
}

// Evaluate answers whether the identity may perform the action on the
// resource, and with which scope.
//
// # Check Order
//
//  1. Anonymous or inactive identity → deny.
//  2. Resolve the resource code; unknown code → deny. This happens BEFORE
//     the superuser bypass: even a superuser is denied on a code the matrix
//     has never heard of.
//  3. Superuser → allow (create carries no scope, everything else "any").
//  4. Merge the rule rows of the identity's roles for the resource.
//  5. Create → the merged create flag, no scope.
//  6. Read/update/delete → the _all flag first ("any" always wins over
//     "own"); else the own flag, which additionally requires the supplied
//     ownerID to equal the identity's id. No ownerID means only the _all
//     path can grant.
//
// ownerID is the owner of the specific record under access, when the caller
// knows it; pass nil for collection-level checks.
//
// Store failures propagate as errors — infrastructure trouble must never
// silently evaluate to a grant or a deny.
func (engine *Engine) Evaluate(ctx context.Context, identity *sec.Identity, resourceCode string, action Action, ownerID *int64) (Decision, error) {

	// ── 1. Identity Gate ──────────────────────────────────────────────────

	if identity == nil || !identity.IsActive {
		return Deny, nil
	}

	// ── 2. Resource Resolution (cached) ───────────────────────────────────

	resourceID, found, err := engine.resourceID(ctx, resourceCode)
	if err != nil {
		return Deny, err
	}
	if !found {
		return Deny, nil
	}

	// ── 3. Superuser Bypass ───────────────────────────────────────────────

	if identity.IsSuperuser {
		if action == ActionCreate {
			return Decision{Allowed: true, Scope: ScopeNone}, nil
		}
		return Decision{Allowed: true, Scope: ScopeAny}, nil
	}

	// ── 4. Matrix Merge (cached) ──────────────────────────────────────────

	roleIDs, err := engine.roleIDs(ctx, identity.ID)
	if err != nil {
		return Deny, err
	}

	flags, err := engine.mergedFlags(ctx, roleIDs, resourceID)
	if err != nil {
		return Deny, err
	}

	// ── 5. Create (no scope) ──────────────────────────────────────────────

	if action == ActionCreate {
		return Decision{Allowed: flags.Create, Scope: ScopeNone}, nil
	}

	// ── 6. Scoped Actions ─────────────────────────────────────────────────

	anyFlag, ownFlag := scopedFlags(flags, action)

	if anyFlag {
		return Decision{Allowed: true, Scope: ScopeAny}, nil
	}

	if ownFlag && ownerID != nil && *ownerID == identity.ID {
		return Decision{Allowed: true, Scope: ScopeOwn}, nil
	}

	return Deny, nil
}

// ClearCaches drops every cached entry.
//
// The administrative surface calls this after each matrix mutation, so
// changes take effect immediately instead of waiting for eviction.
func (engine *Engine) ClearCaches() {
	engine.resourceIDs.Purge()
	engine.userRoles.Purge()
	engine.ruleFlags.Purge()
}

// scopedFlags picks the (_all, own) flag pair for a read/update/delete action.
func scopedFlags(flags RuleFlags, action Action) (anyFlag, ownFlag bool) {
	switch action {
	case ActionRead:
		return flags.ReadAll, flags.Read
	case ActionUpdate:
		return flags.UpdateAll, flags.Update
	case ActionDelete:
		return flags.DeleteAll, flags.Delete
	default:
		return false, false
	}
}

// ── Cached Lookups ───────────────────────────────────────────────────────────

func (engine *Engine) resourceID(ctx context.Context, code string) (int64, bool, error) {
	if entry, ok := engine.resourceIDs.Get(code); ok {
		return entry.id, entry.found, nil
	}

	id, found, err := engine.store.ResourceIDByCode(ctx, code)
	if err != nil {
		return 0, false, fmt.Errorf("rbac: resource lookup failed: %w", err)
	}

	engine.resourceIDs.Add(code, resourceEntry{id: id, found: found})
	return id, found, nil
}

func (engine *Engine) roleIDs(ctx context.Context, userID int64) ([]int64, error) {
	if ids, ok := engine.userRoles.Get(userID); ok {
		return ids, nil
	}

	ids, err := engine.store.RoleIDsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: role lookup failed: %w", err)
	}

	// Sort once so the flags-cache key is stable across assignment order.
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	engine.userRoles.Add(userID, ids)
	return ids, nil
}

func (engine *Engine) mergedFlags(ctx context.Context, roleIDs []int64, resourceID int64) (RuleFlags, error) {
	key := flagsKey(roleIDs, resourceID)
	if flags, ok := engine.ruleFlags.Get(key); ok {
		return flags, nil
	}

	merged := RuleFlags{}
	if len(roleIDs) > 0 {
		rows, err := engine.store.PermissionRowsFor(ctx, roleIDs, resourceID)
		if err != nil {
			return RuleFlags{}, fmt.Errorf("rbac: rule lookup failed: %w", err)
		}
		for _, row := range rows {
			merged.Merge(row)
		}
	}

	engine.ruleFlags.Add(key, merged)
	return merged, nil
}

// flagsKey builds the flags-cache key from a sorted role-id set and a
// resource id, e.g. "2,5|7".
func flagsKey(roleIDs []int64, resourceID int64) string {
	var builder strings.Builder
	for i, id := range roleIDs {
		if i > 0 {
			builder.WriteByte(',')
		}
		builder.WriteString(strconv.FormatInt(id, 10))
	}
	builder.WriteByte('|')
	builder.WriteString(strconv.FormatInt(resourceID, 10))
	return builder.String()
}
