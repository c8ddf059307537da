// Copyright (c) 2026 Amanat. All rights reserved.
// Author: a.saparov.dev@gmail.com

package biz_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saparov/amanat/internal/biz"
	"github.com/saparov/amanat/internal/platform/ctxutil"
	"github.com/saparov/amanat/internal/platform/sec"
	"github.com/saparov/amanat/internal/rbac"
)

/*
matrixFixture serves the demo matrix from memory:

	role 1 — orders: read_all, delete_all; products: read, create
	role 2 — orders: read, create, delete (own scope); products: read
*/
type matrixFixture struct{}

const (
	managerRole = int64(1)
	memberRole  = int64(2)

	productsResource = int64(10)
	ordersResource   = int64(11)

	managerID  = int64(100)
	memberID   = int64(200)
	strangerID = int64(300)
)

func (matrixFixture) ResourceIDByCode(_ context.Context, code string) (int64, bool, error) {
	switch code {
	case biz.ResourceProducts:
		return productsResource, true, nil
	case biz.ResourceOrders:
		return ordersResource, true, nil
	}
	return 0, false, nil
}

func (matrixFixture) RoleIDsForUser(_ context.Context, userID int64) ([]int64, error) {
	switch userID {
	case managerID:
		return []int64{managerRole}, nil
	case memberID:
		return []int64{memberRole}, nil
	}
	return []int64{}, nil
}

func (matrixFixture) PermissionRowsFor(_ context.Context, roleIDs []int64, resourceID int64) ([]rbac.RuleFlags, error) {
	rows := []rbac.RuleFlags{}
	for _, roleID := range roleIDs {
		switch {
		case roleID == managerRole && resourceID == ordersResource:
			rows = append(rows, rbac.RuleFlags{Read: true, ReadAll: true, Delete: true, DeleteAll: true})
		case roleID == managerRole && resourceID == productsResource:
			rows = append(rows, rbac.RuleFlags{Read: true, Create: true})
		case roleID == memberRole && resourceID == ordersResource:
			rows = append(rows, rbac.RuleFlags{Read: true, Create: true, Delete: true})
		case roleID == memberRole && resourceID == productsResource:
			rows = append(rows, rbac.RuleFlags{Read: true})
		}
	}
	return rows, nil
}

func newTestHandler() (*biz.Handler, *biz.Catalog) {
	engine := rbac.NewEngine(matrixFixture{})
	catalog := biz.NewCatalog()
	return biz.NewHandler(catalog, engine, rbac.NewGuard(engine)), catalog
}

// do performs a request with the given identity pre-resolved on the context,
// the way the identity middleware does in production.
func do(t *testing.T, handler *biz.Handler, identity *sec.Identity, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	request := httptest.NewRequest(method, target, reader)

	authCtx := sec.Anonymous()
	if identity != nil {
		authCtx = &sec.AuthContext{Identity: identity}
	}
	request = request.WithContext(ctxutil.WithAuthContext(request.Context(), authCtx))

	recorder := httptest.NewRecorder()
	handler.Routes().ServeHTTP(recorder, request)
	return recorder
}

func member() *sec.Identity {
	return &sec.Identity{ID: memberID, IsActive: true}
}

func manager() *sec.Identity {
	return &sec.Identity{ID: managerID, IsActive: true}
}

func TestProducts_Guarded(t *testing.T) {
	handler, _ := newTestHandler()

	response := do(t, handler, nil, http.MethodGet, "/products", nil)
	assert.Equal(t, http.StatusUnauthorized, response.Code)

	response = do(t, handler, member(), http.MethodGet, "/products", nil)
	assert.Equal(t, http.StatusOK, response.Code)

	// Members hold read but not create.
	response = do(t, handler, member(), http.MethodPost, "/products", map[string]any{"name": "Tablet", "price": 300})
	assert.Equal(t, http.StatusForbidden, response.Code)

	response = do(t, handler, manager(), http.MethodPost, "/products", map[string]any{"name": "Tablet", "price": 300})
	assert.Equal(t, http.StatusCreated, response.Code)
}

func TestOrders_ListScoping(t *testing.T) {
	handler, catalog := newTestHandler()
	catalog.CreateOrder(memberID, "Laptop")
	catalog.CreateOrder(strangerID, "Phone")

	var listed struct {
		Data []biz.Order `json:"data"`
	}

	// Managers hold read_all and see every order.
	response := do(t, handler, manager(), http.MethodGet, "/orders", nil)
	require.Equal(t, http.StatusOK, response.Code)
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &listed))
	assert.Len(t, listed.Data, 2)

	// Members hold own-scoped read and see only their own.
	response = do(t, handler, member(), http.MethodGet, "/orders", nil)
	require.Equal(t, http.StatusOK, response.Code)
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &listed))
	require.Len(t, listed.Data, 1)
	assert.Equal(t, memberID, listed.Data[0].OwnerID)
}

func TestOrders_Create(t *testing.T) {
	handler, catalog := newTestHandler()

	response := do(t, handler, member(), http.MethodPost, "/orders", map[string]any{"product": "Laptop"})
	require.Equal(t, http.StatusCreated, response.Code)

	orders := catalog.OrdersOwnedBy(memberID)
	require.Len(t, orders, 1)
	assert.Equal(t, "Laptop", orders[0].Product)
}

func TestOrders_DeleteOwnerCheck(t *testing.T) {
	handler, catalog := newTestHandler()
	own := catalog.CreateOrder(memberID, "Laptop")
	foreign := catalog.CreateOrder(strangerID, "Phone")

	// Own-scoped delete rejects foreign records.
	response := do(t, handler, member(), http.MethodDelete, fmt.Sprintf("/orders/%d", foreign.ID), nil)
	assert.Equal(t, http.StatusForbidden, response.Code)

	response = do(t, handler, member(), http.MethodDelete, fmt.Sprintf("/orders/%d", own.ID), nil)
	assert.Equal(t, http.StatusNoContent, response.Code)

	_, err := catalog.FindOrder(own.ID)
	assert.Error(t, err)

	// delete_all reaches foreign records.
	response = do(t, handler, manager(), http.MethodDelete, fmt.Sprintf("/orders/%d", foreign.ID), nil)
	assert.Equal(t, http.StatusNoContent, response.Code)

	response = do(t, handler, member(), http.MethodDelete, "/orders/424242", nil)
	assert.Equal(t, http.StatusNotFound, response.Code)
}
