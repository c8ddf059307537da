// Copyright (c) 2026 Amanat. All rights reserved.
// Author: a.saparov.dev@gmail.com

// Package biz hosts the demonstration resources the permission matrix
// protects out of the box: a product catalog and customer orders.
//
// The data lives in memory. The point of the package is not persistence —
// it is a working, end-to-end example of the three authorization patterns:
//
//   - route-level guarding (products),
//   - scope-aware listing (orders: "any" sees everything, "own" sees theirs),
//   - per-record owner checks (order deletion).
package biz

import (
	"sync"

	"github.com/saparov/amanat/internal/platform/apperr"
)

// Resource codes the demo endpoints are checked against.
const (
	ResourceProducts = "products"
	ResourceOrders   = "orders"
)

// Product is a catalog entry.
type Product struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// Order is a purchase recorded against its owner.
type Order struct {
	ID      int64  `json:"id"`
	Product string `json:"product"`
	OwnerID int64  `json:"owner_id"`
}

// Catalog is the in-memory demo store. Safe for concurrent use.
type Catalog struct {
	mu sync.RWMutex

	nextID   int64
	products []Product
	orders   map[int64]Order
}

// NewCatalog creates a catalog pre-filled with the demo products.
func NewCatalog() *Catalog {
	catalog := &Catalog{orders: map[int64]Order{}}
	catalog.products = []Product{
		{ID: catalog.id(), Name: "Laptop", Price: 1000},
		{ID: catalog.id(), Name: "Phone", Price: 600},
	}
	return catalog
}

func (catalog *Catalog) id() int64 {
	catalog.nextID++
	return catalog.nextID
}

// Products returns a snapshot of the catalog.
func (catalog *Catalog) Products() []Product {
	catalog.mu.RLock()
	defer catalog.mu.RUnlock()

	return append([]Product{}, catalog.products...)
}

// AddProduct appends a catalog entry and returns it with its ID set.
func (catalog *Catalog) AddProduct(name string, price int64) Product {
	catalog.mu.Lock()
	defer catalog.mu.Unlock()

	product := Product{ID: catalog.id(), Name: name, Price: price}
	catalog.products = append(catalog.products, product)
	return product
}

// CreateOrder records an order for the owner.
func (catalog *Catalog) CreateOrder(ownerID int64, product string) Order {
	catalog.mu.Lock()
	defer catalog.mu.Unlock()

	order := Order{ID: catalog.id(), Product: product, OwnerID: ownerID}
	catalog.orders[order.ID] = order
	return order
}

// Orders returns every order, oldest first.
func (catalog *Catalog) Orders() []Order {
	catalog.mu.RLock()
	defer catalog.mu.RUnlock()

	return catalog.collect(func(Order) bool { return true })
}

// OrdersOwnedBy returns the orders belonging to the owner, oldest first.
func (catalog *Catalog) OrdersOwnedBy(ownerID int64) []Order {
	catalog.mu.RLock()
	defer catalog.mu.RUnlock()

	return catalog.collect(func(order Order) bool { return order.OwnerID == ownerID })
}

// FindOrder returns the order or [apperr.NotFound].
func (catalog *Catalog) FindOrder(id int64) (Order, error) {
	catalog.mu.RLock()
	defer catalog.mu.RUnlock()

	order, ok := catalog.orders[id]
	if !ok {
		return Order{}, apperr.NotFound("Order")
	}
	return order, nil
}

// DeleteOrder removes the order. Deleting an unknown order is not an error.
func (catalog *Catalog) DeleteOrder(id int64) {
	catalog.mu.Lock()
	defer catalog.mu.Unlock()

	delete(catalog.orders, id)
}

// collect assumes the caller holds at least the read lock.
func (catalog *Catalog) collect(keep func(Order) bool) []Order {
	result := []Order{}
	for id := int64(1); id <= catalog.nextID; id++ {
		if order, ok := catalog.orders[id]; ok && keep(order) {
			result = append(result, order)
		}
	}
	return result
}
