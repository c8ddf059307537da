// Copyright (c) 2026 Amanat. All rights reserved.
// Author: a.saparov.dev@gmail.com

package biz

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/saparov/amanat/internal/platform/apperr"
	"github.com/saparov/amanat/internal/platform/middleware"
	requestutil "github.com/saparov/amanat/internal/platform/request"
	"github.com/saparov/amanat/internal/platform/respond"
	"github.com/saparov/amanat/internal/platform/validate"
	"github.com/saparov/amanat/internal/rbac"
)

// Handler implements the demo endpoints.
type Handler struct {
	catalog *Catalog
	engine  *rbac.Engine
	guard   *rbac.Guard
}

// NewHandler constructs a new [Handler] with its dependencies.
//
// The guard covers the route-level checks; the engine is held directly for
// the handlers that must re-evaluate with a concrete record owner.
func NewHandler(catalog *Catalog, engine *rbac.Engine, guard *rbac.Guard) *Handler {
	return &Handler{catalog: catalog, engine: engine, guard: guard}
}

// Routes returns a [chi.Router] configured with the demo routes.
//
// # Endpoints
//   - GET  /products        : Lists the catalog (read on "products").
//   - POST /products        : Adds a product (create on "products").
//   - GET  /orders          : Lists orders; scope decides whose.
//   - POST /orders          : Places an order owned by the caller.
//   - DELETE /orders/{orderID} : Deletes; owner checked per record.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(products chi.Router) {
		products.Use(handler.guard.Protect(ResourceProducts))
		products.Get("/products", handler.listProducts)
		products.Post("/products", handler.createProduct)
	})

	// Order routes evaluate the matrix in-handler: listing needs the scope
	// of the grant, and deletion needs the stored record's owner — neither
	// is available at routing time.
	router.Group(func(orders chi.Router) {
		orders.Use(middleware.RequireAuth)
		orders.Get("/orders", handler.listOrders)
		orders.Post("/orders", handler.createOrder)
		orders.Delete("/orders/{orderID}", handler.deleteOrder)
	})

	return router
}

// ── Products ─────────────────────────────────────────────────────────────────

type productRequest struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

func (handler *Handler) listProducts(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, handler.catalog.Products())
}

func (handler *Handler) createProduct(writer http.ResponseWriter, request *http.Request) {
	var payload productRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validationErr := validate.New().
		Required("name", payload.Name).
		MaxLen("name", payload.Name, 150).
		Custom("price", payload.Price < 0, "Must not be negative").
		Err()
	if validationErr != nil {
		respond.Error(writer, request, validationErr)
		return
	}

	respond.Created(writer, handler.catalog.AddProduct(payload.Name, payload.Price))
}

// ── Orders ───────────────────────────────────────────────────────────────────

type orderRequest struct {
	Product string `json:"product"`
}

func (handler *Handler) listOrders(writer http.ResponseWriter, request *http.Request) {
	identity := requestutil.Auth(request).Identity

	// An ownerless check succeeds only on the broad grant; narrowing to the
	// caller's own id picks up own-scoped read rights.
	decision, err := handler.engine.Evaluate(request.Context(), identity, ResourceOrders, rbac.ActionRead, nil)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if decision.Allowed {
		respond.OK(writer, handler.catalog.Orders())
		return
	}

	decision, err = handler.engine.Evaluate(request.Context(), identity, ResourceOrders, rbac.ActionRead, &identity.ID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if !decision.Allowed {
		respond.Error(writer, request, apperr.Forbidden("Permission denied"))
		return
	}

	respond.OK(writer, handler.catalog.OrdersOwnedBy(identity.ID))
}

func (handler *Handler) createOrder(writer http.ResponseWriter, request *http.Request) {
	identity := requestutil.Auth(request).Identity

	decision, err := handler.engine.Evaluate(request.Context(), identity, ResourceOrders, rbac.ActionCreate, nil)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if !decision.Allowed {
		respond.Error(writer, request, apperr.Forbidden("Permission denied"))
		return
	}

	var payload orderRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validationErr := validate.New().
		Required("product", payload.Product).
		MaxLen("product", payload.Product, 150).
		Err()
	if validationErr != nil {
		respond.Error(writer, request, validationErr)
		return
	}

	respond.Created(writer, handler.catalog.CreateOrder(identity.ID, payload.Product))
}

func (handler *Handler) deleteOrder(writer http.ResponseWriter, request *http.Request) {
	identity := requestutil.Auth(request).Identity

	orderID, err := requestutil.IntParam(request, "orderID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	order, err := handler.catalog.FindOrder(orderID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	decision, err := handler.engine.Evaluate(request.Context(), identity, ResourceOrders, rbac.ActionDelete, &order.OwnerID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if !decision.Allowed {
		respond.Error(writer, request, apperr.Forbidden("Permission denied"))
		return
	}

	handler.catalog.DeleteOrder(orderID)
	respond.NoContent(writer)
}
