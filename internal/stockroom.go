// Package stockroom defines domain types and interfaces for the stockroom API.
// This package has no project imports -- it is the dependency root.
package stockroom

import (
	"context"
	"time"
)

// --- Orders ---

// Order is a customer order.
type Order struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	Status     string    `json:"status"` // "pending", "paid", "shipped", "cancelled"
	TotalCents int64     `json:"total_cents"`
	Currency   string    `json:"currency"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// OrderStatuses lists the accepted order status values.
var OrderStatuses = map[string]bool{
	"pending":   true,
	"paid":      true,
	"shipped":   true,
	"cancelled": true,
}

// OrderFilter narrows an order list query. Zero-value fields are ignored.
type OrderFilter struct {
	Status     string `json:"status,omitempty"`
	CustomerID string `json:"customer_id,omitempty"`
}

// --- Products ---

// Product is a catalog item.
type Product struct {
	ID         string    `json:"id"`
	SKU        string    `json:"sku"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"price_cents"`
	Stock      int       `json:"stock"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ProductFilter narrows a product list query. Zero-value fields are ignored.
type ProductFilter struct {
	SKU     string `json:"sku,omitempty"`
	InStock bool   `json:"in_stock,omitempty"`
}

// --- Query shape shared by all list endpoints ---

// SortSpec is an ordered sort instruction for a list query.
type SortSpec struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc,omitempty"`
}

// Page is a 1-based page request. Limit is the page size.
type Page struct {
	Number int `json:"page"`
	Limit  int `json:"limit"`
}

// Normalize clamps a page request into valid bounds.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Limit <= 0 || p.Limit > 100 {
		p.Limit = 50
	}
	return p
}

// Offset converts the 1-based page number to a row offset.
func (p Page) Offset() int { return (p.Number - 1) * p.Limit }

// OrderPage is one page of an order list query plus the unpaginated total.
type OrderPage struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
}

// ProductPage is one page of a product list query plus the unpaginated total.
type ProductPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}

// --- Storage interfaces (the data-store collaborator) ---

// OrderStore is the persistence interface for orders. List returns one page
// of matching rows and the total match count in a single call so the cache
// layer can snapshot both together.
type OrderStore interface {
	ListOrders(ctx context.Context, f OrderFilter, sort SortSpec, page Page) (*OrderPage, error)
	GetOrder(ctx context.Context, id string) (*Order, error)
	CreateOrder(ctx context.Context, o *Order) error
	UpdateOrder(ctx context.Context, o *Order) error
	DeleteOrder(ctx context.Context, id string) error
}

// ProductStore is the persistence interface for products.
type ProductStore interface {
	ListProducts(ctx context.Context, f ProductFilter, sort SortSpec, page Page) (*ProductPage, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id string) error
}

// --- Context keys ---

type contextKey int

const ctxKeyMeta contextKey = 0

// requestMeta bundles per-request values into a single context allocation.
// The Actor field is set later by the caching middleware via mutation of the
// same pointer, avoiding a second context.WithValue + Request.WithContext.
type requestMeta struct {
	RequestID string
	Actor     string
}

// metaFromContext returns the requestMeta stored in ctx, or nil.
func metaFromContext(ctx context.Context) *requestMeta {
	m, _ := ctx.Value(ctxKeyMeta).(*requestMeta)
	return m
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if m := metaFromContext(ctx); m != nil {
		return m.RequestID
	}
	return ""
}

// ContextWithRequestID returns a context carrying the given request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyMeta, &requestMeta{RequestID: id})
}

// ActorFromContext extracts the caller identity, or "" when anonymous.
func ActorFromContext(ctx context.Context) string {
	if m := metaFromContext(ctx); m != nil {
		return m.Actor
	}
	return ""
}

// ContextWithActor stores the actor in the existing requestMeta if present,
// avoiding a new context.WithValue allocation. Falls back to creating new
// metadata if none exists (e.g., in tests).
func ContextWithActor(ctx context.Context, actor string) context.Context {
	if m := metaFromContext(ctx); m != nil {
		m.Actor = actor
		return ctx
	}
	return context.WithValue(ctx, ctxKeyMeta, &requestMeta{Actor: actor})
}
