package app

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	stockroom "github.com/fernwood/stockroom/internal"
	"github.com/fernwood/stockroom/internal/cache"
	"github.com/fernwood/stockroom/internal/telemetry"
)

const productsEntity = "products"

// ProductService wraps product persistence with read-through caching.
// It is deliberately shaped like OrderService: a second key family proves
// that invalidating one entity leaves the other's entries untouched.
type ProductService struct {
	store   stockroom.ProductStore
	cache   *cache.Store // nil disables caching
	ttl     time.Duration
	tracer  trace.Tracer
	metrics *telemetry.Metrics // nil = no metrics
}

// NewProductService returns a ProductService backed by store.
func NewProductService(store stockroom.ProductStore, c *cache.Store, ttl time.Duration, tracer trace.Tracer, m *telemetry.Metrics) *ProductService {
	return &ProductService{store: store, cache: c, ttl: ttl, tracer: tracer, metrics: m}
}

// List returns one page of products matching the filter, cache first.
func (s *ProductService) List(ctx context.Context, f stockroom.ProductFilter, sort stockroom.SortSpec, page stockroom.Page) (*stockroom.ProductPage, error) {
	page = page.Normalize()
	if s.cache == nil {
		return s.store.ListProducts(ctx, f, sort, page)
	}

	key := productListKey(f, sort, page)
	v, err := s.cache.GetOrSet(ctx, key, s.ttl, func(ctx context.Context) (any, error) {
		ctx, span := s.tracer.Start(ctx, "products.list")
		defer span.End()
		return s.store.ListProducts(ctx, f, sort, page)
	})
	if err != nil {
		return nil, err
	}
	return v.(*stockroom.ProductPage), nil
}

// Get returns a single product by ID, read-through cached.
func (s *ProductService) Get(ctx context.Context, id string) (*stockroom.Product, error) {
	if s.cache == nil {
		return s.store.GetProduct(ctx, id)
	}

	key := productByIDKey(id)
	v, err := s.cache.GetOrSet(ctx, key, s.ttl, func(ctx context.Context) (any, error) {
		ctx, span := s.tracer.Start(ctx, "products.get")
		defer span.End()
		return s.store.GetProduct(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*stockroom.Product), nil
}

// CreateProductOpts holds all fields for product creation.
type CreateProductOpts struct {
	SKU        string
	Name       string
	PriceCents int64
	Stock      int
}

// Create persists a new product and flushes the products key family.
func (s *ProductService) Create(ctx context.Context, opts CreateProductOpts) (*stockroom.Product, error) {
	if opts.SKU == "" || opts.Name == "" {
		return nil, fmt.Errorf("%w: sku and name are required", stockroom.ErrBadRequest)
	}

	now := time.Now().UTC()
	p := &stockroom.Product{
		ID:         uuid.Must(uuid.NewV7()).String(),
		SKU:        opts.SKU,
		Name:       opts.Name,
		PriceCents: opts.PriceCents,
		Stock:      opts.Stock,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx, p.ID)
	return p, nil
}

// UpdateProductOpts holds the mutable product fields; nil means "leave unchanged".
type UpdateProductOpts struct {
	Name       *string
	PriceCents *int64
	Stock      *int
}

// Update applies the given changes and flushes the products key family.
func (s *ProductService) Update(ctx context.Context, id string, opts UpdateProductOpts) (*stockroom.Product, error) {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if opts.Name != nil {
		p.Name = *opts.Name
	}
	if opts.PriceCents != nil {
		p.PriceCents = *opts.PriceCents
	}
	if opts.Stock != nil {
		p.Stock = *opts.Stock
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return p, nil
}

// Delete removes a product and flushes the products key family.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *ProductService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	removed := s.cache.InvalidatePattern(productsEntity + ":")
	if s.cache.Invalidate(productByIDKey(id)) {
		removed++
	}
	if s.metrics != nil {
		s.metrics.InvalidationsTotal.WithLabelValues(productsEntity).Inc()
	}
	slog.LogAttrs(ctx, slog.LevelDebug, "cache invalidated",
		slog.String("entity", productsEntity),
		slog.Int("removed", removed),
	)
}

func productListKey(f stockroom.ProductFilter, sort stockroom.SortSpec, page stockroom.Page) string {
	return cache.KeyParts{
		Entity: productsEntity,
		Op:     "list",
		Fields: []string{
			"sku=" + f.SKU,
			"in_stock=" + strconv.FormatBool(f.InStock),
			sortField(sort),
			strconv.Itoa(page.Number),
			strconv.Itoa(page.Limit),
		},
	}.String()
}

func productByIDKey(id string) string {
	return cache.KeyParts{Entity: productsEntity, Op: "byId", Fields: []string{id}}.String()
}
