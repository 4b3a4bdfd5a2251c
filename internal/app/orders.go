// Package app implements application-level services for the stockroom API.
// The list and byId read paths go through the cache store; every mutation
// flushes the entity's key family so stale pages become unreachable.
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

// ordersEntity is the cache key family for orders. The trailing colon comes
// from KeyParts serialization, so invalidating "orders:" cannot reach another
// family that merely shares the prefix token.
const ordersEntity = "orders"

// OrderService wraps order persistence with read-through caching.
type OrderService struct {
	store   stockroom.OrderStore
	cache   *cache.Store // nil disables caching
	ttl     time.Duration
	tracer  trace.Tracer
	metrics *telemetry.Metrics // nil = no metrics
}

// NewOrderService returns an OrderService backed by store. A nil cache
// disables caching; reads then go straight to the store.
func NewOrderService(store stockroom.OrderStore, c *cache.Store, ttl time.Duration, tracer trace.Tracer, m *telemetry.Metrics) *OrderService {
	return &OrderService{store: store, cache: c, ttl: ttl, tracer: tracer, metrics: m}
}

// List returns one page of orders matching the filter, served from cache
// when a live snapshot exists. The cache key encodes filter, sort, and
// pagination so every distinct query shape gets its own entry.
func (s *OrderService) List(ctx context.Context, f stockroom.OrderFilter, sort stockroom.SortSpec, page stockroom.Page) (*stockroom.OrderPage, error) {
	page = page.Normalize()
	if s.cache == nil {
		return s.store.ListOrders(ctx, f, sort, page)
	}

	key := orderListKey(f, sort, page)
	v, err := s.cache.GetOrSet(ctx, key, s.ttl, func(ctx context.Context) (any, error) {
		ctx, span := s.tracer.Start(ctx, "orders.list")
		defer span.End()
		return s.store.ListOrders(ctx, f, sort, page)
	})
	if err != nil {
		return nil, err
	}
	return v.(*stockroom.OrderPage), nil
}

// Get returns a single order by ID, read-through cached under the byId key.
func (s *OrderService) Get(ctx context.Context, id string) (*stockroom.Order, error) {
	if s.cache == nil {
		return s.store.GetOrder(ctx, id)
	}

	key := orderByIDKey(id)
	v, err := s.cache.GetOrSet(ctx, key, s.ttl, func(ctx context.Context) (any, error) {
		ctx, span := s.tracer.Start(ctx, "orders.get")
		defer span.End()
		return s.store.GetOrder(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*stockroom.Order), nil
}

// CreateOrderOpts holds all fields for order creation.
type CreateOrderOpts struct {
	CustomerID string
	Status     string
	TotalCents int64
	Currency   string
}

// Create persists a new order and flushes the orders key family.
func (s *OrderService) Create(ctx context.Context, opts CreateOrderOpts) (*stockroom.Order, error) {
	if opts.CustomerID == "" {
		return nil, fmt.Errorf("%w: customer_id is required", stockroom.ErrBadRequest)
	}
	if opts.Status == "" {
		opts.Status = "pending"
	}
	if !stockroom.OrderStatuses[opts.Status] {
		return nil, fmt.Errorf("%w: unknown status %q", stockroom.ErrBadRequest, opts.Status)
	}
	if opts.Currency == "" {
		opts.Currency = "USD"
	}

	now := time.Now().UTC()
	o := &stockroom.Order{
		ID:         uuid.Must(uuid.NewV7()).String(),
		CustomerID: opts.CustomerID,
		Status:     opts.Status,
		TotalCents: opts.TotalCents,
		Currency:   opts.Currency,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreateOrder(ctx, o); err != nil {
		return nil, err
	}
	s.invalidate(ctx, o.ID)
	return o, nil
}

// UpdateOrderOpts holds the mutable order fields; nil means "leave unchanged".
type UpdateOrderOpts struct {
	Status     *string
	TotalCents *int64
}

// Update applies the given changes and flushes the orders key family.
func (s *OrderService) Update(ctx context.Context, id string, opts UpdateOrderOpts) (*stockroom.Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if opts.Status != nil {
		if !stockroom.OrderStatuses[*opts.Status] {
			return nil, fmt.Errorf("%w: unknown status %q", stockroom.ErrBadRequest, *opts.Status)
		}
		o.Status = *opts.Status
	}
	if opts.TotalCents != nil {
		o.TotalCents = *opts.TotalCents
	}
	o.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateOrder(ctx, o); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return o, nil
}

// Delete removes an order and flushes the orders key family.
func (s *OrderService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteOrder(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// invalidate flushes every cached read for the orders family after a
// successful mutation: all list pages via the family pattern, plus the
// mutated row's byId entry explicitly.
func (s *OrderService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	removed := s.cache.InvalidatePattern(ordersEntity + ":")
	if s.cache.Invalidate(orderByIDKey(id)) {
		removed++
	}
	if s.metrics != nil {
		s.metrics.InvalidationsTotal.WithLabelValues(ordersEntity).Inc()
	}
	slog.LogAttrs(ctx, slog.LevelDebug, "cache invalidated",
		slog.String("entity", ordersEntity),
		slog.Int("removed", removed),
	)
}

func orderListKey(f stockroom.OrderFilter, sort stockroom.SortSpec, page stockroom.Page) string {
	return cache.KeyParts{
		Entity: ordersEntity,
		Op:     "list",
		Fields: []string{
			"status=" + f.Status,
			"customer=" + f.CustomerID,
			sortField(sort),
			strconv.Itoa(page.Number),
			strconv.Itoa(page.Limit),
		},
	}.String()
}

func orderByIDKey(id string) string {
	return cache.KeyParts{Entity: ordersEntity, Op: "byId", Fields: []string{id}}.String()
}

// sortField serializes a sort spec into a single key discriminator.
func sortField(sort stockroom.SortSpec) string {
	if sort.Desc {
		return sort.Field + " desc"
	}
	return sort.Field + " asc"
}
