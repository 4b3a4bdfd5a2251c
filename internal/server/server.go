// Package server implements the HTTP transport layer for the stockroom API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fernwood/stockroom/internal/app"
	"github.com/fernwood/stockroom/internal/cache"
	"github.com/fernwood/stockroom/internal/ratelimit"
	"github.com/fernwood/stockroom/internal/telemetry"
)

// ReadyChecker reports whether the system is ready to serve traffic.
type ReadyChecker func(ctx context.Context) error

// ShouldCache decides whether a produced response is stored under its
// request's cache key. The default predicate caches successful GETs.
type ShouldCache func(r *http.Request, status int) bool

// ActorFunc derives an optional caller identity from the request so that
// cache keys can be scoped per caller. Returning "" means anonymous.
type ActorFunc func(r *http.Request) string

// Deps holds all dependencies for the HTTP server.
type Deps struct {
	Orders       *app.OrderService
	Products     *app.ProductService
	Cache        *cache.Store       // nil = no response caching
	Metrics      *telemetry.Metrics // nil = no metrics
	ReadyCheck   ReadyChecker       // nil = always ready (for tests)
	ShouldCache  ShouldCache        // nil = default predicate
	Actor        ActorFunc          // nil = anonymous
	Limits       *ratelimit.Registry // nil = no rate limiting
	ResponseTTL  time.Duration      // response snapshot TTL; 0 pins, cache.DefaultTTL uses the store default
	AdminEnabled bool               // mounts /admin cache management when true
	Promhttp     http.Handler       // mounted at /metrics when non-nil
}

// New creates an http.Handler with all routes and middleware wired.
func New(deps Deps) http.Handler {
	s := &server{deps: deps}

	r := chi.NewRouter()

	// Global middleware
	r.Use(s.recovery)
	r.Use(s.requestID)
	r.Use(s.logging)
	if deps.Metrics != nil {
		r.Use(metricsMiddleware(deps.Metrics))
	}

	// System endpoints
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	if deps.Promhttp != nil {
		r.Method(http.MethodGet, "/metrics", deps.Promhttp)
	}

	// API routes; the response cache is one stage in the chain and
	// short-circuits eligible reads before the handlers run.
	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Use(s.responseCache)

		r.Get("/v1/orders", s.handleListOrders)
		r.Get("/v1/orders/{id}", s.handleGetOrder)
		r.Post("/v1/orders", s.handleCreateOrder)
		r.Put("/v1/orders/{id}", s.handleUpdateOrder)
		r.Delete("/v1/orders/{id}", s.handleDeleteOrder)

		r.Get("/v1/products", s.handleListProducts)
		r.Get("/v1/products/{id}", s.handleGetProduct)
		r.Post("/v1/products", s.handleCreateProduct)
		r.Put("/v1/products/{id}", s.handleUpdateProduct)
		r.Delete("/v1/products/{id}", s.handleDeleteProduct)
	})

	// Out-of-band cache management, non-production only.
	if deps.AdminEnabled {
		r.Get("/admin/cache/stats", s.handleCacheStats)
		r.Post("/admin/cache/stats/reset", s.handleCacheStatsReset)
		r.Post("/admin/cache/clear", s.handleCacheClear)
	}

	return r
}

type server struct {
	deps Deps
}
