package server

import (
	"net/http"
	"testing"
	"time"

	stockroom "github.com/fernwood/stockroom/internal"
	"github.com/fernwood/stockroom/internal/app"
	"github.com/fernwood/stockroom/internal/cache"
	"github.com/fernwood/stockroom/internal/telemetry"
	"github.com/fernwood/stockroom/internal/testutil"
)

func TestCacheStats(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.orders.Add(stockroom.Order{ID: "o-1", CustomerID: "c-1", Status: "pending"})

	// Warm the cache: one miss then one hit.
	env.do(t, http.MethodGet, "/v1/orders", "")
	env.do(t, http.MethodGet, "/v1/orders", "")

	rr := env.do(t, http.MethodGet, "/admin/cache/stats", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	stats := decodeBody[cache.Stats](t, rr)
	if stats.Sets == 0 {
		t.Error("Sets = 0, want > 0 after cached traffic")
	}
	if stats.Hits == 0 {
		t.Error("Hits = 0, want > 0 after replayed request")
	}
	if stats.Size == 0 {
		t.Error("Size = 0, want > 0")
	}
}

func TestCacheStatsReset(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.do(t, http.MethodGet, "/v1/orders", "")

	rr := env.do(t, http.MethodPost, "/admin/cache/stats/reset", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rr.Code)
	}

	stats := decodeBody[cache.Stats](t, env.do(t, http.MethodGet, "/admin/cache/stats", ""))
	if stats.Misses != 0 || stats.Sets != 0 {
		t.Errorf("counters = %+v, want zeroed after reset", stats)
	}
	if stats.Size == 0 {
		t.Error("Size = 0, want entries preserved across reset")
	}
}

func TestCacheClear(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.do(t, http.MethodGet, "/v1/orders", "")
	if env.cache.Len() == 0 {
		t.Fatal("cache empty before clear; nothing to test")
	}

	rr := env.do(t, http.MethodPost, "/admin/cache/clear", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rr.Code)
	}
	if env.cache.Len() != 0 {
		t.Errorf("Len = %d, want 0 after clear", env.cache.Len())
	}

	// Statistics survive a clear.
	stats := decodeBody[cache.Stats](t, env.do(t, http.MethodGet, "/admin/cache/stats", ""))
	if stats.Sets == 0 {
		t.Error("Sets = 0, want counters preserved across clear")
	}
}

func TestAdminRoutesDisabled(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, func(d *Deps) { d.AdminEnabled = false })
	rr := env.do(t, http.MethodGet, "/admin/cache/stats", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 when admin routes are off", rr.Code)
	}
}

func TestAdminRoutes_CacheDisabled(t *testing.T) {
	t.Parallel()

	orders := testutil.NewFakeOrderStore()
	products := testutil.NewFakeProductStore()
	tracer := telemetry.Tracer("test")
	handler := New(Deps{
		Orders:       app.NewOrderService(orders, nil, cache.DefaultTTL, tracer, nil),
		Products:     app.NewProductService(products, nil, cache.DefaultTTL, tracer, nil),
		ResponseTTL:  time.Minute,
		AdminEnabled: true,
	})
	env := &testEnv{handler: handler, orders: orders, products: products}

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/admin/cache/stats"},
		{http.MethodPost, "/admin/cache/stats/reset"},
		{http.MethodPost, "/admin/cache/clear"},
	} {
		rr := env.do(t, tc.method, tc.path, "")
		if rr.Code != http.StatusNotFound {
			t.Errorf("%s %s: status = %d, want 404 with no cache", tc.method, tc.path, rr.Code)
		}
	}
}
