package app

import (
	"errors"
	"testing"
	"time"

	stockroom "github.com/fernwood/stockroom/internal"
	"github.com/fernwood/stockroom/internal/cache"
	"github.com/fernwood/stockroom/internal/telemetry"
	"github.com/fernwood/stockroom/internal/testutil"
)

func TestProductList_SecondReadServedFromCache(t *testing.T) {
	t.Parallel()

	store := testutil.NewFakeProductStore()
	store.Add(stockroom.Product{ID: "p-1", SKU: "SKU-1", Name: "mug", Stock: 3})
	c := cache.New(100, time.Minute)
	t.Cleanup(c.Close)
	svc := NewProductService(store, c, cache.DefaultTTL, telemetry.Tracer("test"), nil)

	page := stockroom.Page{Number: 1, Limit: 10}
	for range 2 {
		if _, err := svc.List(t.Context(), stockroom.ProductFilter{}, stockroom.SortSpec{}, page); err != nil {
			t.Fatalf("List: %v", err)
		}
	}
	if store.ListCalls != 1 {
		t.Errorf("ListCalls = %d, want 1", store.ListCalls)
	}
}

func TestProductCreate_RequiresSKUAndName(t *testing.T) {
	t.Parallel()

	svc := NewProductService(testutil.NewFakeProductStore(), nil, cache.DefaultTTL, telemetry.Tracer("test"), nil)

	if _, err := svc.Create(t.Context(), CreateProductOpts{Name: "mug"}); !errors.Is(err, stockroom.ErrBadRequest) {
		t.Errorf("missing sku: err = %v, want ErrBadRequest", err)
	}
	if _, err := svc.Create(t.Context(), CreateProductOpts{SKU: "SKU-1"}); !errors.Is(err, stockroom.ErrBadRequest) {
		t.Errorf("missing name: err = %v, want ErrBadRequest", err)
	}
}

func TestProductCreate_DuplicateSKUConflicts(t *testing.T) {
	t.Parallel()

	store := testutil.NewFakeProductStore()
	svc := NewProductService(store, nil, cache.DefaultTTL, telemetry.Tracer("test"), nil)

	if _, err := svc.Create(t.Context(), CreateProductOpts{SKU: "SKU-1", Name: "mug"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(t.Context(), CreateProductOpts{SKU: "SKU-1", Name: "other mug"}); !errors.Is(err, stockroom.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestProductUpdate_FlushesByIDEntry(t *testing.T) {
	t.Parallel()

	store := testutil.NewFakeProductStore()
	store.Add(stockroom.Product{ID: "p-1", SKU: "SKU-1", Name: "mug", Stock: 3})
	c := cache.New(100, time.Minute)
	t.Cleanup(c.Close)
	svc := NewProductService(store, c, cache.DefaultTTL, telemetry.Tracer("test"), nil)

	if _, err := svc.Get(t.Context(), "p-1"); err != nil {
		t.Fatalf("Get (warm): %v", err)
	}

	stock := 0
	if _, err := svc.Update(t.Context(), "p-1", UpdateProductOpts{Stock: &stock}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	p, err := svc.Get(t.Context(), "p-1")
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if p.Stock != 0 {
		t.Errorf("Stock = %d, want 0 (stale byId entry served)", p.Stock)
	}
}

// A mutation in one entity family must not evict the other family's
// cached pages when both share one store.
func TestInvalidation_DoesNotCrossEntityFamilies(t *testing.T) {
	t.Parallel()

	orders := testutil.NewFakeOrderStore()
	products := testutil.NewFakeProductStore()
	products.Add(stockroom.Product{ID: "p-1", SKU: "SKU-1", Name: "mug", Stock: 3})

	c := cache.New(100, time.Minute)
	t.Cleanup(c.Close)
	osvc := NewOrderService(orders, c, cache.DefaultTTL, telemetry.Tracer("test"), nil)
	psvc := NewProductService(products, c, cache.DefaultTTL, telemetry.Tracer("test"), nil)

	page := stockroom.Page{Number: 1, Limit: 10}
	if _, err := psvc.List(t.Context(), stockroom.ProductFilter{}, stockroom.SortSpec{}, page); err != nil {
		t.Fatalf("product List: %v", err)
	}

	if _, err := osvc.Create(t.Context(), CreateOrderOpts{CustomerID: "c-1"}); err != nil {
		t.Fatalf("order Create: %v", err)
	}

	if _, err := psvc.List(t.Context(), stockroom.ProductFilter{}, stockroom.SortSpec{}, page); err != nil {
		t.Fatalf("product List (cached): %v", err)
	}
	if products.ListCalls != 1 {
		t.Errorf("product ListCalls = %d, want 1 (order mutation flushed product pages)", products.ListCalls)
	}
}
