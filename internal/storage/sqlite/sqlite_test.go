package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	stockroom "github.com/fernwood/stockroom/internal"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newOrder(customer, status string, total int64) *stockroom.Order {
	now := time.Now().UTC().Truncate(time.Second)
	return &stockroom.Order{
		ID:         uuid.Must(uuid.NewV7()).String(),
		CustomerID: customer,
		Status:     status,
		TotalCents: total,
		Currency:   "USD",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestOrders_CRUD(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	o := newOrder("c_1", "pending", 4200)
	if err := s.CreateOrder(ctx, o); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetOrder(ctx, o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CustomerID != "c_1" || got.TotalCents != 4200 {
		t.Errorf("got %+v", got)
	}

	o.Status = "paid"
	o.UpdatedAt = time.Now().UTC()
	if err := s.UpdateOrder(ctx, o); err != nil {
		t.Fatal(err)
	}
	got, err = s.GetOrder(ctx, o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != "paid" {
		t.Errorf("status = %q, want paid", got.Status)
	}

	if err := s.DeleteOrder(ctx, o.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetOrder(ctx, o.ID); !errors.Is(err, stockroom.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteOrder(ctx, o.ID); !errors.Is(err, stockroom.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestOrders_ListFilterAndPagination(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	for i := range 5 {
		status := "pending"
		if i%2 == 0 {
			status = "paid"
		}
		if err := s.CreateOrder(ctx, newOrder("c_1", status, int64(100*i))); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.CreateOrder(ctx, newOrder("c_2", "paid", 999)); err != nil {
		t.Fatal(err)
	}

	page, err := s.ListOrders(ctx,
		stockroom.OrderFilter{Status: "paid", CustomerID: "c_1"},
		stockroom.SortSpec{Field: "total_cents", Desc: true},
		stockroom.Page{Number: 1, Limit: 2},
	)
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 3 {
		t.Errorf("total = %d, want 3", page.Total)
	}
	if len(page.Orders) != 2 {
		t.Fatalf("rows = %d, want 2", len(page.Orders))
	}
	if page.Orders[0].TotalCents < page.Orders[1].TotalCents {
		t.Error("rows not sorted by total_cents desc")
	}

	// Second page holds the remaining match.
	page2, err := s.ListOrders(ctx,
		stockroom.OrderFilter{Status: "paid", CustomerID: "c_1"},
		stockroom.SortSpec{Field: "total_cents", Desc: true},
		stockroom.Page{Number: 2, Limit: 2},
	)
	if err != nil {
		t.Fatal(err)
	}
	if len(page2.Orders) != 1 {
		t.Errorf("page 2 rows = %d, want 1", len(page2.Orders))
	}
}

func TestOrders_ListUnknownSortFallsBack(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateOrder(ctx, newOrder("c_1", "pending", 1)); err != nil {
		t.Fatal(err)
	}
	// A hostile sort field must not reach the SQL text.
	if _, err := s.ListOrders(ctx,
		stockroom.OrderFilter{},
		stockroom.SortSpec{Field: "id; DROP TABLE orders"},
		stockroom.Page{Number: 1, Limit: 10},
	); err != nil {
		t.Fatal(err)
	}
}

func TestProducts_CRUDAndConflict(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	p := &stockroom.Product{
		ID: uuid.Must(uuid.NewV7()).String(), SKU: "WIDGET-1", Name: "Widget",
		PriceCents: 1999, Stock: 3, CreatedAt: now, UpdatedAt: now,
	}
	if err := s.CreateProduct(ctx, p); err != nil {
		t.Fatal(err)
	}

	dup := *p
	dup.ID = uuid.Must(uuid.NewV7()).String()
	if err := s.CreateProduct(ctx, &dup); !errors.Is(err, stockroom.ErrConflict) {
		t.Errorf("duplicate SKU err = %v, want ErrConflict", err)
	}

	page, err := s.ListProducts(ctx,
		stockroom.ProductFilter{InStock: true},
		stockroom.SortSpec{Field: "sku"},
		stockroom.Page{Number: 1, Limit: 10},
	)
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 || len(page.Products) != 1 {
		t.Errorf("page = %+v, want single product", page)
	}

	if err := s.DeleteProduct(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetProduct(ctx, p.ID); !errors.Is(err, stockroom.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
