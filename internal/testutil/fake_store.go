// Package testutil provides in-memory fakes shared by package tests.
package testutil

import (
	"context"
	"sync"

	stockroom "github.com/fernwood/stockroom/internal"
)

// FakeOrderStore is an in-memory implementation of stockroom.OrderStore.
// ListCalls and GetCalls count reads, which lets cache tests assert whether
// a lookup was served from the cache or fell through to the store.
type FakeOrderStore struct {
	mu        sync.Mutex
	orders    map[string]stockroom.Order
	ids       []string // insertion order
	ListCalls int
	GetCalls  int
	Err       error // when set, every method fails with it
}

// NewFakeOrderStore returns an empty FakeOrderStore.
func NewFakeOrderStore() *FakeOrderStore {
	return &FakeOrderStore{orders: make(map[string]stockroom.Order)}
}

// Add inserts an order directly, bypassing call counters.
func (s *FakeOrderStore) Add(o stockroom.Order) {
	s.mu.Lock()
	if _, ok := s.orders[o.ID]; !ok {
		s.ids = append(s.ids, o.ID)
	}
	s.orders[o.ID] = o
	s.mu.Unlock()
}

// ListOrders returns matching orders in insertion order.
func (s *FakeOrderStore) ListOrders(_ context.Context, f stockroom.OrderFilter, _ stockroom.SortSpec, page stockroom.Page) (*stockroom.OrderPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ListCalls++
	if s.Err != nil {
		return nil, s.Err
	}
	var matched []stockroom.Order
	for _, id := range s.ids {
		o := s.orders[id]
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.CustomerID != "" && o.CustomerID != f.CustomerID {
			continue
		}
		matched = append(matched, o)
	}
	return &stockroom.OrderPage{Orders: paginate(matched, page), Total: len(matched)}, nil
}

// GetOrder looks up an order by ID.
func (s *FakeOrderStore) GetOrder(_ context.Context, id string) (*stockroom.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GetCalls++
	if s.Err != nil {
		return nil, s.Err
	}
	o, ok := s.orders[id]
	if !ok {
		return nil, stockroom.ErrNotFound
	}
	return &o, nil
}

// CreateOrder stores a new order.
func (s *FakeOrderStore) CreateOrder(_ context.Context, o *stockroom.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.orders[o.ID]; ok {
		return stockroom.ErrConflict
	}
	s.ids = append(s.ids, o.ID)
	s.orders[o.ID] = *o
	return nil
}

// UpdateOrder replaces a stored order.
func (s *FakeOrderStore) UpdateOrder(_ context.Context, o *stockroom.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.orders[o.ID]; !ok {
		return stockroom.ErrNotFound
	}
	s.orders[o.ID] = *o
	return nil
}

// DeleteOrder removes an order by ID.
func (s *FakeOrderStore) DeleteOrder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.orders[id]; !ok {
		return stockroom.ErrNotFound
	}
	delete(s.orders, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	return nil
}

// FakeProductStore is an in-memory implementation of stockroom.ProductStore.
type FakeProductStore struct {
	mu        sync.Mutex
	products  map[string]stockroom.Product
	ids       []string
	ListCalls int
	GetCalls  int
	Err       error
}

// NewFakeProductStore returns an empty FakeProductStore.
func NewFakeProductStore() *FakeProductStore {
	return &FakeProductStore{products: make(map[string]stockroom.Product)}
}

// Add inserts a product directly, bypassing call counters.
func (s *FakeProductStore) Add(p stockroom.Product) {
	s.mu.Lock()
	if _, ok := s.products[p.ID]; !ok {
		s.ids = append(s.ids, p.ID)
	}
	s.products[p.ID] = p
	s.mu.Unlock()
}

// ListProducts returns matching products in insertion order.
func (s *FakeProductStore) ListProducts(_ context.Context, f stockroom.ProductFilter, _ stockroom.SortSpec, page stockroom.Page) (*stockroom.ProductPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ListCalls++
	if s.Err != nil {
		return nil, s.Err
	}
	var matched []stockroom.Product
	for _, id := range s.ids {
		p := s.products[id]
		if f.SKU != "" && p.SKU != f.SKU {
			continue
		}
		if f.InStock && p.Stock <= 0 {
			continue
		}
		matched = append(matched, p)
	}
	return &stockroom.ProductPage{Products: paginate(matched, page), Total: len(matched)}, nil
}

// GetProduct looks up a product by ID.
func (s *FakeProductStore) GetProduct(_ context.Context, id string) (*stockroom.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GetCalls++
	if s.Err != nil {
		return nil, s.Err
	}
	p, ok := s.products[id]
	if !ok {
		return nil, stockroom.ErrNotFound
	}
	return &p, nil
}

// CreateProduct stores a new product, enforcing SKU uniqueness like the
// real database does.
func (s *FakeProductStore) CreateProduct(_ context.Context, p *stockroom.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, existing := range s.products {
		if existing.SKU == p.SKU {
			return stockroom.ErrConflict
		}
	}
	s.ids = append(s.ids, p.ID)
	s.products[p.ID] = *p
	return nil
}

// UpdateProduct replaces a stored product.
func (s *FakeProductStore) UpdateProduct(_ context.Context, p *stockroom.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.products[p.ID]; !ok {
		return stockroom.ErrNotFound
	}
	s.products[p.ID] = *p
	return nil
}

// DeleteProduct removes a product by ID.
func (s *FakeProductStore) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.products[id]; !ok {
		return stockroom.ErrNotFound
	}
	delete(s.products, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	return nil
}

// paginate slices one page out of the matched rows.
func paginate[T any](rows []T, page stockroom.Page) []T {
	page = page.Normalize()
	start := page.Offset()
	if start >= len(rows) {
		return nil
	}
	end := start + page.Limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
