package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	stockroom "github.com/fernwood/stockroom/internal"
)

var productSortColumns = map[string]string{
	"created_at":  "created_at",
	"updated_at":  "updated_at",
	"price_cents": "price_cents",
	"name":        "name",
	"sku":         "sku",
}

// ListProducts returns one page of matching products plus the total match count.
func (s *Store) ListProducts(ctx context.Context, f stockroom.ProductFilter, sort stockroom.SortSpec, page stockroom.Page) (*stockroom.ProductPage, error) {
	page = page.Normalize()
	where, args := productWhere(f)

	var total int
	if err := s.read.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products`+where, args...,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	query := `SELECT id, sku, name, price_cents, stock, created_at, updated_at
		FROM products` + where + ` ORDER BY ` + orderBy(productSortColumns, sort) + ` LIMIT ? OFFSET ?`
	rows, err := s.read.QueryContext(ctx, query, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := &stockroom.ProductPage{Products: []stockroom.Product{}, Total: total}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out.Products = append(out.Products, *p)
	}
	return out, rows.Err()
}

// GetProduct returns the product with the given ID, or ErrNotFound.
func (s *Store) GetProduct(ctx context.Context, id string) (*stockroom.Product, error) {
	row := s.read.QueryRowContext(ctx,
		`SELECT id, sku, name, price_cents, stock, created_at, updated_at
		 FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, stockroom.ErrNotFound
	}
	return p, err
}

// CreateProduct inserts a new product. A duplicate SKU maps to ErrConflict.
func (s *Store) CreateProduct(ctx context.Context, p *stockroom.Product) error {
	_, err := s.write.ExecContext(ctx,
		`INSERT INTO products (id, sku, name, price_cents, stock, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.SKU, p.Name, p.PriceCents, p.Stock,
		p.CreatedAt.UTC().Format(time.RFC3339), p.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return stockroom.ErrConflict
	}
	return err
}

// UpdateProduct replaces the mutable fields of an existing product.
func (s *Store) UpdateProduct(ctx context.Context, p *stockroom.Product) error {
	res, err := s.write.ExecContext(ctx,
		`UPDATE products SET sku = ?, name = ?, price_cents = ?, stock = ?, updated_at = ?
		 WHERE id = ?`,
		p.SKU, p.Name, p.PriceCents, p.Stock,
		p.UpdatedAt.UTC().Format(time.RFC3339), p.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteProduct removes a product by ID, returning ErrNotFound for unknown IDs.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.write.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func productWhere(f stockroom.ProductFilter) (string, []any) {
	var conds []string
	var args []any
	if f.SKU != "" {
		conds = append(conds, "sku = ?")
		args = append(args, f.SKU)
	}
	if f.InStock {
		conds = append(conds, "stock > 0")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanProduct(sc scanner) (*stockroom.Product, error) {
	var p stockroom.Product
	var created, updated string
	if err := sc.Scan(&p.ID, &p.SKU, &p.Name, &p.PriceCents, &p.Stock, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if p.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339, updated); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &p, nil
}
