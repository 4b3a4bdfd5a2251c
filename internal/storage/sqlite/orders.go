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

// orderSortColumns whitelists sortable columns; anything else falls back to
// created_at so a caller-supplied sort field can never reach the SQL text.
var orderSortColumns = map[string]string{
	"created_at":  "created_at",
	"updated_at":  "updated_at",
	"total_cents": "total_cents",
	"status":      "status",
}

// ListOrders returns one page of matching orders plus the total match count.
// The count and fetch run against the same reader so a cached page snapshot
// is internally consistent.
func (s *Store) ListOrders(ctx context.Context, f stockroom.OrderFilter, sort stockroom.SortSpec, page stockroom.Page) (*stockroom.OrderPage, error) {
	page = page.Normalize()
	where, args := orderWhere(f)

	var total int
	if err := s.read.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders`+where, args...,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	query := `SELECT id, customer_id, status, total_cents, currency, created_at, updated_at
		FROM orders` + where + ` ORDER BY ` + orderBy(orderSortColumns, sort) + ` LIMIT ? OFFSET ?`
	rows, err := s.read.QueryContext(ctx, query, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	out := &stockroom.OrderPage{Orders: []stockroom.Order{}, Total: total}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out.Orders = append(out.Orders, *o)
	}
	return out, rows.Err()
}

// GetOrder returns the order with the given ID, or ErrNotFound.
func (s *Store) GetOrder(ctx context.Context, id string) (*stockroom.Order, error) {
	row := s.read.QueryRowContext(ctx,
		`SELECT id, customer_id, status, total_cents, currency, created_at, updated_at
		 FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, stockroom.ErrNotFound
	}
	return o, err
}

// CreateOrder inserts a new order.
func (s *Store) CreateOrder(ctx context.Context, o *stockroom.Order) error {
	_, err := s.write.ExecContext(ctx,
		`INSERT INTO orders (id, customer_id, status, total_cents, currency, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.CustomerID, o.Status, o.TotalCents, o.Currency,
		o.CreatedAt.UTC().Format(time.RFC3339), o.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// UpdateOrder replaces the mutable fields of an existing order.
func (s *Store) UpdateOrder(ctx context.Context, o *stockroom.Order) error {
	res, err := s.write.ExecContext(ctx,
		`UPDATE orders SET customer_id = ?, status = ?, total_cents = ?, currency = ?, updated_at = ?
		 WHERE id = ?`,
		o.CustomerID, o.Status, o.TotalCents, o.Currency,
		o.UpdatedAt.UTC().Format(time.RFC3339), o.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteOrder removes an order by ID, returning ErrNotFound for unknown IDs.
func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	res, err := s.write.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func orderWhere(f stockroom.OrderFilter) (string, []any) {
	var conds []string
	var args []any
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.CustomerID != "" {
		conds = append(conds, "customer_id = ?")
		args = append(args, f.CustomerID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// orderBy resolves a sort spec against a column whitelist.
func orderBy(columns map[string]string, sort stockroom.SortSpec) string {
	col, ok := columns[sort.Field]
	if !ok {
		col = "created_at"
	}
	if sort.Desc {
		return col + " DESC"
	}
	return col + " ASC"
}

// scanner abstracts *sql.Row and *sql.Rows for the scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(sc scanner) (*stockroom.Order, error) {
	var o stockroom.Order
	var created, updated string
	if err := sc.Scan(&o.ID, &o.CustomerID, &o.Status, &o.TotalCents, &o.Currency, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if o.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if o.UpdatedAt, err = time.Parse(time.RFC3339, updated); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &o, nil
}

// requireRow converts a zero-row write into ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return stockroom.ErrNotFound
	}
	return nil
}
