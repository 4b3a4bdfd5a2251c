package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	stockroom "github.com/fernwood/stockroom/internal"
)

// Bootstrap seeds the product catalog from the config file on first run.
// Existing SKUs are left alone, so re-running against a populated database
// is a no-op.
func Bootstrap(ctx context.Context, cfg *Config, store stockroom.ProductStore) error {
	for _, p := range cfg.Seed.Products {
		page, err := store.ListProducts(ctx,
			stockroom.ProductFilter{SKU: p.SKU},
			stockroom.SortSpec{Field: "created_at"},
			stockroom.Page{Number: 1, Limit: 1},
		)
		if err != nil {
			return err
		}
		if page.Total > 0 {
			continue // already exists, skip
		}

		now := time.Now().UTC()
		prod := &stockroom.Product{
			ID:         uuid.Must(uuid.NewV7()).String(),
			SKU:        p.SKU,
			Name:       p.Name,
			PriceCents: p.PriceCents,
			Stock:      p.Stock,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := store.CreateProduct(ctx, prod); err != nil {
			return err
		}
		slog.Info("bootstrapped product", "sku", p.SKU)
	}
	return nil
}
