package worker

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner is the cache surface the sweeper consumes. Satisfied by *cache.Store.
type Cleaner interface {
	Cleanup() int
}

// Sweeper periodically removes expired cache entries. Per-entry expiry timers
// already reclaim most entries; the sweep is a backstop that bounds memory
// for any entry whose timer was lost to a replace race or that predates an
// interval change, and it gives operators a steady log signal.
type Sweeper struct {
	cache    Cleaner
	interval time.Duration
}

// NewSweeper creates a sweeper over the given cache.
func NewSweeper(cache Cleaner, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{cache: cache, interval: interval}
}

// Run sweeps on a fixed interval until ctx is cancelled.
func (w *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if removed := w.cache.Cleanup(); removed > 0 {
				slog.LogAttrs(ctx, slog.LevelDebug, "cache sweep",
					slog.Int("removed", removed),
				)
			}
		}
	}
}
