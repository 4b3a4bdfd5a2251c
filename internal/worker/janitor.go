package worker

import (
	"context"
	"log/slog"
	"time"
)

// StaleEvicter is the limiter surface the janitor consumes. Satisfied by
// *ratelimit.Registry.
type StaleEvicter interface {
	EvictStale(cutoff time.Time) int
}

// LimiterJanitor drops rate limiter buckets for clients that have gone
// quiet, so the per-client map does not grow without bound.
type LimiterJanitor struct {
	limits   StaleEvicter
	interval time.Duration
	maxIdle  time.Duration
}

// NewLimiterJanitor creates a janitor over the given limiter registry.
func NewLimiterJanitor(limits StaleEvicter, interval time.Duration) *LimiterJanitor {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &LimiterJanitor{limits: limits, interval: interval, maxIdle: 15 * time.Minute}
}

// Run evicts stale limiters on a fixed interval until ctx is cancelled.
func (w *LimiterJanitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if evicted := w.limits.EvictStale(time.Now().Add(-w.maxIdle)); evicted > 0 {
				slog.LogAttrs(ctx, slog.LevelDebug, "stale limiters evicted",
					slog.Int("evicted", evicted),
				)
			}
		}
	}
}
