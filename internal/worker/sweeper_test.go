package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fernwood/stockroom/internal/cache"
)

func TestSweeper_RemovesExpiredEntries(t *testing.T) {
	t.Parallel()
	store := cache.New(100, time.Minute)
	store.Set("stale", 1, time.Nanosecond)
	store.Set("live", 2, time.Hour)

	sw := NewSweeper(store, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sw.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}

	if store.Has("stale") {
		t.Error("expired entry should be swept")
	}
	if !store.Has("live") {
		t.Error("live entry must survive the sweep")
	}
}

type countingCleaner struct {
	calls atomic.Int32
}

func (c *countingCleaner) Cleanup() int {
	c.calls.Add(1)
	return 0
}

func TestSweeper_RunsPeriodically(t *testing.T) {
	t.Parallel()
	c := &countingCleaner{}
	sw := NewSweeper(c, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 65*time.Millisecond)
	defer cancel()

	if err := sw.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if n := c.calls.Load(); n < 3 {
		t.Errorf("cleanup calls = %d, want at least 3", n)
	}
}

func TestNewSweeper_DefaultInterval(t *testing.T) {
	t.Parallel()
	sw := NewSweeper(&countingCleaner{}, 0)
	if sw.interval != time.Minute {
		t.Errorf("interval = %v, want 1m default", sw.interval)
	}
}
