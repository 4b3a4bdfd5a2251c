package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingEvicter struct {
	calls atomic.Int32
}

func (e *countingEvicter) EvictStale(time.Time) int {
	e.calls.Add(1)
	return 1
}

func TestLimiterJanitor_RunsPeriodically(t *testing.T) {
	t.Parallel()
	e := &countingEvicter{}
	j := NewLimiterJanitor(e, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 65*time.Millisecond)
	defer cancel()

	if err := j.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if n := e.calls.Load(); n < 3 {
		t.Errorf("evict calls = %d, want at least 3", n)
	}
}

func TestNewLimiterJanitor_DefaultInterval(t *testing.T) {
	t.Parallel()
	j := NewLimiterJanitor(&countingEvicter{}, 0)
	if j.interval != 10*time.Minute {
		t.Errorf("interval = %v, want 10m default", j.interval)
	}
}
