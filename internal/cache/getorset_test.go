package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetOrSet_ProducerInvokedOnceAcrossCalls(t *testing.T) {
	t.Parallel()
	s := New(100, time.Minute)
	ctx := context.Background()

	var calls atomic.Int64
	producer := func(context.Context) (any, error) {
		calls.Add(1)
		return "X", nil
	}

	v, err := s.GetOrSet(ctx, "p1", time.Minute, producer)
	if err != nil {
		t.Fatal(err)
	}
	if v.(string) != "X" {
		t.Errorf("value = %v, want X", v)
	}
	if calls.Load() != 1 {
		t.Fatalf("producer calls = %d, want 1", calls.Load())
	}

	// Second call before TTL expiry: producer is never invoked.
	if _, err := s.GetOrSet(ctx, "p1", time.Minute, producer); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 1 {
		t.Errorf("producer calls = %d, want 1 after cached read", calls.Load())
	}
}

func TestGetOrSet_ProducerErrorPropagatesUncached(t *testing.T) {
	t.Parallel()
	s := New(100, time.Minute)
	boom := errors.New("upstream down")

	_, err := s.GetOrSet(context.Background(), "k", time.Minute, func(context.Context) (any, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}

	if _, ok := s.Get("k"); ok {
		t.Error("failed production must not be cached")
	}
}

func TestGetOrSet_ConcurrentMissesShareOneFlight(t *testing.T) {
	t.Parallel()
	s := New(100, time.Minute)
	ctx := context.Background()

	var calls atomic.Int64
	release := make(chan struct{})
	producer := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	const n = 8
	var wg sync.WaitGroup
	results := make([]any, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := s.GetOrSet(ctx, "hot", time.Minute, producer)
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = v
		}()
	}

	// Let the goroutines pile up on the in-flight call, then release it.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("producer calls = %d, want 1 under concurrent misses", calls.Load())
	}
	for i, v := range results {
		if v.(int) != 42 {
			t.Errorf("result[%d] = %v, want 42", i, v)
		}
	}
}

func TestGetOrSet_MissAfterTTLRecomputes(t *testing.T) {
	t.Parallel()
	s := New(100, time.Minute)
	ctx := context.Background()

	var calls atomic.Int64
	producer := func(context.Context) (any, error) {
		return calls.Add(1), nil
	}

	if _, err := s.GetOrSet(ctx, "k", 20*time.Millisecond, producer); err != nil {
		t.Fatal(err)
	}
	time.Sleep(40 * time.Millisecond)

	v, err := s.GetOrSet(ctx, "k", 20*time.Millisecond, producer)
	if err != nil {
		t.Fatal(err)
	}
	if v.(int64) != 2 {
		t.Errorf("value = %v, want recomputed 2", v)
	}
}
