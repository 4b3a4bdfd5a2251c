package cache

import (
	"context"
	"time"
)

// Producer computes the value for a key on cache miss. It is typically a
// closure over a data-store call and may block; the store imposes no timeout,
// so cancellation is the producer's (and its ctx's) responsibility.
type Producer func(ctx context.Context) (any, error)

// GetOrSet returns the cached value under key, invoking producer on a miss
// and caching its result for ttl. A producer error propagates to the caller
// unchanged and nothing is cached.
//
// Concurrent misses on the same key share a single in-flight producer call
// via singleflight rather than issuing duplicate work. A set racing with a
// completed flight is last-writer-wins; there are no compare-and-swap
// semantics.
func (s *Store) GetOrSet(ctx context.Context, key string, ttl time.Duration, producer Producer) (any, error) {
	if v, ok := s.Get(key); ok {
		return v, nil
	}

	v, err, _ := s.flight.Do(key, func() (any, error) {
		// A concurrent flight may have populated the key between our miss
		// and acquiring the flight; peek without disturbing statistics.
		if v, ok := s.peek(key); ok {
			return v, nil
		}
		v, err := producer(ctx)
		if err != nil {
			return nil, err
		}
		s.Set(key, v, ttl)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// peek returns a live value without recording a hit or miss and without
// touching access bookkeeping. Used internally by GetOrSet's double-check.
func (s *Store) peek(key string) (any, bool) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || e.expired(now) {
		return nil, false
	}
	return e.value, true
}
