// Package ratelimit implements per-client request rate limiting with
// lazy-refill token buckets.
package ratelimit

import (
	"sync"
	"time"
)

// Result is the outcome of a rate limit check.
type Result struct {
	Allowed           bool
	Limit             int64
	Remaining         int64
	RetryAfterSeconds float64
}

// bucket is a token bucket with lazy refill (no background goroutine).
type bucket struct {
	tokens   float64
	max      float64
	rate     float64 // tokens per second
	lastFill time.Time
}

func newBucket(limit int64) *bucket {
	return &bucket{
		tokens:   float64(limit),
		max:      float64(limit),
		rate:     float64(limit) / 60.0, // per-minute limit -> per-second rate
		lastFill: time.Now(),
	}
}

// refill adds tokens based on elapsed time since last refill.
func (b *bucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastFill).Seconds()
	if elapsed <= 0 {
		return
	}
	b.tokens = min(b.max, b.tokens+elapsed*b.rate)
	b.lastFill = now
}

// tryConsume attempts to consume one token.
func (b *bucket) tryConsume(now time.Time) (remaining int64, allowed bool) {
	b.refill(now)
	if b.tokens >= 1 {
		b.tokens--
		return int64(b.tokens), true
	}
	return 0, false
}

// retryAfter returns seconds until one token is available.
func (b *bucket) retryAfter() float64 {
	if b.tokens >= 1 {
		return 0
	}
	return (1 - b.tokens) / b.rate
}

// limiter holds the request bucket for a single client.
type limiter struct {
	mu       sync.Mutex
	bucket   *bucket
	limit    int64
	lastUsed time.Time
}

// Allow consumes one request token.
func (l *limiter) Allow() Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	l.lastUsed = now

	remaining, ok := l.bucket.tryConsume(now)
	if ok {
		return Result{Allowed: true, Limit: l.limit, Remaining: remaining}
	}
	return Result{
		Allowed:           false,
		Limit:             l.limit,
		Remaining:         0,
		RetryAfterSeconds: l.bucket.retryAfter(),
	}
}

// Registry manages per-client limiters sharing one requests-per-minute limit.
// A limit of 0 disables limiting; Allow then always permits.
type Registry struct {
	mu       sync.RWMutex
	rpm      int64
	limiters map[string]*limiter
}

// NewRegistry creates a registry enforcing rpm requests per minute per client.
func NewRegistry(rpm int64) *Registry {
	return &Registry{
		rpm:      rpm,
		limiters: make(map[string]*limiter),
	}
}

// Allow consumes one request token for the given client key.
func (r *Registry) Allow(client string) Result {
	if r.rpm <= 0 {
		return Result{Allowed: true}
	}

	r.mu.RLock()
	l, ok := r.limiters[client]
	r.mu.RUnlock()
	if !ok {
		r.mu.Lock()
		// Double-check after acquiring write lock.
		if l, ok = r.limiters[client]; !ok {
			l = &limiter{bucket: newBucket(r.rpm), limit: r.rpm, lastUsed: time.Now()}
			r.limiters[client] = l
		}
		r.mu.Unlock()
	}
	return l.Allow()
}

// EvictStale removes limiters not used since cutoff. Idle clients otherwise
// hold a full bucket in memory forever.
func (r *Registry) EvictStale(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for k, l := range r.limiters {
		l.mu.Lock()
		stale := l.lastUsed.Before(cutoff)
		l.mu.Unlock()
		if stale {
			delete(r.limiters, k)
			evicted++
		}
	}
	return evicted
}
