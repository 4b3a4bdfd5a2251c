// Package cache implements the in-process caching engine for stockroom:
// a TTL- and capacity-bound key/value store with approximate LRU eviction,
// substring invalidation, and a read-through accessor.
package cache

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is a sentinel TTL meaning "use the store's configured default".
const DefaultTTL time.Duration = -1

// entry is one cached result. All fields are guarded by the owning
// Store's mutex; no other component mutates them.
type entry struct {
	value          any
	createdAt      time.Time
	ttl            time.Duration // 0 = never expires
	accessCount    int64
	lastAccessedAt time.Time
	timer          *time.Timer // scheduled removal; nil when ttl == 0
}

// expired reports whether the entry's TTL has elapsed at the given instant.
func (e *entry) expired(now time.Time) bool {
	return e.ttl > 0 && now.Sub(e.createdAt) >= e.ttl
}

// Store is a capacity-bound in-memory cache with per-entry TTL.
//
// A single long-lived Store is constructed at startup and handed to every
// consumer; it owns all entries and their expiry timers. Operations never
// return errors: an absent key is an ordinary (nil, false) outcome.
type Store struct {
	mu         sync.Mutex
	entries    map[string]*entry
	maxSize    int // <= 0 means unbounded
	defaultTTL time.Duration

	stats  counters
	flight singleflight.Group
}

// New creates a Store with the given capacity and default TTL.
// maxSize <= 0 disables capacity eviction; defaultTTL 0 means entries
// stored with DefaultTTL never expire.
func New(maxSize int, defaultTTL time.Duration) *Store {
	return &Store{
		entries:    make(map[string]*entry),
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
	}
}

// Set inserts or replaces the entry under key. A ttl of 0 pins the entry
// until eviction or explicit invalidation; DefaultTTL (negative) applies
// the store's configured default. Inserting a new key at capacity evicts
// the least-recently-used entry first.
func (s *Store) Set(key string, value any, ttl time.Duration) {
	if ttl < 0 {
		ttl = s.defaultTTL
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		// Replace in place: cancel the pending expiry before rearming.
		if e.timer != nil {
			e.timer.Stop()
			e.timer = nil
		}
		e.value = value
		e.createdAt = now
		e.ttl = ttl
		e.accessCount = 0
		e.lastAccessedAt = now
		if ttl > 0 {
			e.timer = s.scheduleExpiry(key, e, ttl)
		}
		s.stats.sets++
		return
	}

	if s.maxSize > 0 && len(s.entries) >= s.maxSize {
		s.evictLRULocked()
	}

	e := &entry{
		value:          value,
		createdAt:      now,
		ttl:            ttl,
		lastAccessedAt: now, // never read yet; evictLRU falls back to insert time
	}
	if ttl > 0 {
		e.timer = s.scheduleExpiry(key, e, ttl)
	}
	s.entries[key] = e
	s.stats.sets++
}

// SetDefault stores value under key with the store's configured default TTL.
func (s *Store) SetDefault(key string, value any) {
	s.Set(key, value, DefaultTTL)
}

// scheduleExpiry arms a one-shot removal for the entry. The callback
// re-checks identity under the lock so a timer that fires after its entry
// was replaced or deleted is a no-op.
func (s *Store) scheduleExpiry(key string, e *entry, ttl time.Duration) *time.Timer {
	return time.AfterFunc(ttl, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if cur, ok := s.entries[key]; ok && cur == e && cur.expired(time.Now()) {
			delete(s.entries, key)
		}
	})
}

// Get returns the value under key if present and not expired, updating the
// entry's access bookkeeping. An entry whose TTL elapsed is removed and
// reported as a miss.
func (s *Store) Get(key string) (any, bool) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		s.stats.misses++
		return nil, false
	}
	if e.expired(now) {
		s.removeLocked(key, e)
		s.stats.misses++
		return nil, false
	}
	e.accessCount++
	e.lastAccessedAt = now
	s.stats.hits++
	return e.value, true
}

// Has reports whether key holds a live entry. It shares Get's accounting,
// so a Has counts exactly one hit or miss like any other read.
func (s *Store) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Delete removes the entry under key and reports whether one was removed.
// Deleting an absent key is not an error.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	s.removeLocked(key, e)
	s.stats.deletes++
	return true
}

// Clear cancels all expiry timers and empties the store.
// Statistics are preserved; only ResetStats clears them.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.timer != nil {
			e.timer.Stop()
		}
	}
	s.entries = make(map[string]*entry)
}

// Cleanup removes every entry whose TTL has elapsed and returns the number
// removed. It bounds memory for keys that are written but rarely read, and
// is run periodically by the sweeper worker.
func (s *Store) Cleanup() int {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.entries {
		if e.expired(now) {
			s.removeLocked(key, e)
			removed++
		}
	}
	return removed
}

// Len returns the current number of entries, including any whose TTL has
// elapsed but which have not been swept yet.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// removeLocked deletes an entry and cancels its timer. Caller holds s.mu.
func (s *Store) removeLocked(key string, e *entry) {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	delete(s.entries, key)
}

// evictLRULocked removes the entry with the oldest last access, falling back
// to insert time for entries never read. Ties resolve to the first key
// encountered; exact tie order is not a correctness requirement.
// Caller holds s.mu.
func (s *Store) evictLRULocked() {
	var (
		victim  string
		oldest  time.Time
		victimE *entry
	)
	for key, e := range s.entries {
		if victimE == nil || e.lastAccessedAt.Before(oldest) {
			victim, victimE, oldest = key, e, e.lastAccessedAt
		}
	}
	if victimE == nil {
		return
	}
	s.removeLocked(victim, victimE)
	s.stats.evictions++
}

// Close tears the store down: all timers cancelled, map cleared.
func (s *Store) Close() {
	s.Clear()
}
