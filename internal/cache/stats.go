package cache

// counters is the store-owned mutable statistics record, guarded by Store.mu.
type counters struct {
	hits      uint64
	misses    uint64
	sets      uint64
	deletes   uint64
	evictions uint64
}

// Stats is a point-in-time snapshot of cache statistics, safe to hand to
// callers. HitRate is hits/(hits+misses), defined as 0 when both are 0.
type Stats struct {
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Sets      uint64  `json:"sets"`
	Deletes   uint64  `json:"deletes"`
	Evictions uint64  `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
	Size      int     `json:"size"`
	MaxSize   int     `json:"max_size"`
}

// Stats returns a snapshot reflecting state as of the call instant.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		Hits:      s.stats.hits,
		Misses:    s.stats.misses,
		Sets:      s.stats.sets,
		Deletes:   s.stats.deletes,
		Evictions: s.stats.evictions,
		Size:      len(s.entries),
		MaxSize:   s.maxSize,
	}
	if total := st.Hits + st.Misses; total > 0 {
		st.HitRate = float64(st.Hits) / float64(total)
	}
	return st
}

// ResetStats zeroes all counters. Entries are untouched.
func (s *Store) ResetStats() {
	s.mu.Lock()
	s.stats = counters{}
	s.mu.Unlock()
}
