package cache

import "strings"

// Invalidate removes the exact key and reports whether an entry was removed.
func (s *Store) Invalidate(key string) bool {
	return s.Delete(key)
}

// InvalidatePattern removes every key containing substr as a literal
// substring and returns the number removed. Write paths call this after a
// successful mutation to flush an entire family of cached reads (all list
// pages for an entity type, every byId variant, and so on).
//
// Substring matching deliberately reaches differently-shaped keys that share
// a token, at the cost of an O(n) scan; invalidation is far rarer than reads.
func (s *Store) InvalidatePattern(substr string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.entries {
		if strings.Contains(key, substr) {
			s.removeLocked(key, e)
			s.stats.deletes++
			removed++
		}
	}
	return removed
}
