package server

import (
	"log/slog"
	"net/http"
)

// handleCacheStats returns the cache store's statistics snapshot verbatim.
func (s *server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.Cache == nil {
		writeJSON(w, http.StatusNotFound, errorResponse("cache disabled"))
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Cache.Stats())
}

// handleCacheStatsReset zeroes the statistics counters. Entries are untouched.
func (s *server) handleCacheStatsReset(w http.ResponseWriter, r *http.Request) {
	if s.deps.Cache == nil {
		writeJSON(w, http.StatusNotFound, errorResponse("cache disabled"))
		return
	}
	s.deps.Cache.ResetStats()
	slog.LogAttrs(r.Context(), slog.LevelInfo, "cache stats reset")
	w.WriteHeader(http.StatusNoContent)
}

// handleCacheClear empties the cache out-of-band. Statistics survive so the
// operator can still see what led up to the clear.
func (s *server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if s.deps.Cache == nil {
		writeJSON(w, http.StatusNotFound, errorResponse("cache disabled"))
		return
	}
	size := s.deps.Cache.Len()
	s.deps.Cache.Clear()
	slog.LogAttrs(r.Context(), slog.LevelInfo, "cache cleared",
		slog.Int("entries_removed", size),
	)
	w.WriteHeader(http.StatusNoContent)
}
