package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/fernwood/stockroom/internal/cache"
)

// httpEntity is the cache key family for response snapshots.
const httpEntity = "http"

// cacheHeader reports on every response whether it was served from the
// response cache.
const cacheHeader = "X-Cache"

// responseSnapshot is the stored image of a produced response. It is kept
// JSON-encoded in the cache so the stored value is a plain byte payload.
type responseSnapshot struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// defaultShouldCache caches read-only requests that produced a success.
func defaultShouldCache(r *http.Request, status int) bool {
	return r.Method == http.MethodGet && status >= 200 && status < 300
}

// responseCache is the request-boundary cache stage. Eligible reads are
// replayed from a stored snapshot without invoking the downstream handler;
// misses run the handler through a capturing writer and store the produced
// response when the predicate allows. Every cache-layer fault degrades to a
// miss -- the cache is never the reason a request fails.
func (s *server) responseCache(next http.Handler) http.Handler {
	if s.deps.Cache == nil {
		return next
	}

	shouldCache := s.deps.ShouldCache
	if shouldCache == nil {
		shouldCache = defaultShouldCache
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only read-only verbs can ever be replayed; everything else
		// passes through without touching the cache.
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}

		var actor string
		if s.deps.Actor != nil {
			actor = s.deps.Actor(r)
		}
		key := requestKey(r, actor)

		if v, ok := s.deps.Cache.Get(key); ok {
			if replaySnapshot(w, r, v) {
				if s.deps.Metrics != nil {
					s.deps.Metrics.ResponseCacheHits.Inc()
				}
				return
			}
			// Undecodable snapshot: drop it and fall through as a miss.
			s.deps.Cache.Delete(key)
		}
		if s.deps.Metrics != nil {
			s.deps.Metrics.ResponseCacheMiss.Inc()
		}

		rec := &captureWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if !shouldCache(r, rec.status) {
			return
		}
		snap := responseSnapshot{
			Status: rec.status,
			Header: snapshotHeader(w.Header()),
			Body:   rec.body.Bytes(),
		}
		data, err := json.Marshal(snap)
		if err != nil {
			// Fail open: the response already reached the client.
			slog.LogAttrs(r.Context(), slog.LevelWarn, "response snapshot failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			return
		}
		s.deps.Cache.Set(key, data, s.deps.ResponseTTL)
	})
}

// requestKey derives a deterministic cache key from the request identity:
// verb, path, query parameters in sorted order, and the optional actor.
// Two requests with identical observable inputs map to the same key.
func requestKey(r *http.Request, actor string) string {
	return cache.KeyParts{
		Entity: httpEntity,
		Op:     r.Method,
		Fields: []string{r.URL.Path, canonicalQuery(r), actor},
	}.String()
}

// canonicalQuery renders the query string with keys and values sorted so
// parameter order can't split one logical request across cache entries.
func canonicalQuery(r *http.Request) string {
	q := r.URL.Query()
	if len(q) == 0 {
		return ""
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		vals := q[k]
		sort.Strings(vals)
		for _, v := range vals {
			pairs = append(pairs, k+"="+v)
		}
	}
	return strings.Join(pairs, "&")
}

// replaySnapshot writes a stored response image to the client. Returns false
// when the stored value cannot be decoded, which the caller treats as a miss.
func replaySnapshot(w http.ResponseWriter, r *http.Request, v any) bool {
	data, ok := v.([]byte)
	if !ok {
		return false
	}
	var snap responseSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		slog.LogAttrs(r.Context(), slog.LevelWarn, "response snapshot corrupt",
			slog.String("error", err.Error()),
		)
		return false
	}
	h := w.Header()
	for k, vals := range snap.Header {
		h[k] = vals
	}
	h[cacheHeader] = []string{"HIT"}
	w.WriteHeader(snap.Status)
	if r.Method != http.MethodHead {
		w.Write(snap.Body)
	}
	return true
}

// snapshotHeader clones the produced headers minus the per-request ones that
// must not be replayed to a different caller.
func snapshotHeader(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for k, vals := range h {
		if k == requestIDHeader || k == cacheHeader {
			continue
		}
		out[k] = append([]string(nil), vals...)
	}
	return out
}

// captureWriter tees the downstream handler's response: bytes flow through to
// the client as produced while a copy accumulates for the snapshot.
type captureWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (cw *captureWriter) WriteHeader(code int) {
	if !cw.wroteHeader {
		cw.status = code
		cw.wroteHeader = true
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if !cw.wroteHeader {
		cw.wroteHeader = true
	}
	cw.body.Write(b)
	return cw.ResponseWriter.Write(b)
}

// Unwrap supports http.ResponseController passthrough.
func (cw *captureWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}
