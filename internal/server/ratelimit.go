package server

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
)

// rateLimit rejects clients that exceed the configured requests-per-minute
// budget. Clients are identified by the Actor function when one is wired,
// falling back to the remote address.
func (s *server) rateLimit(next http.Handler) http.Handler {
	if s.deps.Limits == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := ""
		if s.deps.Actor != nil {
			client = s.deps.Actor(r)
		}
		if client == "" {
			client = remoteHost(r)
		}

		res := s.deps.Limits.Allow(client)
		if res.Allowed {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfterSeconds)+1))
		slog.LogAttrs(r.Context(), slog.LevelWarn, "rate limited",
			slog.String("client", client),
			slog.Int64("limit", res.Limit),
		)
		writeJSON(w, http.StatusTooManyRequests, errorResponse("rate limit exceeded"))
	})
}

// remoteHost strips the port from RemoteAddr so one client isn't split into
// a fresh bucket per connection.
func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
