package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fernwood/stockroom/internal/ratelimit"
)

func TestRateLimit_RejectsOverBudget(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, func(d *Deps) {
		d.Limits = ratelimit.NewRegistry(2)
		d.ShouldCache = func(*http.Request, int) bool { return false }
	})

	for i := range 2 {
		if rr := env.do(t, http.MethodGet, "/v1/orders", ""); rr.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rr.Code)
		}
	}

	rr := env.do(t, http.MethodGet, "/v1/orders", "")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("429 response missing Retry-After header")
	}
}

func TestRateLimit_SystemEndpointsExempt(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, func(d *Deps) {
		d.Limits = ratelimit.NewRegistry(1)
	})

	env.do(t, http.MethodGet, "/v1/orders", "")
	for range 3 {
		if rr := env.do(t, http.MethodGet, "/healthz", ""); rr.Code != http.StatusOK {
			t.Fatalf("healthz throttled: status = %d, want 200", rr.Code)
		}
	}
}

func TestRateLimit_ScopedPerActor(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, func(d *Deps) {
		d.Limits = ratelimit.NewRegistry(1)
		d.Actor = func(r *http.Request) string { return r.Header.Get("X-Api-Key") }
		d.ShouldCache = func(*http.Request, int) bool { return false }
	})

	doAs := func(actor string) int {
		req := httptest.NewRequest(http.MethodGet, "/v1/orders", nil)
		req.Header.Set("X-Api-Key", actor)
		rr := httptest.NewRecorder()
		env.handler.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := doAs("alice"); code != http.StatusOK {
		t.Fatalf("alice first: status = %d, want 200", code)
	}
	if code := doAs("alice"); code != http.StatusTooManyRequests {
		t.Fatalf("alice second: status = %d, want 429", code)
	}
	if code := doAs("bob"); code != http.StatusOK {
		t.Error("bob throttled by alice's budget")
	}
}
