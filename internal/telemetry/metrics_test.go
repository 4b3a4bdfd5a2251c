package telemetry

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/fernwood/stockroom/internal/cache"
)

func TestNewMetrics_Registers(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RequestsTotal.WithLabelValues("GET", "/v1/orders", "200").Inc()
	m.ResponseCacheHits.Inc()
	m.InvalidationsTotal.WithLabelValues("orders").Add(2)

	if got := testutil.ToFloat64(m.ResponseCacheHits); got != 1 {
		t.Errorf("response cache hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.InvalidationsTotal.WithLabelValues("orders")); got != 2 {
		t.Errorf("invalidations = %v, want 2", got)
	}
}

func TestNewMetrics_DuplicateRegistrationPanics(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	NewMetrics(reg)

	defer func() {
		if recover() == nil {
			t.Error("second registration should panic")
		}
	}()
	NewMetrics(reg)
}

func TestCacheCollector(t *testing.T) {
	t.Parallel()
	store := cache.New(10, time.Minute)
	store.Set("k", "v", time.Minute)
	store.Get("k")
	store.Get("missing")

	reg := prometheus.NewRegistry()
	reg.MustRegister(NewCacheCollector(store))

	want := `
# HELP stockroom_cache_hits_total Total cache store hits.
# TYPE stockroom_cache_hits_total counter
stockroom_cache_hits_total 1
# HELP stockroom_cache_misses_total Total cache store misses.
# TYPE stockroom_cache_misses_total counter
stockroom_cache_misses_total 1
# HELP stockroom_cache_size Current number of cached entries.
# TYPE stockroom_cache_size gauge
stockroom_cache_size 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want),
		"stockroom_cache_hits_total",
		"stockroom_cache_misses_total",
		"stockroom_cache_size",
	); err != nil {
		t.Error(err)
	}
}
