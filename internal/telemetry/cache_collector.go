package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fernwood/stockroom/internal/cache"
)

// StatsSource exposes a point-in-time cache statistics snapshot.
// Satisfied by *cache.Store.
type StatsSource interface {
	Stats() cache.Stats
}

// CacheCollector exports the cache store's own counters as Prometheus
// metrics. It reads a snapshot per scrape instead of double-counting events,
// so the store remains the single source of truth for its statistics.
type CacheCollector struct {
	source StatsSource

	hits      *prometheus.Desc
	misses    *prometheus.Desc
	sets      *prometheus.Desc
	deletes   *prometheus.Desc
	evictions *prometheus.Desc
	hitRate   *prometheus.Desc
	size      *prometheus.Desc
	maxSize   *prometheus.Desc
}

// NewCacheCollector creates a collector over the given stats source.
func NewCacheCollector(source StatsSource) *CacheCollector {
	return &CacheCollector{
		source:    source,
		hits:      prometheus.NewDesc("stockroom_cache_hits_total", "Total cache store hits.", nil, nil),
		misses:    prometheus.NewDesc("stockroom_cache_misses_total", "Total cache store misses.", nil, nil),
		sets:      prometheus.NewDesc("stockroom_cache_sets_total", "Total cache store writes.", nil, nil),
		deletes:   prometheus.NewDesc("stockroom_cache_deletes_total", "Total cache store deletions.", nil, nil),
		evictions: prometheus.NewDesc("stockroom_cache_evictions_total", "Total capacity evictions.", nil, nil),
		hitRate:   prometheus.NewDesc("stockroom_cache_hit_rate", "Cache hit ratio in [0,1].", nil, nil),
		size:      prometheus.NewDesc("stockroom_cache_size", "Current number of cached entries.", nil, nil),
		maxSize:   prometheus.NewDesc("stockroom_cache_max_size", "Configured cache capacity.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *CacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.sets
	ch <- c.deletes
	ch <- c.evictions
	ch <- c.hitRate
	ch <- c.size
	ch <- c.maxSize
}

// Collect implements prometheus.Collector.
func (c *CacheCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.source.Stats()
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(st.Hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(st.Misses))
	ch <- prometheus.MustNewConstMetric(c.sets, prometheus.CounterValue, float64(st.Sets))
	ch <- prometheus.MustNewConstMetric(c.deletes, prometheus.CounterValue, float64(st.Deletes))
	ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(st.Evictions))
	ch <- prometheus.MustNewConstMetric(c.hitRate, prometheus.GaugeValue, st.HitRate)
	ch <- prometheus.MustNewConstMetric(c.size, prometheus.GaugeValue, float64(st.Size))
	ch <- prometheus.MustNewConstMetric(c.maxSize, prometheus.GaugeValue, float64(st.MaxSize))
}
