package metrics

import "github.com/prometheus/client_golang/prometheus"

// Cache layers used as label values.
const (
	LayerMemory = "memory"
	LayerRedis  = "redis"
)

// CacheMetrics holds Prometheus metrics for the report cache.
type CacheMetrics struct {
	Hits   *prometheus.CounterVec
	Misses *prometheus.CounterVec
	Loads  *prometheus.CounterVec
}

// NewCacheMetrics creates and registers cache metrics on the given registry.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		Hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report_cache",
			Name:      "hits_total",
			Help:      "Total number of report cache hits, by layer.",
		}, []string{"layer"}),
		Misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report_cache",
			Name:      "misses_total",
			Help:      "Total number of report cache misses, by layer.",
		}, []string{"layer"}),
		Loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report_cache",
			Name:      "loads_total",
			Help:      "Total number of loader invocations, by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(m.Hits, m.Misses, m.Loads)
	return m
}

func (m *CacheMetrics) Hit(layer string) {
	if m != nil {
		m.Hits.WithLabelValues(layer).Inc()
	}
}

func (m *CacheMetrics) Miss(layer string) {
	if m != nil {
		m.Misses.WithLabelValues(layer).Inc()
	}
}

func (m *CacheMetrics) Load(err error) {
	if m != nil {
		m.Loads.WithLabelValues(outcome(err)).Inc()
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
