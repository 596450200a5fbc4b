package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "comment_analyzer"

// NewRegistry creates a Prometheus registry with Go runtime and process
// collectors plus any extra collectors owned by other packages.
func NewRegistry(extra ...prometheus.Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(extra...)
	return reg
}

// Handler returns an http.Handler that serves Prometheus metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Metrics bundles every metric group the service records.
type Metrics struct {
	HTTP     *HTTPMetrics
	Cache    *CacheMetrics
	Analysis *AnalysisMetrics
	AI       *AIMetrics
}

func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		HTTP:     NewHTTPMetrics(reg),
		Cache:    NewCacheMetrics(reg),
		Analysis: NewAnalysisMetrics(reg),
		AI:       NewAIMetrics(reg),
	}
}
