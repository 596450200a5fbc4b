package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AIMetrics tracks Gemini usage.
type AIMetrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	KeyRotations    prometheus.Counter
	ModelFallbacks  prometheus.Counter
}

func NewAIMetrics(reg prometheus.Registerer) *AIMetrics {
	m := &AIMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "requests_total",
			Help:      "Total number of generation requests, by model and outcome.",
		}, []string{"model", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "request_duration_seconds",
			Help:      "Duration of generation requests, by model.",
			Buckets:   []float64{.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"model"}),
		KeyRotations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "key_rotations_total",
			Help:      "Total number of API key rotations after quota exhaustion.",
		}),
		ModelFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "model_fallbacks_total",
			Help:      "Total number of switches to a fallback model.",
		}),
	}

	reg.MustRegister(m.Requests, m.RequestDuration, m.KeyRotations, m.ModelFallbacks)
	return m
}

func (m *AIMetrics) ObserveRequest(model string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(model, outcome(err)).Inc()
	m.RequestDuration.WithLabelValues(model).Observe(duration.Seconds())
}

func (m *AIMetrics) KeyRotated() {
	if m != nil {
		m.KeyRotations.Inc()
	}
}

func (m *AIMetrics) ModelFellBack() {
	if m != nil {
		m.ModelFallbacks.Inc()
	}
}
