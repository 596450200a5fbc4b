package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AnalysisMetrics tracks comment analysis runs and YouTube API usage.
type AnalysisMetrics struct {
	RunsTotal        *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	CommentsAnalyzed prometheus.Histogram
	YouTubeRequests  *prometheus.CounterVec
}

func NewAnalysisMetrics(reg prometheus.Registerer) *AnalysisMetrics {
	m := &AnalysisMetrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Total number of analysis runs, by source and outcome.",
		}, []string{"source", "outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "run_duration_seconds",
			Help:      "Duration of a full fetch and analyze run.",
			Buckets:   prometheus.DefBuckets,
		}),
		CommentsAnalyzed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "comments_per_run",
			Help:      "Number of comments analyzed per run.",
			Buckets:   []float64{0, 10, 25, 50, 100, 200, 500},
		}),
		YouTubeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "youtube",
			Name:      "requests_total",
			Help:      "Total number of YouTube Data API calls, by call and outcome.",
		}, []string{"call", "outcome"}),
	}

	reg.MustRegister(m.RunsTotal, m.RunDuration, m.CommentsAnalyzed, m.YouTubeRequests)
	return m
}

// ObserveRun records one analysis run.
func (m *AnalysisMetrics) ObserveRun(source string, comments int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(source, outcome(err)).Inc()
	if err == nil {
		m.RunDuration.Observe(duration.Seconds())
		m.CommentsAnalyzed.Observe(float64(comments))
	}
}

// ObserveYouTube records one YouTube API call.
func (m *AnalysisMetrics) ObserveYouTube(call string, err error) {
	if m != nil {
		m.YouTubeRequests.WithLabelValues(call, outcome(err)).Inc()
	}
}
