package forensics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records engine activity as Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	analyzerDuration *prometheus.HistogramVec
	analyzerFailures *prometheus.CounterVec
	verdicts         *prometheus.CounterVec
}

// NewMetrics creates the engine collectors and registers them with reg.
// Passing a fresh prometheus.NewRegistry() keeps tests isolated from the
// default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		analyzerDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "imgforensics",
			Name:      "analyzer_duration_seconds",
			Help:      "Wall-clock time spent in each analyzer.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"algorithm"}),
		analyzerFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "imgforensics",
			Name:      "analyzer_failures_total",
			Help:      "Number of analyzer runs that produced a failed result.",
		}, []string{"algorithm", "reason"}),
		verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "imgforensics",
			Name:      "verdicts_total",
			Help:      "Number of verdicts produced, by risk level.",
		}, []string{"risk_level"}),
	}
}

func (m *Metrics) observeAnalyzer(id AlgorithmID, elapsed time.Duration, result AlgorithmResult) {
	if m == nil {
		return
	}
	m.analyzerDuration.WithLabelValues(id.String()).Observe(elapsed.Seconds())
	if !result.Success {
		m.analyzerFailures.WithLabelValues(id.String(), string(result.FailureReason())).Inc()
	}
}

func (m *Metrics) observeVerdict(v Verdict) {
	if m == nil {
		return
	}
	m.verdicts.WithLabelValues(v.RiskLevel.String()).Inc()
}
