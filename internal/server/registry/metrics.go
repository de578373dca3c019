package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the sweeper's prometheus collectors.
type Metrics struct {
	runs     prometheus.Counter
	deleted  prometheus.Counter
	failures *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics registers the collectors on reg. A nil reg builds unregistered
// collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		runs: f.NewCounter(prometheus.CounterOpts{
			Name: "filekeeper_sweep_runs_total",
			Help: "Number of orphan sweeps started.",
		}),
		deleted: f.NewCounter(prometheus.CounterOpts{
			Name: "filekeeper_sweep_files_deleted_total",
			Help: "Number of orphaned file records purged by the sweep.",
		}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "filekeeper_sweep_failures_total",
			Help: "Sweep failures by kind (run, record, storage).",
		}, []string{"kind"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "filekeeper_sweep_duration_seconds",
			Help:    "Duration of orphan sweeps in seconds.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}),
	}
}

func (m *Metrics) observe(res *SweepResult, err error, seconds float64) {
	m.runs.Inc()
	m.duration.Observe(seconds)
	if err != nil {
		m.failures.WithLabelValues("run").Inc()
	}
	if res == nil {
		return
	}
	m.deleted.Add(float64(res.Deleted))
	m.failures.WithLabelValues("record").Add(float64(res.RecordFailures))
	m.failures.WithLabelValues("storage").Add(float64(len(res.StorageFailures)))
}
