package worker

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the worker.
type Metrics struct {
	JobsProcessed *prometheus.CounterVec // labels: job_type, outcome={success,error,skipped,unknown}
	Assessments   *prometheus.CounterVec // labels: band
	PointFailures prometheus.Counter

	RunDuration     prometheus.Histogram
	PredictDuration prometheus.Histogram
	LastRunSuccess  prometheus.Gauge
}

// NewMetrics creates and registers all worker metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(
		m.JobsProcessed,
		m.Assessments,
		m.PointFailures,
		m.RunDuration,
		m.PredictDuration,
		m.LastRunSuccess,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}

	return &Metrics{
		JobsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "airservice_worker",
			Name:      "jobs_processed_total",
			Help:      help("Pub/Sub jobs handled by job type and outcome."),
		}, []string{"job_type", "outcome"}),
		Assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "airservice_worker",
			Name:      "assessments_total",
			Help:      help("Point assessments by overall band."),
		}, []string{"band"}),
		PointFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "airservice_worker",
			Name:      "point_failures_total",
			Help:      help("Point assessments that failed."),
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "airservice_worker",
			Name:      "run_duration_seconds",
			Help:      help("Duration of a complete assessment run."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		PredictDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "airservice_worker",
			Name:      "predict_duration_seconds",
			Help:      help("Duration of one point prediction."),
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		LastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "airservice_worker",
			Name:      "last_run_success",
			Help:      help("1 when the last assessment run had no failed points, 0 otherwise."),
		}),
	}
}
