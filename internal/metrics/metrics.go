// Package metrics provides Prometheus instrumentation for source attempts and aggregation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "heliopulse"

// Recorder holds the Prometheus instruments. A nil *Recorder is a no-op.
type Recorder struct {
	attempts        *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
	groupResults    *prometheus.CounterVec
	aggregate       prometheus.Histogram
}

// NewRecorder creates the instruments and registers them with reg.
// If reg is nil, it returns nil (no-op metrics).
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		return nil, nil
	}

	r := &Recorder{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_attempts_total",
			Help:      "Source client attempts by outcome quality",
		}, []string{"group", "source", "quality"}),
		attemptDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_attempt_duration_seconds",
			Help:      "Duration of source client attempts in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
		}, []string{"group", "source"}),
		groupResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "group_results_total",
			Help:      "Metric group results by final quality",
		}, []string{"group", "quality"}),
		aggregate: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregate_duration_seconds",
			Help:      "Duration of aggregate status requests in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		}),
	}

	for _, c := range []prometheus.Collector{r.attempts, r.attemptDuration, r.groupResults, r.aggregate} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ObserveAttempt records one source client attempt
func (r *Recorder) ObserveAttempt(group, source, quality string, d time.Duration) {
	if r == nil {
		return
	}
	r.attempts.WithLabelValues(group, source, quality).Inc()
	r.attemptDuration.WithLabelValues(group, source).Observe(d.Seconds())
}

// ObserveResult records the final quality of a metric group
func (r *Recorder) ObserveResult(group, quality string) {
	if r == nil {
		return
	}
	r.groupResults.WithLabelValues(group, quality).Inc()
}

// ObserveAggregate records the duration of one aggregate request
func (r *Recorder) ObserveAggregate(d time.Duration) {
	if r == nil {
		return
	}
	r.aggregate.Observe(d.Seconds())
}
