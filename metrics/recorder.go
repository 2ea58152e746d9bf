// Package metrics exports parse statistics to Prometheus.
//
//	rec := metrics.NewRecorder("myapp")
//	prometheus.MustRegister(rec)
//	goshape.SetObserver(rec)
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	goshape "github.com/reoring/goshape"
)

// Outcome label values.
const (
	OutcomeValid   = "valid"
	OutcomeInvalid = "invalid"
	OutcomeFatal   = "fatal"
)

// Recorder is a goshape.Observer and a prometheus.Collector.
type Recorder struct {
	parses   *prometheus.CounterVec
	issues   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var (
	_ goshape.Observer     = (*Recorder)(nil)
	_ prometheus.Collector = (*Recorder)(nil)
)

// NewRecorder returns a Recorder whose metric names start with namespace.
// An empty namespace yields "goshape".
func NewRecorder(namespace string) *Recorder {
	if namespace == "" {
		namespace = "goshape"
	}
	return &Recorder{
		parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parses_total",
			Help:      "Top-level parse calls by entry mode and outcome.",
		}, []string{"mode", "outcome"}),
		issues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "issues_total",
			Help:      "Validation issues reported by top-level parse calls, by code.",
		}, []string{"code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_duration_seconds",
			Help:      "Duration of top-level parse calls.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"mode"}),
	}
}

// ObserveParse records one parse call.
func (r *Recorder) ObserveParse(ev goshape.ParseEvent) {
	mode := "sync"
	if ev.Async {
		mode = "async"
	}
	outcome := OutcomeValid
	switch {
	case ev.Err != nil:
		outcome = OutcomeFatal
	case !ev.Outcome.OK:
		outcome = OutcomeInvalid
	}
	r.parses.WithLabelValues(mode, outcome).Inc()
	for _, it := range ev.Outcome.Issues {
		r.issues.WithLabelValues(it.Code).Inc()
	}
	r.duration.WithLabelValues(mode).Observe(ev.Duration.Seconds())
}

// Describe implements prometheus.Collector.
func (r *Recorder) Describe(ch chan<- *prometheus.Desc) {
	r.parses.Describe(ch)
	r.issues.Describe(ch)
	r.duration.Describe(ch)
}

// Collect implements prometheus.Collector.
func (r *Recorder) Collect(ch chan<- prometheus.Metric) {
	r.parses.Collect(ch)
	r.issues.Collect(ch)
	r.duration.Collect(ch)
}
