package analysis

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Instruments are the Prometheus collectors the analyzer updates.
type Instruments struct {
	files        *prometheus.CounterVec
	failures     *prometheus.CounterVec
	observations *prometheus.CounterVec
	duration     prometheus.Histogram
}

// NewInstruments creates the collectors and registers them when reg is not
// nil.
func NewInstruments(reg prometheus.Registerer) (*Instruments, error) {
	in := &Instruments{
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aat",
			Subsystem: "analysis",
			Name:      "files_total",
			Help:      "Log files processed, by result.",
		}, []string{"result"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aat",
			Subsystem: "analysis",
			Name:      "file_failures_total",
			Help:      "Log files that failed, by failure kind.",
		}, []string{"kind"}),
		observations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aat",
			Subsystem: "analysis",
			Name:      "observations_total",
			Help:      "Observations emitted, by table.",
		}, []string{"table"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aat",
			Subsystem: "analysis",
			Name:      "file_duration_seconds",
			Help:      "Time spent processing one log file.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	if reg == nil {
		return in, nil
	}
	for _, c := range []prometheus.Collector{in.files, in.failures, in.observations, in.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return in, nil
}

func (in *Instruments) observe(r *FileResult, seconds float64) {
	if in == nil {
		return
	}
	in.duration.Observe(seconds)
	if r.Failure != nil {
		in.files.WithLabelValues("failed").Inc()
		in.failures.WithLabelValues(r.Failure.KindName).Inc()
		return
	}
	in.files.WithLabelValues("ok").Inc()
	in.observations.WithLabelValues("approach").Add(float64(len(r.Approach)))
	in.observations.WithLabelValues("speed").Add(float64(len(r.Speed)))
}
