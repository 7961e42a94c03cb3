// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package debugger

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors updated by debuggers. A single
// Metrics may be shared by several debuggers.
//
// A nil *Metrics is valid and collects nothing.
//
type Metrics struct {
	Steps        prometheus.Counter
	Halts        *prometheus.CounterVec
	Updates      prometheus.Histogram
	StepDuration prometheus.Histogram
	RecordErrors prometheus.Counter
}

// NewMetrics creates the debugger collectors and registers them with reg.
// It panics if they are already registered with reg.
//
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Steps: f.NewCounter(prometheus.CounterOpts{
			Namespace: "minimax",
			Subsystem: "debugger",
			Name:      "steps_total",
			Help:      "Micro-instructions executed",
		}),
		// reason: signal, error
		Halts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "minimax",
			Subsystem: "debugger",
			Name:      "halts_total",
			Help:      "Machine halts by reason",
		}, []string{"reason"}),
		Updates: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "minimax",
			Subsystem: "debugger",
			Name:      "settle_updates",
			Help:      "Part updates needed to settle the circuit in one step",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		StepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "minimax",
			Subsystem: "debugger",
			Name:      "step_duration_seconds",
			Help:      "Step execution time",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		RecordErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: "minimax",
			Subsystem: "debugger",
			Name:      "record_errors_total",
			Help:      "Snapshots that could not be recorded",
		}),
	}
}

func (m *Metrics) step(d time.Duration) {
	if m == nil {
		return
	}
	m.Steps.Inc()
	m.StepDuration.Observe(d.Seconds())
}

func (m *Metrics) halt(reason string) {
	if m != nil {
		m.Halts.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) updates(n int) {
	if m != nil {
		m.Updates.Observe(float64(n))
	}
}

func (m *Metrics) recordError() {
	if m != nil {
		m.RecordErrors.Inc()
	}
}
