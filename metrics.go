// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wavecheck

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus collectors a suite updates while it runs.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// CaseResults counts finished cases by name and verdict (pass, fail).
	CaseResults *prometheus.CounterVec

	// Mismatches counts invocations whose emulated and native results differ.
	Mismatches *prometheus.CounterVec

	// DispatchDuration observes submit-to-completion time per operation.
	DispatchDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CaseResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wavecheck_case_results_total",
			Help: "Finished test cases by verdict",
		}, []string{"case", "verdict"}),
		Mismatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wavecheck_mismatches_total",
			Help: "Invocations whose emulated and native results differ",
		}, []string{"op"}),
		DispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wavecheck_dispatch_duration_seconds",
			Help:    "Submit-to-completion time of one kernel dispatch",
			Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
		}, []string{"op"}),
	}
	if reg != nil {
		reg.MustRegister(m.CaseResults, m.Mismatches, m.DispatchDuration)
	}
	return m
}

func (m *Metrics) observeDispatch(op Op, d time.Duration) {
	if m == nil {
		return
	}
	m.DispatchDuration.WithLabelValues(op.String()).Observe(d.Seconds())
}

func (m *Metrics) observeMismatch(op Op) {
	if m == nil {
		return
	}
	m.Mismatches.WithLabelValues(op.String()).Inc()
}

func (m *Metrics) observeCase(name string, passed bool) {
	if m == nil {
		return
	}
	verdict := "fail"
	if passed {
		verdict = "pass"
	}
	m.CaseResults.WithLabelValues(name, verdict).Inc()
}
