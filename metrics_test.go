package wavecheck

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.observeDispatch(OpActiveSum, time.Millisecond)
	m.observeMismatch(OpActiveSum)
	m.observeCase("x", true)
}

func TestMetricsRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.observeMismatch(OpActiveBallot)
	m.observeMismatch(OpActiveBallot)
	m.observeCase("ActiveBallot", false)
	m.observeDispatch(OpActiveBallot, 250*time.Microsecond)

	if got := testutil.ToFloat64(m.Mismatches.WithLabelValues("ActiveBallot")); got != 2 {
		t.Errorf("mismatches = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CaseResults.WithLabelValues("ActiveBallot", "fail")); got != 1 {
		t.Errorf("case results = %v, want 1", got)
	}
	n, err := testutil.GatherAndCount(reg, "wavecheck_dispatch_duration_seconds")
	if err != nil || n != 1 {
		t.Errorf("GatherAndCount() = %d, %v", n, err)
	}
}

func TestNewMetricsUnregistered(t *testing.T) {
	m := NewMetrics(nil)
	m.observeCase("x", true)
	if got := testutil.ToFloat64(m.CaseResults.WithLabelValues("x", "pass")); got != 1 {
		t.Errorf("case results = %v, want 1", got)
	}
}
