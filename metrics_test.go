package aisleauth

import "testing"

func TestMetricsIncAndSnapshot(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLogout)

	snap := m.Snapshot()
	if snap[MetricLoginSuccess] != 2 {
		t.Fatalf("MetricLoginSuccess = %d", snap[MetricLoginSuccess])
	}
	if snap[MetricLogout] != 1 {
		t.Fatalf("MetricLogout = %d", snap[MetricLogout])
	}
	if snap[MetricLoginFailure] != 0 {
		t.Fatalf("MetricLoginFailure = %d", snap[MetricLoginFailure])
	}
}

func TestMetricsDisabled(t *testing.T) {
	m := NewMetrics(MetricsConfig{})

	m.Inc(MetricLoginSuccess)

	snap := m.Snapshot()
	if len(snap) != 0 {
		t.Fatalf("disabled snapshot = %v", snap)
	}
}

func TestMetricsOutOfRangeIDIgnored(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(metricIDCount)
	m.Inc(metricIDCount + 100)

	snap := m.Snapshot()
	for id, n := range snap {
		if n != 0 {
			t.Fatalf("counter %d = %d", id, n)
		}
	}
}

func TestMetricsNilReceiverSafe(t *testing.T) {
	var m *Metrics

	m.Inc(MetricLoginSuccess)
	if snap := m.Snapshot(); len(snap) != 0 {
		t.Fatalf("nil snapshot = %v", snap)
	}
}
