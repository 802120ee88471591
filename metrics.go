package aisleauth

import "sync/atomic"

// MetricID identifies one counter in the in-process metrics system.
type MetricID uint16

const (
	// MetricLoginSuccess counts logins settled via the gateway's accepted result.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFallback counts logins settled by the local fallback path.
	MetricLoginFallback
	// MetricLoginFailure counts logins rejected on both paths.
	MetricLoginFailure
	// MetricGatewayUnavailable counts gateway calls that failed at transport level.
	MetricGatewayUnavailable
	// MetricSignupSuccess counts created accounts (either path).
	MetricSignupSuccess
	// MetricSignupDuplicate counts signups rejected for an existing email.
	MetricSignupDuplicate
	// MetricSignupFailure counts signups rejected for any other reason.
	MetricSignupFailure
	// MetricLogout counts logouts.
	MetricLogout
	// MetricResetRequested counts opened password-reset challenges.
	MetricResetRequested
	// MetricResetCompleted counts committed password resets.
	MetricResetCompleted
	// MetricResetFailed counts rejected reset requests or completions.
	MetricResetFailed
	// MetricOTPAccepted counts reset codes passing the length check.
	MetricOTPAccepted
	// MetricOTPRejected counts reset codes failing the length check.
	MetricOTPRejected
	// MetricChangeStaged counts staged change-password challenges.
	MetricChangeStaged
	// MetricChangeRejected counts rejected change-password attempts.
	MetricChangeRejected
	// MetricChangeCommitted counts committed password changes.
	MetricChangeCommitted
	// MetricProfileUpdated counts profile updates.
	MetricProfileUpdated
	// MetricSessionRestored counts sessions recovered from the session store.
	MetricSessionRestored

	metricIDCount
)

// Metrics holds atomic counters, one per MetricID. When disabled all
// operations are no-ops.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]atomic.Uint64
}

// NewMetrics creates a Metrics instance per cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc increments the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot map[MetricID]uint64

// Snapshot copies every counter. Disabled instances return an empty map.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := make(MetricsSnapshot, metricIDCount)
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap[id] = m.counters[id].Load()
	}
	return snap
}
