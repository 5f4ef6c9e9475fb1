package identity

import "sync/atomic"

// MetricID identifies one engine counter.
type MetricID uint8

const (
	// MetricLoginSuccess counts fully authenticated logins.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected login attempts.
	MetricLoginFailure
	// MetricLoginRateLimited counts logins refused by the attempt budget.
	MetricLoginRateLimited
	// MetricMFAChallengeIssued counts logins that entered the MFA-pending state.
	MetricMFAChallengeIssued
	// MetricMFAVerifySuccess counts completed MFA verifications.
	MetricMFAVerifySuccess
	// MetricMFAVerifyFailure counts rejected MFA verifications.
	MetricMFAVerifyFailure
	// MetricRecoveryCodeUsed counts recovery-code redemptions.
	MetricRecoveryCodeUsed
	// MetricRefreshSuccess counts refresh rotations.
	MetricRefreshSuccess
	// MetricRefreshFailure counts rejected refresh attempts.
	MetricRefreshFailure
	// MetricTokenRevoked counts jtis added to the revocation registry.
	MetricTokenRevoked

	metricCount
)

// Metrics is a fixed set of lock-free counters. All methods are safe for
// concurrent use.
type Metrics struct {
	counters [metricCount]atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot map[MetricID]uint64

func newMetrics() *Metrics {
	return &Metrics{}
}

// Inc increments one counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := make(MetricsSnapshot, metricCount)
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricCount; id++ {
		snap[id] = m.counters[id].Load()
	}
	return snap
}
