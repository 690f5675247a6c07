package sentinelgate

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a counter or histogram in the in-process metrics
// system.
type MetricID uint16

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricLoginRateLimited
	MetricAuthorizeAllowed
	MetricAuthorizeDenied
	MetricStepUpRequired
	MetricStepUpSuccess
	MetricStepUpFailure
	MetricTenantDenied
	MetricRateLimitHit
	MetricAntiForgeryIssued
	MetricAntiForgeryRotated
	MetricAntiForgeryRejected
	MetricAuthorizeLatency

	metricIDCount
)

// Name returns the stable exposition name for the metric.
func (id MetricID) Name() string {
	switch id {
	case MetricLoginSuccess:
		return "login_success"
	case MetricLoginFailure:
		return "login_failure"
	case MetricLoginRateLimited:
		return "login_rate_limited"
	case MetricAuthorizeAllowed:
		return "authorize_allowed"
	case MetricAuthorizeDenied:
		return "authorize_denied"
	case MetricStepUpRequired:
		return "stepup_required"
	case MetricStepUpSuccess:
		return "stepup_success"
	case MetricStepUpFailure:
		return "stepup_failure"
	case MetricTenantDenied:
		return "tenant_denied"
	case MetricRateLimitHit:
		return "rate_limit_hit"
	case MetricAntiForgeryIssued:
		return "antiforgery_issued"
	case MetricAntiForgeryRotated:
		return "antiforgery_rotated"
	case MetricAntiForgeryRejected:
		return "antiforgery_rejected"
	case MetricAuthorizeLatency:
		return "authorize_latency"
	default:
		return "unknown"
	}
}

// IsHistogram reports whether the metric is a latency histogram rather than
// a plain counter.
func (id MetricID) IsHistogram() bool {
	return id == MetricAuthorizeLatency
}

// MetricIDs returns every defined metric id, for exporters.
func MetricIDs() []MetricID {
	ids := make([]MetricID, 0, metricIDCount)
	for id := MetricID(0); id < metricIDCount; id++ {
		ids = append(ids, id)
	}
	return ids
}

// latencyBucketBounds are upper bounds in microseconds; the last bucket is
// unbounded.
var latencyBucketBounds = [histogramBuckets - 1]int64{50, 100, 250, 500, 1000, 5000, 25000}

const histogramBuckets = 8

// Metrics holds atomic counters and optional latency histograms. All
// methods are no-ops when metrics are disabled.
type Metrics struct {
	enabled bool
	latency bool

	counters  [metricIDCount]atomic.Uint64
	histogram [histogramBuckets]atomic.Uint64
}

// NewMetrics creates a Metrics instance configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled: cfg.Enabled,
		latency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Inc increments a counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount || id.IsHistogram() {
		return
	}
	m.counters[id].Add(1)
}

// ObserveLatency records one authorize duration.
func (m *Metrics) ObserveLatency(d time.Duration) {
	if m == nil || !m.latency {
		return
	}
	us := d.Microseconds()
	for i, bound := range latencyBucketBounds {
		if us <= bound {
			m.histogram[i].Add(1)
			return
		}
	}
	m.histogram[histogramBuckets-1].Add(1)
}

// Snapshot is a point-in-time deep copy of all metrics.
type Snapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// Snapshot copies every counter and histogram bucket.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		Counters:   map[MetricID]uint64{},
		Histograms: map[MetricID][]uint64{},
	}
	if m == nil || !m.enabled {
		return snap
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id.IsHistogram() {
			continue
		}
		if v := m.counters[id].Load(); v > 0 {
			snap.Counters[id] = v
		}
	}

	if m.latency {
		buckets := make([]uint64, histogramBuckets)
		for i := range m.histogram {
			buckets[i] = m.histogram[i].Load()
		}
		snap.Histograms[MetricAuthorizeLatency] = buckets
	}

	return snap
}

// LatencyBucketBounds returns the histogram upper bounds in microseconds,
// excluding the final unbounded bucket.
func LatencyBucketBounds() []int64 {
	return append([]int64(nil), latencyBucketBounds[:]...)
}
