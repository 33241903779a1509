package adminauth

import "sync/atomic"

// MetricID indexes one in-process counter.
type MetricID uint8

const (
	// MetricRequest counts every outbound API request, replays included.
	MetricRequest MetricID = iota
	// MetricRequestFailure counts normalized non-2xx responses.
	MetricRequestFailure
	// MetricLoginSuccess counts successful logins and registrations.
	MetricLoginSuccess
	// MetricLoginFailure counts rejected login attempts.
	MetricLoginFailure
	// MetricLogout counts explicit logouts.
	MetricLogout
	// MetricForcedLogout counts sessions torn down by refresh exhaustion.
	MetricForcedLogout
	// MetricRefreshAttempt counts refresh calls that reached the backend.
	MetricRefreshAttempt
	// MetricRefreshSuccess counts refreshes that rotated the pair.
	MetricRefreshSuccess
	// MetricRefreshFailure counts refreshes the backend rejected.
	MetricRefreshFailure
	// MetricRefreshCoalesced counts 401s that piggybacked on an in-flight
	// refresh instead of issuing their own.
	MetricRefreshCoalesced
	// MetricRefreshRateLimited counts refresh attempts stopped by the local
	// throttle.
	MetricRefreshRateLimited
	// MetricRetryAfterRefresh counts original requests replayed after a
	// successful refresh.
	MetricRetryAfterRefresh
	// MetricProfileFetch counts profile fetches (initialize and refresh).
	MetricProfileFetch
	// MetricProfileUpdate counts profile snapshot replacements.
	MetricProfileUpdate
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds the client's atomic counters. A nil or disabled Metrics is
// safe to use and records nothing.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics returns a Metrics honoring cfg.Enabled.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled: cfg.Enabled,
	}
}

// Enabled reports whether counters are being recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to the counter. No-op when disabled or out of range.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter. Disabled metrics yield an empty map.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}

	s := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, int(metricIDCount)),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return s
}
