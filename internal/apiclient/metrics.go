package apiclient

import (
	"sync/atomic"
	"time"
)

// Metrics tracks calls made through one Client.
type Metrics struct {
	calls           int64
	errors          int64
	latency         int64 // total, nanoseconds
	refreshes       int64
	refreshFailures int64
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	Calls           int64
	Errors          int64
	Latency         time.Duration
	Refreshes       int64
	RefreshFailures int64
}

func (m *Metrics) snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Calls:           atomic.LoadInt64(&m.calls),
		Errors:          atomic.LoadInt64(&m.errors),
		Latency:         time.Duration(atomic.LoadInt64(&m.latency)),
		Refreshes:       atomic.LoadInt64(&m.refreshes),
		RefreshFailures: atomic.LoadInt64(&m.refreshFailures),
	}
}

func (m *Metrics) recordCall(duration time.Duration, err error) {
	atomic.AddInt64(&m.calls, 1)
	atomic.AddInt64(&m.latency, duration.Nanoseconds())
	if err != nil {
		atomic.AddInt64(&m.errors, 1)
	}
}

func (m *Metrics) recordRefresh(err error) {
	atomic.AddInt64(&m.refreshes, 1)
	if err != nil {
		atomic.AddInt64(&m.refreshFailures, 1)
	}
}

// AverageLatency returns the average latency in milliseconds
func (s MetricsSnapshot) AverageLatency() float64 {
	if s.Calls == 0 {
		return 0
	}
	return float64(s.Latency.Nanoseconds()) / float64(s.Calls) / 1e6
}

// ErrorRate returns the error rate as a percentage
func (s MetricsSnapshot) ErrorRate() float64 {
	if s.Calls == 0 {
		return 0
	}
	return float64(s.Errors) / float64(s.Calls) * 100
}
