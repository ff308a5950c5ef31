package reliability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics counts request outcomes for the process lifetime. All methods are
// safe for concurrent use.
type Metrics struct {
	total       atomic.Int64
	successful  atomic.Int64
	enhanced    atomic.Int64
	fallbacks   atomic.Int64
	emergencies atomic.Int64

	mu      sync.Mutex
	meanMs  float64
	samples int64
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	TotalRequests          int64   `json:"total_requests"`
	SuccessfulResponses    int64   `json:"successful_responses"`
	EnhancedResponses      int64   `json:"enhanced_responses"`
	FallbacksUsed          int64   `json:"fallbacks_used"`
	EmergencyTemplatesUsed int64   `json:"emergency_templates_used"`
	AverageResponseTimeMs  float64 `json:"average_response_time_ms"`
}

// NewMetrics returns zeroed metrics.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Record counts one completed request served by tier.
func (m *Metrics) Record(tier Tier, elapsed time.Duration) {
	m.total.Add(1)
	m.successful.Add(1)
	switch tier {
	case TierEnhanced:
		m.enhanced.Add(1)
	case TierFallback:
		m.fallbacks.Add(1)
	case TierEmergency:
		m.emergencies.Add(1)
	}

	ms := float64(elapsed) / float64(time.Millisecond)
	m.mu.Lock()
	m.samples++
	m.meanMs += (ms - m.meanMs) / float64(m.samples)
	m.mu.Unlock()
}

// Snapshot returns the current values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		TotalRequests:          m.total.Load(),
		SuccessfulResponses:    m.successful.Load(),
		EnhancedResponses:      m.enhanced.Load(),
		FallbacksUsed:          m.fallbacks.Load(),
		EmergencyTemplatesUsed: m.emergencies.Load(),
	}
	m.mu.Lock()
	s.AverageResponseTimeMs = m.meanMs
	m.mu.Unlock()
	return s
}

// Reset zeroes every counter. It is an operator action.
func (m *Metrics) Reset() {
	m.total.Store(0)
	m.successful.Store(0)
	m.enhanced.Store(0)
	m.fallbacks.Store(0)
	m.emergencies.Store(0)
	m.mu.Lock()
	m.meanMs = 0
	m.samples = 0
	m.mu.Unlock()
}
