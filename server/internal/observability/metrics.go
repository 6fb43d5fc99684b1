package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects chat request counters, split by input kind ("text" or "voice").
type Metrics struct {
	mu sync.Mutex

	requestTotal  atomic.Int64
	requestFailed atomic.Int64

	inputs map[string]*InputMetrics
}

// InputMetrics represents metrics for one input kind.
type InputMetrics struct {
	requestCount  atomic.Int64
	totalDuration atomic.Int64 // milliseconds
	errorCount    atomic.Int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{inputs: make(map[string]*InputMetrics)}
}

// RecordRequest records a finished request, its duration and whether it failed.
func (m *Metrics) RecordRequest(input string, duration time.Duration, failed bool) {
	im := m.get(input)
	m.requestTotal.Add(1)
	im.requestCount.Add(1)
	im.totalDuration.Add(duration.Milliseconds())
	if failed {
		m.requestFailed.Add(1)
		im.errorCount.Add(1)
	}
}

func (m *Metrics) get(input string) *InputMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	im, ok := m.inputs[input]
	if !ok {
		im = &InputMetrics{}
		m.inputs[input] = im
	}
	return im
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	inputs := make(map[string]*InputMetricsSnapshot, len(m.inputs))
	for input, im := range m.inputs {
		count := im.requestCount.Load()
		snapshot := &InputMetricsSnapshot{
			RequestCount: count,
			ErrorCount:   im.errorCount.Load(),
		}
		if count > 0 {
			snapshot.AverageDurationMs = im.totalDuration.Load() / count
		}
		inputs[input] = snapshot
	}

	return &MetricsSnapshot{
		RequestTotal:  m.requestTotal.Load(),
		RequestFailed: m.requestFailed.Load(),
		Inputs:        inputs,
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	RequestTotal  int64                            `json:"request_total"`
	RequestFailed int64                            `json:"request_failed"`
	Inputs        map[string]*InputMetricsSnapshot `json:"inputs"`
}

// InputMetricsSnapshot represents metrics for one input kind.
type InputMetricsSnapshot struct {
	RequestCount      int64 `json:"request_count"`
	ErrorCount        int64 `json:"error_count"`
	AverageDurationMs int64 `json:"average_duration_ms"`
}

// SuccessRate returns the success rate as a percentage (0-100).
func (s *MetricsSnapshot) SuccessRate() float64 {
	if s.RequestTotal == 0 {
		return 100.0
	}
	return float64(s.RequestTotal-s.RequestFailed) / float64(s.RequestTotal) * 100.0
}
