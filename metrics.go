package sortx

import (
	"sync/atomic"
	"time"
)

// CycleLatencyBuckets defines the sort-cycle latency histogram buckets
// in nanoseconds. Buckets cover from 1ms to 60s with logarithmic
// spacing; a pneumatic cycle is dominated by its configured delays, so
// sub-millisecond resolution buys nothing.
var CycleLatencyBuckets = []uint64{
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	500_000_000,    // 500ms
	1_000_000_000,  // 1s
	5_000_000_000,  // 5s
	15_000_000_000, // 15s
	60_000_000_000, // 60s
}

const numCycleLatencyBuckets = 8

// Metrics tracks operational statistics for one running engine.
type Metrics struct {
	// Job creation counters, by how the destination was resolved
	JobsQRMatched  atomic.Uint64 // QR evidence won
	JobsAIMatched  atomic.Uint64 // classifier evidence won
	JobsFallback   atomic.Uint64 // one modality missed, the other covered
	JobsAllFailed  atomic.Uint64 // both modalities missed, routed to NG

	// Consumption counters
	SortCycles   atomic.Uint64 // actuated cycles completed
	PassThroughs atomic.Uint64 // pass-through traversals completed
	NGAbsorbed   atomic.Uint64 // NG heads silently absorbed by a downstream edge

	// Recovery counters
	HeadEvictions  atomic.Uint64 // queue-head timeout evictions
	OutOfOrder     atomic.Uint64 // sensor edges that did not match the head
	MaintenanceHit atomic.Uint64 // error events (envelope triggers, lane config faults)

	// Performance tracking
	TotalCycleNs atomic.Uint64 // cumulative sort-cycle wall time
	CycleCount   atomic.Uint64 // cycles measured (for average latency)

	// Latency histogram buckets (cumulative counts)
	// Each bucket[i] contains the count of cycles with latency <= CycleLatencyBuckets[i]
	CycleLatency [numCycleLatencyBuckets]atomic.Uint64

	// Engine lifecycle
	StartTime atomic.Int64 // engine start timestamp (UnixNano)
	StopTime  atomic.Int64 // engine stop timestamp (UnixNano)
}

// NewMetrics creates a new metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordJob records a job creation by its resolved status.
func (m *Metrics) RecordJob(status JobStatus) {
	switch status.Kind {
	case StatusQRMatched:
		m.JobsQRMatched.Add(1)
	case StatusAIMatched:
		m.JobsAIMatched.Add(1)
	case StatusQRMatchedAIFallback, StatusAIMatchedQRFallback:
		m.JobsFallback.Add(1)
	case StatusAllFailed:
		m.JobsAllFailed.Add(1)
	}
}

// RecordCycle records one completed cycle: actuated when sorted is
// true, pass-through otherwise.
func (m *Metrics) RecordCycle(latency time.Duration, sorted bool) {
	if sorted {
		m.SortCycles.Add(1)
	} else {
		m.PassThroughs.Add(1)
	}
	latencyNs := uint64(latency.Nanoseconds())
	m.TotalCycleNs.Add(latencyNs)
	m.CycleCount.Add(1)
	for i, bucket := range CycleLatencyBuckets {
		if latencyNs <= bucket {
			m.CycleLatency[i].Add(1)
		}
	}
}

// RecordNGAbsorbed records an NG head consumed by a downstream edge.
func (m *Metrics) RecordNGAbsorbed() { m.NGAbsorbed.Add(1) }

// RecordHeadEviction records a queue-head timeout eviction.
func (m *Metrics) RecordHeadEviction() { m.HeadEvictions.Add(1) }

// RecordOutOfOrder records a sensor edge that did not match the head.
func (m *Metrics) RecordOutOfOrder() { m.OutOfOrder.Add(1) }

// RecordMaintenance records one error event (an error-envelope trigger
// or a lane configuration fault).
func (m *Metrics) RecordMaintenance() { m.MaintenanceHit.Add(1) }

// Stop marks the engine as stopped.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time copy of engine metrics.
type MetricsSnapshot struct {
	JobsQRMatched uint64
	JobsAIMatched uint64
	JobsFallback  uint64
	JobsAllFailed uint64

	SortCycles   uint64
	PassThroughs uint64
	NGAbsorbed   uint64

	HeadEvictions  uint64
	OutOfOrder     uint64
	MaintenanceHit uint64

	// Performance
	AvgCycleNs uint64
	UptimeNs   uint64

	// Cycle latency percentiles (in nanoseconds)
	CycleP50Ns uint64
	CycleP99Ns uint64

	// Histogram bucket counts (cumulative)
	CycleLatencyHistogram [numCycleLatencyBuckets]uint64

	// Computed statistics
	TotalJobs      uint64
	TotalCycles    uint64
	ItemsPerMinute float64
	RejectRate     float64 // percentage of jobs routed to NG by double miss
}

// Snapshot creates a point-in-time snapshot of metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		JobsQRMatched:  m.JobsQRMatched.Load(),
		JobsAIMatched:  m.JobsAIMatched.Load(),
		JobsFallback:   m.JobsFallback.Load(),
		JobsAllFailed:  m.JobsAllFailed.Load(),
		SortCycles:     m.SortCycles.Load(),
		PassThroughs:   m.PassThroughs.Load(),
		NGAbsorbed:     m.NGAbsorbed.Load(),
		HeadEvictions:  m.HeadEvictions.Load(),
		OutOfOrder:     m.OutOfOrder.Load(),
		MaintenanceHit: m.MaintenanceHit.Load(),
	}

	snap.TotalJobs = snap.JobsQRMatched + snap.JobsAIMatched + snap.JobsFallback + snap.JobsAllFailed
	snap.TotalCycles = snap.SortCycles + snap.PassThroughs

	totalCycleNs := m.TotalCycleNs.Load()
	cycleCount := m.CycleCount.Load()
	if cycleCount > 0 {
		snap.AvgCycleNs = totalCycleNs / cycleCount
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	if snap.UptimeNs > 0 {
		uptimeMinutes := float64(snap.UptimeNs) / 1e9 / 60
		if uptimeMinutes > 0 {
			snap.ItemsPerMinute = float64(snap.TotalCycles) / uptimeMinutes
		}
	}

	if snap.TotalJobs > 0 {
		snap.RejectRate = float64(snap.JobsAllFailed) / float64(snap.TotalJobs) * 100.0
	}

	for i := 0; i < numCycleLatencyBuckets; i++ {
		snap.CycleLatencyHistogram[i] = m.CycleLatency[i].Load()
	}

	if cycleCount > 0 {
		snap.CycleP50Ns = m.calculatePercentile(0.50)
		snap.CycleP99Ns = m.calculatePercentile(0.99)
	}

	return snap
}

// calculatePercentile estimates the cycle latency at the given
// percentile (0.0-1.0) using linear interpolation between histogram
// buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	total := m.CycleCount.Load()
	if total == 0 {
		return 0
	}

	targetCount := uint64(float64(total) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range CycleLatencyBuckets {
		bucketCount := m.CycleLatency[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.CycleLatency[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}

	return CycleLatencyBuckets[numCycleLatencyBuckets-1]
}

// Reset resets all metrics counters (useful for testing).
func (m *Metrics) Reset() {
	m.JobsQRMatched.Store(0)
	m.JobsAIMatched.Store(0)
	m.JobsFallback.Store(0)
	m.JobsAllFailed.Store(0)
	m.SortCycles.Store(0)
	m.PassThroughs.Store(0)
	m.NGAbsorbed.Store(0)
	m.HeadEvictions.Store(0)
	m.OutOfOrder.Store(0)
	m.MaintenanceHit.Store(0)
	m.TotalCycleNs.Store(0)
	m.CycleCount.Store(0)
	for i := 0; i < numCycleLatencyBuckets; i++ {
		m.CycleLatency[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}
