package fsw

import (
	"sync/atomic"
	"time"

	"github.com/flightos/fsw/internal/interfaces"
)

// LatencyBuckets defines the loop-duration histogram buckets in nanoseconds.
// Buckets cover from 10us to the period itself and beyond, logarithmic.
var LatencyBuckets = []uint64{
	10_000,      // 10us
	100_000,     // 100us
	1_000_000,   // 1ms
	2_000_000,   // 2ms (comms budget)
	5_000_000,   // 5ms
	10_000_000,  // 10ms (period)
	20_000_000,  // 20ms
	100_000_000, // 100ms
}

const numLatencyBuckets = 8

// LoopMetrics tracks the control-node loop's operational statistics: tick
// counts, per-peer miss counts, send/receive byte counters, and loop
// duration distribution.
type LoopMetrics struct {
	LoopCount  atomic.Uint64 // recorded loop ticks, including ticks with errors
	ErrorCount atomic.Uint64 // ticks that incremented error_counter

	// Per-device-node receive-miss counters, indexed by node.
	RxMiss [3]atomic.Uint64

	TxCount atomic.Uint64 // total datagrams sent
	RxCount atomic.Uint64 // total datagrams received

	TxBytes atomic.Uint64
	RxBytes atomic.Uint64

	MissedDeadlines atomic.Uint64

	TotalLoopNs atomic.Uint64 // cumulative loop body duration
	TickCount   atomic.Uint64 // for average loop duration

	LoopDurationBuckets [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewLoopMetrics creates a new metrics instance with its start time stamped.
func NewLoopMetrics() *LoopMetrics {
	m := &LoopMetrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordLoop records one completed loop tick.
func (m *LoopMetrics) RecordLoop(durationNs uint64, hadError bool) {
	m.LoopCount.Add(1)
	if hadError {
		m.ErrorCount.Add(1)
	}
	m.recordLoopDuration(durationNs)
}

// RecordRxMiss increments the miss counter for a device-node peer index (0-2).
func (m *LoopMetrics) RecordRxMiss(deviceIndex int) {
	if deviceIndex < 0 || deviceIndex >= len(m.RxMiss) {
		return
	}
	m.RxMiss[deviceIndex].Add(1)
}

// RecordSend records a successful send of one datagram.
func (m *LoopMetrics) RecordSend(bytes uint64) {
	m.TxCount.Add(1)
	m.TxBytes.Add(bytes)
}

// RecordRecv records a successful receive of one datagram.
func (m *LoopMetrics) RecordRecv(bytes uint64) {
	m.RxCount.Add(1)
	m.RxBytes.Add(bytes)
}

// RecordMissedDeadline records a periodic-thread deadline miss.
func (m *LoopMetrics) RecordMissedDeadline() {
	m.MissedDeadlines.Add(1)
}

func (m *LoopMetrics) recordLoopDuration(durationNs uint64) {
	m.TotalLoopNs.Add(durationNs)
	m.TickCount.Add(1)
	for i, bucket := range LatencyBuckets {
		if durationNs <= bucket {
			m.LoopDurationBuckets[i].Add(1)
		}
	}
}

// Stop marks the loop as stopped.
func (m *LoopMetrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// LoopMetricsSnapshot is a point-in-time copy of LoopMetrics for telemetry.
type LoopMetricsSnapshot struct {
	LoopCount       uint64
	ErrorCount      uint64
	RxMiss          [3]uint64
	TxCount         uint64
	RxCount         uint64
	TxBytes         uint64
	RxBytes         uint64
	MissedDeadlines uint64
	AvgLoopNs       uint64
	UptimeNs        uint64
	LoopDurationHistogram [numLatencyBuckets]uint64
}

// Snapshot creates a point-in-time snapshot of the metrics.
func (m *LoopMetrics) Snapshot() LoopMetricsSnapshot {
	snap := LoopMetricsSnapshot{
		LoopCount:       m.LoopCount.Load(),
		ErrorCount:      m.ErrorCount.Load(),
		TxCount:         m.TxCount.Load(),
		RxCount:         m.RxCount.Load(),
		TxBytes:         m.TxBytes.Load(),
		RxBytes:         m.RxBytes.Load(),
		MissedDeadlines: m.MissedDeadlines.Load(),
	}

	for i := range m.RxMiss {
		snap.RxMiss[i] = m.RxMiss[i].Load()
	}

	totalLoopNs := m.TotalLoopNs.Load()
	tickCount := m.TickCount.Load()
	if tickCount > 0 {
		snap.AvgLoopNs = totalLoopNs / tickCount
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LoopDurationHistogram[i] = m.LoopDurationBuckets[i].Load()
	}

	return snap
}

// Reset resets all counters (useful for tests).
func (m *LoopMetrics) Reset() {
	m.LoopCount.Store(0)
	m.ErrorCount.Store(0)
	for i := range m.RxMiss {
		m.RxMiss[i].Store(0)
	}
	m.TxCount.Store(0)
	m.RxCount.Store(0)
	m.TxBytes.Store(0)
	m.RxBytes.Store(0)
	m.MissedDeadlines.Store(0)
	m.TotalLoopNs.Store(0)
	m.TickCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LoopDurationBuckets[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// NoOpObserver is a no-op implementation of interfaces.Observer.
type NoOpObserver struct{}

func (NoOpObserver) ObserveLoop(uint64, bool)          {}
func (NoOpObserver) ObserveSend(string, uint64, bool)  {}
func (NoOpObserver) ObserveRecv(string, uint64, bool)  {}
func (NoOpObserver) ObserveMissedDeadline()            {}

// MetricsObserver implements interfaces.Observer using the built-in
// LoopMetrics.
type MetricsObserver struct {
	metrics *LoopMetrics
}

// NewMetricsObserver creates an observer that records to the given metrics.
func NewMetricsObserver(m *LoopMetrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveLoop(durationNs uint64, success bool) {
	o.metrics.RecordLoop(durationNs, !success)
}

func (o *MetricsObserver) ObserveSend(node string, bytes uint64, success bool) {
	if success {
		o.metrics.RecordSend(bytes)
	}
}

func (o *MetricsObserver) ObserveRecv(node string, bytes uint64, success bool) {
	if success {
		o.metrics.RecordRecv(bytes)
	}
}

func (o *MetricsObserver) ObserveMissedDeadline() {
	o.metrics.RecordMissedDeadline()
}

var _ interfaces.Observer = (*MetricsObserver)(nil)
var _ interfaces.Observer = (*NoOpObserver)(nil)
