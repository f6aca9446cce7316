package framing

import (
	"sync/atomic"

	"github.com/sony/gobreaker/v2"
)

// Stats contains statistics about a Processor.
// Snapshots are safe to take from any goroutine.
//
// For Prometheus integration, expose these as:
//   - Counters: BytesIn, Messages, SkippedFrames, Compactions, Shrinks, Failures
//   - Gauges: Buffered, PeakBuffered, Capacity
type Stats struct {
	BytesIn       uint64 // Bytes handed to Process
	Messages      uint64 // Messages delivered to sinks, Finish included
	SkippedFrames uint64 // Decode calls that consumed bytes without a message
	Compactions   uint64 // Unconsumed bytes moved to the front of the buffer
	Shrinks       uint64 // Buffer reallocated to a smaller size
	Failures      uint64 // Malformed frames and ceiling violations

	Buffered     int64 // Unconsumed bytes after the last call
	PeakBuffered int64 // Largest Buffered ever observed
	Capacity     int64 // Current buffer allocation
}

type statsCollector struct {
	stats Stats
}

func (c *statsCollector) recordBytesIn(n int) {
	atomic.AddUint64(&c.stats.BytesIn, uint64(n))
}

func (c *statsCollector) recordMessage() {
	atomic.AddUint64(&c.stats.Messages, 1)
}

func (c *statsCollector) recordSkip() {
	atomic.AddUint64(&c.stats.SkippedFrames, 1)
}

func (c *statsCollector) recordCompaction() {
	atomic.AddUint64(&c.stats.Compactions, 1)
}

func (c *statsCollector) recordShrink() {
	atomic.AddUint64(&c.stats.Shrinks, 1)
}

func (c *statsCollector) recordFailure() {
	atomic.AddUint64(&c.stats.Failures, 1)
}

// observe records the buffer gauges. Only the owning goroutine writes them.
func (c *statsCollector) observe(buffered, capacity int) {
	atomic.StoreInt64(&c.stats.Buffered, int64(buffered))
	atomic.StoreInt64(&c.stats.Capacity, int64(capacity))
	if int64(buffered) > atomic.LoadInt64(&c.stats.PeakBuffered) {
		atomic.StoreInt64(&c.stats.PeakBuffered, int64(buffered))
	}
}

func (c *statsCollector) snapshot() Stats {
	return Stats{
		BytesIn:       atomic.LoadUint64(&c.stats.BytesIn),
		Messages:      atomic.LoadUint64(&c.stats.Messages),
		SkippedFrames: atomic.LoadUint64(&c.stats.SkippedFrames),
		Compactions:   atomic.LoadUint64(&c.stats.Compactions),
		Shrinks:       atomic.LoadUint64(&c.stats.Shrinks),
		Failures:      atomic.LoadUint64(&c.stats.Failures),
		Buffered:      atomic.LoadInt64(&c.stats.Buffered),
		PeakBuffered:  atomic.LoadInt64(&c.stats.PeakBuffered),
		Capacity:      atomic.LoadInt64(&c.stats.Capacity),
	}
}

// ClientStats contains statistics about a Client.
//
// For Prometheus integration, expose these as:
//   - Counters: RoundTrips, Errors, BreakerRejections, CreatedConns, DestroyedConns
//   - Gauges: TotalConns, IdleConns, ActiveConns, BreakerState
type ClientStats struct {
	RoundTrips        uint64 // RoundTrip calls
	Errors            uint64 // RoundTrip calls that returned an error
	BreakerRejections uint64 // Calls refused by an open or half-open breaker
	CreatedConns      uint64 // Connections dialled
	DestroyedConns    uint64 // Connections closed by the pool

	TotalConns  int32 // Connections in the pool (active + idle)
	IdleConns   int32 // Idle connections
	ActiveConns int32 // Connections currently in use

	BreakerState gobreaker.State // StateClosed when no breaker is configured
}

type clientStatsCollector struct {
	roundTrips        atomic.Uint64
	errors            atomic.Uint64
	breakerRejections atomic.Uint64
	createdConns      atomic.Uint64
	destroyedConns    atomic.Uint64
}

func (c *clientStatsCollector) recordRoundTrip(err error) {
	c.roundTrips.Add(1)
	if err != nil {
		c.errors.Add(1)
	}
}
