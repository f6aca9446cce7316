// Package metrics exposes framing statistics to Prometheus.
//
// Collectors read snapshots at scrape time, so registering a source costs
// nothing on the decode path.
package metrics

import (
	"sort"
	"sync"

	"github.com/pior/framing"
	"github.com/prometheus/client_golang/prometheus"
)

// StatsSource is implemented by framing.Processor and framing.Conn.
type StatsSource interface {
	Stats() framing.Stats
}

// ClientStatsSource is implemented by framing.Client.
type ClientStatsSource interface {
	Stats() framing.ClientStats
}

var (
	bytesInDesc = prometheus.NewDesc(
		"framing_bytes_in_total",
		"Bytes handed to the processor",
		[]string{"source"}, nil,
	)
	messagesDesc = prometheus.NewDesc(
		"framing_messages_total",
		"Messages delivered",
		[]string{"source"}, nil,
	)
	skippedDesc = prometheus.NewDesc(
		"framing_skipped_frames_total",
		"Frames consumed without producing a message",
		[]string{"source"}, nil,
	)
	compactionsDesc = prometheus.NewDesc(
		"framing_compactions_total",
		"Buffer compactions",
		[]string{"source"}, nil,
	)
	shrinksDesc = prometheus.NewDesc(
		"framing_shrinks_total",
		"Buffer reallocations to a smaller size",
		[]string{"source"}, nil,
	)
	failuresDesc = prometheus.NewDesc(
		"framing_failures_total",
		"Malformed frames and buffer ceiling violations",
		[]string{"source"}, nil,
	)
	bufferedDesc = prometheus.NewDesc(
		"framing_buffered_bytes",
		"Unconsumed bytes held by the processor",
		[]string{"source"}, nil,
	)
	peakBufferedDesc = prometheus.NewDesc(
		"framing_peak_buffered_bytes",
		"Largest number of unconsumed bytes ever held",
		[]string{"source"}, nil,
	)
	capacityDesc = prometheus.NewDesc(
		"framing_buffer_capacity_bytes",
		"Size of the buffer allocation",
		[]string{"source"}, nil,
	)
)

// ProcessorCollector reports the statistics of a set of named sources.
type ProcessorCollector struct {
	mu      sync.RWMutex
	sources map[string]StatsSource
}

var _ prometheus.Collector = (*ProcessorCollector)(nil)

func NewProcessorCollector() *ProcessorCollector {
	return &ProcessorCollector{sources: make(map[string]StatsSource)}
}

// Register adds or replaces the source reported under name.
func (c *ProcessorCollector) Register(name string, source StatsSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[name] = source
}

// Unregister stops reporting name. Its series disappear on the next scrape.
func (c *ProcessorCollector) Unregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sources, name)
}

func (c *ProcessorCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- bytesInDesc
	ch <- messagesDesc
	ch <- skippedDesc
	ch <- compactionsDesc
	ch <- shrinksDesc
	ch <- failuresDesc
	ch <- bufferedDesc
	ch <- peakBufferedDesc
	ch <- capacityDesc
}

func (c *ProcessorCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	names := make([]string, 0, len(c.sources))
	for name := range c.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	stats := make([]framing.Stats, len(names))
	for i, name := range names {
		stats[i] = c.sources[name].Stats()
	}
	c.mu.RUnlock()

	for i, name := range names {
		s := stats[i]
		ch <- prometheus.MustNewConstMetric(bytesInDesc, prometheus.CounterValue, float64(s.BytesIn), name)
		ch <- prometheus.MustNewConstMetric(messagesDesc, prometheus.CounterValue, float64(s.Messages), name)
		ch <- prometheus.MustNewConstMetric(skippedDesc, prometheus.CounterValue, float64(s.SkippedFrames), name)
		ch <- prometheus.MustNewConstMetric(compactionsDesc, prometheus.CounterValue, float64(s.Compactions), name)
		ch <- prometheus.MustNewConstMetric(shrinksDesc, prometheus.CounterValue, float64(s.Shrinks), name)
		ch <- prometheus.MustNewConstMetric(failuresDesc, prometheus.CounterValue, float64(s.Failures), name)
		ch <- prometheus.MustNewConstMetric(bufferedDesc, prometheus.GaugeValue, float64(s.Buffered), name)
		ch <- prometheus.MustNewConstMetric(peakBufferedDesc, prometheus.GaugeValue, float64(s.PeakBuffered), name)
		ch <- prometheus.MustNewConstMetric(capacityDesc, prometheus.GaugeValue, float64(s.Capacity), name)
	}
}
