package metrics

import (
	"github.com/pior/framing"
	"github.com/prometheus/client_golang/prometheus"
)

// ClientCollector reports the statistics of one client, labelled by server.
type ClientCollector struct {
	source ClientStatsSource

	roundTrips        *prometheus.Desc
	errors            *prometheus.Desc
	breakerRejections *prometheus.Desc
	connsCreated      *prometheus.Desc
	connsDestroyed    *prometheus.Desc
	conns             *prometheus.Desc
	breakerState      *prometheus.Desc
}

var _ prometheus.Collector = (*ClientCollector)(nil)

func NewClientCollector(server string, source ClientStatsSource) *ClientCollector {
	labels := prometheus.Labels{"server": server}
	return &ClientCollector{
		source: source,
		roundTrips: prometheus.NewDesc(
			"framing_client_round_trips_total", "Round trips attempted", nil, labels),
		errors: prometheus.NewDesc(
			"framing_client_errors_total", "Round trips that failed", nil, labels),
		breakerRejections: prometheus.NewDesc(
			"framing_client_breaker_rejections_total", "Round trips refused by the circuit breaker", nil, labels),
		connsCreated: prometheus.NewDesc(
			"framing_client_connections_created_total", "Connections dialled", nil, labels),
		connsDestroyed: prometheus.NewDesc(
			"framing_client_connections_destroyed_total", "Connections closed by the pool", nil, labels),
		conns: prometheus.NewDesc(
			"framing_client_connections", "Pooled connections", []string{"state"}, labels), // total, active, idle
		breakerState: prometheus.NewDesc(
			"framing_client_circuit_breaker_state", "Circuit breaker state (0=closed, 1=half-open, 2=open)", nil, labels),
	}
}

func (c *ClientCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.roundTrips
	ch <- c.errors
	ch <- c.breakerRejections
	ch <- c.connsCreated
	ch <- c.connsDestroyed
	ch <- c.conns
	ch <- c.breakerState
}

func (c *ClientCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()

	ch <- prometheus.MustNewConstMetric(c.roundTrips, prometheus.CounterValue, float64(s.RoundTrips))
	ch <- prometheus.MustNewConstMetric(c.errors, prometheus.CounterValue, float64(s.Errors))
	ch <- prometheus.MustNewConstMetric(c.breakerRejections, prometheus.CounterValue, float64(s.BreakerRejections))
	ch <- prometheus.MustNewConstMetric(c.connsCreated, prometheus.CounterValue, float64(s.CreatedConns))
	ch <- prometheus.MustNewConstMetric(c.connsDestroyed, prometheus.CounterValue, float64(s.DestroyedConns))
	ch <- prometheus.MustNewConstMetric(c.conns, prometheus.GaugeValue, float64(s.TotalConns), "total")
	ch <- prometheus.MustNewConstMetric(c.conns, prometheus.GaugeValue, float64(s.ActiveConns), "active")
	ch <- prometheus.MustNewConstMetric(c.conns, prometheus.GaugeValue, float64(s.IdleConns), "idle")
	ch <- prometheus.MustNewConstMetric(c.breakerState, prometheus.GaugeValue, breakerStateValue(s))
}

// breakerStateValue maps gobreaker states to the gauge encoding.
func breakerStateValue(s framing.ClientStats) float64 {
	return float64(s.BreakerState)
}
