package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter owns a registry holding the given collectors and the Go runtime
// metrics.
type Exporter struct {
	registry *prometheus.Registry
}

// NewExporter registers collectors on a new registry. It fails if two
// collectors report the same metric.
func NewExporter(cs ...prometheus.Collector) (*Exporter, error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	for _, c := range cs {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return &Exporter{registry: registry}, nil
}

// Handler returns an HTTP handler for the /metrics endpoint
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}
