// Package observability holds the Prometheus metrics of the map service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds counters and histograms for dataset fetching and rendering.
type Metrics struct {
	FetchTotal      *prometheus.CounterVec   // labels: dataset, outcome={success,fetch_error,format_error}
	FetchDuration   *prometheus.HistogramVec // labels: dataset
	ShapesRendered  *prometheus.CounterVec   // labels: dataset
	DatasetsSettled prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchTotal,
		m.FetchDuration,
		m.ShapesRendered,
		m.DatasetsSettled,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics so tests can build as many as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quakemap",
			Name:      "fetch_total",
			Help:      "Dataset fetches by dataset and outcome.",
		}, []string{"dataset", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "quakemap",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a dataset fetch including decoding.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"dataset"}),
		ShapesRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quakemap",
			Name:      "shapes_rendered_total",
			Help:      "Shapes added to map overlays.",
		}, []string{"dataset"}),
		DatasetsSettled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quakemap",
			Name:      "datasets_settled",
			Help:      "Number of datasets whose fetch and render pass has finished, successfully or not.",
		}),
	}
}
