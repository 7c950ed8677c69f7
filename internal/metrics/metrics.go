// Package metrics declares the prometheus collectors of the painting server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geopaint_events_total",
		Help: "Total dispatched page events",
	}, []string{"component", "kind"})
	LayerBuildsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geopaint_layer_builds_total",
		Help: "Total region layer builds",
	})
	Regions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "geopaint_regions",
		Help: "Number of regions in the attached collection",
	})
	DatasetLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geopaint_dataset_loads_total",
		Help: "Dataset loads by source and result",
	}, []string{"source", "result"})
	TileRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geopaint_tile_requests_total",
		Help: "Base layer tile requests by result",
	}, []string{"result"})
	RequestDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "geopaint_request_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})
	WebsocketClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "geopaint_websocket_clients",
		Help: "Connected websocket clients",
	})
)

func init() {
	prometheus.MustRegister(EventsTotal)
	prometheus.MustRegister(LayerBuildsTotal)
	prometheus.MustRegister(Regions)
	prometheus.MustRegister(DatasetLoadsTotal)
	prometheus.MustRegister(TileRequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(WebsocketClients)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
