package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every binsort collector plus the Go runtime and process collectors.
var Registry = prometheus.NewRegistry()

var (
	// LinkConnected is 1 while the host holds a verified connection to the brick.
	LinkConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "binsort_link_connected",
			Help: "Whether the host is connected to the brick (1=connected, 0=degraded).",
		},
	)

	// LinkReconnects counts on-demand reconnect attempts by result.
	LinkReconnects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "binsort_link_reconnect_attempts_total",
			Help: "On-demand reconnect attempts made by the host controller.",
		},
		[]string{"result"}, // result: success/failed/skipped
	)

	// CommandsTotal counts controller commands by action and response status.
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "binsort_commands_total",
			Help: "Commands issued by the host controller.",
		},
		[]string{"action", "status"},
	)

	// CommandLatency observes one command round trip, settle delay excluded.
	CommandLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "binsort_command_latency_seconds",
			Help:    "Latency of one command/response exchange.",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		},
		[]string{"action"},
	)

	// SortedTotal counts classifications by resulting category and status.
	SortedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "binsort_sorted_total",
			Help: "Items handled per category.",
		},
		[]string{"category", "status"},
	)

	// DispatchedTotal counts commands executed on the brick.
	DispatchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "binsort_brick_dispatched_total",
			Help: "Commands dispatched by the brick.",
		},
		[]string{"action", "status"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		LinkConnected,
		LinkReconnects,
		CommandsTotal,
		CommandLatency,
		SortedTotal,
		DispatchedTotal,
	)
}

// Handler serves Registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
