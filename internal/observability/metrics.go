// Package observability holds the Prometheus instruments shared by the
// station loops and the status server.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vaisalawx"

// Metrics holds the Prometheus counters and gauges for the decode pipeline.
type Metrics struct {
	LinesReceived *prometheus.CounterVec // labels: station
	LinesIgnored  *prometheus.CounterVec // labels: station (other station id on the bus)
	DecodeErrors  *prometheus.CounterVec // labels: station, kind

	ReadingsEmitted  *prometheus.CounterVec // labels: station
	ReadingErrors    *prometheus.CounterVec // labels: station, kind
	StationConnected *prometheus.GaugeVec   // labels: station
}

func newMetrics() *Metrics {
	return &Metrics{
		LinesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_received_total",
			Help:      "Total sentences read from the transmitter.",
		}, []string{"station"}),
		LinesIgnored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_ignored_total",
			Help:      "Sentences addressed to another station id.",
		}, []string{"station"}),
		DecodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Sentences that failed to decode, by error kind.",
		}, []string{"station", "kind"}),
		ReadingsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_emitted_total",
			Help:      "Readings published to the distributor.",
		}, []string{"station"}),
		ReadingErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reading_errors_total",
			Help:      "Quantities that could not be read when building a reading, by error kind.",
		}, []string{"station", "kind"}),
		StationConnected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "station_connected",
			Help:      "1 while the transport to the transmitter is open, 0 otherwise.",
		}, []string{"station"}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.LinesReceived,
		m.LinesIgnored,
		m.DecodeErrors,
		m.ReadingsEmitted,
		m.ReadingErrors,
		m.StationConnected,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
