package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jetsetgo/attendance-station/internal/capture"
)

// Metrics holds the station's Prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	polls           *prometheus.CounterVec
	records         *prometheus.CounterVec
	exports         *prometheus.CounterVec
	deviceConnected prometheus.Gauge
	wsClients       prometheus.Gauge
}

// NewMetrics registers the station collectors on a fresh registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "station",
			Name:      "identify_polls_total",
			Help:      "Identify requests issued while capturing, by result.",
		}, []string{"result"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "station",
			Name:      "fingerprint_operations_total",
			Help:      "Finished captures and enrollments, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "station",
			Name:      "report_exports_total",
			Help:      "Report exports and print documents, by format and result.",
		}, []string{"format", "result"}),
		deviceConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "station",
			Name:      "device_connected",
			Help:      "1 when the last device status check succeeded.",
		}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "station",
			Name:      "websocket_clients",
			Help:      "Connected browser sessions.",
		}),
	}

	m.registry.MustRegister(
		m.polls,
		m.records,
		m.exports,
		m.deviceConnected,
		m.wsClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObservePoll counts one identify attempt
func (m *Metrics) ObservePoll(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.polls.WithLabelValues(result).Inc()
}

// ObserveRecord counts a finished capture or enrollment
func (m *Metrics) ObserveRecord(rec capture.Record) {
	m.records.WithLabelValues(rec.Kind, rec.Outcome).Inc()
}

// ObserveExport counts an export or print attempt
func (m *Metrics) ObserveExport(format string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.exports.WithLabelValues(format, result).Inc()
}

// SetDeviceConnected records the device reachability
func (m *Metrics) SetDeviceConnected(connected bool) {
	if connected {
		m.deviceConnected.Set(1)
	} else {
		m.deviceConnected.Set(0)
	}
}

// SetClients records the websocket client count
func (m *Metrics) SetClients(n int) {
	m.wsClients.Set(float64(n))
}
