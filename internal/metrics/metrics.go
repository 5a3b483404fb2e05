// Package metrics provides Prometheus metrics for the language server core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics of the server. A nil *Metrics records
// nothing, so components can be built without it.
type Metrics struct {
	InterruptsTotal    *prometheus.CounterVec
	DocumentsOpen      prometheus.Gauge
	ConfigUpdatesTotal *prometheus.CounterVec
	FocusTotal         *prometheus.CounterVec
	RestartsTotal      prometheus.Counter

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		InterruptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tinymist_interrupts_total",
				Help: "Total number of interrupts delivered to the compile subsystem by kind.",
			},
			[]string{"kind"},
		),
		DocumentsOpen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tinymist_documents_open",
				Help: "Number of documents held in the overlay.",
			},
		),
		ConfigUpdatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tinymist_config_updates_total",
				Help: "Total configuration updates by result.",
			},
			[]string{"result"},
		),
		FocusTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tinymist_focus_total",
				Help: "Total implicit focus requests by site and outcome.",
			},
			[]string{"site", "outcome"},
		),
		RestartsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tinymist_primary_restarts_total",
				Help: "Total restarts of the primary compilation.",
			},
		),
		registry: reg,
	}

	reg.MustRegister(m.InterruptsTotal)
	reg.MustRegister(m.DocumentsOpen)
	reg.MustRegister(m.ConfigUpdatesTotal)
	reg.MustRegister(m.FocusTotal)
	reg.MustRegister(m.RestartsTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordInterrupt(kind string) {
	if m == nil {
		return
	}
	m.InterruptsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) SetDocumentsOpen(n int) {
	if m == nil {
		return
	}
	m.DocumentsOpen.Set(float64(n))
}

func (m *Metrics) RecordConfigUpdate(result string) {
	if m == nil {
		return
	}
	m.ConfigUpdatesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordFocus(site, outcome string) {
	if m == nil {
		return
	}
	m.FocusTotal.WithLabelValues(site, outcome).Inc()
}

func (m *Metrics) RecordRestart() {
	if m == nil {
		return
	}
	m.RestartsTotal.Inc()
}
