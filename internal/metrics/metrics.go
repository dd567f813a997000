// Package metrics exposes Prometheus collectors for the network host.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "trackertools"

// Edit outcomes, used as the `outcome` label.
const (
	OutcomeOK         = "ok"
	OutcomeUnknown    = "unknown_field"
	OutcomeReadOnly   = "read_only"
	OutcomeDerivation = "derivation_error"
	OutcomeInvalid    = "invalid"
)

// UnknownFieldLabel replaces ids that are not in the catalog so clients
// cannot grow the label set.
const UnknownFieldLabel = "_unknown"

// Metrics owns a private registry and the host's collectors.
type Metrics struct {
	reg       *prometheus.Registry
	edits     *prometheus.CounterVec
	clients   prometheus.Gauge
	recompute prometheus.Histogram
}

// New registers every collector on a fresh registry, including the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		edits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_edits_total",
			Help:      "Field edits received, by field and outcome.",
		}, []string{"field", "outcome"}),
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_clients",
			Help:      "Live socket.io clients.",
		}),
		recompute: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recompute_seconds",
			Help:      "Time spent applying an edit, recomputation included.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
	}
	m.reg.MustRegister(
		m.edits,
		m.clients,
		m.recompute,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveEdit records one edit attempt.
func (m *Metrics) ObserveEdit(field, outcome string, took time.Duration) {
	m.edits.WithLabelValues(field, outcome).Inc()
	if outcome == OutcomeOK {
		m.recompute.Observe(took.Seconds())
	}
}

// ClientConnected increments the live client gauge.
func (m *Metrics) ClientConnected() { m.clients.Inc() }

// ClientDisconnected decrements the live client gauge.
func (m *Metrics) ClientDisconnected() { m.clients.Dec() }

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
