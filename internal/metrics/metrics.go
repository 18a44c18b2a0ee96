// Package metrics counts conversion results and writes them in Prometheus
// text format for the node_exporter textfile collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/FocuswithJustin/bsfbeios/core/errors"
)

// Status label values for DocumentsTotal.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Metrics holds the counters of one process on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	DocumentsTotal       *prometheus.CounterVec
	TokensTotal          *prometheus.CounterVec
	EntitiesTotal        *prometheus.CounterVec
	PairingWarningsTotal prometheus.Counter
}

// New creates and registers the counters.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		DocumentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bsfbeios_documents_total",
				Help: "Count of document pairs processed",
			},
			[]string{"split", "status"},
		),
		TokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bsfbeios_tokens_total",
				Help: "Number of BEIOS token lines emitted",
			},
			[]string{"split"},
		),
		EntitiesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bsfbeios_entities_total",
				Help: "Number of entity spans encoded",
			},
			[]string{"split"},
		),
		PairingWarningsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bsfbeios_pairing_warnings_total",
				Help: "Count of token or annotation files without a counterpart",
			},
		),
	}

	m.registry.MustRegister(m.DocumentsTotal)
	m.registry.MustRegister(m.TokensTotal)
	m.registry.MustRegister(m.EntitiesTotal)
	m.registry.MustRegister(m.PairingWarningsTotal)
	return m
}

// ObserveDocument counts one converted document. A non-nil err counts it as
// failed and skips the token and entity counters.
func (m *Metrics) ObserveDocument(split string, tokens, entities int, err error) {
	if err != nil {
		m.DocumentsTotal.WithLabelValues(split, StatusFailed).Inc()
		return
	}
	m.DocumentsTotal.WithLabelValues(split, StatusOK).Inc()
	m.TokensTotal.WithLabelValues(split).Add(float64(tokens))
	m.EntitiesTotal.WithLabelValues(split).Add(float64(entities))
}

// WriteTextfile writes all counters to path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.NewIO("write metrics", path, err)
	}
	return nil
}
