// Package metrics counts harmonised rows and issues in a private Prometheus
// registry and can dump them in the node_exporter textfile format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	RowsTotal           prometheus.Counter
	IssuesTotal         *prometheus.CounterVec
	CarriedForwardTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RowsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "harmonise",
			Name:      "rows_total",
			Help:      "Total number of input rows harmonised",
		}),
		IssuesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "harmonise",
			Name:      "issues_total",
			Help:      "Values that could not be normalised, by datatype",
		}, []string{"datatype"}),
		CarriedForwardTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "harmonise",
			Name:      "carried_forward_total",
			Help:      "Blank values filled from an earlier row, by field",
		}, []string{"field"}),
	}

	m.registry.MustRegister(m.RowsTotal, m.IssuesTotal, m.CarriedForwardTotal)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordRow() {
	m.RowsTotal.Inc()
}

func (m *Metrics) RecordIssue(datatype string) {
	m.IssuesTotal.WithLabelValues(datatype).Inc()
}

func (m *Metrics) RecordCarryForward(field string) {
	m.CarriedForwardTotal.WithLabelValues(field).Inc()
}

// WriteTextfile writes every registered metric to path.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
