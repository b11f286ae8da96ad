// Package metrics exposes Prometheus instrumentation for distributions.
// All methods are nil-safe so the service can run without metrics wired.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	batches    prometheus.Counter
	settled    prometheus.Counter
	incomplete prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aidgate_distribution_batches_total",
			Help: "Distribution batches recorded.",
		}),
		settled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aidgate_distribution_settled_total",
			Help: "Recipient transfers settled across all batches.",
		}),
		incomplete: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aidgate_distribution_incomplete_total",
			Help: "Batches that stopped before settling every recipient.",
		}),
	}
	reg.MustRegister(m.batches, m.settled, m.incomplete)
	return m
}

func (m *Metrics) Observe(settled, requested int) {
	if m == nil {
		return
	}
	m.batches.Inc()
	m.settled.Add(float64(settled))
	if settled < requested {
		m.incomplete.Inc()
	}
}
