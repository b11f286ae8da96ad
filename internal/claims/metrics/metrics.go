// Package metrics exposes Prometheus instrumentation for claim processing.
// All methods are nil-safe so the service can run without metrics wired.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	processed prometheus.Counter
	rejected  prometheus.Counter
	claimed   prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		processed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aidgate_claims_processed_total",
			Help: "Successful claims.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aidgate_claims_rejected_total",
			Help: "Claims rejected by policy or validation.",
		}),
		claimed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aidgate_claims_amount_total",
			Help: "Total token amount paid out through claims.",
		}),
	}
	reg.MustRegister(m.processed, m.rejected, m.claimed)
	return m
}

func (m *Metrics) IncProcessed(amount uint64) {
	if m == nil {
		return
	}
	m.processed.Inc()
	m.claimed.Add(float64(amount))
}

func (m *Metrics) IncRejected() {
	if m == nil {
		return
	}
	m.rejected.Inc()
}
