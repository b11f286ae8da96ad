// Package metrics exposes Prometheus instrumentation for governance.
// All methods are nil-safe so the service can run without metrics wired.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	proposals prometheus.Counter
	votes     prometheus.Counter
	executed  prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		proposals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aidgate_governance_proposals_total",
			Help: "Proposals opened.",
		}),
		votes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aidgate_governance_votes_total",
			Help: "Ballots cast.",
		}),
		executed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aidgate_governance_executed_total",
			Help: "Proposals executed.",
		}),
	}
	reg.MustRegister(m.proposals, m.votes, m.executed)
	return m
}

func (m *Metrics) IncProposals() {
	if m == nil {
		return
	}
	m.proposals.Inc()
}

func (m *Metrics) IncVotes() {
	if m == nil {
		return
	}
	m.votes.Inc()
}

func (m *Metrics) IncExecuted() {
	if m == nil {
		return
	}
	m.executed.Inc()
}
