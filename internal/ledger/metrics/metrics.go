package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the token ledger. A nil
// *Metrics is valid and turns every method into a no-op, so unit tests can
// skip registration entirely.
type Metrics struct {
	TransfersTotal prometheus.Counter
	MintsTotal     prometheus.Counter
	BurnsTotal     prometheus.Counter
	SupplyGauge    prometheus.Gauge
}

// New creates and registers all ledger metrics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TransfersTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "aidgate_ledger_transfers_total",
			Help: "Total number of successful token transfers",
		}),
		MintsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "aidgate_ledger_mints_total",
			Help: "Total number of successful mint operations",
		}),
		BurnsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "aidgate_ledger_burns_total",
			Help: "Total number of successful burn operations",
		}),
		SupplyGauge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "aidgate_ledger_total_supply",
			Help: "Current total token supply",
		}),
	}
}

func (m *Metrics) IncTransfers() {
	if m != nil {
		m.TransfersTotal.Inc()
	}
}

func (m *Metrics) IncMints() {
	if m != nil {
		m.MintsTotal.Inc()
	}
}

func (m *Metrics) IncBurns() {
	if m != nil {
		m.BurnsTotal.Inc()
	}
}

func (m *Metrics) SetSupply(supply uint64) {
	if m != nil {
		m.SupplyGauge.Set(float64(supply))
	}
}
