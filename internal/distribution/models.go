// Package distribution implements distributor-initiated bulk payouts.
package distribution

import id "aidgate/pkg/domain"

// MaxRecipients bounds per-call cost of a distribution batch.
const MaxRecipients = 100

// Distribution is an append-only record of a payout batch. It is written
// before the transfers run and reflects intent, not guaranteed completion;
// callers reconcile actual settlement via the per-call Result or balances.
type Distribution struct {
	ID          id.DistributionID `json:"id"`
	Distributor id.AccountID      `json:"distributor"`
	Amount      uint64            `json:"amount"`
	Recipients  []id.AccountID    `json:"recipients"`
	Sequence    uint64            `json:"sequence"`
}

// Result reports how far the fold got before stopping.
type Result struct {
	ID      id.DistributionID `json:"id"`
	Settled int               `json:"settled"`
}
