// Package ledger is the capped-supply fungible balance store with pause and
// blacklist gates. Conservation is the load-bearing invariant: after every
// operation the sum of balances equals total supply, and total supply never
// exceeds the cap.
package ledger

import id "aidgate/pkg/domain"

// Info is the immutable token metadata exposed by read endpoints.
type Info struct {
	Name      string `json:"name"`
	Symbol    string `json:"symbol"`
	MaxSupply uint64 `json:"max_supply"`
}

// Mutation is an atomic set of balance changes plus the supply delta they
// imply. Debits and credits are applied together under the store lock;
// a rejected mutation applies nothing.
type Mutation struct {
	Debits      map[id.AccountID]uint64
	Credits     map[id.AccountID]uint64
	SupplyDelta int64
}

// MintRequest is one element of a batch mint.
type MintRequest struct {
	Recipient id.AccountID `json:"recipient"`
	Amount    uint64       `json:"amount"`
}

// BlacklistRequest is one element of a batch blacklist update.
type BlacklistRequest struct {
	Account     id.AccountID `json:"account"`
	Blacklisted bool         `json:"blacklisted"`
}

// Batch size bounds, enforced at the interface boundary to cap per-call
// cost.
const (
	MaxBatchMint      = 5
	MaxBatchBlacklist = 5
)

// Machine-readable reasons narrowing the policy_violation and
// resource_exhausted codes, serialized as error_reason in the error
// envelope so clients can tell the gate failures apart.
const (
	ReasonPaused       = "ledger_paused"
	ReasonBlacklisted  = "account_blacklisted"
	ReasonSupplyCap    = "supply_cap_exceeded"
	ReasonInsufficient = "insufficient_balance"
)
