package handler

// SupplyResponse is the wire shape for GET /ledger/supply.
type SupplyResponse struct {
	TotalSupply uint64 `json:"total_supply"`
}

// BalanceResponse is the wire shape for GET /ledger/balances/{account}.
type BalanceResponse struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}

// BatchResponse reports a fail-fast batch outcome. Applied is meaningful
// even on failure: it counts the elements committed before the batch
// stopped.
type BatchResponse struct {
	Applied int    `json:"applied"`
	Error   string `json:"error,omitempty"`
	Reason  string `json:"error_reason,omitempty"`
	Message string `json:"error_description,omitempty"`
}
