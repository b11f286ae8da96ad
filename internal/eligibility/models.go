// Package eligibility tracks the per-account eligibility flag and the
// sequence of the last successful claim.
package eligibility

import id "aidgate/pkg/domain"

// Record couples an account with its verified identity and claim state.
//
// Invariants:
//   - at most one record per account
//   - LastClaim is 0 until the first successful claim
//   - LastClaim only moves forward, and only through the claim transaction
type Record struct {
	Account    id.AccountID  `json:"account"`
	IdentityID id.IdentityID `json:"identity_id"`
	Eligible   bool          `json:"eligible"`
	LastClaim  uint64        `json:"last_claim"` // sequence; 0 means never
}
