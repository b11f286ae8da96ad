package audit

import (
	"time"

	id "aidgate/pkg/domain"
)

// Event is emitted from domain logic after every state-changing operation.
// Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	Sequence  uint64            `json:"sequence"`
	Actor     id.AccountID      `json:"actor"`
	Action    string            `json:"action"`
	Subject   string            `json:"subject"`
	Details   map[string]string `json:"details,omitempty"`
}

// Canonical action names. One constant per mutating operation keeps sinks
// and dashboards from chasing free-form strings.
const (
	ActionTransfer          = "ledger.transfer"
	ActionMint              = "ledger.mint"
	ActionBurn              = "ledger.burn"
	ActionPause             = "ledger.pause"
	ActionBlacklist         = "ledger.blacklist"
	ActionIdentityMint      = "identity.mint"
	ActionIdentityVerify    = "identity.verify"
	ActionIdentityRevoke    = "identity.revoke"
	ActionIdentityUpdate    = "identity.update"
	ActionEligibilityChange = "eligibility.change"
	ActionClaim             = "claims.claim"
	ActionDistribute        = "distribution.distribute"
	ActionProposalCreate    = "governance.propose"
	ActionVote              = "governance.vote"
	ActionProposalExecute   = "governance.execute"
	ActionRoleChange        = "access.role_change"
)
