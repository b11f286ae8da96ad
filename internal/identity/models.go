// Package identity is the per-account identity registry with a verification
// lifecycle and privacy-gated disclosure.
package identity

import (
	id "aidgate/pkg/domain"
	dErrors "aidgate/pkg/domain-errors"
)

// Status is the lifecycle state of an identity record.
//
// Transitions: pending --verify--> active --revoke--> revoked.
// revoked is terminal for verification but the record persists; revoking
// also clears the verified flag.
type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
)

// CanTransitionTo restricts status changes to the verify/revoke edges.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusActive || next == StatusRevoked
	case StatusActive:
		return next == StatusRevoked
	default:
		return false
	}
}

// Bounds enforced at the interface boundary.
const (
	MaxMetadataLen  = 256
	MaxPrivacyLevel = 2
	MaxBatchVerify  = 10
)

// Identity is the registry record.
//
// Invariants:
//   - IDs are strictly increasing and never reused
//   - records are never deleted; revocation is terminal
//   - ContentHash is non-empty at creation and immutable afterwards
//   - records are permanently non-transferable
type Identity struct {
	ID           id.IdentityID `json:"id"`
	Owner        id.AccountID  `json:"owner"`
	ContentHash  []byte        `json:"content_hash"`
	Verified     bool          `json:"verified"`
	VerifiedAt   uint64        `json:"verified_at"` // sequence; 0 means never
	PrivacyLevel uint8         `json:"privacy_level"`
	Metadata     string        `json:"metadata"`
	Status       Status        `json:"status"`
}

// NewIdentity validates inputs and builds a pending record. The store
// assigns the monotonic ID on create.
func NewIdentity(owner id.AccountID, contentHash []byte, metadata string, privacyLevel uint8) (*Identity, error) {
	if len(contentHash) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "content hash must not be empty")
	}
	if len(metadata) > MaxMetadataLen {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "metadata exceeds maximum length")
	}
	if privacyLevel > MaxPrivacyLevel {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "privacy level must be 0, 1, or 2")
	}
	return &Identity{
		Owner:        owner,
		ContentHash:  contentHash,
		PrivacyLevel: privacyLevel,
		Metadata:     metadata,
		Status:       StatusPending,
	}, nil
}

// CanVerify checks the verification transition.
func (i *Identity) CanVerify() error {
	if i.Verified {
		return dErrors.New(dErrors.CodeConflict, "identity is already verified")
	}
	if !i.Status.CanTransitionTo(StatusActive) {
		return dErrors.New(dErrors.CodeInvariantViolation, "identity cannot be verified from status "+string(i.Status))
	}
	return nil
}

// ApplyVerification marks the record verified at the given sequence.
func (i *Identity) ApplyVerification(seq uint64) {
	i.Verified = true
	i.VerifiedAt = seq
	i.Status = StatusActive
}

// CanRevoke checks the revocation transition.
func (i *Identity) CanRevoke() error {
	if i.Status == StatusRevoked {
		return dErrors.New(dErrors.CodeConflict, "identity is already revoked")
	}
	return nil
}

// ApplyRevocation makes the record terminally revoked and clears verified.
func (i *Identity) ApplyRevocation() {
	i.Status = StatusRevoked
	i.Verified = false
}

// Masked returns the public projection for privacy level 0: the record
// shape without the sensitive fields (content hash and metadata zeroed).
func (i *Identity) Masked() *Identity {
	masked := *i
	masked.ContentHash = nil
	masked.Metadata = ""
	return &masked
}
