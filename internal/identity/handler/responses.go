package handler

import (
	"encoding/hex"

	"aidgate/internal/identity"
	id "aidgate/pkg/domain"
)

// MintResponse is the wire shape for a created identity.
type MintResponse struct {
	ID id.IdentityID `json:"id"`
}

// IdentityResponse is the disclosure shape for GET /identities/{id}. For a
// masked record the sensitive fields serialize as empty strings.
type IdentityResponse struct {
	ID           id.IdentityID   `json:"id"`
	Owner        string          `json:"owner"`
	ContentHash  string          `json:"content_hash,omitempty"`
	Verified     bool            `json:"verified"`
	VerifiedAt   uint64          `json:"verified_at"`
	PrivacyLevel uint8           `json:"privacy_level"`
	Metadata     string          `json:"metadata,omitempty"`
	Status       identity.Status `json:"status"`
}

// BatchVerifyResponse reports the fail-fast fold outcome of a batch verify.
type BatchVerifyResponse struct {
	Verified int    `json:"verified"`
	Error    string `json:"error,omitempty"`
	Message  string `json:"error_description,omitempty"`
}

// FromIdentity maps the domain record onto the wire shape.
func FromIdentity(record *identity.Identity) IdentityResponse {
	return IdentityResponse{
		ID:           record.ID,
		Owner:        record.Owner.String(),
		ContentHash:  hex.EncodeToString(record.ContentHash),
		Verified:     record.Verified,
		VerifiedAt:   record.VerifiedAt,
		PrivacyLevel: record.PrivacyLevel,
		Metadata:     record.Metadata,
		Status:       record.Status,
	}
}
