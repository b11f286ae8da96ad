package handler

import (
	"encoding/hex"

	id "aidgate/pkg/domain"
	dErrors "aidgate/pkg/domain-errors"
)

// MintRequest is the wire shape for POST /identities. The content hash is
// hex-encoded on the wire.
type MintRequest struct {
	ContentHash  string `json:"content_hash"`
	Metadata     string `json:"metadata"`
	PrivacyLevel uint8  `json:"privacy_level"`
}

func (r MintRequest) ParsedContentHash() ([]byte, error) {
	if r.ContentHash == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "content hash is required")
	}
	decoded, err := hex.DecodeString(r.ContentHash)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "content hash must be hex-encoded")
	}
	return decoded, nil
}

// BatchVerifyRequest is the wire shape for POST /identities/verify/batch.
type BatchVerifyRequest struct {
	IDs []id.IdentityID `json:"ids"`
}

// UpdateMetadataRequest is the wire shape for PATCH /identities/{id}/metadata.
type UpdateMetadataRequest struct {
	Metadata string `json:"metadata"`
}

// SetPrivacyRequest is the wire shape for PATCH /identities/{id}/privacy.
type SetPrivacyRequest struct {
	PrivacyLevel uint8 `json:"privacy_level"`
}

// TransferRequest is the wire shape for POST /identities/{id}/transfer.
type TransferRequest struct {
	To string `json:"to"`
}
