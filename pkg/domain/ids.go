// Package domain defines the typed identifiers shared across aidgate
// components. Wrapping uuid.UUID / uint64 in distinct named types makes
// cross-entity mixups a compile error instead of a runtime bug.
package domain

import (
	"strconv"

	"github.com/google/uuid"

	dErrors "aidgate/pkg/domain-errors"
)

// AccountID identifies a caller or balance holder. It is opaque to the
// system, analogous to a wallet address.
type AccountID uuid.UUID

// IdentityID is the monotonic identifier assigned to identity records.
// IDs are strictly increasing and never reused.
type IdentityID uint64

// ProposalID is the monotonic identifier assigned to governance proposals.
type ProposalID uint64

// DistributionID is the monotonic identifier assigned to distribution
// audit records.
type DistributionID uint64

func (a AccountID) String() string {
	return uuid.UUID(a).String()
}

// IsZero reports whether the account ID is the nil UUID. Zero account IDs
// are never valid callers.
func (a AccountID) IsZero() bool {
	return uuid.UUID(a) == uuid.Nil
}

// ParseAccountID validates and converts a string into an AccountID.
// IDs must be valid, non-nil UUIDs; anything else is invalid input.
func ParseAccountID(s string) (AccountID, error) {
	if s == "" {
		return AccountID{}, dErrors.New(dErrors.CodeInvalidInput, "account id is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return AccountID{}, dErrors.New(dErrors.CodeInvalidInput, "account id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return AccountID{}, dErrors.New(dErrors.CodeInvalidInput, "account id must not be the nil UUID")
	}
	return AccountID(parsed), nil
}

func (i IdentityID) String() string {
	return strconv.FormatUint(uint64(i), 10)
}

// ParseIdentityID converts a decimal string into an IdentityID. Zero is
// rejected: identity numbering starts at 1.
func ParseIdentityID(s string) (IdentityID, error) {
	v, err := parseCounter(s, "identity id")
	return IdentityID(v), err
}

func (p ProposalID) String() string {
	return strconv.FormatUint(uint64(p), 10)
}

// ParseProposalID converts a decimal string into a ProposalID.
func ParseProposalID(s string) (ProposalID, error) {
	v, err := parseCounter(s, "proposal id")
	return ProposalID(v), err
}

func (d DistributionID) String() string {
	return strconv.FormatUint(uint64(d), 10)
}

// ParseDistributionID converts a decimal string into a DistributionID.
func ParseDistributionID(s string) (DistributionID, error) {
	v, err := parseCounter(s, "distribution id")
	return DistributionID(v), err
}

func parseCounter(s, label string) (uint64, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, label+" must be a positive integer")
	}
	if v == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, label+" must be greater than zero")
	}
	return v, nil
}
