// Package dErrors provides the code-carrying error type used at service
// boundaries. Stores return sentinel errors (pkg/platform/sentinel) for
// infrastructure facts; services translate those into domain errors with a
// stable code that transports can map to a status.
package dErrors

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error classification. Codes are part of
// the public contract: handlers serialize them verbatim into the error
// envelope, so renaming one is a breaking change.
type Code string

const (
	// CodeUnauthorized: the caller lacks the role or capability the
	// operation requires.
	CodeUnauthorized Code = "unauthorized"
	// CodeInvalidInput: zero or out-of-range amount, oversized metadata,
	// malformed hash or identifier.
	CodeInvalidInput Code = "invalid_input"
	// CodeNotFound: the referenced record does not exist.
	CodeNotFound Code = "not_found"
	// CodeConflict: the record is already in the requested state (already
	// verified, already executed, duplicate vote).
	CodeConflict Code = "conflict"
	// CodeResourceExhausted: a hard limit was hit (supply cap, bounded
	// batch size).
	CodeResourceExhausted Code = "resource_exhausted"
	// CodePolicyViolation: the operation is valid but currently disallowed
	// (paused ledger, blacklisted account, cooldown not elapsed, vote
	// threshold not met).
	CodePolicyViolation Code = "policy_violation"
	// CodeInvariantViolation: a domain invariant would be broken; returned
	// by model constructors and transition guards.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeBadRequest: the request could not be decoded or is structurally
	// invalid before reaching the domain.
	CodeBadRequest Code = "bad_request"
	// CodeInternal: unexpected infrastructure failure. Descriptions are
	// never exposed to callers.
	CodeInternal Code = "internal_error"
)

// DomainError couples a Code with a human-readable message and an optional
// wrapped cause. Reason optionally narrows the code to a specific,
// machine-readable cause when several distinct failures share one code.
type DomainError struct {
	Code    Code
	Reason  string
	Message string
	cause   error
}

func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.cause
}

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &DomainError{Code: code, Message: message}
}

// NewWithReason creates a domain error whose code is narrowed by a
// machine-readable reason. Reasons, like codes, are part of the public
// contract.
func NewWithReason(code Code, reason, message string) error {
	return &DomainError{Code: code, Reason: reason, Message: message}
}

// Wrap attaches a code and message to an underlying error while keeping the
// cause reachable through errors.Is / errors.As.
func Wrap(err error, code Code, message string) error {
	return &DomainError{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) is a domain error with
// the given code.
func HasCode(err error, code Code) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, falling back to CodeInternal for
// non-domain errors so transports always have something stable to emit.
func CodeOf(err error) Code {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ReasonOf extracts the reason from err; empty when the error carries none.
func ReasonOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) && de.Code != CodeInternal {
		return de.Reason
	}
	return ""
}

// MessageOf extracts the message from err. Internal errors return an empty
// message so infrastructure details never leak to callers.
func MessageOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) && de.Code != CodeInternal {
		return de.Message
	}
	return ""
}
