// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// This package defines context keys and getter/setter functions for values that are
// typically set by middleware but consumed by services. By keeping this package free
// of net/http dependencies, services can import only what they need without pulling
// in HTTP-related code.
//
// Usage in services (read values):
//
//	caller := requestcontext.CallerID(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	seq := requestcontext.Sequence(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithCallerID(ctx, caller)
//	ctx = requestcontext.WithSequence(ctx, seq)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithSequence(ctx, 42)
//	ctx = requestcontext.WithCallerID(ctx, accountID)
package requestcontext

import (
	"context"

	id "aidgate/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	callerIDKey  struct{}
	requestIDKey struct{}
	sequenceKey  struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyCallerID  = callerIDKey{}
	ContextKeyRequestID = requestIDKey{}
	ContextKeySequence  = sequenceKey{}
)

// CallerID retrieves the authenticated caller account from the context.
// Returns the zero value (nil UUID) if not set.
func CallerID(ctx context.Context) id.AccountID {
	if caller, ok := ctx.Value(ContextKeyCallerID).(id.AccountID); ok {
		return caller
	}
	return id.AccountID{}
}

// WithCallerID injects a caller account into the context.
func WithCallerID(ctx context.Context, caller id.AccountID) context.Context {
	return context.WithValue(ctx, ContextKeyCallerID, caller)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Sequence retrieves the logical clock value stamped onto this request.
// Cooldowns and verification timestamps are measured against this counter,
// never against wall-clock time. Returns 0 when not set (non-HTTP contexts
// must inject one explicitly).
func Sequence(ctx context.Context) uint64 {
	if seq, ok := ctx.Value(ContextKeySequence).(uint64); ok {
		return seq
	}
	return 0
}

// WithSequence injects a logical clock value into a context.
// Useful for:
//   - Service unit tests that don't run the full HTTP middleware chain
//   - Workers that need a consistent sequence within a batch operation
func WithSequence(ctx context.Context, seq uint64) context.Context {
	return context.WithValue(ctx, ContextKeySequence, seq)
}
