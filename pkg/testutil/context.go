package testutil

import (
	"context"
	"net/http"

	id "aidgate/pkg/domain"
	"aidgate/pkg/requestcontext"
)

// WithCaller adds an authenticated caller to the request context, simulating
// what the auth middleware does for authenticated requests.
func WithCaller(req *http.Request, caller id.AccountID) *http.Request {
	return req.WithContext(requestcontext.WithCallerID(req.Context(), caller))
}

// Ctx builds a service-level context carrying a caller and a logical clock
// value, the two things the middleware chain normally injects.
func Ctx(caller id.AccountID, seq uint64) context.Context {
	ctx := requestcontext.WithCallerID(context.Background(), caller)
	return requestcontext.WithSequence(ctx, seq)
}
