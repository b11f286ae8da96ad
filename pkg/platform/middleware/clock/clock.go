// Package clock provides middleware for request-scoped logical time.
// Every operation within a single request observes the same sequence value,
// so cooldown checks, verification stamps, and audit events agree on "now".
// The counter is monotonic and independent of wall-clock time.
package clock

import (
	"net/http"

	"aidgate/internal/platform/sequence"
	"aidgate/pkg/requestcontext"
)

// Middleware draws the next sequence value at the start of the request and
// stores it in the context for the rest of the chain.
func Middleware(counter *sequence.Counter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithSequence(r.Context(), counter.Next())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
