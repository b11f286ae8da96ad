// Package request provides request ID middleware. Every request gets an ID
// (propagated from X-Request-ID when the caller supplies one) for log and
// audit correlation.
package request

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"aidgate/pkg/requestcontext"
)

// HeaderName is the inbound/outbound correlation header.
const HeaderName = "X-Request-ID"

// Middleware stamps a request ID onto the context and echoes it back.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderName)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(HeaderName, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
