// Package auth provides bearer-token authentication middleware. The
// validated caller account lands in the request context; handlers never
// touch tokens themselves.
package auth

import (
	"log/slog"
	"net/http"
	"strings"

	id "aidgate/pkg/domain"
	dErrors "aidgate/pkg/domain-errors"
	"aidgate/pkg/platform/httputil"
	"aidgate/pkg/platform/middleware/request"
	"aidgate/pkg/requestcontext"
)

// TokenValidator validates a bearer token and resolves the caller account.
type TokenValidator interface {
	ExtractAccountID(tokenString string) (id.AccountID, error)
}

// RequireAuth rejects requests without a valid bearer token and stamps the
// caller account onto the context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", request.GetRequestID(ctx),
				)
				writeUnauthenticated(w, "missing or invalid Authorization header")
				return
			}

			account, err := validator.ExtractAccountID(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", request.GetRequestID(ctx),
				)
				writeUnauthenticated(w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithCallerID(ctx, account)))
		})
	}
}

// writeUnauthenticated distinguishes a missing/bad credential (401) from a
// capability denial, which the services surface as unauthorized (403).
func writeUnauthenticated(w http.ResponseWriter, description string) {
	httputil.WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"error":             string(dErrors.CodeUnauthorized),
		"error_description": description,
	})
}
