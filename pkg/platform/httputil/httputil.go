// Package httputil centralizes JSON encoding and domain error translation
// for HTTP handlers so every endpoint emits the same envelope.
package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "aidgate/pkg/domain-errors"
)

// errorBody is the wire envelope for failures. error_description is omitted
// for internal errors so infrastructure details never leak.
type errorBody struct {
	Error       string `json:"error"`
	Reason      string `json:"error_reason,omitempty"`
	Description string `json:"error_description,omitempty"`
}

// WriteJSON serializes v with the given status. Encoding failures are
// swallowed: headers are already on the wire at that point.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into an HTTP response.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, ToHTTPStatus(code), errorBody{
		Error:       string(code),
		Reason:      dErrors.ReasonOf(err),
		Description: dErrors.MessageOf(err),
	})
}

// ToHTTPStatus maps domain error codes onto HTTP statuses.
func ToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeUnauthorized:
		return http.StatusForbidden
	case dErrors.CodeInvalidInput, dErrors.CodeBadRequest, dErrors.CodeInvariantViolation:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeResourceExhausted:
		return http.StatusUnprocessableEntity
	case dErrors.CodePolicyViolation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// DecodeAndPrepare decodes the request body into T and writes a bad_request
// response on failure, logging the decode error with the request ID. The
// bool result reports whether the handler should continue.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "request decode failed",
				"request_id", requestID,
				"error", err,
			)
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		var zero T
		return zero, false
	}
	return req, true
}
