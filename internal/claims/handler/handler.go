package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "aidgate/pkg/domain"
	dErrors "aidgate/pkg/domain-errors"
	"aidgate/pkg/platform/httputil"
	"aidgate/pkg/requestcontext"
)

// Service defines the interface for claim processing.
type Service interface {
	Claim(ctx context.Context, caller id.AccountID) (uint64, error)
}

// Handler wires the claim endpoint to the claim processor.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the claim endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/claims", h.HandleClaim)
}

// HandleClaim handles POST /claims requests. The body is empty: the caller
// identity and the request sequence carry everything the claim needs.
func (h *Handler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller := requestcontext.CallerID(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	amount, err := h.service.Claim(ctx, caller)
	if err != nil {
		h.logger.WarnContext(ctx, "claim rejected",
			"request_id", requestID,
			"caller", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ClaimResponse{Amount: amount})
}

// ClaimResponse is the wire shape for a successful claim.
type ClaimResponse struct {
	Amount uint64 `json:"amount"`
}
