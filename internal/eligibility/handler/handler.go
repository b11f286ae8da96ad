package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aidgate/internal/eligibility"
	id "aidgate/pkg/domain"
	dErrors "aidgate/pkg/domain-errors"
	"aidgate/pkg/platform/httputil"
	"aidgate/pkg/requestcontext"
)

// Service defines the interface for eligibility operations.
type Service interface {
	Register(ctx context.Context, caller id.AccountID, identityID id.IdentityID, eligible bool) (*eligibility.Record, error)
	SetEligible(ctx context.Context, caller, account id.AccountID, eligible bool) error
	Get(ctx context.Context, account id.AccountID) (*eligibility.Record, error)
}

// Handler wires eligibility endpoints to the eligibility service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts eligibility endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/eligibility/register", h.HandleRegister)
	r.Put("/eligibility/{account}", h.HandleSetEligible)
	r.Get("/eligibility/{account}", h.HandleGet)
}

// HandleRegister handles POST /eligibility/register requests.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller := requestcontext.CallerID(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	record, err := h.service.Register(ctx, caller, req.IdentityID, req.Eligible)
	if err != nil {
		h.logger.WarnContext(ctx, "eligibility registration rejected",
			"request_id", requestID,
			"caller", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, record)
}

// HandleSetEligible handles PUT /eligibility/{account} requests.
func (h *Handler) HandleSetEligible(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller := requestcontext.CallerID(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	account, err := id.ParseAccountID(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetEligibleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.service.SetEligible(ctx, caller, account, req.Eligible); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGet handles GET /eligibility/{account} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	account, err := id.ParseAccountID(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	record, err := h.service.Get(r.Context(), account)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

// RegisterRequest is the wire shape for POST /eligibility/register.
type RegisterRequest struct {
	IdentityID id.IdentityID `json:"identity_id"`
	Eligible   bool          `json:"eligible"`
}

// SetEligibleRequest is the wire shape for PUT /eligibility/{account}.
type SetEligibleRequest struct {
	Eligible bool `json:"eligible"`
}
