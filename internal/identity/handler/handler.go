package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aidgate/internal/identity"
	id "aidgate/pkg/domain"
	dErrors "aidgate/pkg/domain-errors"
	"aidgate/pkg/platform/httputil"
	"aidgate/pkg/requestcontext"
)

// Service defines the interface for identity operations.
type Service interface {
	Mint(ctx context.Context, caller id.AccountID, contentHash []byte, metadata string, privacyLevel uint8) (id.IdentityID, error)
	Verify(ctx context.Context, caller id.AccountID, identityID id.IdentityID) error
	BatchVerify(ctx context.Context, caller id.AccountID, ids []id.IdentityID) (int, error)
	UpdateMetadata(ctx context.Context, caller id.AccountID, identityID id.IdentityID, metadata string) error
	SetPrivacyLevel(ctx context.Context, caller id.AccountID, identityID id.IdentityID, level uint8) error
	Revoke(ctx context.Context, caller id.AccountID, identityID id.IdentityID) error
	Transfer(ctx context.Context, caller id.AccountID, identityID id.IdentityID, to id.AccountID) error
	GetDetails(ctx context.Context, caller id.AccountID, identityID id.IdentityID) (*identity.Identity, error)
}

// Handler wires identity endpoints to the identity service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts identity endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/identities", h.HandleMint)
	r.Get("/identities/{id}", h.HandleGetDetails)
	r.Post("/identities/{id}/verify", h.HandleVerify)
	r.Post("/identities/verify/batch", h.HandleBatchVerify)
	r.Patch("/identities/{id}/metadata", h.HandleUpdateMetadata)
	r.Patch("/identities/{id}/privacy", h.HandleSetPrivacyLevel)
	r.Post("/identities/{id}/revoke", h.HandleRevoke)
	r.Post("/identities/{id}/transfer", h.HandleTransfer)
}

// HandleMint handles POST /identities requests.
func (h *Handler) HandleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := requireCaller(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[MintRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	contentHash, err := req.ParsedContentHash()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	identityID, err := h.service.Mint(ctx, caller, contentHash, req.Metadata, req.PrivacyLevel)
	if err != nil {
		h.logger.WarnContext(ctx, "identity mint rejected",
			"request_id", requestID,
			"caller", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, MintResponse{ID: identityID})
}

// HandleGetDetails handles GET /identities/{id} requests. Disclosure depth
// depends on who asks; the service applies the privacy policy.
func (h *Handler) HandleGetDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := requireCaller(w, ctx)
	if !ok {
		return
	}
	identityID, err := id.ParseIdentityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	record, err := h.service.GetDetails(ctx, caller, identityID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromIdentity(record))
}

// HandleVerify handles POST /identities/{id}/verify requests.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := requireCaller(w, ctx)
	if !ok {
		return
	}
	identityID, err := id.ParseIdentityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Verify(ctx, caller, identityID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleBatchVerify handles POST /identities/verify/batch requests.
func (h *Handler) HandleBatchVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := requireCaller(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[BatchVerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	verified, err := h.service.BatchVerify(ctx, caller, req.IDs)
	if err != nil {
		httputil.WriteJSON(w, httputil.ToHTTPStatus(dErrors.CodeOf(err)), BatchVerifyResponse{
			Verified: verified,
			Error:    string(dErrors.CodeOf(err)),
			Message:  dErrors.MessageOf(err),
		})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BatchVerifyResponse{Verified: verified})
}

// HandleUpdateMetadata handles PATCH /identities/{id}/metadata requests.
func (h *Handler) HandleUpdateMetadata(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := requireCaller(w, ctx)
	if !ok {
		return
	}
	identityID, err := id.ParseIdentityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateMetadataRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.service.UpdateMetadata(ctx, caller, identityID, req.Metadata); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSetPrivacyLevel handles PATCH /identities/{id}/privacy requests.
func (h *Handler) HandleSetPrivacyLevel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := requireCaller(w, ctx)
	if !ok {
		return
	}
	identityID, err := id.ParseIdentityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetPrivacyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.service.SetPrivacyLevel(ctx, caller, identityID, req.PrivacyLevel); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRevoke handles POST /identities/{id}/revoke requests.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := requireCaller(w, ctx)
	if !ok {
		return
	}
	identityID, err := id.ParseIdentityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Revoke(ctx, caller, identityID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleTransfer handles POST /identities/{id}/transfer requests. Identity
// records are non-transferable; the service rejects every attempt. The
// endpoint exists so the rejection is explicit rather than a 404.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := requireCaller(w, ctx)
	if !ok {
		return
	}
	identityID, err := id.ParseIdentityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	to, err := id.ParseAccountID(req.To)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Transfer(ctx, caller, identityID, to); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func requireCaller(w http.ResponseWriter, ctx context.Context) (id.AccountID, bool) {
	caller := requestcontext.CallerID(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.AccountID{}, false
	}
	return caller, true
}
