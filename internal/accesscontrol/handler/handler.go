package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aidgate/internal/accesscontrol"
	id "aidgate/pkg/domain"
	dErrors "aidgate/pkg/domain-errors"
	"aidgate/pkg/platform/httputil"
	"aidgate/pkg/requestcontext"
)

// Service defines the interface for role management.
type Service interface {
	RolesOf(ctx context.Context, account id.AccountID) ([]accesscontrol.Role, error)
	TransferOwnership(ctx context.Context, caller, newOwner id.AccountID) error
	SetAdmin(ctx context.Context, caller, account id.AccountID, grant bool) error
	SetDistributor(ctx context.Context, caller, account id.AccountID) error
}

// Handler wires role endpoints to the access control service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts role endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/roles/{account}", h.HandleRolesOf)
	r.Post("/roles/owner", h.HandleTransferOwnership)
	r.Post("/roles/admins", h.HandleSetAdmin)
	r.Post("/roles/distributor", h.HandleSetDistributor)
}

// HandleRolesOf handles GET /roles/{account} requests.
func (h *Handler) HandleRolesOf(w http.ResponseWriter, r *http.Request) {
	account, err := id.ParseAccountID(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	roles, err := h.service.RolesOf(r.Context(), account)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if roles == nil {
		roles = []accesscontrol.Role{}
	}
	httputil.WriteJSON(w, http.StatusOK, RolesResponse{Account: account.String(), Roles: roles})
}

// HandleTransferOwnership handles POST /roles/owner requests.
func (h *Handler) HandleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller := requestcontext.CallerID(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransferOwnershipRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	newOwner, err := id.ParseAccountID(req.NewOwner)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.TransferOwnership(ctx, caller, newOwner); err != nil {
		h.logger.WarnContext(ctx, "ownership transfer rejected",
			"request_id", requestID,
			"caller", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSetAdmin handles POST /roles/admins requests.
func (h *Handler) HandleSetAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller := requestcontext.CallerID(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetAdminRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	account, err := id.ParseAccountID(req.Account)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.SetAdmin(ctx, caller, account, req.Grant); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSetDistributor handles POST /roles/distributor requests.
func (h *Handler) HandleSetDistributor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller := requestcontext.CallerID(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetDistributorRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	account, err := id.ParseAccountID(req.Account)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.SetDistributor(ctx, caller, account); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RolesResponse is the wire shape for GET /roles/{account}.
type RolesResponse struct {
	Account string               `json:"account"`
	Roles   []accesscontrol.Role `json:"roles"`
}

// TransferOwnershipRequest is the wire shape for POST /roles/owner.
type TransferOwnershipRequest struct {
	NewOwner string `json:"new_owner"`
}

// SetAdminRequest is the wire shape for POST /roles/admins.
type SetAdminRequest struct {
	Account string `json:"account"`
	Grant   bool   `json:"grant"`
}

// SetDistributorRequest is the wire shape for POST /roles/distributor.
type SetDistributorRequest struct {
	Account string `json:"account"`
}
