package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aidgate/internal/audit"
	id "aidgate/pkg/domain"
	dErrors "aidgate/pkg/domain-errors"
	"aidgate/pkg/platform/httputil"
	"aidgate/pkg/requestcontext"
)

// Reader lists recorded audit events.
type Reader interface {
	List(ctx context.Context) ([]audit.Event, error)
}

// AdminChecker gates trail access to owner/admin callers.
type AdminChecker interface {
	IsAdmin(ctx context.Context, account id.AccountID) (bool, error)
}

// Handler exposes the audit trail read endpoint.
type Handler struct {
	reader Reader
	authz  AdminChecker
	logger *slog.Logger
}

func New(reader Reader, authz AdminChecker, logger *slog.Logger) *Handler {
	return &Handler{reader: reader, authz: authz, logger: logger}
}

// Register mounts the audit endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/audit/events", h.HandleList)
}

// HandleList handles GET /audit/events requests. Admin only.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.CallerID(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	isAdmin, err := h.authz.IsAdmin(ctx, caller)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !isAdmin {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "audit trail access requires admin"))
		return
	}
	events, err := h.reader.List(ctx)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read audit trail"))
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, events)
}
