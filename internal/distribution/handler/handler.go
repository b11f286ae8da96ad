package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aidgate/internal/distribution"
	id "aidgate/pkg/domain"
	dErrors "aidgate/pkg/domain-errors"
	"aidgate/pkg/platform/httputil"
	"aidgate/pkg/requestcontext"
)

// Service defines the interface for distribution operations.
type Service interface {
	Distribute(ctx context.Context, caller id.AccountID, amount uint64, recipients []id.AccountID) (*distribution.Result, error)
	Get(ctx context.Context, distID id.DistributionID) (*distribution.Distribution, error)
	List(ctx context.Context) ([]*distribution.Distribution, error)
}

// Handler wires distribution endpoints to the distribution engine.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts distribution endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/distributions", h.HandleDistribute)
	r.Get("/distributions", h.HandleList)
	r.Get("/distributions/{id}", h.HandleGet)
}

// HandleDistribute handles POST /distributions requests. A partially
// settled batch still returns the distribution id and the settled count
// alongside the error that stopped the fold.
func (h *Handler) HandleDistribute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller := requestcontext.CallerID(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[DistributeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	recipients, err := req.ParsedRecipients()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.service.Distribute(ctx, caller, req.Amount, recipients)
	if err != nil {
		h.logger.WarnContext(ctx, "distribution stopped",
			"request_id", requestID,
			"caller", caller,
			"error", err,
		)
		resp := DistributeResponse{
			Error:   string(dErrors.CodeOf(err)),
			Message: dErrors.MessageOf(err),
		}
		if result != nil {
			resp.ID = result.ID
			resp.Settled = result.Settled
		}
		httputil.WriteJSON(w, httputil.ToHTTPStatus(dErrors.CodeOf(err)), resp)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, DistributeResponse{ID: result.ID, Settled: result.Settled})
}

// HandleGet handles GET /distributions/{id} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	distID, err := id.ParseDistributionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	dist, err := h.service.Get(r.Context(), distID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dist)
}

// HandleList handles GET /distributions requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	dists, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if dists == nil {
		dists = []*distribution.Distribution{}
	}
	httputil.WriteJSON(w, http.StatusOK, dists)
}

// DistributeRequest is the wire shape for POST /distributions.
type DistributeRequest struct {
	Amount     uint64   `json:"amount"`
	Recipients []string `json:"recipients"`
}

func (r DistributeRequest) ParsedRecipients() ([]id.AccountID, error) {
	out := make([]id.AccountID, 0, len(r.Recipients))
	for _, raw := range r.Recipients {
		account, err := id.ParseAccountID(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, account)
	}
	return out, nil
}

// DistributeResponse reports the batch outcome. Settled counts recipients
// paid before the fold stopped; on success it equals the recipient count.
type DistributeResponse struct {
	ID      id.DistributionID `json:"id,omitempty"`
	Settled int               `json:"settled"`
	Error   string            `json:"error,omitempty"`
	Message string            `json:"error_description,omitempty"`
}
