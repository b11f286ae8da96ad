package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aidgate/internal/governance"
	id "aidgate/pkg/domain"
	dErrors "aidgate/pkg/domain-errors"
	"aidgate/pkg/platform/httputil"
	"aidgate/pkg/requestcontext"
)

// Service defines the interface for governance operations.
type Service interface {
	Propose(ctx context.Context, caller id.AccountID, description string) (*governance.Proposal, error)
	Vote(ctx context.Context, caller id.AccountID, proposalID id.ProposalID, inFavor bool) (*governance.Proposal, error)
	ExecuteProposal(ctx context.Context, caller id.AccountID, proposalID id.ProposalID) (*governance.Proposal, error)
	Get(ctx context.Context, proposalID id.ProposalID) (*governance.Proposal, error)
}

// Handler wires governance endpoints to the governance engine.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts governance endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/proposals", h.HandlePropose)
	r.Get("/proposals/{id}", h.HandleGet)
	r.Post("/proposals/{id}/votes", h.HandleVote)
	r.Post("/proposals/{id}/execute", h.HandleExecute)
}

// HandlePropose handles POST /proposals requests.
func (h *Handler) HandlePropose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller := requestcontext.CallerID(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[ProposeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	proposal, err := h.service.Propose(ctx, caller, req.Description)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromProposal(proposal))
}

// HandleGet handles GET /proposals/{id} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	proposalID, err := id.ParseProposalID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	proposal, err := h.service.Get(r.Context(), proposalID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProposal(proposal))
}

// HandleVote handles POST /proposals/{id}/votes requests.
func (h *Handler) HandleVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller := requestcontext.CallerID(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	proposalID, err := id.ParseProposalID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[VoteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	proposal, err := h.service.Vote(ctx, caller, proposalID, req.InFavor)
	if err != nil {
		h.logger.WarnContext(ctx, "vote rejected",
			"request_id", requestID,
			"caller", caller,
			"proposal_id", proposalID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProposal(proposal))
}

// HandleExecute handles POST /proposals/{id}/execute requests.
func (h *Handler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller := requestcontext.CallerID(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	proposalID, err := id.ParseProposalID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	proposal, err := h.service.ExecuteProposal(ctx, caller, proposalID)
	if err != nil {
		h.logger.WarnContext(ctx, "proposal execution rejected",
			"request_id", requestID,
			"caller", caller,
			"proposal_id", proposalID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProposal(proposal))
}

// ProposeRequest is the wire shape for POST /proposals.
type ProposeRequest struct {
	Description string `json:"description"`
}

// VoteRequest is the wire shape for POST /proposals/{id}/votes.
type VoteRequest struct {
	InFavor bool `json:"in_favor"`
}

// ProposalResponse is the wire shape for proposal reads.
type ProposalResponse struct {
	ID           id.ProposalID `json:"id"`
	Proposer     string        `json:"proposer"`
	Description  string        `json:"description"`
	VotesFor     uint64        `json:"votes_for"`
	VotesAgainst uint64        `json:"votes_against"`
	Executed     bool          `json:"executed"`
}

// FromProposal maps the domain record onto the wire shape. The voter set
// stays private.
func FromProposal(p *governance.Proposal) ProposalResponse {
	return ProposalResponse{
		ID:           p.ID,
		Proposer:     p.Proposer.String(),
		Description:  p.Description,
		VotesFor:     p.VotesFor,
		VotesAgainst: p.VotesAgainst,
		Executed:     p.Executed,
	}
}
