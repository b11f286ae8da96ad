package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aidgate/internal/ledger"
	id "aidgate/pkg/domain"
	dErrors "aidgate/pkg/domain-errors"
	"aidgate/pkg/platform/httputil"
	"aidgate/pkg/requestcontext"
)

// Service defines the interface for ledger operations.
type Service interface {
	Info() ledger.Info
	BalanceOf(ctx context.Context, account id.AccountID) (uint64, error)
	TotalSupply(ctx context.Context) (uint64, error)
	Transfer(ctx context.Context, caller, sender, recipient id.AccountID, amount uint64) error
	Mint(ctx context.Context, caller, recipient id.AccountID, amount uint64) error
	Burn(ctx context.Context, caller, holder id.AccountID, amount uint64) error
	SetPaused(ctx context.Context, caller id.AccountID, paused bool) error
	SetBlacklisted(ctx context.Context, caller, account id.AccountID, blacklisted bool) error
	BatchMint(ctx context.Context, caller id.AccountID, requests []ledger.MintRequest) (int, error)
	BatchBlacklist(ctx context.Context, caller id.AccountID, requests []ledger.BlacklistRequest) (int, error)
}

// Handler wires ledger endpoints to the ledger service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts ledger endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/ledger/info", h.HandleInfo)
	r.Get("/ledger/supply", h.HandleSupply)
	r.Get("/ledger/balances/{account}", h.HandleBalance)
	r.Post("/ledger/transfers", h.HandleTransfer)
	r.Post("/ledger/mint", h.HandleMint)
	r.Post("/ledger/mint/batch", h.HandleBatchMint)
	r.Post("/ledger/burn", h.HandleBurn)
	r.Post("/ledger/pause", h.HandleSetPaused)
	r.Post("/ledger/blacklist", h.HandleSetBlacklisted)
	r.Post("/ledger/blacklist/batch", h.HandleBatchBlacklist)
}

// HandleInfo handles GET /ledger/info requests.
func (h *Handler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.service.Info())
}

// HandleSupply handles GET /ledger/supply requests.
func (h *Handler) HandleSupply(w http.ResponseWriter, r *http.Request) {
	supply, err := h.service.TotalSupply(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SupplyResponse{TotalSupply: supply})
}

// HandleBalance handles GET /ledger/balances/{account} requests.
func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	account, err := id.ParseAccountID(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	balance, err := h.service.BalanceOf(r.Context(), account)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BalanceResponse{Account: account.String(), Balance: balance})
}

// HandleTransfer handles POST /ledger/transfers requests.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := requireCaller(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	sender, recipient, err := req.Parse()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Transfer(ctx, caller, sender, recipient, req.Amount); err != nil {
		h.logger.WarnContext(ctx, "transfer rejected",
			"request_id", requestID,
			"caller", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMint handles POST /ledger/mint requests.
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
	recipient, err := id.ParseAccountID(req.Recipient)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Mint(ctx, caller, recipient, req.Amount); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleBatchMint handles POST /ledger/mint/batch requests.
func (h *Handler) HandleBatchMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := requireCaller(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[BatchMintRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	requests, err := req.Parse()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	applied, err := h.service.BatchMint(ctx, caller, requests)
	writeBatchResult(w, applied, err)
}

// HandleBurn handles POST /ledger/burn requests.
func (h *Handler) HandleBurn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := requireCaller(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[BurnRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	holder, err := id.ParseAccountID(req.Holder)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Burn(ctx, caller, holder, req.Amount); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSetPaused handles POST /ledger/pause requests.
func (h *Handler) HandleSetPaused(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := requireCaller(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[PauseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.service.SetPaused(ctx, caller, req.Paused); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSetBlacklisted handles POST /ledger/blacklist requests.
func (h *Handler) HandleSetBlacklisted(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := requireCaller(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[BlacklistRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	account, err := id.ParseAccountID(req.Account)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.SetBlacklisted(ctx, caller, account, req.Blacklisted); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleBatchBlacklist handles POST /ledger/blacklist/batch requests.
func (h *Handler) HandleBatchBlacklist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := requireCaller(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[BatchBlacklistRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	requests, err := req.Parse()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	applied, err := h.service.BatchBlacklist(ctx, caller, requests)
	writeBatchResult(w, applied, err)
}

func requireCaller(w http.ResponseWriter, ctx context.Context) (id.AccountID, bool) {
	caller := requestcontext.CallerID(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.AccountID{}, false
	}
	return caller, true
}

// writeBatchResult reports fail-fast fold outcomes: a failed batch still
// surfaces how many elements were committed before the failure.
func writeBatchResult(w http.ResponseWriter, applied int, err error) {
	if err != nil {
		httputil.WriteJSON(w, httputil.ToHTTPStatus(dErrors.CodeOf(err)), BatchResponse{
			Applied: applied,
			Error:   string(dErrors.CodeOf(err)),
			Reason:  dErrors.ReasonOf(err),
			Message: dErrors.MessageOf(err),
		})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BatchResponse{Applied: applied})
}
