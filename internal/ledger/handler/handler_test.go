package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aidgate/internal/accesscontrol"
	"aidgate/internal/ledger"
	id "aidgate/pkg/domain"
	dErrors "aidgate/pkg/domain-errors"
	"aidgate/pkg/testutil"
)

// fixture routes requests through the real ledger service on a memory store
// so the handler tests cover the full decode-authorize-respond path.
type fixture struct {
	router chi.Router
	owner  id.AccountID
	svc    *ledger.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	owner := id.AccountID(uuid.New())
	svc := ledger.New(
		ledger.NewInMemoryStore(),
		accesscontrol.New(accesscontrol.NewInMemoryStore(owner)),
		ledger.Info{Name: "Aid Token", Symbol: "AID", MaxSupply: 1_000_000},
	)
	h := New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	router := chi.NewRouter()
	h.Register(router)
	return &fixture{router: router, owner: owner, svc: svc}
}

func TestHandleInfo(t *testing.T) {
	f := newFixture(t)

	req := testutil.NewJSONRequest(t, http.MethodGet, "/ledger/info", nil)
	rr := testutil.DoRequest(f.router, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	info := testutil.UnmarshalResponse[ledger.Info](t, rr)
	assert.Equal(t, "AID", info.Symbol)
	assert.Equal(t, uint64(1_000_000), info.MaxSupply)
}

func TestHandleMintAndBalance(t *testing.T) {
	f := newFixture(t)
	recipient := id.AccountID(uuid.New())

	req := testutil.NewJSONRequest(t, http.MethodPost, "/ledger/mint", MintRequest{
		Recipient: recipient.String(),
		Amount:    500,
	})
	rr := testutil.DoRequest(f.router, testutil.WithCaller(req, f.owner))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	req = testutil.NewJSONRequest(t, http.MethodGet, "/ledger/balances/"+recipient.String(), nil)
	rr = testutil.DoRequest(f.router, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	balance := testutil.UnmarshalResponse[BalanceResponse](t, rr)
	assert.Equal(t, uint64(500), balance.Balance)

	req = testutil.NewJSONRequest(t, http.MethodGet, "/ledger/supply", nil)
	rr = testutil.DoRequest(f.router, req)
	supply := testutil.UnmarshalResponse[SupplyResponse](t, rr)
	assert.Equal(t, uint64(500), supply.TotalSupply)
}

func TestHandleMintUnauthorized(t *testing.T) {
	f := newFixture(t)
	outsider := id.AccountID(uuid.New())

	req := testutil.NewJSONRequest(t, http.MethodPost, "/ledger/mint", MintRequest{
		Recipient: id.AccountID(uuid.New()).String(),
		Amount:    100,
	})
	rr := testutil.DoRequest(f.router, testutil.WithCaller(req, outsider))
	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, string(dErrors.CodeUnauthorized))
}

func TestHandleTransfer(t *testing.T) {
	f := newFixture(t)
	sender := id.AccountID(uuid.New())
	recipient := id.AccountID(uuid.New())
	require.NoError(t, f.svc.Mint(testutil.Ctx(f.owner, 1), f.owner, sender, 1000))

	t.Run("holder moves own funds", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/ledger/transfers", TransferRequest{
			Sender:    sender.String(),
			Recipient: recipient.String(),
			Amount:    250,
		})
		rr := testutil.DoRequest(f.router, testutil.WithCaller(req, sender))
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("caller other than sender is rejected", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/ledger/transfers", TransferRequest{
			Sender:    sender.String(),
			Recipient: recipient.String(),
			Amount:    10,
		})
		rr := testutil.DoRequest(f.router, testutil.WithCaller(req, recipient))
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, string(dErrors.CodeUnauthorized))
	})

	t.Run("insufficient balance maps to 422", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/ledger/transfers", TransferRequest{
			Sender:    sender.String(),
			Recipient: recipient.String(),
			Amount:    1_000_000,
		})
		rr := testutil.DoRequest(f.router, testutil.WithCaller(req, sender))
		testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, string(dErrors.CodePolicyViolation))

		envelope := testutil.UnmarshalResponse[map[string]string](t, rr)
		assert.Equal(t, ledger.ReasonInsufficient, (*envelope)["error_reason"])
	})

	t.Run("malformed account is a 400", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/ledger/transfers", TransferRequest{
			Sender:    "not-a-uuid",
			Recipient: recipient.String(),
			Amount:    10,
		})
		rr := testutil.DoRequest(f.router, testutil.WithCaller(req, sender))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, string(dErrors.CodeInvalidInput))
	})
}

func TestHandleBatchMint(t *testing.T) {
	f := newFixture(t)
	blocked := id.AccountID(uuid.New())
	require.NoError(t, f.svc.SetBlacklisted(testutil.Ctx(f.owner, 1), f.owner, blocked, true))

	req := testutil.NewJSONRequest(t, http.MethodPost, "/ledger/mint/batch", BatchMintRequest{
		Mints: []MintRequest{
			{Recipient: id.AccountID(uuid.New()).String(), Amount: 10},
			{Recipient: blocked.String(), Amount: 20},
			{Recipient: id.AccountID(uuid.New()).String(), Amount: 30},
		},
	})
	rr := testutil.DoRequest(f.router, testutil.WithCaller(req, f.owner))

	// Fail-fast: the response carries both the applied count and the error.
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	batch := testutil.UnmarshalResponse[BatchResponse](t, rr)
	assert.Equal(t, 1, batch.Applied)
	assert.Equal(t, string(dErrors.CodePolicyViolation), batch.Error)
	assert.Equal(t, ledger.ReasonBlacklisted, batch.Reason)
}

func TestHandleRequiresCaller(t *testing.T) {
	f := newFixture(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/ledger/mint", MintRequest{
		Recipient: id.AccountID(uuid.New()).String(),
		Amount:    100,
	})
	rr := testutil.DoRequest(f.router, req)
	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, string(dErrors.CodeUnauthorized))
}
