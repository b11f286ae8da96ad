package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"aidgate/internal/claims/handler/mocks"
	id "aidgate/pkg/domain"
	dErrors "aidgate/pkg/domain-errors"
	"aidgate/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

func newTestHandler(t *testing.T) (*Handler, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := New(mockService, logger)
	r := chi.NewRouter()
	handler.Register(r)
	return handler, mockService
}

func TestHandleClaim(t *testing.T) {
	handler, mockService := newTestHandler(t)
	caller := id.AccountID(uuid.New())
	mockService.EXPECT().Claim(gomock.Any(), caller).Return(uint64(100), nil)

	req := testutil.WithCaller(httptest.NewRequest(http.MethodPost, "/claims", nil), caller)
	w := httptest.NewRecorder()
	handler.HandleClaim(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp ClaimResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint64(100), resp.Amount)
}

func TestHandleClaimUnauthenticated(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/claims", nil)
	w := httptest.NewRecorder()
	handler.HandleClaim(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandleClaimRejected(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "cooldown not elapsed",
			err:        dErrors.New(dErrors.CodePolicyViolation, "claim cooldown has not elapsed"),
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "not registered",
			err:        dErrors.New(dErrors.CodeNotFound, "account is not registered"),
			wantStatus: http.StatusNotFound,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler, mockService := newTestHandler(t)
			caller := id.AccountID(uuid.New())
			mockService.EXPECT().Claim(gomock.Any(), caller).Return(uint64(0), tc.err)

			req := testutil.WithCaller(httptest.NewRequest(http.MethodPost, "/claims", nil), caller)
			w := httptest.NewRecorder()
			handler.HandleClaim(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
		})
	}
}
