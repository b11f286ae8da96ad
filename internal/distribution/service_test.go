package distribution

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"aidgate/internal/accesscontrol"
	"aidgate/internal/ledger"
	id "aidgate/pkg/domain"
	dErrors "aidgate/pkg/domain-errors"
	"aidgate/pkg/requestcontext"
)

type DistributionSuite struct {
	suite.Suite
	owner       id.AccountID
	distributor id.AccountID
	roleStore   *accesscontrol.InMemoryStore
	ledgerSvc   *ledger.Service
	store       *InMemoryStore
	service     *Service
}

func TestDistributionSuite(t *testing.T) {
	suite.Run(t, new(DistributionSuite))
}

func (s *DistributionSuite) SetupTest() {
	ctx := context.Background()
	s.owner = newAccount()
	s.distributor = newAccount()
	s.roleStore = accesscontrol.NewInMemoryStore(s.owner)
	s.Require().NoError(s.roleStore.SetDistributor(ctx, s.distributor))

	authz := accesscontrol.New(s.roleStore)
	s.ledgerSvc = ledger.New(ledger.NewInMemoryStore(), authz, ledger.Info{MaxSupply: 1_000_000})
	s.Require().NoError(s.ledgerSvc.Mint(ctx, s.owner, s.distributor, 10_000))

	s.store = NewInMemoryStore()
	s.service = New(s.store, s.ledgerSvc, s.roleStore)
}

func newAccount() id.AccountID {
	return id.AccountID(uuid.New())
}

func accounts(n int) []id.AccountID {
	out := make([]id.AccountID, n)
	for i := range out {
		out[i] = newAccount()
	}
	return out
}

func (s *DistributionSuite) balance(account id.AccountID) uint64 {
	balance, err := s.ledgerSvc.BalanceOf(context.Background(), account)
	s.Require().NoError(err)
	return balance
}

func (s *DistributionSuite) TestDistribute() {
	ctx := context.Background()

	s.Run("pays every recipient from the distributor's balance", func() {
		recipients := accounts(3)
		result, err := s.service.Distribute(ctx, s.distributor, 100, recipients)
		s.NoError(err)
		s.Equal(3, result.Settled)
		for _, recipient := range recipients {
			s.Equal(uint64(100), s.balance(recipient))
		}
		s.Equal(uint64(10_000-300), s.balance(s.distributor))
	})

	s.Run("records the batch with the request sequence", func() {
		ctxSeq := requestcontext.WithSequence(ctx, 777)
		result, err := s.service.Distribute(ctxSeq, s.distributor, 10, accounts(2))
		s.Require().NoError(err)

		record, err := s.service.Get(ctx, result.ID)
		s.NoError(err)
		s.Equal(s.distributor, record.Distributor)
		s.Equal(uint64(10), record.Amount)
		s.Len(record.Recipients, 2)
		s.Equal(uint64(777), record.Sequence)
	})

	s.Run("rejects callers other than the designated distributor", func() {
		_, err := s.service.Distribute(ctx, s.owner, 100, accounts(1))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("fails when no distributor is designated", func() {
		bare := New(NewInMemoryStore(), s.ledgerSvc, accesscontrol.NewInMemoryStore(s.owner))
		_, err := bare.Distribute(ctx, s.distributor, 100, accounts(1))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("validates amount and recipient bounds", func() {
		_, err := s.service.Distribute(ctx, s.distributor, 0, accounts(1))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

		_, err = s.service.Distribute(ctx, s.distributor, 100, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

		_, err = s.service.Distribute(ctx, s.distributor, 100, accounts(MaxRecipients+1))
		s.True(dErrors.HasCode(err, dErrors.CodeResourceExhausted))
	})
}

func (s *DistributionSuite) TestDistributeFailFast() {
	ctx := context.Background()

	s.Run("stops at the first failing recipient keeping settled transfers", func() {
		blocked := newAccount()
		s.Require().NoError(s.ledgerSvc.SetBlacklisted(ctx, s.owner, blocked, true))

		first, last := newAccount(), newAccount()
		result, err := s.service.Distribute(ctx, s.distributor, 100, []id.AccountID{first, blocked, last})
		s.Error(err)
		s.Require().NotNil(result, "partial results must be returned for reconciliation")
		s.Equal(1, result.Settled)

		s.Equal(uint64(100), s.balance(first))
		s.Equal(uint64(0), s.balance(blocked))
		s.Equal(uint64(0), s.balance(last))

		// The record reflects the full intended batch, not just what settled.
		record, err := s.service.Get(ctx, result.ID)
		s.NoError(err)
		s.Len(record.Recipients, 3)
	})

	s.Run("insufficient distributor funds stop the fold mid-batch", func() {
		poor := newAccount()
		s.Require().NoError(s.roleStore.SetDistributor(ctx, poor))
		defer func() { s.Require().NoError(s.roleStore.SetDistributor(ctx, s.distributor)) }()
		s.Require().NoError(s.ledgerSvc.Mint(ctx, s.owner, poor, 150))

		result, err := s.service.Distribute(ctx, poor, 100, accounts(3))
		s.True(dErrors.HasCode(err, dErrors.CodePolicyViolation))
		s.Require().NotNil(result)
		s.Equal(1, result.Settled)
		s.Equal(uint64(50), s.balance(poor))
	})
}

func (s *DistributionSuite) TestGetAndList() {
	ctx := context.Background()

	s.Run("unknown distribution is not found", func() {
		_, err := s.service.Get(ctx, id.DistributionID(999_999))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("list returns records in id order", func() {
		first, err := s.service.Distribute(ctx, s.distributor, 10, accounts(1))
		s.Require().NoError(err)
		second, err := s.service.Distribute(ctx, s.distributor, 20, accounts(1))
		s.Require().NoError(err)

		records, err := s.service.List(ctx)
		s.NoError(err)
		s.Require().GreaterOrEqual(len(records), 2)

		var ids []id.DistributionID
		for _, record := range records {
			ids = append(ids, record.ID)
		}
		s.Contains(ids, first.ID)
		s.Contains(ids, second.ID)
		s.True(uint64(first.ID) < uint64(second.ID))
	})
}
