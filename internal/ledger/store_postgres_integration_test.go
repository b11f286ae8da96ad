//go:build integration

package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"aidgate/internal/ledger"
	id "aidgate/pkg/domain"
	"aidgate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *ledger.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = ledger.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "balances", "blacklist", "ledger_state"))
}

func newAccount() id.AccountID {
	return id.AccountID(uuid.New())
}

func (s *PostgresStoreSuite) TestExecuteAppliesMutationAtomically() {
	ctx := context.Background()
	alice, bob := newAccount(), newAccount()

	err := s.store.Execute(ctx, func(v ledger.View) (ledger.Mutation, error) {
		return ledger.Mutation{
			Credits:     map[id.AccountID]uint64{alice: 1000},
			SupplyDelta: 1000,
		}, nil
	})
	s.Require().NoError(err)

	err = s.store.Execute(ctx, func(v ledger.View) (ledger.Mutation, error) {
		balance, err := v.Balance(alice)
		s.Require().NoError(err)
		s.Require().Equal(uint64(1000), balance)
		return ledger.Mutation{
			Debits:  map[id.AccountID]uint64{alice: 400},
			Credits: map[id.AccountID]uint64{bob: 400},
		}, nil
	})
	s.Require().NoError(err)

	balance, err := s.store.BalanceOf(ctx, alice)
	s.NoError(err)
	s.Equal(uint64(600), balance)
	balance, err = s.store.BalanceOf(ctx, bob)
	s.NoError(err)
	s.Equal(uint64(400), balance)

	supply, err := s.store.TotalSupply(ctx)
	s.NoError(err)
	s.Equal(uint64(1000), supply)
}

func (s *PostgresStoreSuite) TestExecuteRollsBackOnValidationError() {
	ctx := context.Background()
	alice := newAccount()

	err := s.store.Execute(ctx, func(ledger.View) (ledger.Mutation, error) {
		return ledger.Mutation{
			Credits:     map[id.AccountID]uint64{alice: 100},
			SupplyDelta: 100,
		}, nil
	})
	s.Require().NoError(err)

	wantErr := errors.New("validation rejected")
	err = s.store.Execute(ctx, func(ledger.View) (ledger.Mutation, error) {
		return ledger.Mutation{}, wantErr
	})
	s.ErrorIs(err, wantErr)

	balance, err := s.store.BalanceOf(ctx, alice)
	s.NoError(err)
	s.Equal(uint64(100), balance, "a rejected callback must leave balances untouched")
}

func (s *PostgresStoreSuite) TestUnknownAccountsHoldZero() {
	balance, err := s.store.BalanceOf(context.Background(), newAccount())
	s.NoError(err)
	s.Zero(balance)
}

func (s *PostgresStoreSuite) TestPauseAndBlacklistFlags() {
	ctx := context.Background()

	paused, err := s.store.Paused(ctx)
	s.NoError(err)
	s.False(paused)

	s.Require().NoError(s.store.SetPaused(ctx, true))
	paused, err = s.store.Paused(ctx)
	s.NoError(err)
	s.True(paused)
	s.Require().NoError(s.store.SetPaused(ctx, false))

	account := newAccount()
	blocked, err := s.store.Blacklisted(ctx, account)
	s.NoError(err)
	s.False(blocked)

	s.Require().NoError(s.store.SetBlacklisted(ctx, account, true))
	blocked, err = s.store.Blacklisted(ctx, account)
	s.NoError(err)
	s.True(blocked)

	// Setting the flag twice must be idempotent.
	s.Require().NoError(s.store.SetBlacklisted(ctx, account, true))
	s.Require().NoError(s.store.SetBlacklisted(ctx, account, false))
	blocked, err = s.store.Blacklisted(ctx, account)
	s.NoError(err)
	s.False(blocked)
}
