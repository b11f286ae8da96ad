//go:build integration

package eligibility_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"aidgate/internal/eligibility"
	"aidgate/internal/identity"
	id "aidgate/pkg/domain"
	"aidgate/pkg/platform/sentinel"
	"aidgate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres   *containers.PostgresContainer
	store      *eligibility.PostgresStore
	identities *identity.PostgresStore
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
	s.store = eligibility.NewPostgres(s.postgres.DB)
	s.identities = identity.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "eligibility", "identities"))
}

func newAccount() id.AccountID {
	return id.AccountID(uuid.New())
}

// createIdentity satisfies the foreign key from eligibility to identities.
func (s *PostgresStoreSuite) createIdentity(owner id.AccountID) id.IdentityID {
	record, err := identity.NewIdentity(owner, []byte("hash"), "", 1)
	s.Require().NoError(err)
	identityID, err := s.identities.Create(context.Background(), record)
	s.Require().NoError(err)
	return identityID
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	account := newAccount()
	identityID := s.createIdentity(account)

	err := s.store.Create(ctx, &eligibility.Record{
		Account:    account,
		IdentityID: identityID,
		Eligible:   true,
	})
	s.Require().NoError(err)

	record, err := s.store.Find(ctx, account)
	s.Require().NoError(err)
	s.Equal(account, record.Account)
	s.Equal(identityID, record.IdentityID)
	s.True(record.Eligible)
	s.Zero(record.LastClaim)
}

func (s *PostgresStoreSuite) TestCreateDuplicateIsConflict() {
	ctx := context.Background()
	account := newAccount()
	identityID := s.createIdentity(account)

	record := &eligibility.Record{Account: account, IdentityID: identityID, Eligible: true}
	s.Require().NoError(s.store.Create(ctx, record))

	err := s.store.Create(ctx, record)
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestFindUnknownAccount() {
	_, err := s.store.Find(context.Background(), newAccount())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestExecuteStampsUnderRowLock() {
	ctx := context.Background()
	account := newAccount()
	identityID := s.createIdentity(account)
	s.Require().NoError(s.store.Create(ctx, &eligibility.Record{
		Account:    account,
		IdentityID: identityID,
		Eligible:   true,
	}))

	updated, err := s.store.Execute(ctx, account,
		func(record *eligibility.Record) error {
			s.Zero(record.LastClaim)
			return nil
		},
		func(record *eligibility.Record) {
			record.LastClaim = 1234
		},
	)
	s.Require().NoError(err)
	s.Equal(uint64(1234), updated.LastClaim)

	record, err := s.store.Find(ctx, account)
	s.Require().NoError(err)
	s.Equal(uint64(1234), record.LastClaim)
}

func (s *PostgresStoreSuite) TestExecuteValidationFailureLeavesRecord() {
	ctx := context.Background()
	account := newAccount()
	identityID := s.createIdentity(account)
	s.Require().NoError(s.store.Create(ctx, &eligibility.Record{
		Account:    account,
		IdentityID: identityID,
		Eligible:   false,
	}))

	wantErr := errors.New("not eligible")
	_, err := s.store.Execute(ctx, account,
		func(*eligibility.Record) error { return wantErr },
		func(record *eligibility.Record) { record.LastClaim = 99 },
	)
	s.ErrorIs(err, wantErr)

	record, err := s.store.Find(ctx, account)
	s.Require().NoError(err)
	s.Zero(record.LastClaim)
}

func (s *PostgresStoreSuite) TestExecuteUnknownAccount() {
	_, err := s.store.Execute(context.Background(), newAccount(),
		func(*eligibility.Record) error { return nil },
		func(*eligibility.Record) {},
	)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
