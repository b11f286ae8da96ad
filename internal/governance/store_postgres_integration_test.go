//go:build integration

package governance_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"aidgate/internal/governance"
	id "aidgate/pkg/domain"
	"aidgate/pkg/platform/sentinel"
	"aidgate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *governance.PostgresStore
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
	s.store = governance.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "proposals"))
}

func newAccount() id.AccountID {
	return id.AccountID(uuid.New())
}

func (s *PostgresStoreSuite) createProposal() id.ProposalID {
	proposal, err := governance.NewProposal(newAccount(), "test proposal")
	s.Require().NoError(err)
	proposalID, err := s.store.Create(context.Background(), proposal)
	s.Require().NoError(err)
	return proposalID
}

func (s *PostgresStoreSuite) TestCreateAssignsIncreasingIDs() {
	first := s.createProposal()
	second := s.createProposal()
	s.Greater(uint64(second), uint64(first))
}

func (s *PostgresStoreSuite) TestFindRoundTripsVoters() {
	ctx := context.Background()
	proposalID := s.createProposal()
	voterA, voterB := newAccount(), newAccount()

	_, err := s.store.Execute(ctx, proposalID,
		func(*governance.Proposal) error { return nil },
		func(p *governance.Proposal) {
			s.Require().NoError(p.RecordVote(voterA, true))
			s.Require().NoError(p.RecordVote(voterB, false))
		},
	)
	s.Require().NoError(err)

	proposal, err := s.store.FindByID(ctx, proposalID)
	s.Require().NoError(err)
	s.Equal(uint64(1), proposal.VotesFor)
	s.Equal(uint64(1), proposal.VotesAgainst)
	s.True(proposal.HasVoted(voterA))
	s.True(proposal.HasVoted(voterB))
	s.False(proposal.HasVoted(newAccount()))
}

func (s *PostgresStoreSuite) TestExecutePersistsExecutedFlag() {
	ctx := context.Background()
	proposalID := s.createProposal()

	_, err := s.store.Execute(ctx, proposalID,
		func(*governance.Proposal) error { return nil },
		func(p *governance.Proposal) { p.Executed = true },
	)
	s.Require().NoError(err)

	proposal, err := s.store.FindByID(ctx, proposalID)
	s.Require().NoError(err)
	s.True(proposal.Executed)
}

func (s *PostgresStoreSuite) TestExecuteValidationFailureLeavesRow() {
	ctx := context.Background()
	proposalID := s.createProposal()

	wantErr := errors.New("rejected")
	_, err := s.store.Execute(ctx, proposalID,
		func(*governance.Proposal) error { return wantErr },
		func(p *governance.Proposal) { p.Executed = true },
	)
	s.ErrorIs(err, wantErr)

	proposal, err := s.store.FindByID(ctx, proposalID)
	s.Require().NoError(err)
	s.False(proposal.Executed)
}

func (s *PostgresStoreSuite) TestUnknownProposal() {
	ctx := context.Background()

	_, err := s.store.FindByID(ctx, id.ProposalID(999_999))
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.Execute(ctx, id.ProposalID(999_999),
		func(*governance.Proposal) error { return nil },
		func(*governance.Proposal) {},
	)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
