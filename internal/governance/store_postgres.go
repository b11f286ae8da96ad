package governance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "aidgate/pkg/domain"
	"aidgate/pkg/platform/sentinel"
	"aidgate/pkg/platform/tx"
)

// Schema:
//
//	CREATE TABLE proposals (
//	    id            BIGINT  GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//	    proposer      UUID    NOT NULL,
//	    description   TEXT    NOT NULL,
//	    votes_for     BIGINT  NOT NULL DEFAULT 0,
//	    votes_against BIGINT  NOT NULL DEFAULT 0,
//	    executed      BOOLEAN NOT NULL DEFAULT FALSE,
//	    voters        UUID[]  NOT NULL DEFAULT '{}'
//	);

// PostgresStore persists proposals in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, proposal *Proposal) (id.ProposalID, error) {
	q := tx.Resolve(ctx, s.db)
	var assigned int64
	err := q.QueryRowContext(ctx,
		`INSERT INTO proposals (proposer, description)
		 VALUES ($1, $2)
		 RETURNING id`,
		uuid.UUID(proposal.Proposer), proposal.Description,
	).Scan(&assigned)
	if err != nil {
		return 0, fmt.Errorf("insert proposal: %w", err)
	}
	proposal.ID = id.ProposalID(assigned)
	return proposal.ID, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, proposalID id.ProposalID) (*Proposal, error) {
	q := tx.Resolve(ctx, s.db)
	return scanProposal(q.QueryRowContext(ctx,
		`SELECT id, proposer, description, votes_for, votes_against, executed, voters
		 FROM proposals WHERE id = $1`,
		int64(proposalID),
	))
}

// Execute locks the row FOR UPDATE, validates, mutates, and writes back,
// joining a context transaction when present.
func (s *PostgresStore) Execute(ctx context.Context, proposalID id.ProposalID, validate func(*Proposal) error, mutate func(*Proposal)) (*Proposal, error) {
	var updated *Proposal
	run := func(txCtx context.Context) error {
		q := tx.Resolve(txCtx, s.db)
		proposal, err := scanProposal(q.QueryRowContext(txCtx,
			`SELECT id, proposer, description, votes_for, votes_against, executed, voters
			 FROM proposals WHERE id = $1 FOR UPDATE`,
			int64(proposalID),
		))
		if err != nil {
			return err
		}
		if err := validate(proposal); err != nil {
			return err
		}
		mutate(proposal)
		voters := proposal.Voters()
		encoded := make([]string, len(voters))
		for i, voter := range voters {
			encoded[i] = uuid.UUID(voter).String()
		}
		_, err = q.ExecContext(txCtx,
			`UPDATE proposals
			 SET votes_for = $2, votes_against = $3, executed = $4, voters = $5
			 WHERE id = $1`,
			int64(proposal.ID), int64(proposal.VotesFor), int64(proposal.VotesAgainst),
			proposal.Executed, pq.Array(encoded),
		)
		if err != nil {
			return fmt.Errorf("update proposal: %w", err)
		}
		updated = proposal
		return nil
	}

	if _, ok := tx.From(ctx); ok {
		if err := run(ctx); err != nil {
			return nil, err
		}
		return updated, nil
	}
	if err := tx.NewSQLRunner(s.db).RunInTx(ctx, run); err != nil {
		return nil, err
	}
	return updated, nil
}

func scanProposal(row *sql.Row) (*Proposal, error) {
	var (
		proposal     Proposal
		proposalID   int64
		proposer     uuid.UUID
		votesFor     int64
		votesAgainst int64
		voters       pq.StringArray
	)
	err := row.Scan(&proposalID, &proposer, &proposal.Description, &votesFor, &votesAgainst, &proposal.Executed, &voters)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan proposal: %w", err)
	}
	proposal.ID = id.ProposalID(proposalID)
	proposal.Proposer = id.AccountID(proposer)
	proposal.VotesFor = uint64(votesFor)
	proposal.VotesAgainst = uint64(votesAgainst)
	parsed := make([]id.AccountID, 0, len(voters))
	for _, v := range voters {
		u, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("parse voter %q: %w", v, err)
		}
		parsed = append(parsed, id.AccountID(u))
	}
	proposal.SetVoters(parsed)
	return &proposal, nil
}
