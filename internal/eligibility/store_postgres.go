package eligibility

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
//	CREATE TABLE eligibility (
//	    account     UUID    PRIMARY KEY,
//	    identity_id BIGINT  NOT NULL REFERENCES identities (id),
//	    eligible    BOOLEAN NOT NULL,
//	    last_claim  BIGINT  NOT NULL DEFAULT 0
//	);

// PostgresStore persists eligibility records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, record *Record) error {
	q := tx.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx,
		`INSERT INTO eligibility (account, identity_id, eligible, last_claim)
		 VALUES ($1, $2, $3, $4)`,
		uuid.UUID(record.Account), int64(record.IdentityID), record.Eligible, int64(record.LastClaim),
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert eligibility record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, account id.AccountID) (*Record, error) {
	q := tx.Resolve(ctx, s.db)
	return scanRecord(q.QueryRowContext(ctx,
		`SELECT account, identity_id, eligible, last_claim FROM eligibility WHERE account = $1`,
		uuid.UUID(account),
	))
}

// Execute locks the row FOR UPDATE, validates, mutates, and writes back.
// It joins a context transaction when present, which is how the claim path
// couples the stamp with the ledger credit.
func (s *PostgresStore) Execute(ctx context.Context, account id.AccountID, validate func(*Record) error, mutate func(*Record)) (*Record, error) {
	var updated *Record
	run := func(txCtx context.Context) error {
		q := tx.Resolve(txCtx, s.db)
		record, err := scanRecord(q.QueryRowContext(txCtx,
			`SELECT account, identity_id, eligible, last_claim FROM eligibility
			 WHERE account = $1 FOR UPDATE`,
			uuid.UUID(account),
		))
		if err != nil {
			return err
		}
		if err := validate(record); err != nil {
			return err
		}
		mutate(record)
		_, err = q.ExecContext(txCtx,
			`UPDATE eligibility SET eligible = $2, last_claim = $3 WHERE account = $1`,
			uuid.UUID(record.Account), record.Eligible, int64(record.LastClaim),
		)
		if err != nil {
			return fmt.Errorf("update eligibility record: %w", err)
		}
		updated = record
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

func scanRecord(row *sql.Row) (*Record, error) {
	var (
		record     Record
		account    uuid.UUID
		identityID int64
		lastClaim  int64
	)
	err := row.Scan(&account, &identityID, &record.Eligible, &lastClaim)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan eligibility record: %w", err)
	}
	record.Account = id.AccountID(account)
	record.IdentityID = id.IdentityID(identityID)
	record.LastClaim = uint64(lastClaim)
	return &record, nil
}
