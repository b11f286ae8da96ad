package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "aidgate/pkg/domain"
	"aidgate/pkg/platform/sentinel"
	"aidgate/pkg/platform/tx"
)

// Schema:
//
//	CREATE TABLE identities (
//	    id            BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//	    owner         UUID     NOT NULL,
//	    content_hash  BYTEA    NOT NULL,
//	    verified      BOOLEAN  NOT NULL DEFAULT FALSE,
//	    verified_at   BIGINT   NOT NULL DEFAULT 0,
//	    privacy_level SMALLINT NOT NULL CHECK (privacy_level BETWEEN 0 AND 2),
//	    metadata      TEXT     NOT NULL DEFAULT '',
//	    status        TEXT     NOT NULL DEFAULT 'pending'
//	);
//	CREATE INDEX identities_owner ON identities (owner);

// PostgresStore persists identity records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, record *Identity) (id.IdentityID, error) {
	q := tx.Resolve(ctx, s.db)
	var assigned int64
	err := q.QueryRowContext(ctx,
		`INSERT INTO identities (owner, content_hash, privacy_level, metadata, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		uuid.UUID(record.Owner), record.ContentHash, int16(record.PrivacyLevel), record.Metadata, string(record.Status),
	).Scan(&assigned)
	if err != nil {
		return 0, fmt.Errorf("insert identity: %w", err)
	}
	return id.IdentityID(assigned), nil
}

func (s *PostgresStore) FindByID(ctx context.Context, identityID id.IdentityID) (*Identity, error) {
	q := tx.Resolve(ctx, s.db)
	return scanIdentity(q.QueryRowContext(ctx,
		`SELECT id, owner, content_hash, verified, verified_at, privacy_level, metadata, status
		 FROM identities WHERE id = $1`,
		int64(identityID),
	))
}

// Execute locks the row FOR UPDATE, validates, mutates, and writes back in
// one transaction.
func (s *PostgresStore) Execute(ctx context.Context, identityID id.IdentityID, validate func(*Identity) error, mutate func(*Identity)) (*Identity, error) {
	var updated *Identity
	run := func(txCtx context.Context) error {
		q := tx.Resolve(txCtx, s.db)
		record, err := scanIdentity(q.QueryRowContext(txCtx,
			`SELECT id, owner, content_hash, verified, verified_at, privacy_level, metadata, status
			 FROM identities WHERE id = $1 FOR UPDATE`,
			int64(identityID),
		))
		if err != nil {
			return err
		}
		if err := validate(record); err != nil {
			return err
		}
		mutate(record)
		_, err = q.ExecContext(txCtx,
			`UPDATE identities
			 SET verified = $2, verified_at = $3, privacy_level = $4, metadata = $5, status = $6
			 WHERE id = $1`,
			int64(record.ID), record.Verified, int64(record.VerifiedAt),
			int16(record.PrivacyLevel), record.Metadata, string(record.Status),
		)
		if err != nil {
			return fmt.Errorf("update identity: %w", err)
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

func scanIdentity(row *sql.Row) (*Identity, error) {
	var (
		record       Identity
		recordID     int64
		owner        uuid.UUID
		verifiedAt   int64
		privacyLevel int16
		status       string
	)
	err := row.Scan(&recordID, &owner, &record.ContentHash, &record.Verified,
		&verifiedAt, &privacyLevel, &record.Metadata, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan identity: %w", err)
	}
	record.ID = id.IdentityID(recordID)
	record.Owner = id.AccountID(owner)
	record.VerifiedAt = uint64(verifiedAt)
	record.PrivacyLevel = uint8(privacyLevel)
	record.Status = Status(status)
	return &record, nil
}
