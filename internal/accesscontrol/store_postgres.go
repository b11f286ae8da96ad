package accesscontrol

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

// Schema documents the expected table; migrations live with deployment
// tooling.
//
//	CREATE TABLE role_bindings (
//	    role    TEXT NOT NULL,
//	    account UUID NOT NULL,
//	    PRIMARY KEY (role, account)
//	);
//	CREATE UNIQUE INDEX role_singleton
//	    ON role_bindings (role) WHERE role IN ('owner', 'distributor');

// PostgresStore persists role bindings in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Owner(ctx context.Context) (id.AccountID, error) {
	return s.singleton(ctx, string(RoleOwner))
}

func (s *PostgresStore) SetOwner(ctx context.Context, account id.AccountID) error {
	return s.setSingleton(ctx, string(RoleOwner), account)
}

func (s *PostgresStore) IsAdmin(ctx context.Context, account id.AccountID) (bool, error) {
	q := tx.Resolve(ctx, s.db)
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM role_bindings WHERE role = 'admin' AND account = $1)`,
		uuid.UUID(account),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check admin binding: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) SetAdmin(ctx context.Context, account id.AccountID, grant bool) error {
	q := tx.Resolve(ctx, s.db)
	if grant {
		_, err := q.ExecContext(ctx,
			`INSERT INTO role_bindings (role, account) VALUES ('admin', $1)
			 ON CONFLICT DO NOTHING`,
			uuid.UUID(account),
		)
		if err != nil {
			return fmt.Errorf("grant admin: %w", err)
		}
		return nil
	}
	_, err := q.ExecContext(ctx,
		`DELETE FROM role_bindings WHERE role = 'admin' AND account = $1`,
		uuid.UUID(account),
	)
	if err != nil {
		return fmt.Errorf("revoke admin: %w", err)
	}
	return nil
}

func (s *PostgresStore) Distributor(ctx context.Context) (id.AccountID, error) {
	return s.singleton(ctx, string(RoleDistributor))
}

func (s *PostgresStore) SetDistributor(ctx context.Context, account id.AccountID) error {
	return s.setSingleton(ctx, string(RoleDistributor), account)
}

func (s *PostgresStore) singleton(ctx context.Context, role string) (id.AccountID, error) {
	q := tx.Resolve(ctx, s.db)
	var account uuid.UUID
	err := q.QueryRowContext(ctx,
		`SELECT account FROM role_bindings WHERE role = $1`, role,
	).Scan(&account)
	if errors.Is(err, sql.ErrNoRows) {
		return id.AccountID{}, sentinel.ErrNotFound
	}
	if err != nil {
		return id.AccountID{}, fmt.Errorf("resolve %s: %w", role, err)
	}
	return id.AccountID(account), nil
}

func (s *PostgresStore) setSingleton(ctx context.Context, role string, account id.AccountID) error {
	q := tx.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx,
		`INSERT INTO role_bindings (role, account) VALUES ($1, $2)
		 ON CONFLICT (role) WHERE role IN ('owner', 'distributor')
		 DO UPDATE SET account = EXCLUDED.account`,
		role, uuid.UUID(account),
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", role, err)
	}
	return nil
}
