package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "aidgate/pkg/domain"
	"aidgate/pkg/platform/tx"
)

// Schema:
//
//	CREATE TABLE balances (
//	    account UUID PRIMARY KEY,
//	    balance BIGINT NOT NULL CHECK (balance >= 0)
//	);
//	CREATE TABLE ledger_state (
//	    singleton    BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
//	    total_supply BIGINT  NOT NULL DEFAULT 0 CHECK (total_supply >= 0),
//	    paused       BOOLEAN NOT NULL DEFAULT FALSE
//	);
//	INSERT INTO ledger_state DEFAULT VALUES;
//	CREATE TABLE blacklist (account UUID PRIMARY KEY);

// ledgerLockKey serializes all ledger writes through one advisory lock,
// matching the serial processing model. Writes are infrequent enough that a
// single writer is the correctness tool of choice here.
const ledgerLockKey = 0x61696467 // "aidg"

// PostgresStore persists the ledger in PostgreSQL. All methods join a
// context transaction when one is present, which is how the claim path gets
// its cross-store atomicity.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) BalanceOf(ctx context.Context, account id.AccountID) (uint64, error) {
	q := tx.Resolve(ctx, s.db)
	var balance int64
	err := q.QueryRowContext(ctx,
		`SELECT balance FROM balances WHERE account = $1`, uuid.UUID(account),
	).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return uint64(balance), nil
}

func (s *PostgresStore) TotalSupply(ctx context.Context) (uint64, error) {
	q := tx.Resolve(ctx, s.db)
	var supply int64
	if err := q.QueryRowContext(ctx, `SELECT total_supply FROM ledger_state`).Scan(&supply); err != nil {
		return 0, fmt.Errorf("read total supply: %w", err)
	}
	return uint64(supply), nil
}

func (s *PostgresStore) Paused(ctx context.Context) (bool, error) {
	q := tx.Resolve(ctx, s.db)
	var paused bool
	if err := q.QueryRowContext(ctx, `SELECT paused FROM ledger_state`).Scan(&paused); err != nil {
		return false, fmt.Errorf("read pause state: %w", err)
	}
	return paused, nil
}

func (s *PostgresStore) SetPaused(ctx context.Context, paused bool) error {
	q := tx.Resolve(ctx, s.db)
	if _, err := q.ExecContext(ctx, `UPDATE ledger_state SET paused = $1`, paused); err != nil {
		return fmt.Errorf("set pause state: %w", err)
	}
	return nil
}

func (s *PostgresStore) Blacklisted(ctx context.Context, account id.AccountID) (bool, error) {
	q := tx.Resolve(ctx, s.db)
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM blacklist WHERE account = $1)`, uuid.UUID(account),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("read blacklist: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) SetBlacklisted(ctx context.Context, account id.AccountID, blacklisted bool) error {
	q := tx.Resolve(ctx, s.db)
	if blacklisted {
		_, err := q.ExecContext(ctx,
			`INSERT INTO blacklist (account) VALUES ($1) ON CONFLICT DO NOTHING`,
			uuid.UUID(account),
		)
		if err != nil {
			return fmt.Errorf("add to blacklist: %w", err)
		}
		return nil
	}
	_, err := q.ExecContext(ctx, `DELETE FROM blacklist WHERE account = $1`, uuid.UUID(account))
	if err != nil {
		return fmt.Errorf("remove from blacklist: %w", err)
	}
	return nil
}

// Execute validates and applies a mutation inside one transaction. When the
// context already carries a transaction (the claim path), it joins it;
// otherwise it opens its own.
func (s *PostgresStore) Execute(ctx context.Context, fn func(v View) (Mutation, error)) error {
	if _, ok := tx.From(ctx); ok {
		return s.executeIn(ctx, fn)
	}
	return tx.NewSQLRunner(s.db).RunInTx(ctx, func(txCtx context.Context) error {
		return s.executeIn(txCtx, fn)
	})
}

func (s *PostgresStore) executeIn(ctx context.Context, fn func(v View) (Mutation, error)) error {
	q := tx.Resolve(ctx, s.db)
	if _, err := q.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, ledgerLockKey); err != nil {
		return fmt.Errorf("acquire ledger lock: %w", err)
	}

	mutation, err := fn(postgresView{ctx: ctx, store: s})
	if err != nil {
		return err
	}

	for account, amount := range mutation.Debits {
		res, err := q.ExecContext(ctx,
			`UPDATE balances SET balance = balance - $2 WHERE account = $1 AND balance >= $2`,
			uuid.UUID(account), int64(amount),
		)
		if err != nil {
			return fmt.Errorf("apply debit: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("apply debit: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("apply debit: balance row missing or insufficient for %s", account)
		}
	}
	for account, amount := range mutation.Credits {
		_, err := q.ExecContext(ctx,
			`INSERT INTO balances (account, balance) VALUES ($1, $2)
			 ON CONFLICT (account) DO UPDATE SET balance = balances.balance + EXCLUDED.balance`,
			uuid.UUID(account), int64(amount),
		)
		if err != nil {
			return fmt.Errorf("apply credit: %w", err)
		}
	}
	if mutation.SupplyDelta != 0 {
		_, err := q.ExecContext(ctx,
			`UPDATE ledger_state SET total_supply = total_supply + $1`, mutation.SupplyDelta,
		)
		if err != nil {
			return fmt.Errorf("apply supply delta: %w", err)
		}
	}
	return nil
}

// postgresView reads through the same transaction Execute runs in.
type postgresView struct {
	ctx   context.Context
	store *PostgresStore
}

func (v postgresView) Balance(account id.AccountID) (uint64, error) {
	return v.store.BalanceOf(v.ctx, account)
}

func (v postgresView) TotalSupply() (uint64, error) {
	return v.store.TotalSupply(v.ctx)
}

func (v postgresView) Paused() (bool, error) {
	return v.store.Paused(v.ctx)
}

func (v postgresView) Blacklisted(account id.AccountID) (bool, error) {
	return v.store.Blacklisted(v.ctx, account)
}
