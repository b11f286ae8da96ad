package tx

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// Runner executes a function inside one atomic unit of work. The claim path
// uses it to commit a balance credit and a cooldown stamp together or not at
// all.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// MemoryRunner serializes units of work behind a single mutex. With memory
// stores there is no rollback machinery; atomicity comes from validating
// everything before mutating anything while holding this lock, which also
// matches the serial, one-operation-at-a-time processing model.
type MemoryRunner struct {
	mu sync.Mutex
}

func NewMemoryRunner() *MemoryRunner {
	return &MemoryRunner{}
}

func (r *MemoryRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx)
}

// SQLRunner wraps the unit of work in a database transaction carried through
// context, so every transaction-aware store in the call tree joins it.
type SQLRunner struct {
	db *sql.DB
}

func NewSQLRunner(db *sql.DB) *SQLRunner {
	return &SQLRunner{db: db}
}

func (r *SQLRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(WithTx(ctx, t)); err != nil {
		if rbErr := t.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %v: %w", err, rbErr)
		}
		return err
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
