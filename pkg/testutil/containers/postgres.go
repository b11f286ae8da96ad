//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a testcontainers Postgres instance with an open
// connection and the full schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// schema is the complete table set. It mirrors the schema comments in each
// store's postgres file.
const schema = `
CREATE TABLE IF NOT EXISTS role_bindings (
    role    TEXT NOT NULL,
    account UUID NOT NULL,
    PRIMARY KEY (role, account)
);
CREATE UNIQUE INDEX IF NOT EXISTS role_singleton
    ON role_bindings (role) WHERE role IN ('owner', 'distributor');

CREATE TABLE IF NOT EXISTS balances (
    account UUID PRIMARY KEY,
    balance BIGINT NOT NULL CHECK (balance >= 0)
);
CREATE TABLE IF NOT EXISTS ledger_state (
    singleton    BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
    total_supply BIGINT  NOT NULL DEFAULT 0 CHECK (total_supply >= 0),
    paused       BOOLEAN NOT NULL DEFAULT FALSE
);
INSERT INTO ledger_state DEFAULT VALUES ON CONFLICT DO NOTHING;
CREATE TABLE IF NOT EXISTS blacklist (account UUID PRIMARY KEY);

CREATE TABLE IF NOT EXISTS identities (
    id            BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    owner         UUID     NOT NULL,
    content_hash  BYTEA    NOT NULL,
    verified      BOOLEAN  NOT NULL DEFAULT FALSE,
    verified_at   BIGINT   NOT NULL DEFAULT 0,
    privacy_level SMALLINT NOT NULL CHECK (privacy_level BETWEEN 0 AND 2),
    metadata      TEXT     NOT NULL DEFAULT '',
    status        TEXT     NOT NULL DEFAULT 'pending'
);
CREATE INDEX IF NOT EXISTS identities_owner ON identities (owner);

CREATE TABLE IF NOT EXISTS eligibility (
    account     UUID    PRIMARY KEY,
    identity_id BIGINT  NOT NULL REFERENCES identities (id),
    eligible    BOOLEAN NOT NULL,
    last_claim  BIGINT  NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS distributions (
    id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    distributor UUID   NOT NULL,
    amount      BIGINT NOT NULL,
    recipients  UUID[] NOT NULL,
    sequence    BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS proposals (
    id            BIGINT  GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    proposer      UUID    NOT NULL,
    description   TEXT    NOT NULL,
    votes_for     BIGINT  NOT NULL DEFAULT 0,
    votes_against BIGINT  NOT NULL DEFAULT 0,
    executed      BOOLEAN NOT NULL DEFAULT FALSE,
    voters        UUID[]  NOT NULL DEFAULT '{}'
);
`

// NewPostgresContainer starts a Postgres container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("aidgate_test"),
		tcpostgres.WithUsername("aidgate"),
		tcpostgres.WithPassword("aidgate"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	// Shared across suites; Ryuk reaps the container at the end of the run.
	return &PostgresContainer{
		Container: container,
		DSN:       dsn,
		DB:        db,
	}
}

// TruncateTables clears the given tables between tests. ledger_state is
// reset rather than truncated so the singleton row survives.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if table == "ledger_state" {
			if _, err := p.DB.ExecContext(ctx,
				`UPDATE ledger_state SET total_supply = 0, paused = FALSE`,
			); err != nil {
				return fmt.Errorf("reset ledger_state: %w", err)
			}
			continue
		}
		if _, err := p.DB.ExecContext(ctx,
			fmt.Sprintf(`TRUNCATE TABLE %s RESTART IDENTITY CASCADE`, table),
		); err != nil {
			if strings.Contains(err.Error(), "does not exist") {
				continue
			}
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}
