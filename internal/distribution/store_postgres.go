package distribution

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
//	CREATE TABLE distributions (
//	    id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//	    distributor UUID   NOT NULL,
//	    amount      BIGINT NOT NULL,
//	    recipients  UUID[] NOT NULL,
//	    sequence    BIGINT NOT NULL
//	);

// PostgresStore persists distribution records in PostgreSQL. Rows are
// append-only; there is no update path.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, dist *Distribution) (id.DistributionID, error) {
	q := tx.Resolve(ctx, s.db)
	recipients := make([]string, len(dist.Recipients))
	for i, r := range dist.Recipients {
		recipients[i] = uuid.UUID(r).String()
	}
	var assigned int64
	err := q.QueryRowContext(ctx,
		`INSERT INTO distributions (distributor, amount, recipients, sequence)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		uuid.UUID(dist.Distributor), int64(dist.Amount), pq.Array(recipients), int64(dist.Sequence),
	).Scan(&assigned)
	if err != nil {
		return 0, fmt.Errorf("insert distribution: %w", err)
	}
	dist.ID = id.DistributionID(assigned)
	return dist.ID, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, distID id.DistributionID) (*Distribution, error) {
	q := tx.Resolve(ctx, s.db)
	return scanDistribution(q.QueryRowContext(ctx,
		`SELECT id, distributor, amount, recipients, sequence FROM distributions WHERE id = $1`,
		int64(distID),
	))
}

func (s *PostgresStore) List(ctx context.Context) ([]*Distribution, error) {
	q := tx.Resolve(ctx, s.db)
	rows, err := q.QueryContext(ctx,
		`SELECT id, distributor, amount, recipients, sequence FROM distributions ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list distributions: %w", err)
	}
	defer rows.Close()

	var out []*Distribution
	for rows.Next() {
		dist, err := scanDistributionRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, dist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distributions: %w", err)
	}
	return out, nil
}

func scanDistribution(row *sql.Row) (*Distribution, error) {
	dist, err := scanDistributionRow(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return dist, err
}

func scanDistributionRow(scan func(...any) error) (*Distribution, error) {
	var (
		dist        Distribution
		distID      int64
		distributor uuid.UUID
		amount      int64
		recipients  pq.StringArray
		sequence    int64
	)
	if err := scan(&distID, &distributor, &amount, &recipients, &sequence); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan distribution: %w", err)
	}
	dist.ID = id.DistributionID(distID)
	dist.Distributor = id.AccountID(distributor)
	dist.Amount = uint64(amount)
	dist.Sequence = uint64(sequence)
	dist.Recipients = make([]id.AccountID, len(recipients))
	for i, r := range recipients {
		parsed, err := uuid.Parse(r)
		if err != nil {
			return nil, fmt.Errorf("parse recipient %q: %w", r, err)
		}
		dist.Recipients[i] = id.AccountID(parsed)
	}
	return &dist, nil
}
