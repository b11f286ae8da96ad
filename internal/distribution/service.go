package distribution

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"aidgate/internal/audit"
	distributionmetrics "aidgate/internal/distribution/metrics"
	id "aidgate/pkg/domain"
	dErrors "aidgate/pkg/domain-errors"
	"aidgate/pkg/platform/sentinel"
	"aidgate/pkg/requestcontext"
)

// Store persists distribution records. Create assigns the next id.
type Store interface {
	Create(ctx context.Context, dist *Distribution) (id.DistributionID, error)
	FindByID(ctx context.Context, distID id.DistributionID) (*Distribution, error)
	List(ctx context.Context) ([]*Distribution, error)
}

// Transferer is the ledger slice the engine drives: the same self-authorized
// transfer end users call, invoked once per recipient.
type Transferer interface {
	Transfer(ctx context.Context, caller, sender, recipient id.AccountID, amount uint64) error
}

// DistributorResolver reports the currently designated distributor account.
type DistributorResolver interface {
	Distributor(ctx context.Context) (id.AccountID, error)
}

// Service runs payout batches from the distributor's own balance.
type Service struct {
	store   Store
	ledger  Transferer
	roles   DistributorResolver
	auditor *audit.Publisher
	metrics *distributionmetrics.Metrics
	logger  *slog.Logger
}

type Option func(*Service)

func WithAuditor(auditor *audit.Publisher) Option {
	return func(s *Service) { s.auditor = auditor }
}

func WithMetrics(m *distributionmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(store Store, ledger Transferer, roles DistributorResolver, opts ...Option) *Service {
	svc := &Service{
		store:  store,
		ledger: ledger,
		roles:  roles,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Distribute pays amount to each recipient from the caller's own balance.
// Only the designated distributor account may call it; this is an equality
// check against the designation, not an admin-set lookup.
//
// The record is written before any transfer runs, so it survives later
// element failures. The transfers then fold left to right with the shared
// fail-fast policy: the first failing recipient stops the batch, settled
// recipients stay settled, and Result.Settled reports how far it got.
func (s *Service) Distribute(ctx context.Context, caller id.AccountID, amount uint64, recipients []id.AccountID) (*Result, error) {
	if caller.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	distributor, err := s.roles.Distributor(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "no distributor is designated")
	}
	if caller != distributor {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller is not the designated distributor")
	}
	if amount == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "distribution amount must be greater than zero")
	}
	if len(recipients) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "recipient list must not be empty")
	}
	if len(recipients) > MaxRecipients {
		return nil, dErrors.New(dErrors.CodeResourceExhausted, "distribution is limited to "+strconv.Itoa(MaxRecipients)+" recipients")
	}

	record := &Distribution{
		Distributor: caller,
		Amount:      amount,
		Recipients:  append([]id.AccountID(nil), recipients...),
		Sequence:    requestcontext.Sequence(ctx),
	}
	distID, err := s.store.Create(ctx, record)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record distribution")
	}

	settled := 0
	var foldErr error
	for _, recipient := range recipients {
		if err := s.ledger.Transfer(ctx, caller, caller, recipient, amount); err != nil {
			foldErr = err
			break
		}
		settled++
	}

	s.metrics.Observe(settled, len(recipients))
	s.auditor.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionDistribute,
		Subject: distID.String(),
		Details: map[string]string{
			"amount":     strconv.FormatUint(amount, 10),
			"recipients": strconv.Itoa(len(recipients)),
			"settled":    strconv.Itoa(settled),
		},
	})
	s.logger.InfoContext(ctx, "distribution processed",
		"distribution_id", distID,
		"settled", settled,
		"recipients", len(recipients),
	)

	result := &Result{ID: distID, Settled: settled}
	if foldErr != nil {
		return result, foldErr
	}
	return result, nil
}

// Get returns one distribution record.
func (s *Service) Get(ctx context.Context, distID id.DistributionID) (*Distribution, error) {
	dist, err := s.store.FindByID(ctx, distID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "distribution not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read distribution")
	}
	return dist, nil
}

// List returns all distribution records in id order.
func (s *Service) List(ctx context.Context) ([]*Distribution, error) {
	dists, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list distributions")
	}
	return dists, nil
}
