// Package claims implements the cooldown-gated claim operation. It is the
// one place in the system where two stores must change together: the ledger
// credit and the eligibility stamp commit as a single logical transaction
// or not at all. Funds moving without the cooldown resetting enables repeat
// claims; the cooldown resetting without funds loses the payout. Both are
// unacceptable, so the whole operation runs inside one unit of work.
package claims

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"aidgate/internal/audit"
	claimsmetrics "aidgate/internal/claims/metrics"
	"aidgate/internal/eligibility"
	"aidgate/internal/platform/config"
	id "aidgate/pkg/domain"
	dErrors "aidgate/pkg/domain-errors"
	"aidgate/pkg/platform/sentinel"
	"aidgate/pkg/platform/tx"
	"aidgate/pkg/requestcontext"
)

// Ledger is the subset of the token ledger the claim path needs. Both
// methods are transaction-aware: they join the unit of work carried in ctx.
type Ledger interface {
	// Credit credits the recipient; mintNew grows supply under the cap.
	Credit(ctx context.Context, recipient id.AccountID, amount uint64, mintNew bool) error
	// Move debits one account and credits another without self-authorization.
	Move(ctx context.Context, from, to id.AccountID, amount uint64) error
}

// EligibilityStore is the claim-relevant slice of the eligibility store.
type EligibilityStore interface {
	Find(ctx context.Context, account id.AccountID) (*eligibility.Record, error)
	Execute(ctx context.Context, account id.AccountID, validate func(*eligibility.Record) error, mutate func(*eligibility.Record)) (*eligibility.Record, error)
}

// Config fixes the claim parameters at wiring time.
type Config struct {
	Amount   uint64
	Cooldown uint64 // sequence distance between successful claims
	Funding  config.FundingStrategy
	Treasury id.AccountID // required for FundingTreasury
}

// Service processes claims.
type Service struct {
	ledger      Ledger
	eligibility EligibilityStore
	runner      tx.Runner
	cfg         Config
	auditor     *audit.Publisher
	metrics     *claimsmetrics.Metrics
	logger      *slog.Logger
	tracer      trace.Tracer
}

type Option func(*Service)

func WithAuditor(auditor *audit.Publisher) Option {
	return func(s *Service) { s.auditor = auditor }
}

func WithMetrics(m *claimsmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(ledger Ledger, eligibilityStore EligibilityStore, runner tx.Runner, cfg Config, opts ...Option) *Service {
	svc := &Service{
		ledger:      ledger,
		eligibility: eligibilityStore,
		runner:      runner,
		cfg:         cfg,
		logger:      slog.Default(),
		tracer:      otel.Tracer("aidgate/claims"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Claim pays out the configured amount to the caller if they are eligible
// and the cooldown has elapsed. Returns the claimed amount.
//
// The ordering inside the unit of work is deliberate: validate everything
// first, then apply the ledger mutation, then stamp the cooldown. With the
// SQL runner any failure rolls the whole transaction back; with the memory
// runner nothing has mutated before the last fallible step, and the stamp
// itself cannot fail once validation passed while the unit-of-work lock is
// held.
func (s *Service) Claim(ctx context.Context, caller id.AccountID) (uint64, error) {
	if caller.IsZero() {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	seq := requestcontext.Sequence(ctx)
	ctx, span := s.tracer.Start(ctx, "claims.Claim",
		trace.WithAttributes(
			attribute.String("account", caller.String()),
			attribute.Int64("sequence", int64(seq)),
		),
	)
	defer span.End()

	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		record, err := s.eligibility.Find(txCtx, caller)
		if err != nil {
			return wrapClaimErr(err)
		}
		if err := s.checkPolicy(record, seq); err != nil {
			return err
		}

		switch s.cfg.Funding {
		case config.FundingTreasury:
			if err := s.ledger.Move(txCtx, s.cfg.Treasury, caller, s.cfg.Amount); err != nil {
				return err
			}
		default:
			if err := s.ledger.Credit(txCtx, caller, s.cfg.Amount, true); err != nil {
				return err
			}
		}

		_, err = s.eligibility.Execute(txCtx, caller,
			func(record *eligibility.Record) error {
				// Re-validated under the row lock; the unit of work already
				// serializes claims, so this cannot fail after checkPolicy.
				return s.checkPolicy(record, seq)
			},
			func(record *eligibility.Record) {
				record.LastClaim = seq
			},
		)
		if err != nil {
			return wrapClaimErr(err)
		}
		return nil
	})
	if err != nil {
		s.metrics.IncRejected()
		return 0, err
	}

	s.metrics.IncProcessed(s.cfg.Amount)
	s.auditor.Emit(ctx, audit.Event{
		Actor:    caller,
		Action:   audit.ActionClaim,
		Subject:  caller.String(),
		Sequence: seq,
		Details: map[string]string{
			"amount":  strconv.FormatUint(s.cfg.Amount, 10),
			"funding": string(s.cfg.Funding),
		},
	})
	s.logger.InfoContext(ctx, "claim processed",
		"account", caller,
		"amount", s.cfg.Amount,
		"sequence", seq,
	)
	return s.cfg.Amount, nil
}

// checkPolicy is the sole claim gate: eligible, and the cooldown distance
// elapsed since the last claim. A zero LastClaim means the account has
// never claimed and is not held to the cooldown.
func (s *Service) checkPolicy(record *eligibility.Record, seq uint64) error {
	if !record.Eligible {
		return dErrors.New(dErrors.CodePolicyViolation, "account is not eligible")
	}
	if record.LastClaim != 0 && seq-record.LastClaim < s.cfg.Cooldown {
		return dErrors.New(dErrors.CodePolicyViolation, "claim cooldown has not elapsed")
	}
	return nil
}

func wrapClaimErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "account is not registered")
	}
	var domainErr *dErrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "claim processing failed")
}
