package eligibility

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"aidgate/internal/accesscontrol"
	"aidgate/internal/audit"
	"aidgate/internal/identity"
	id "aidgate/pkg/domain"
	dErrors "aidgate/pkg/domain-errors"
	"aidgate/pkg/platform/sentinel"
	"aidgate/pkg/platform/tx"
)

// Store persists eligibility records.
type Store interface {
	Create(ctx context.Context, record *Record) error
	Find(ctx context.Context, account id.AccountID) (*Record, error)

	// Execute atomically validates and mutates one record under the store
	// lock (or row lock). The claim processor uses it to stamp LastClaim
	// inside the claim transaction.
	Execute(ctx context.Context, account id.AccountID, validate func(*Record) error, mutate func(*Record)) (*Record, error)
}

// IdentityReader resolves identity records during registration.
type IdentityReader interface {
	FindByID(ctx context.Context, identityID id.IdentityID) (*identity.Identity, error)
}

// Authorizer is the capability gate, implemented by accesscontrol.Service.
type Authorizer interface {
	RequireCapability(ctx context.Context, account id.AccountID, cap accesscontrol.Capability) error
}

// Service manages registration and admin eligibility updates. Every record
// mutation runs through the shared transaction runner: the claim processor
// stamps LastClaim inside that same unit of work, so with memory stores an
// eligibility flip cannot land between a claim's ledger credit and its
// cooldown stamp.
type Service struct {
	store      Store
	identities IdentityReader
	authz      Authorizer
	runner     tx.Runner
	auditor    *audit.Publisher
	logger     *slog.Logger
}

type Option func(*Service)

func WithAuditor(auditor *audit.Publisher) Option {
	return func(s *Service) { s.auditor = auditor }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(store Store, identities IdentityReader, authz Authorizer, runner tx.Runner, opts ...Option) *Service {
	svc := &Service{
		store:      store,
		identities: identities,
		authz:      authz,
		runner:     runner,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Register creates the caller's eligibility record bound to an identity the
// caller owns. The eligible flag is caller-supplied; LastClaim starts at 0.
func (s *Service) Register(ctx context.Context, caller id.AccountID, identityID id.IdentityID, eligible bool) (*Record, error) {
	if caller.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	record, err := s.identities.FindByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "identity not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve identity")
	}
	if record.Owner != caller {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "identity is owned by another account")
	}

	entry := &Record{
		Account:    caller,
		IdentityID: identityID,
		Eligible:   eligible,
	}
	err = s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		return s.store.Create(txCtx, entry)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "account is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create eligibility record")
	}
	s.auditor.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionEligibilityChange,
		Subject: caller.String(),
		Details: map[string]string{"change": "register", "eligible": strconv.FormatBool(eligible)},
	})
	return entry, nil
}

// SetEligible updates the eligibility flag. Admin capability required.
func (s *Service) SetEligible(ctx context.Context, caller, account id.AccountID, eligible bool) error {
	if err := s.authz.RequireCapability(ctx, caller, accesscontrol.CapSetEligibility); err != nil {
		return err
	}
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		_, execErr := s.store.Execute(txCtx, account,
			func(*Record) error { return nil },
			func(record *Record) { record.Eligible = eligible },
		)
		return execErr
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "eligibility record not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update eligibility")
	}
	s.auditor.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionEligibilityChange,
		Subject: account.String(),
		Details: map[string]string{"change": "set", "eligible": strconv.FormatBool(eligible)},
	})
	return nil
}

// Get returns the record for an account.
func (s *Service) Get(ctx context.Context, account id.AccountID) (*Record, error) {
	record, err := s.store.Find(ctx, account)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "eligibility record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read eligibility record")
	}
	return record, nil
}
