package ledger

import (
	"context"
	"log/slog"
	"strconv"

	"aidgate/internal/accesscontrol"
	"aidgate/internal/audit"
	ledgermetrics "aidgate/internal/ledger/metrics"
	id "aidgate/pkg/domain"
	dErrors "aidgate/pkg/domain-errors"
)

// View is a consistent read of ledger state inside an Execute callback.
// Validation runs against it while the store lock (or transaction) is held,
// so the mutation applies against exactly the state that was validated.
type View interface {
	Balance(account id.AccountID) (uint64, error)
	TotalSupply() (uint64, error)
	Paused() (bool, error)
	Blacklisted(account id.AccountID) (bool, error)
}

// Store persists balances, supply, and the pause/blacklist gates.
type Store interface {
	BalanceOf(ctx context.Context, account id.AccountID) (uint64, error)
	TotalSupply(ctx context.Context) (uint64, error)
	Paused(ctx context.Context) (bool, error)
	SetPaused(ctx context.Context, paused bool) error
	Blacklisted(ctx context.Context, account id.AccountID) (bool, error)
	SetBlacklisted(ctx context.Context, account id.AccountID, blacklisted bool) error

	// Execute runs fn under the store's write boundary. fn validates against
	// the view and returns the mutation to apply; returning an error applies
	// nothing. Any failed precondition leaves balances unchanged.
	Execute(ctx context.Context, fn func(v View) (Mutation, error)) error
}

// Authorizer is the capability gate, implemented by accesscontrol.Service.
type Authorizer interface {
	RequireCapability(ctx context.Context, account id.AccountID, cap accesscontrol.Capability) error
}

// Service enforces the token ledger rules on top of the store.
type Service struct {
	store   Store
	authz   Authorizer
	info    Info
	auditor *audit.Publisher
	metrics *ledgermetrics.Metrics
	logger  *slog.Logger
}

type Option func(*Service)

func WithAuditor(auditor *audit.Publisher) Option {
	return func(s *Service) { s.auditor = auditor }
}

func WithMetrics(m *ledgermetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(store Store, authz Authorizer, info Info, opts ...Option) *Service {
	svc := &Service{
		store:  store,
		authz:  authz,
		info:   info,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Info returns the immutable token metadata.
func (s *Service) Info() Info {
	return s.info
}

// BalanceOf is a pure read; unknown accounts hold an implicit zero.
func (s *Service) BalanceOf(ctx context.Context, account id.AccountID) (uint64, error) {
	balance, err := s.store.BalanceOf(ctx, account)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read balance")
	}
	return balance, nil
}

// TotalSupply is a pure read.
func (s *Service) TotalSupply(ctx context.Context) (uint64, error) {
	supply, err := s.store.TotalSupply(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read total supply")
	}
	return supply, nil
}

// Transfer moves amount from sender to recipient. Only the holder may move
// their own funds; there are no delegated allowances.
func (s *Service) Transfer(ctx context.Context, caller, sender, recipient id.AccountID, amount uint64) error {
	if caller != sender {
		return dErrors.New(dErrors.CodeUnauthorized, "only the holder may transfer their own funds")
	}
	if amount == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "transfer amount must be greater than zero")
	}
	err := s.store.Execute(ctx, func(v View) (Mutation, error) {
		if err := s.requireUnpaused(v); err != nil {
			return Mutation{}, err
		}
		if err := s.requireNotBlacklisted(v, sender); err != nil {
			return Mutation{}, err
		}
		if err := s.requireNotBlacklisted(v, recipient); err != nil {
			return Mutation{}, err
		}
		balance, err := v.Balance(sender)
		if err != nil {
			return Mutation{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read sender balance")
		}
		if balance < amount {
			return Mutation{}, dErrors.NewWithReason(dErrors.CodePolicyViolation, ReasonInsufficient, "insufficient balance")
		}
		return Mutation{
			Debits:  map[id.AccountID]uint64{sender: amount},
			Credits: map[id.AccountID]uint64{recipient: amount},
		}, nil
	})
	if err != nil {
		return err
	}
	s.metrics.IncTransfers()
	s.auditor.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionTransfer,
		Subject: recipient.String(),
		Details: map[string]string{"amount": strconv.FormatUint(amount, 10)},
	})
	return nil
}

// Mint credits new tokens to recipient, growing total supply up to the cap.
func (s *Service) Mint(ctx context.Context, caller, recipient id.AccountID, amount uint64) error {
	if err := s.authz.RequireCapability(ctx, caller, accesscontrol.CapMint); err != nil {
		return err
	}
	if amount == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "mint amount must be greater than zero")
	}
	err := s.store.Execute(ctx, func(v View) (Mutation, error) {
		if err := s.requireUnpaused(v); err != nil {
			return Mutation{}, err
		}
		supply, err := v.TotalSupply()
		if err != nil {
			return Mutation{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read total supply")
		}
		if supply+amount > s.info.MaxSupply || supply+amount < supply {
			return Mutation{}, dErrors.NewWithReason(dErrors.CodeResourceExhausted, ReasonSupplyCap, "supply cap exceeded")
		}
		if err := s.requireNotBlacklisted(v, recipient); err != nil {
			return Mutation{}, err
		}
		return Mutation{
			Credits:     map[id.AccountID]uint64{recipient: amount},
			SupplyDelta: int64(amount),
		}, nil
	})
	if err != nil {
		return err
	}
	s.metrics.IncMints()
	s.observeSupply(ctx)
	s.auditor.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionMint,
		Subject: recipient.String(),
		Details: map[string]string{"amount": strconv.FormatUint(amount, 10)},
	})
	return nil
}

// Burn destroys amount from the caller's own balance, shrinking supply.
func (s *Service) Burn(ctx context.Context, caller, holder id.AccountID, amount uint64) error {
	if caller != holder {
		return dErrors.New(dErrors.CodeUnauthorized, "only the holder may burn their own funds")
	}
	if amount == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "burn amount must be greater than zero")
	}
	err := s.store.Execute(ctx, func(v View) (Mutation, error) {
		if err := s.requireUnpaused(v); err != nil {
			return Mutation{}, err
		}
		balance, err := v.Balance(holder)
		if err != nil {
			return Mutation{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read balance")
		}
		if balance < amount {
			return Mutation{}, dErrors.NewWithReason(dErrors.CodePolicyViolation, ReasonInsufficient, "insufficient balance")
		}
		return Mutation{
			Debits:      map[id.AccountID]uint64{holder: amount},
			SupplyDelta: -int64(amount),
		}, nil
	})
	if err != nil {
		return err
	}
	s.metrics.IncBurns()
	s.observeSupply(ctx)
	s.auditor.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionBurn,
		Subject: holder.String(),
		Details: map[string]string{"amount": strconv.FormatUint(amount, 10)},
	})
	return nil
}

// SetPaused toggles the ledger-wide pause gate. Pausing blocks transfer,
// mint, and burn entirely.
func (s *Service) SetPaused(ctx context.Context, caller id.AccountID, paused bool) error {
	if err := s.authz.RequireCapability(ctx, caller, accesscontrol.CapPause); err != nil {
		return err
	}
	if err := s.store.SetPaused(ctx, paused); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update pause state")
	}
	s.auditor.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionPause,
		Subject: strconv.FormatBool(paused),
	})
	s.logger.InfoContext(ctx, "ledger pause state changed", "paused", paused, "caller", caller)
	return nil
}

// SetBlacklisted toggles an account's blacklist flag. Blacklisting blocks
// future participation in transfers and mints; it does not reverse past
// transfers.
func (s *Service) SetBlacklisted(ctx context.Context, caller, account id.AccountID, blacklisted bool) error {
	if err := s.authz.RequireCapability(ctx, caller, accesscontrol.CapBlacklist); err != nil {
		return err
	}
	if account.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "account is required")
	}
	if err := s.store.SetBlacklisted(ctx, account, blacklisted); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update blacklist")
	}
	s.auditor.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionBlacklist,
		Subject: account.String(),
		Details: map[string]string{"blacklisted": strconv.FormatBool(blacklisted)},
	})
	return nil
}

// BatchMint applies up to MaxBatchMint mints as a strict left-to-right fold.
// The fold short-circuits on the first failing element: prior elements stay
// committed, later elements are never attempted, and the returned count is
// the number applied. This is deliberately weaker than the all-or-nothing
// claim transaction; callers reconcile via balances.
func (s *Service) BatchMint(ctx context.Context, caller id.AccountID, requests []MintRequest) (int, error) {
	if len(requests) == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "batch must not be empty")
	}
	if len(requests) > MaxBatchMint {
		return 0, dErrors.New(dErrors.CodeResourceExhausted, "batch mint is limited to "+strconv.Itoa(MaxBatchMint)+" entries")
	}
	applied := 0
	for _, req := range requests {
		if err := s.Mint(ctx, caller, req.Recipient, req.Amount); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

// BatchBlacklist applies up to MaxBatchBlacklist updates with the same
// fail-fast fold semantics as BatchMint.
func (s *Service) BatchBlacklist(ctx context.Context, caller id.AccountID, requests []BlacklistRequest) (int, error) {
	if len(requests) == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "batch must not be empty")
	}
	if len(requests) > MaxBatchBlacklist {
		return 0, dErrors.New(dErrors.CodeResourceExhausted, "batch blacklist is limited to "+strconv.Itoa(MaxBatchBlacklist)+" entries")
	}
	applied := 0
	for _, req := range requests {
		if err := s.SetBlacklisted(ctx, caller, req.Account, req.Blacklisted); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

// Credit applies an unconditional credit inside the caller's unit of work.
// It exists for the claim processor's funding strategies and still honors
// the pause gate, the blacklist, and the supply cap when minting.
func (s *Service) Credit(ctx context.Context, recipient id.AccountID, amount uint64, mintNew bool) error {
	return s.store.Execute(ctx, func(v View) (Mutation, error) {
		if err := s.requireUnpaused(v); err != nil {
			return Mutation{}, err
		}
		if err := s.requireNotBlacklisted(v, recipient); err != nil {
			return Mutation{}, err
		}
		m := Mutation{Credits: map[id.AccountID]uint64{recipient: amount}}
		if mintNew {
			supply, err := v.TotalSupply()
			if err != nil {
				return Mutation{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read total supply")
			}
			if supply+amount > s.info.MaxSupply || supply+amount < supply {
				return Mutation{}, dErrors.NewWithReason(dErrors.CodeResourceExhausted, ReasonSupplyCap, "supply cap exceeded")
			}
			m.SupplyDelta = int64(amount)
		}
		return m, nil
	})
}

// Move applies a debit/credit pair inside the caller's unit of work without
// the self-authorization rule; the claim processor uses it to draw from the
// treasury.
func (s *Service) Move(ctx context.Context, from, to id.AccountID, amount uint64) error {
	return s.store.Execute(ctx, func(v View) (Mutation, error) {
		if err := s.requireUnpaused(v); err != nil {
			return Mutation{}, err
		}
		if err := s.requireNotBlacklisted(v, from); err != nil {
			return Mutation{}, err
		}
		if err := s.requireNotBlacklisted(v, to); err != nil {
			return Mutation{}, err
		}
		balance, err := v.Balance(from)
		if err != nil {
			return Mutation{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read treasury balance")
		}
		if balance < amount {
			return Mutation{}, dErrors.NewWithReason(dErrors.CodePolicyViolation, ReasonInsufficient, "treasury balance is insufficient")
		}
		return Mutation{
			Debits:  map[id.AccountID]uint64{from: amount},
			Credits: map[id.AccountID]uint64{to: amount},
		}, nil
	})
}

func (s *Service) requireUnpaused(v View) error {
	paused, err := v.Paused()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read pause state")
	}
	if paused {
		return dErrors.NewWithReason(dErrors.CodePolicyViolation, ReasonPaused, "ledger is paused")
	}
	return nil
}

func (s *Service) requireNotBlacklisted(v View, account id.AccountID) error {
	blacklisted, err := v.Blacklisted(account)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read blacklist")
	}
	if blacklisted {
		return dErrors.NewWithReason(dErrors.CodePolicyViolation, ReasonBlacklisted, "account "+account.String()+" is blacklisted")
	}
	return nil
}

func (s *Service) observeSupply(ctx context.Context) {
	supply, err := s.store.TotalSupply(ctx)
	if err != nil {
		return
	}
	s.metrics.SetSupply(supply)
}
