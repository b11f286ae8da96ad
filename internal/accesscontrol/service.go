package accesscontrol

import (
	"context"
	"errors"
	"log/slog"

	"aidgate/internal/audit"
	id "aidgate/pkg/domain"
	dErrors "aidgate/pkg/domain-errors"
	"aidgate/pkg/platform/sentinel"
)

// Store persists role bindings. Implementations: memory, Postgres.
type Store interface {
	Owner(ctx context.Context) (id.AccountID, error)
	SetOwner(ctx context.Context, account id.AccountID) error
	IsAdmin(ctx context.Context, account id.AccountID) (bool, error)
	SetAdmin(ctx context.Context, account id.AccountID, grant bool) error
	Distributor(ctx context.Context) (id.AccountID, error)
	SetDistributor(ctx context.Context, account id.AccountID) error
}

// Service evaluates capabilities and handles role lifecycle. All privileged
// operations in other components call RequireCapability before mutating
// anything; a denial never changes state.
type Service struct {
	store   Store
	auditor *audit.Publisher
	logger  *slog.Logger
}

type Option func(*Service)

func WithAuditor(auditor *audit.Publisher) Option {
	return func(s *Service) { s.auditor = auditor }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(store Store, opts ...Option) *Service {
	svc := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// RolesOf resolves every role the account currently holds.
func (s *Service) RolesOf(ctx context.Context, account id.AccountID) ([]Role, error) {
	var roles []Role
	owner, err := s.store.Owner(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve owner")
	}
	if owner == account {
		roles = append(roles, RoleOwner)
	}
	isAdmin, err := s.store.IsAdmin(ctx, account)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve admin set")
	}
	if isAdmin {
		roles = append(roles, RoleAdmin)
	}
	distributor, err := s.store.Distributor(ctx)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve distributor")
	}
	if err == nil && distributor == account {
		roles = append(roles, RoleDistributor)
	}
	return roles, nil
}

// HasCapability reports whether any of the account's roles grants cap.
func (s *Service) HasCapability(ctx context.Context, account id.AccountID, cap Capability) (bool, error) {
	roles, err := s.RolesOf(ctx, account)
	if err != nil {
		return false, err
	}
	for _, role := range roles {
		if role.Grants(cap) {
			return true, nil
		}
	}
	return false, nil
}

// RequireCapability is the authorization gate used across components.
func (s *Service) RequireCapability(ctx context.Context, account id.AccountID, cap Capability) error {
	ok, err := s.HasCapability(ctx, account, cap)
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.New(dErrors.CodeUnauthorized, "caller lacks capability "+string(cap))
	}
	return nil
}

// IsAdmin mirrors the classic predicate: owner or member of the admin set.
func (s *Service) IsAdmin(ctx context.Context, account id.AccountID) (bool, error) {
	owner, err := s.store.Owner(ctx)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve owner")
	}
	if owner == account {
		return true, nil
	}
	isAdmin, err := s.store.IsAdmin(ctx, account)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve admin set")
	}
	return isAdmin, nil
}

// TransferOwnership moves the singleton owner role. Owner only.
func (s *Service) TransferOwnership(ctx context.Context, caller, newOwner id.AccountID) error {
	if err := s.requireOwner(ctx, caller); err != nil {
		return err
	}
	if newOwner.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "new owner account is required")
	}
	if err := s.store.SetOwner(ctx, newOwner); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to transfer ownership")
	}
	s.auditor.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionRoleChange,
		Subject: newOwner.String(),
		Details: map[string]string{"role": string(RoleOwner), "change": "transfer"},
	})
	s.logger.InfoContext(ctx, "ownership transferred",
		"previous_owner", caller,
		"new_owner", newOwner,
	)
	return nil
}

// SetAdmin grants or revokes admin membership. Owner only.
func (s *Service) SetAdmin(ctx context.Context, caller, account id.AccountID, grant bool) error {
	if err := s.requireOwner(ctx, caller); err != nil {
		return err
	}
	if account.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "admin account is required")
	}
	if err := s.store.SetAdmin(ctx, account, grant); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update admin set")
	}
	change := "revoke"
	if grant {
		change = "grant"
	}
	s.auditor.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionRoleChange,
		Subject: account.String(),
		Details: map[string]string{"role": string(RoleAdmin), "change": change},
	})
	return nil
}

// SetDistributor designates the single distribution account. Owner only.
func (s *Service) SetDistributor(ctx context.Context, caller, account id.AccountID) error {
	if err := s.requireOwner(ctx, caller); err != nil {
		return err
	}
	if account.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "distributor account is required")
	}
	if err := s.store.SetDistributor(ctx, account); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set distributor")
	}
	s.auditor.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionRoleChange,
		Subject: account.String(),
		Details: map[string]string{"role": string(RoleDistributor), "change": "designate"},
	})
	return nil
}

func (s *Service) requireOwner(ctx context.Context, caller id.AccountID) error {
	owner, err := s.store.Owner(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve owner")
	}
	if owner != caller {
		return dErrors.New(dErrors.CodeUnauthorized, "only the owner may manage roles")
	}
	return nil
}
