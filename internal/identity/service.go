package identity

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"aidgate/internal/accesscontrol"
	"aidgate/internal/audit"
	id "aidgate/pkg/domain"
	dErrors "aidgate/pkg/domain-errors"
	"aidgate/pkg/platform/sentinel"
	"aidgate/pkg/requestcontext"
)

// Store persists identity records and the monotonic ID counter.
type Store interface {
	// Create assigns the next ID and persists the record.
	Create(ctx context.Context, record *Identity) (id.IdentityID, error)
	FindByID(ctx context.Context, identityID id.IdentityID) (*Identity, error)

	// Execute atomically validates and mutates one record while the store
	// lock (or row lock) is held, returning the updated record.
	Execute(ctx context.Context, identityID id.IdentityID, validate func(*Identity) error, mutate func(*Identity)) (*Identity, error)
}

// Authorizer is the capability gate, implemented by accesscontrol.Service.
type Authorizer interface {
	RequireCapability(ctx context.Context, account id.AccountID, cap accesscontrol.Capability) error
	IsAdmin(ctx context.Context, account id.AccountID) (bool, error)
}

// Pauser reports the ledger-wide pause gate, which also blocks identity
// minting.
type Pauser interface {
	Paused(ctx context.Context) (bool, error)
}

// Service orchestrates the identity lifecycle.
type Service struct {
	store   Store
	authz   Authorizer
	pauser  Pauser
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

func New(store Store, authz Authorizer, pauser Pauser, opts ...Option) *Service {
	svc := &Service{
		store:  store,
		authz:  authz,
		pauser: pauser,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Mint creates a pending identity record owned by the caller.
func (s *Service) Mint(ctx context.Context, caller id.AccountID, contentHash []byte, metadata string, privacyLevel uint8) (id.IdentityID, error) {
	if caller.IsZero() {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	paused, err := s.pauser.Paused(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read pause state")
	}
	if paused {
		return 0, dErrors.New(dErrors.CodePolicyViolation, "system is paused")
	}
	record, err := NewIdentity(caller, contentHash, metadata, privacyLevel)
	if err != nil {
		return 0, err
	}
	identityID, err := s.store.Create(ctx, record)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create identity")
	}
	s.auditor.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionIdentityMint,
		Subject: identityID.String(),
		Details: map[string]string{"privacy_level": strconv.Itoa(int(privacyLevel))},
	})
	s.logger.InfoContext(ctx, "identity minted",
		"identity_id", identityID,
		"owner", caller,
	)
	return identityID, nil
}

// Verify marks a pending identity as verified. Admin capability required.
func (s *Service) Verify(ctx context.Context, caller id.AccountID, identityID id.IdentityID) error {
	if err := s.authz.RequireCapability(ctx, caller, accesscontrol.CapVerifyIdentity); err != nil {
		return err
	}
	seq := requestcontext.Sequence(ctx)
	_, err := s.store.Execute(ctx, identityID,
		func(record *Identity) error {
			return record.CanVerify()
		},
		func(record *Identity) {
			record.ApplyVerification(seq)
		},
	)
	if err != nil {
		return wrapIdentityErr(err)
	}
	s.auditor.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionIdentityVerify,
		Subject: identityID.String(),
	})
	return nil
}

// BatchVerify verifies up to MaxBatchVerify identities as a strict
// left-to-right fold: the first failure stops processing, prior
// verifications stay committed, and the returned count is the number
// applied.
func (s *Service) BatchVerify(ctx context.Context, caller id.AccountID, ids []id.IdentityID) (int, error) {
	if len(ids) == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "batch must not be empty")
	}
	if len(ids) > MaxBatchVerify {
		return 0, dErrors.New(dErrors.CodeResourceExhausted, "batch verify is limited to "+strconv.Itoa(MaxBatchVerify)+" entries")
	}
	applied := 0
	for _, identityID := range ids {
		if err := s.Verify(ctx, caller, identityID); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

// UpdateMetadata replaces the metadata. Owner only, verified records only.
func (s *Service) UpdateMetadata(ctx context.Context, caller id.AccountID, identityID id.IdentityID, metadata string) error {
	if len(metadata) > MaxMetadataLen {
		return dErrors.New(dErrors.CodeInvalidInput, "metadata exceeds maximum length")
	}
	_, err := s.store.Execute(ctx, identityID,
		func(record *Identity) error {
			if record.Owner != caller {
				return dErrors.New(dErrors.CodeUnauthorized, "only the identity owner may update metadata")
			}
			if !record.Verified {
				return dErrors.New(dErrors.CodePolicyViolation, "identity must be verified before metadata updates")
			}
			return nil
		},
		func(record *Identity) {
			record.Metadata = metadata
		},
	)
	if err != nil {
		return wrapIdentityErr(err)
	}
	s.auditor.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionIdentityUpdate,
		Subject: identityID.String(),
		Details: map[string]string{"field": "metadata"},
	})
	return nil
}

// SetPrivacyLevel adjusts disclosure. Owner only.
func (s *Service) SetPrivacyLevel(ctx context.Context, caller id.AccountID, identityID id.IdentityID, level uint8) error {
	if level > MaxPrivacyLevel {
		return dErrors.New(dErrors.CodeInvalidInput, "privacy level must be 0, 1, or 2")
	}
	_, err := s.store.Execute(ctx, identityID,
		func(record *Identity) error {
			if record.Owner != caller {
				return dErrors.New(dErrors.CodeUnauthorized, "only the identity owner may change the privacy level")
			}
			return nil
		},
		func(record *Identity) {
			record.PrivacyLevel = level
		},
	)
	if err != nil {
		return wrapIdentityErr(err)
	}
	s.auditor.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionIdentityUpdate,
		Subject: identityID.String(),
		Details: map[string]string{"field": "privacy_level", "level": strconv.Itoa(int(level))},
	})
	return nil
}

// Revoke terminally revokes an identity. Admin capability required.
func (s *Service) Revoke(ctx context.Context, caller id.AccountID, identityID id.IdentityID) error {
	if err := s.authz.RequireCapability(ctx, caller, accesscontrol.CapRevokeIdentity); err != nil {
		return err
	}
	_, err := s.store.Execute(ctx, identityID,
		func(record *Identity) error {
			return record.CanRevoke()
		},
		func(record *Identity) {
			record.ApplyRevocation()
		},
	)
	if err != nil {
		return wrapIdentityErr(err)
	}
	s.auditor.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionIdentityRevoke,
		Subject: identityID.String(),
	})
	return nil
}

// Transfer always fails: identities are permanently bound to the account
// that minted them.
func (s *Service) Transfer(ctx context.Context, caller id.AccountID, identityID id.IdentityID, to id.AccountID) error {
	return dErrors.New(dErrors.CodePolicyViolation, "identity records are non-transferable")
}

// GetDetails returns the record with privacy-gated disclosure. The owner
// and admins see everything. Outsiders see a masked projection at privacy
// level 0 and are rejected above it.
func (s *Service) GetDetails(ctx context.Context, caller id.AccountID, identityID id.IdentityID) (*Identity, error) {
	record, err := s.store.FindByID(ctx, identityID)
	if err != nil {
		return nil, wrapIdentityErr(err)
	}
	if record.Owner == caller {
		return record, nil
	}
	isAdmin, err := s.authz.IsAdmin(ctx, caller)
	if err != nil {
		return nil, err
	}
	if isAdmin {
		return record, nil
	}
	if record.PrivacyLevel == 0 {
		return record.Masked(), nil
	}
	return nil, dErrors.New(dErrors.CodeUnauthorized, "identity details are private")
}

func wrapIdentityErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "identity not found")
	}
	var de *dErrors.DomainError
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "identity store failure")
}
