package governance

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"aidgate/internal/accesscontrol"
	"aidgate/internal/audit"
	governancemetrics "aidgate/internal/governance/metrics"
	id "aidgate/pkg/domain"
	dErrors "aidgate/pkg/domain-errors"
	"aidgate/pkg/platform/sentinel"
)

// Store persists proposals. Create assigns the next id.
type Store interface {
	Create(ctx context.Context, proposal *Proposal) (id.ProposalID, error)
	FindByID(ctx context.Context, proposalID id.ProposalID) (*Proposal, error)

	// Execute atomically validates and mutates one proposal under the
	// store lock (or row lock), mirroring the other stores' callback shape.
	Execute(ctx context.Context, proposalID id.ProposalID, validate func(*Proposal) error, mutate func(*Proposal)) (*Proposal, error)
}

// Authorizer gates proposal execution.
type Authorizer interface {
	RequireCapability(ctx context.Context, account id.AccountID, cap accesscontrol.Capability) error
}

// Action is the policy hook invoked when a proposal passes. The concrete
// effect (typically a role change) is supplied at wiring time.
type Action func(ctx context.Context, proposal *Proposal) error

// Service manages the proposal lifecycle.
type Service struct {
	store    Store
	authz    Authorizer
	minVotes uint64
	action   Action
	auditor  *audit.Publisher
	metrics  *governancemetrics.Metrics
	logger   *slog.Logger
}

type Option func(*Service)

// WithAction installs the hook that runs when a proposal is executed.
func WithAction(action Action) Option {
	return func(s *Service) { s.action = action }
}

func WithAuditor(auditor *audit.Publisher) Option {
	return func(s *Service) { s.auditor = auditor }
}

func WithMetrics(m *governancemetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(store Store, authz Authorizer, minVotes uint64, opts ...Option) *Service {
	svc := &Service{
		store:    store,
		authz:    authz,
		minVotes: minVotes,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Propose opens a proposal. Anyone authenticated may propose.
func (s *Service) Propose(ctx context.Context, caller id.AccountID, description string) (*Proposal, error) {
	if caller.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	proposal, err := NewProposal(caller, description)
	if err != nil {
		return nil, err
	}
	proposalID, err := s.store.Create(ctx, proposal)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create proposal")
	}
	proposal.ID = proposalID
	s.metrics.IncProposals()
	s.auditor.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionProposalCreate,
		Subject: proposalID.String(),
	})
	return proposal, nil
}

// Vote casts one ballot on an open proposal. Each account votes at most
// once per proposal; a second ballot is a conflict.
func (s *Service) Vote(ctx context.Context, caller id.AccountID, proposalID id.ProposalID, inFavor bool) (*Proposal, error) {
	if caller.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	proposal, err := s.store.Execute(ctx, proposalID,
		func(p *Proposal) error {
			if p.Executed {
				return dErrors.New(dErrors.CodeConflict, "proposal has already been executed")
			}
			if p.HasVoted(caller) {
				return dErrors.New(dErrors.CodeConflict, "account has already voted on this proposal")
			}
			return nil
		},
		func(p *Proposal) {
			_ = p.RecordVote(caller, inFavor)
		},
	)
	if err != nil {
		return nil, wrapProposalErr(err)
	}
	s.metrics.IncVotes()
	s.auditor.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionVote,
		Subject: proposalID.String(),
		Details: map[string]string{"in_favor": strconv.FormatBool(inFavor)},
	})
	return proposal, nil
}

// ExecuteProposal finalizes a passed proposal and fires the action hook.
// Requires the execute capability; passage requires the vote threshold and
// strict majority.
func (s *Service) ExecuteProposal(ctx context.Context, caller id.AccountID, proposalID id.ProposalID) (*Proposal, error) {
	if err := s.authz.RequireCapability(ctx, caller, accesscontrol.CapExecuteProposal); err != nil {
		return nil, err
	}
	proposal, err := s.store.Execute(ctx, proposalID,
		func(p *Proposal) error { return p.CanExecute(s.minVotes) },
		func(p *Proposal) { p.Executed = true },
	)
	if err != nil {
		return nil, wrapProposalErr(err)
	}
	if s.action != nil {
		if err := s.action(ctx, proposal); err != nil {
			s.logger.ErrorContext(ctx, "proposal action failed",
				"proposal_id", proposalID,
				"error", err,
			)
		}
	}
	s.metrics.IncExecuted()
	s.auditor.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionProposalExecute,
		Subject: proposalID.String(),
		Details: map[string]string{
			"votes_for":     strconv.FormatUint(proposal.VotesFor, 10),
			"votes_against": strconv.FormatUint(proposal.VotesAgainst, 10),
		},
	})
	s.logger.InfoContext(ctx, "proposal executed",
		"proposal_id", proposalID,
		"votes_for", proposal.VotesFor,
		"votes_against", proposal.VotesAgainst,
	)
	return proposal, nil
}

// Get returns one proposal.
func (s *Service) Get(ctx context.Context, proposalID id.ProposalID) (*Proposal, error) {
	proposal, err := s.store.FindByID(ctx, proposalID)
	if err != nil {
		return nil, wrapProposalErr(err)
	}
	return proposal, nil
}

func wrapProposalErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "proposal not found")
	}
	var domainErr *dErrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "proposal operation failed")
}
