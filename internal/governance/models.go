// Package governance implements the proposal and voting mechanism.
package governance

import (
	id "aidgate/pkg/domain"
	dErrors "aidgate/pkg/domain-errors"
)

// MaxDescriptionLen bounds proposal descriptions.
const MaxDescriptionLen = 512

// Proposal is a votable motion. Lifecycle: open on creation, mutated by
// votes while Executed is false, terminal once Executed flips to true.
type Proposal struct {
	ID           id.ProposalID `json:"id"`
	Proposer     id.AccountID  `json:"proposer"`
	Description  string        `json:"description"`
	VotesFor     uint64        `json:"votes_for"`
	VotesAgainst uint64        `json:"votes_against"`
	Executed     bool          `json:"executed"`

	// voters tracks accounts that have already cast a ballot; one vote
	// per account per proposal.
	voters map[id.AccountID]struct{}
}

// NewProposal validates the description and returns an open proposal.
func NewProposal(proposer id.AccountID, description string) (*Proposal, error) {
	if description == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "proposal description is required")
	}
	if len(description) > MaxDescriptionLen {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "proposal description exceeds maximum length")
	}
	return &Proposal{
		Proposer:    proposer,
		Description: description,
		voters:      make(map[id.AccountID]struct{}),
	}, nil
}

// RecordVote applies one ballot. Executed proposals reject further votes,
// and each account votes at most once.
func (p *Proposal) RecordVote(voter id.AccountID, inFavor bool) error {
	if p.Executed {
		return dErrors.New(dErrors.CodeConflict, "proposal has already been executed")
	}
	if _, voted := p.voters[voter]; voted {
		return dErrors.New(dErrors.CodeConflict, "account has already voted on this proposal")
	}
	if p.voters == nil {
		p.voters = make(map[id.AccountID]struct{})
	}
	p.voters[voter] = struct{}{}
	if inFavor {
		p.VotesFor++
	} else {
		p.VotesAgainst++
	}
	return nil
}

// HasVoted reports whether the account already cast a ballot.
func (p *Proposal) HasVoted(voter id.AccountID) bool {
	_, voted := p.voters[voter]
	return voted
}

// Voters returns the recorded voter set. Stores use it to persist ballots.
func (p *Proposal) Voters() []id.AccountID {
	out := make([]id.AccountID, 0, len(p.voters))
	for voter := range p.voters {
		out = append(out, voter)
	}
	return out
}

// SetVoters replaces the voter set. Stores use it when rehydrating.
func (p *Proposal) SetVoters(voters []id.AccountID) {
	p.voters = make(map[id.AccountID]struct{}, len(voters))
	for _, voter := range voters {
		p.voters[voter] = struct{}{}
	}
}

// CanExecute checks the passage conditions against the quorum threshold.
func (p *Proposal) CanExecute(minVotes uint64) error {
	if p.Executed {
		return dErrors.New(dErrors.CodeConflict, "proposal has already been executed")
	}
	if p.VotesFor < minVotes {
		return dErrors.New(dErrors.CodePolicyViolation, "proposal has not reached the vote threshold")
	}
	if p.VotesFor <= p.VotesAgainst {
		return dErrors.New(dErrors.CodePolicyViolation, "proposal does not have majority support")
	}
	return nil
}

// Clone returns a deep copy safe to hand outside the store lock.
func (p *Proposal) Clone() *Proposal {
	clone := *p
	clone.voters = make(map[id.AccountID]struct{}, len(p.voters))
	for voter := range p.voters {
		clone.voters[voter] = struct{}{}
	}
	return &clone
}
