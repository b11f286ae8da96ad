package governance

import (
	"context"
	"sync"

	id "aidgate/pkg/domain"
	"aidgate/pkg/platform/sentinel"
)

// InMemoryStore keeps proposals behind a single mutex. IDs are assigned
// from a strictly increasing counter starting at 1.
type InMemoryStore struct {
	mu     sync.RWMutex
	byID   map[id.ProposalID]*Proposal
	nextID uint64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:   make(map[id.ProposalID]*Proposal),
		nextID: 1,
	}
}

func (s *InMemoryStore) Create(_ context.Context, proposal *Proposal) (id.ProposalID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	proposalID := id.ProposalID(s.nextID)
	s.nextID++
	clone := proposal.Clone()
	clone.ID = proposalID
	s.byID[proposalID] = clone
	return proposalID, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, proposalID id.ProposalID) (*Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	proposal, ok := s.byID[proposalID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return proposal.Clone(), nil
}

func (s *InMemoryStore) Execute(_ context.Context, proposalID id.ProposalID, validate func(*Proposal) error, mutate func(*Proposal)) (*Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	proposal, ok := s.byID[proposalID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(proposal); err != nil {
		return nil, err
	}
	mutate(proposal)
	return proposal.Clone(), nil
}
