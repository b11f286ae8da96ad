package accesscontrol

import (
	"context"
	"sync"

	id "aidgate/pkg/domain"
	"aidgate/pkg/platform/sentinel"
)

// InMemoryStore keeps role bindings behind a single mutex. It intentionally
// favors clarity over performance.
type InMemoryStore struct {
	mu          sync.RWMutex
	owner       id.AccountID
	admins      map[id.AccountID]bool
	distributor id.AccountID
	hasDist     bool
}

// NewInMemoryStore seeds the singleton owner.
func NewInMemoryStore(owner id.AccountID) *InMemoryStore {
	return &InMemoryStore{
		owner:  owner,
		admins: make(map[id.AccountID]bool),
	}
}

func (s *InMemoryStore) Owner(_ context.Context) (id.AccountID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner, nil
}

func (s *InMemoryStore) SetOwner(_ context.Context, account id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owner = account
	return nil
}

func (s *InMemoryStore) IsAdmin(_ context.Context, account id.AccountID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admins[account], nil
}

func (s *InMemoryStore) SetAdmin(_ context.Context, account id.AccountID, grant bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if grant {
		s.admins[account] = true
	} else {
		delete(s.admins, account)
	}
	return nil
}

func (s *InMemoryStore) Distributor(_ context.Context) (id.AccountID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasDist {
		return id.AccountID{}, sentinel.ErrNotFound
	}
	return s.distributor, nil
}

func (s *InMemoryStore) SetDistributor(_ context.Context, account id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.distributor = account
	s.hasDist = true
	return nil
}
