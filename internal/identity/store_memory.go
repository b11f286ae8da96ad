package identity

import (
	"context"
	"sync"

	id "aidgate/pkg/domain"
	"aidgate/pkg/platform/sentinel"
)

// InMemoryStore keeps identity records behind a single mutex. Execute holds
// the write lock across validate and mutate so transitions are atomic.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.IdentityID]*Identity
	nextID  uint64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.IdentityID]*Identity)}
}

func (s *InMemoryStore) Create(_ context.Context, record *Identity) (id.IdentityID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	stored := *record
	stored.ID = id.IdentityID(s.nextID)
	s.records[stored.ID] = &stored
	return stored.ID, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, identityID id.IdentityID) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[identityID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *record
	return &clone, nil
}

func (s *InMemoryStore) Execute(_ context.Context, identityID id.IdentityID, validate func(*Identity) error, mutate func(*Identity)) (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[identityID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(record); err != nil {
		return nil, err
	}
	mutate(record)
	clone := *record
	return &clone, nil
}
