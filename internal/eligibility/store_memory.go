package eligibility

import (
	"context"
	"sync"

	id "aidgate/pkg/domain"
	"aidgate/pkg/platform/sentinel"
)

// InMemoryStore keeps eligibility records behind a single mutex.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.AccountID]*Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.AccountID]*Record)}
}

func (s *InMemoryStore) Create(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.Account]; exists {
		return sentinel.ErrConflict
	}
	clone := *record
	s.records[record.Account] = &clone
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, account id.AccountID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[account]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *record
	return &clone, nil
}

func (s *InMemoryStore) Execute(_ context.Context, account id.AccountID, validate func(*Record) error, mutate func(*Record)) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[account]
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
