package ledger

import (
	"context"
	"sync"

	id "aidgate/pkg/domain"
)

// InMemoryStore keeps balances behind a single mutex. Execute validates and
// mutates while holding the write lock, so no operation ever observes a
// partially applied mutation.
type InMemoryStore struct {
	mu          sync.RWMutex
	balances    map[id.AccountID]uint64
	totalSupply uint64
	paused      bool
	blacklist   map[id.AccountID]bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		balances:  make(map[id.AccountID]uint64),
		blacklist: make(map[id.AccountID]bool),
	}
}

func (s *InMemoryStore) BalanceOf(_ context.Context, account id.AccountID) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[account], nil
}

func (s *InMemoryStore) TotalSupply(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalSupply, nil
}

func (s *InMemoryStore) Paused(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused, nil
}

func (s *InMemoryStore) SetPaused(_ context.Context, paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = paused
	return nil
}

func (s *InMemoryStore) Blacklisted(_ context.Context, account id.AccountID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blacklist[account], nil
}

func (s *InMemoryStore) SetBlacklisted(_ context.Context, account id.AccountID, blacklisted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if blacklisted {
		s.blacklist[account] = true
	} else {
		delete(s.blacklist, account)
	}
	return nil
}

func (s *InMemoryStore) Execute(_ context.Context, fn func(v View) (Mutation, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mutation, err := fn(memoryView{s})
	if err != nil {
		return err
	}
	for account, amount := range mutation.Debits {
		s.balances[account] -= amount
		if s.balances[account] == 0 {
			delete(s.balances, account)
		}
	}
	for account, amount := range mutation.Credits {
		s.balances[account] += amount
	}
	if mutation.SupplyDelta >= 0 {
		s.totalSupply += uint64(mutation.SupplyDelta)
	} else {
		s.totalSupply -= uint64(-mutation.SupplyDelta)
	}
	return nil
}

// memoryView reads the store without re-locking; Execute already holds the
// write lock.
type memoryView struct {
	store *InMemoryStore
}

func (v memoryView) Balance(account id.AccountID) (uint64, error) {
	return v.store.balances[account], nil
}

func (v memoryView) TotalSupply() (uint64, error) {
	return v.store.totalSupply, nil
}

func (v memoryView) Paused() (bool, error) {
	return v.store.paused, nil
}

func (v memoryView) Blacklisted(account id.AccountID) (bool, error) {
	return v.store.blacklist[account], nil
}

// Sum returns the sum of all balances. Exposed for conservation checks in
// tests.
func (s *InMemoryStore) Sum() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum uint64
	for _, balance := range s.balances {
		sum += balance
	}
	return sum
}
