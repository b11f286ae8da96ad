package distribution

import (
	"context"
	"sync"

	id "aidgate/pkg/domain"
	"aidgate/pkg/platform/sentinel"
)

// InMemoryStore keeps distribution records behind a single mutex. IDs are
// assigned from a strictly increasing counter starting at 1.
type InMemoryStore struct {
	mu     sync.RWMutex
	byID   map[id.DistributionID]*Distribution
	nextID uint64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:   make(map[id.DistributionID]*Distribution),
		nextID: 1,
	}
}

func (s *InMemoryStore) Create(_ context.Context, dist *Distribution) (id.DistributionID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	distID := id.DistributionID(s.nextID)
	s.nextID++
	clone := cloneDistribution(dist)
	clone.ID = distID
	s.byID[distID] = clone
	dist.ID = distID
	return distID, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, distID id.DistributionID) (*Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dist, ok := s.byID[distID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneDistribution(dist), nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Distribution, 0, len(s.byID))
	for next := id.DistributionID(1); uint64(next) < s.nextID; next++ {
		if dist, ok := s.byID[next]; ok {
			out = append(out, cloneDistribution(dist))
		}
	}
	return out, nil
}

func cloneDistribution(dist *Distribution) *Distribution {
	clone := *dist
	clone.Recipients = append([]id.AccountID(nil), dist.Recipients...)
	return &clone
}
