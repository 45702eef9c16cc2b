package usage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type periodKey struct {
	userID uuid.UUID
	month  int
	year   int
}

// MemoryStore is an in-memory usage Store for tests. A single mutex provides
// the same get-or-create atomicity the PG store gets from its upsert.
type MemoryStore struct {
	mu      sync.Mutex
	periods map[periodKey]*Period
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		periods: make(map[periodKey]*Period),
		now:     time.Now,
	}
}

func (s *MemoryStore) GetOrCreate(ctx context.Context, userID uuid.UUID, month, year int) (*Period, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.getOrCreateLocked(userID, month, year)
	clone := *p
	return &clone, nil
}

func (s *MemoryStore) Increment(ctx context.Context, userID uuid.UUID, month, year int) (*Period, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.getOrCreateLocked(userID, month, year)
	p.RequestCount++
	p.UpdatedAt = s.now().UTC()
	clone := *p
	return &clone, nil
}

func (s *MemoryStore) getOrCreateLocked(userID uuid.UUID, month, year int) *Period {
	key := periodKey{userID: userID, month: month, year: year}
	p, ok := s.periods[key]
	if !ok {
		now := s.now().UTC()
		p = &Period{
			UserID:    userID,
			Month:     month,
			Year:      year,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.periods[key] = p
	}
	return p
}
