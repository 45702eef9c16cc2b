package generation

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/replyforge/replyforge/pkg/usage"
)

// MemoryStore is an in-memory generation Store for tests. Its mutex covers
// both the record append and the usage increment, mirroring the transaction
// used by the PG store.
type MemoryStore struct {
	mu      sync.Mutex
	records []Record
	periods *usage.MemoryStore
}

// NewMemoryStore creates a MemoryStore sharing the given usage store.
func NewMemoryStore(periods *usage.MemoryStore) *MemoryStore {
	return &MemoryStore{periods: periods}
}

func (s *MemoryStore) RecordGeneration(ctx context.Context, rec *Record) (*usage.Period, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	month, year := usage.PeriodOf(rec.CreatedAt)
	period, err := s.periods.Increment(ctx, rec.UserID, month, year)
	if err != nil {
		return nil, err
	}

	s.records = append(s.records, *rec)
	return period, nil
}

func (s *MemoryStore) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []Record
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].UserID == userID {
			matched = append(matched, s.records[i])
		}
	}

	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return slices.Clone(matched), nil
}

func (s *MemoryStore) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, rec := range s.records {
		if rec.UserID == userID {
			count++
		}
	}
	return count, nil
}
