package profile

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory TemplateStore for tests and local
// development.
type MemoryStore struct {
	mu        sync.RWMutex
	templates map[uuid.UUID]Template
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{templates: make(map[uuid.UUID]Template)}
}

func (s *MemoryStore) Create(_ context.Context, tpl *Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[tpl.ID] = *tpl
	return nil
}

func (s *MemoryStore) ByID(_ context.Context, id uuid.UUID) (*Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tpl, ok := s.templates[id]
	if !ok {
		return nil, ErrTemplateNotFound
	}
	clone := tpl
	return &clone, nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID uuid.UUID) ([]Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var templates []Template
	for _, tpl := range s.templates {
		if tpl.UserID == userID {
			templates = append(templates, tpl)
		}
	}
	sort.Slice(templates, func(i, j int) bool {
		return templates[i].CreatedAt.Before(templates[j].CreatedAt)
	})
	return templates, nil
}

func (s *MemoryStore) Update(_ context.Context, tpl *Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[tpl.ID]; !ok {
		return ErrTemplateNotFound
	}
	s.templates[tpl.ID] = *tpl
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[id]; !ok {
		return ErrTemplateNotFound
	}
	delete(s.templates, id)
	return nil
}
