package store

import (
	"context"
	"strings"
	"sync"

	id "fatepack/pkg/domain"
	"fatepack/pkg/platform/sentinel"

	"fatepack/internal/resident/models"
)

// InMemoryStore backs resident persistence for unit tests and local runs
// without a database.
type InMemoryStore struct {
	mu      sync.RWMutex
	byID    map[id.ResidentID]*models.Resident
	byEmail map[string]id.ResidentID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[id.ResidentID]*models.Resident),
		byEmail: make(map[string]id.ResidentID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, resident *models.Resident) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(resident.Email)
	if _, exists := s.byEmail[key]; exists {
		return sentinel.ErrConflict
	}
	clone := *resident
	s.byID[resident.ID] = &clone
	s.byEmail[key] = resident.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, residentID id.ResidentID) (*models.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resident, ok := s.byID[residentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *resident
	return &clone, nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	residentID, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *s.byID[residentID]
	return &clone, nil
}

func (s *InMemoryStore) Update(_ context.Context, resident *models.Resident) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[resident.ID]; !ok {
		return sentinel.ErrNotFound
	}
	clone := *resident
	s.byID[resident.ID] = &clone
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Resident, 0, len(s.byID))
	for _, resident := range s.byID {
		clone := *resident
		out = append(out, &clone)
	}
	return out, nil
}

func (s *InMemoryStore) ListIDs(_ context.Context) ([]id.ResidentID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]id.ResidentID, 0, len(s.byID))
	for residentID := range s.byID {
		out = append(out, residentID)
	}
	return out, nil
}
