package store

import (
	"context"
	"sort"
	"sync"
	"time"

	id "fatepack/pkg/domain"
	"fatepack/pkg/platform/sentinel"

	"fatepack/internal/residency/models"
)

// InMemoryStore mirrors the Postgres ledger semantics, including the
// single-active-interval guarantee, under one mutex. Move is therefore
// atomic with respect to every other method.
type InMemoryStore struct {
	mu        sync.RWMutex
	intervals map[id.ResidentID][]*models.Interval
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{intervals: make(map[id.ResidentID][]*models.Interval)}
}

func (s *InMemoryStore) Open(_ context.Context, interval *models.Interval) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeLocked(interval.ResidentID) != nil {
		return sentinel.ErrDuplicateLink
	}
	clone := *interval
	s.intervals[interval.ResidentID] = append(s.intervals[interval.ResidentID], &clone)
	return nil
}

func (s *InMemoryStore) CloseActive(_ context.Context, residentID id.ResidentID, closedAt time.Time) (*models.Interval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := s.activeLocked(residentID)
	if active == nil {
		return nil, sentinel.ErrNotFound
	}
	t := closedAt
	active.LeftAt = &t
	clone := *active
	return &clone, nil
}

func (s *InMemoryStore) Move(_ context.Context, interval *models.Interval) (*models.Interval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if active := s.activeLocked(interval.ResidentID); active != nil {
		t := interval.EnteredAt
		active.LeftAt = &t
	}
	clone := *interval
	s.intervals[interval.ResidentID] = append(s.intervals[interval.ResidentID], &clone)
	out := clone
	return &out, nil
}

func (s *InMemoryStore) FindActive(_ context.Context, residentID id.ResidentID) (*models.Interval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := s.activeLocked(residentID)
	if active == nil {
		return nil, sentinel.ErrNotFound
	}
	clone := *active
	return &clone, nil
}

func (s *InMemoryStore) ListByResident(_ context.Context, residentID id.ResidentID, descending bool) ([]*models.Interval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.intervals[residentID]
	out := make([]*models.Interval, 0, len(src))
	for _, interval := range src {
		clone := *interval
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if descending {
			return out[i].EnteredAt.After(out[j].EnteredAt)
		}
		return out[i].EnteredAt.Before(out[j].EnteredAt)
	})
	return out, nil
}

func (s *InMemoryStore) ActiveResidents(_ context.Context, apartmentID id.ApartmentID) ([]id.ResidentID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []id.ResidentID
	for residentID, intervals := range s.intervals {
		for _, interval := range intervals {
			if interval.Active() && interval.ApartmentID == apartmentID {
				out = append(out, residentID)
				break
			}
		}
	}
	return out, nil
}

// activeLocked finds the resident's open interval. Callers hold the lock.
func (s *InMemoryStore) activeLocked(residentID id.ResidentID) *models.Interval {
	for _, interval := range s.intervals[residentID] {
		if interval.Active() {
			return interval
		}
	}
	return nil
}
