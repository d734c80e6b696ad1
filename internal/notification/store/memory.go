package store

import (
	"context"
	"sort"
	"sync"

	id "fatepack/pkg/domain"
	"fatepack/pkg/platform/sentinel"

	"fatepack/internal/notification/models"
)

// InMemoryStore mirrors the Postgres endpoint semantics, including the
// (resident, url) upsert.
type InMemoryStore struct {
	mu        sync.RWMutex
	endpoints map[id.EndpointID]*models.Endpoint
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{endpoints: make(map[id.EndpointID]*models.Endpoint)}
}

func (s *InMemoryStore) Upsert(_ context.Context, endpoint *models.Endpoint) (*models.Endpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.endpoints {
		if existing.ResidentID == endpoint.ResidentID && existing.URL == endpoint.URL {
			existing.Secret = endpoint.Secret
			existing.Device = endpoint.Device
			clone := *existing
			return &clone, nil
		}
	}
	clone := *endpoint
	s.endpoints[endpoint.ID] = &clone
	out := clone
	return &out, nil
}

func (s *InMemoryStore) ListByResident(_ context.Context, residentID id.ResidentID) ([]*models.Endpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Endpoint
	for _, endpoint := range s.endpoints {
		if endpoint.ResidentID == residentID {
			clone := *endpoint
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) DeleteByURL(_ context.Context, residentID id.ResidentID, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for endpointID, endpoint := range s.endpoints {
		if endpoint.ResidentID == residentID && endpoint.URL == url {
			delete(s.endpoints, endpointID)
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func (s *InMemoryStore) DeleteByID(_ context.Context, endpointID id.EndpointID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.endpoints, endpointID)
	return nil
}
