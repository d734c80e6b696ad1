package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	id "fatepack/pkg/domain"
	"fatepack/pkg/platform/sentinel"

	"fatepack/internal/delivery/models"
)

// InMemoryStore mirrors the Postgres registry semantics for tests and
// database-less development, including normalized lookup-or-create and the
// one-pickup-per-delivery constraint.
type InMemoryStore struct {
	mu sync.RWMutex
	// blocks is keyed by normalized name, apartments by (block, normalized label).
	blocks     map[string]*models.Block
	apartments map[apartmentKey]*models.Apartment
	byApartID  map[id.ApartmentID]*models.Apartment
	deliveries map[id.DeliveryID]*models.Delivery
}

type apartmentKey struct {
	blockID id.BlockID
	label   string
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		blocks:     make(map[string]*models.Block),
		apartments: make(map[apartmentKey]*models.Apartment),
		byApartID:  make(map[id.ApartmentID]*models.Apartment),
		deliveries: make(map[id.DeliveryID]*models.Delivery),
	}
}

func (s *InMemoryStore) EnsureBlock(_ context.Context, name string, now time.Time) (*models.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := models.NormalizeBlockKey(name)
	if existing, ok := s.blocks[key]; ok {
		clone := *existing
		return &clone, nil
	}
	block := &models.Block{ID: id.BlockID(uuid.New()), Name: name, CreatedAt: now}
	s.blocks[key] = block
	clone := *block
	return &clone, nil
}

func (s *InMemoryStore) EnsureApartment(_ context.Context, blockID id.BlockID, label string, now time.Time) (*models.Apartment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := apartmentKey{blockID: blockID, label: models.NormalizeApartmentKey(label)}
	if existing, ok := s.apartments[key]; ok {
		clone := *existing
		return &clone, nil
	}
	apartment := &models.Apartment{ID: id.ApartmentID(uuid.New()), BlockID: blockID, Label: label, CreatedAt: now}
	s.apartments[key] = apartment
	s.byApartID[apartment.ID] = apartment
	clone := *apartment
	return &clone, nil
}

func (s *InMemoryStore) CreateDelivery(_ context.Context, delivery *models.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byApartID[delivery.ApartmentID]; !ok {
		return sentinel.ErrNotFound
	}
	if _, dup := s.deliveries[delivery.ID]; dup {
		return sentinel.ErrConflict
	}
	clone := cloneDelivery(delivery)
	s.deliveries[delivery.ID] = clone
	return nil
}

func (s *InMemoryStore) FindDelivery(_ context.Context, deliveryID id.DeliveryID) (*models.Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	delivery, ok := s.deliveries[deliveryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneDelivery(delivery), nil
}

func (s *InMemoryStore) AttachPickup(_ context.Context, pickup *models.Pickup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delivery, ok := s.deliveries[pickup.DeliveryID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if delivery.Pickup != nil {
		return sentinel.ErrConflict
	}
	clone := *pickup
	delivery.Pickup = &clone
	return nil
}

func (s *InMemoryStore) ListByApartment(_ context.Context, apartmentID id.ApartmentID) ([]*models.Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Delivery
	for _, delivery := range s.deliveries {
		if delivery.ApartmentID == apartmentID {
			out = append(out, cloneDelivery(delivery))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReceivedAt.Equal(out[j].ReceivedAt) {
			return out[i].ReceivedAt.After(out[j].ReceivedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	return out, nil
}

func cloneDelivery(delivery *models.Delivery) *models.Delivery {
	clone := *delivery
	if delivery.Pickup != nil {
		pickup := *delivery.Pickup
		clone.Pickup = &pickup
	}
	return &clone
}
