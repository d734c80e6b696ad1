package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"fatepack/pkg/civil"
	id "fatepack/pkg/domain"
	dErrors "fatepack/pkg/domain-errors"
	"fatepack/pkg/platform/audit"
	"fatepack/pkg/platform/sentinel"
	"fatepack/pkg/requestcontext"

	"fatepack/internal/delivery/models"
	"fatepack/internal/platform/metrics"
	"fatepack/internal/visibility"
)

// Store is the registry persistence surface.
type Store interface {
	EnsureBlock(ctx context.Context, name string, now time.Time) (*models.Block, error)
	EnsureApartment(ctx context.Context, blockID id.BlockID, label string, now time.Time) (*models.Apartment, error)
	CreateDelivery(ctx context.Context, delivery *models.Delivery) error
	FindDelivery(ctx context.Context, deliveryID id.DeliveryID) (*models.Delivery, error)
	AttachPickup(ctx context.Context, pickup *models.Pickup) error
	ListByApartment(ctx context.Context, apartmentID id.ApartmentID) ([]*models.Delivery, error)
}

// OccupantSource lists the residents currently living in an apartment. The
// residency service implements it.
type OccupantSource interface {
	ActiveOccupants(ctx context.Context, apartmentID id.ApartmentID) ([]id.ResidentID, error)
}

// Notifier pushes a message to a resident's registered endpoints. The
// notification service implements it. Delivery registration treats push as
// best effort: a transport outage never fails the registration.
type Notifier interface {
	NotifyResident(ctx context.Context, residentID id.ResidentID, title, body string) error
}

// VisibilitySource resolves which records a resident may see.
type VisibilitySource interface {
	VisibleRecords(ctx context.Context, residentID id.ResidentID) ([]visibility.Record, error)
}

// Service owns package registration, pickup confirmation and the resident's
// delivery feed.
type Service struct {
	registry  Store
	occupants OccupantSource
	notifier  Notifier
	visible   VisibilitySource
	clock     *civil.Clock
	auditor   audit.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func New(registry Store, occupants OccupantSource, notifier Notifier, visible VisibilitySource, clock *civil.Clock, auditor audit.Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		registry:  registry,
		occupants: occupants,
		notifier:  notifier,
		visible:   visible,
		clock:     clock,
		auditor:   auditor,
		metrics:   m,
		logger:    logger,
	}
}

// RegisterInput is the front desk's registration form. Block and apartment
// are human-entered labels, resolved through lookup-or-create.
type RegisterInput struct {
	BlockName      string
	ApartmentLabel string
	Company        string
	Description    string
	ReceivedBy     string
}

// Register records a received package for an apartment and notifies its
// current occupants. Timestamps are recorded in the condominium's civil
// timezone so staff and residents see the same clock.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*models.Delivery, error) {
	if strings.TrimSpace(input.BlockName) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "block is required")
	}
	if strings.TrimSpace(input.ApartmentLabel) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "apartment is required")
	}

	now := s.clock.In(requestcontext.Now(ctx))

	block, err := s.registry.EnsureBlock(ctx, strings.TrimSpace(input.BlockName), now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve block")
	}
	apartment, err := s.registry.EnsureApartment(ctx, block.ID, strings.TrimSpace(input.ApartmentLabel), now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve apartment")
	}

	delivery, err := models.NewDelivery(id.DeliveryID(uuid.New()), apartment.ID,
		input.Company, input.Description, input.ReceivedBy, now)
	if err != nil {
		return nil, err
	}
	if err := s.registry.CreateDelivery(ctx, delivery); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store delivery")
	}

	s.emit(ctx, audit.Event{
		Kind:    audit.KindDeliveryRegistered,
		ActorID: requestcontext.ResidentID(ctx).String(),
		Subject: delivery.ID.String(),
		Detail:  map[string]string{"apartment_id": apartment.ID.String(), "company": delivery.Company},
		At:      now,
	})
	if s.metrics != nil {
		s.metrics.DeliveriesCreated.Inc()
	}

	s.notifyOccupants(ctx, delivery)
	return delivery, nil
}

// ConfirmPickup attaches a pickup event to a delivery. Exactly one pickup
// per delivery: a second confirmation is a conflict, an unknown delivery id
// is not found.
func (s *Service) ConfirmPickup(ctx context.Context, deliveryID id.DeliveryID, pickedUpBy string) (*models.Pickup, error) {
	now := s.clock.In(requestcontext.Now(ctx))
	pickup, err := models.NewPickup(id.PickupID(uuid.New()), deliveryID, pickedUpBy, now)
	if err != nil {
		return nil, err
	}

	if err := s.registry.AttachPickup(ctx, pickup); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "delivery not found")
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, "delivery was already picked up")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store pickup")
		}
	}

	s.emit(ctx, audit.Event{
		Kind:    audit.KindDeliveryPickedUp,
		ActorID: requestcontext.ResidentID(ctx).String(),
		Subject: deliveryID.String(),
		Detail:  map[string]string{"picked_up_by": pickup.PickedUpBy},
		At:      now,
	})
	if s.metrics != nil {
		s.metrics.PickupsConfirmed.Inc()
	}
	return pickup, nil
}

// Get returns one delivery with its pickup, if any.
func (s *Service) Get(ctx context.Context, deliveryID id.DeliveryID) (*models.Delivery, error) {
	delivery, err := s.registry.FindDelivery(ctx, deliveryID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "delivery not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load delivery")
	}
	return delivery, nil
}

// ListForResident returns the deliveries the resident may see: those that
// arrived while the resident occupied the delivery's apartment, most recent
// first.
func (s *Service) ListForResident(ctx context.Context, residentID id.ResidentID) ([]*models.Delivery, error) {
	records, err := s.visible.VisibleRecords(ctx, residentID)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Delivery, 0, len(records))
	for _, record := range records {
		if delivery, ok := record.(*models.Delivery); ok {
			out = append(out, delivery)
		}
	}
	return out, nil
}

func (s *Service) notifyOccupants(ctx context.Context, delivery *models.Delivery) {
	if s.notifier == nil || s.occupants == nil {
		return
	}
	occupants, err := s.occupants.ActiveOccupants(ctx, delivery.ApartmentID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to list occupants for notification",
			"error", err.Error(),
			"delivery_id", delivery.ID,
		)
		return
	}
	for _, residentID := range occupants {
		if err := s.notifier.NotifyResident(ctx, residentID, "Package received",
			"A package from "+delivery.Company+" arrived at the front desk."); err != nil {
			s.logger.WarnContext(ctx, "failed to notify occupant",
				"error", err.Error(),
				"resident_id", residentID,
				"delivery_id", delivery.ID,
			)
		}
	}
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	_ = s.auditor.Emit(ctx, event)
}

// RecordSource adapts the registry store to the visibility resolver.
type RecordSource struct {
	registry Store
}

func NewRecordSource(registry Store) *RecordSource {
	return &RecordSource{registry: registry}
}

func (r *RecordSource) RecordsForApartment(ctx context.Context, apartmentID id.ApartmentID) ([]visibility.Record, error) {
	deliveries, err := r.registry.ListByApartment(ctx, apartmentID)
	if err != nil {
		return nil, err
	}
	records := make([]visibility.Record, len(deliveries))
	for i, delivery := range deliveries {
		records[i] = delivery
	}
	return records, nil
}
