package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	id "fatepack/pkg/domain"
	dErrors "fatepack/pkg/domain-errors"
	"fatepack/pkg/platform/audit"
	"fatepack/pkg/platform/sentinel"
	"fatepack/pkg/requestcontext"

	"fatepack/internal/platform/metrics"
	"fatepack/internal/residency/models"
)

// Store is the ledger persistence surface.
type Store interface {
	Open(ctx context.Context, interval *models.Interval) error
	CloseActive(ctx context.Context, residentID id.ResidentID, closedAt time.Time) (*models.Interval, error)
	Move(ctx context.Context, interval *models.Interval) (*models.Interval, error)
	FindActive(ctx context.Context, residentID id.ResidentID) (*models.Interval, error)
	ListByResident(ctx context.Context, residentID id.ResidentID, descending bool) ([]*models.Interval, error)
	ActiveResidents(ctx context.Context, apartmentID id.ApartmentID) ([]id.ResidentID, error)
}

// Service owns the occupancy ledger rules. Handlers and other services call
// this, never the store directly.
type Service struct {
	ledger  Store
	auditor audit.Publisher
	metrics *metrics.Metrics
}

func New(ledger Store, auditor audit.Publisher, m *metrics.Metrics) *Service {
	return &Service{ledger: ledger, auditor: auditor, metrics: m}
}

// OpenInterval links a resident to an apartment starting now. Fails with
// Conflict when the resident already has an active interval; callers that
// want close-then-open semantics use MoveResident instead.
func (s *Service) OpenInterval(ctx context.Context, residentID id.ResidentID, apartmentID id.ApartmentID) (*models.Interval, error) {
	interval, err := models.NewInterval(id.IntervalID(uuid.New()), residentID, apartmentID, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.ledger.Open(ctx, interval); err != nil {
		return nil, s.wrapLedgerErr(err, "failed to open interval")
	}
	return interval, nil
}

// CloseActiveInterval stamps left_at on the resident's active interval.
// Idempotent: returns (nil, nil) when nothing is active.
func (s *Service) CloseActiveInterval(ctx context.Context, residentID id.ResidentID) (*models.Interval, error) {
	if residentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "resident id is required")
	}
	closed, err := s.ledger.CloseActive(ctx, residentID, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, s.wrapLedgerErr(err, "failed to close interval")
	}
	return closed, nil
}

// MoveResident atomically closes the resident's current interval (if any)
// and opens a new one on the target apartment. Works as a first-ever
// assignment too: with no active interval, the close half is a no-op inside
// the same transaction.
func (s *Service) MoveResident(ctx context.Context, residentID id.ResidentID, apartmentID id.ApartmentID) (*models.Interval, error) {
	interval, err := models.NewInterval(id.IntervalID(uuid.New()), residentID, apartmentID, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	opened, err := s.ledger.Move(ctx, interval)
	if err != nil {
		return nil, s.wrapLedgerErr(err, "failed to move resident")
	}

	s.emit(ctx, audit.Event{
		Kind:    audit.KindResidentMoved,
		ActorID: requestcontext.ResidentID(ctx).String(),
		Subject: residentID.String(),
		Detail:  map[string]string{"apartment_id": apartmentID.String()},
		At:      requestcontext.Now(ctx),
	})
	if s.metrics != nil {
		s.metrics.ResidentMoves.Inc()
	}
	return opened, nil
}

// CurrentApartment returns the apartment the resident occupies now, or
// NotFound when the resident has no active interval.
func (s *Service) CurrentApartment(ctx context.Context, residentID id.ResidentID) (id.ApartmentID, error) {
	active, err := s.ledger.FindActive(ctx, residentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return id.ApartmentID{}, dErrors.New(dErrors.CodeNotFound, "resident has no active residence")
		}
		return id.ApartmentID{}, s.wrapLedgerErr(err, "failed to find active interval")
	}
	return active.ApartmentID, nil
}

// History returns the resident's intervals ordered by entered_at.
func (s *Service) History(ctx context.Context, residentID id.ResidentID, descending bool) ([]*models.Interval, error) {
	if residentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "resident id is required")
	}
	intervals, err := s.ledger.ListByResident(ctx, residentID, descending)
	if err != nil {
		return nil, s.wrapLedgerErr(err, "failed to list intervals")
	}
	return intervals, nil
}

// ApartmentsOf returns the distinct apartments the resident has ever
// occupied. Closed intervals count: deliveries from a past residence stay
// visible for the occupied window.
func (s *Service) ApartmentsOf(ctx context.Context, residentID id.ResidentID) ([]id.ApartmentID, error) {
	intervals, err := s.History(ctx, residentID, false)
	if err != nil {
		return nil, err
	}
	seen := make(map[id.ApartmentID]struct{}, len(intervals))
	var out []id.ApartmentID
	for _, interval := range intervals {
		if _, dup := seen[interval.ApartmentID]; dup {
			continue
		}
		seen[interval.ApartmentID] = struct{}{}
		out = append(out, interval.ApartmentID)
	}
	return out, nil
}

// ActiveOccupants lists residents currently living in an apartment; the
// delivery service notifies them when a package arrives.
func (s *Service) ActiveOccupants(ctx context.Context, apartmentID id.ApartmentID) ([]id.ResidentID, error) {
	occupants, err := s.ledger.ActiveResidents(ctx, apartmentID)
	if err != nil {
		return nil, s.wrapLedgerErr(err, "failed to list occupants")
	}
	return occupants, nil
}

func (s *Service) wrapLedgerErr(err error, message string) error {
	switch {
	case errors.Is(err, sentinel.ErrDuplicateLink):
		return dErrors.New(dErrors.CodeConflict, "resident already has an active residence link")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "resident or apartment not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, message)
	}
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	_ = s.auditor.Emit(ctx, event)
}
