package models

import (
	"time"

	id "fatepack/pkg/domain"
	dErrors "fatepack/pkg/domain-errors"
)

// Interval is one time-bounded occupancy link between a resident and an
// apartment.
//
// Invariants:
//   - EnteredAt is set at creation and immutable
//   - LeftAt is nil while the resident still lives there; set exactly once
//   - At most one interval per resident has LeftAt == nil at any instant
//     (enforced by storage; see the partial unique index on the ledger table)
//
// Closed intervals are retained forever: past visibility of deliveries
// depends on them.
type Interval struct {
	ID          id.IntervalID  `json:"id"`
	ResidentID  id.ResidentID  `json:"resident_id"`
	ApartmentID id.ApartmentID `json:"apartment_id"`
	EnteredAt   time.Time      `json:"entered_at"`
	LeftAt      *time.Time     `json:"left_at,omitempty"`
}

// Active reports whether the resident still occupies the apartment.
func (i *Interval) Active() bool {
	return i.LeftAt == nil
}

// Contains reports whether t falls inside the interval. Open-ended intervals
// are bounded on the right by now.
func (i *Interval) Contains(t, now time.Time) bool {
	if t.Before(i.EnteredAt) {
		return false
	}
	end := now
	if i.LeftAt != nil {
		end = *i.LeftAt
	}
	return !t.After(end)
}

// NewInterval validates and constructs an open interval.
func NewInterval(intervalID id.IntervalID, residentID id.ResidentID, apartmentID id.ApartmentID, enteredAt time.Time) (*Interval, error) {
	if residentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "resident id is required")
	}
	if apartmentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "apartment id is required")
	}
	if enteredAt.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "entered_at is required")
	}
	return &Interval{
		ID:          intervalID,
		ResidentID:  residentID,
		ApartmentID: apartmentID,
		EnteredAt:   enteredAt,
	}, nil
}
