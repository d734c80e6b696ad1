// Package visibility computes which apartment-scoped records a resident is
// allowed to see, based on the occupancy ledger. A record is visible when it
// occurred while the resident lived in the record's apartment.
package visibility

import (
	"sort"
	"time"

	id "fatepack/pkg/domain"

	"fatepack/internal/residency/models"
)

// Record is any apartment-scoped record the resolver can filter. Deliveries
// implement it; so could maintenance tickets or any future per-apartment
// record type.
type Record interface {
	// Key uniquely identifies the record. Used for deduplication and as the
	// ordering tie-breaker.
	Key() string
	Apartment() id.ApartmentID
	OccurredAt() time.Time
}

// ExclusionReason explains why a record was filtered out. Exposed so callers
// can log it when diagnosing "why can't I see my package" reports.
type ExclusionReason string

const (
	ReasonMissingTimestamp ExclusionReason = "missing_timestamp"
	ReasonOutsideWindow    ExclusionReason = "outside_occupancy_window"
)

// Exclusion pairs a filtered-out record with the reason it was dropped.
type Exclusion struct {
	Record Record
	Reason ExclusionReason
}

// Result is the outcome of one resolution pass.
type Result struct {
	Visible  []Record
	Excluded []Exclusion
}

// Resolve filters records down to those the resident could see: a record is
// visible iff some interval on the record's apartment contains its
// occurred_at, with open intervals bounded on the right by now.
//
// Pure function: no I/O, no clock reads (now is a parameter), inputs are not
// mutated. Records are deduplicated by Key even when intervals overlap, which
// the ledger forbids but the resolver does not assume. Output is ordered by
// occurred_at descending, ties broken by Key descending.
func Resolve(records []Record, intervals []*models.Interval, now time.Time) Result {
	byApartment := make(map[id.ApartmentID][]*models.Interval, len(intervals))
	for _, interval := range intervals {
		byApartment[interval.ApartmentID] = append(byApartment[interval.ApartmentID], interval)
	}

	var result Result
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		if _, dup := seen[record.Key()]; dup {
			continue
		}
		seen[record.Key()] = struct{}{}

		if record.OccurredAt().IsZero() {
			result.Excluded = append(result.Excluded, Exclusion{Record: record, Reason: ReasonMissingTimestamp})
			continue
		}

		if containedByAny(byApartment[record.Apartment()], record.OccurredAt(), now) {
			result.Visible = append(result.Visible, record)
		} else {
			result.Excluded = append(result.Excluded, Exclusion{Record: record, Reason: ReasonOutsideWindow})
		}
	}

	sort.Slice(result.Visible, func(i, j int) bool {
		a, b := result.Visible[i], result.Visible[j]
		if !a.OccurredAt().Equal(b.OccurredAt()) {
			return a.OccurredAt().After(b.OccurredAt())
		}
		return a.Key() > b.Key()
	})
	return result
}

func containedByAny(intervals []*models.Interval, t, now time.Time) bool {
	for _, interval := range intervals {
		if interval.Contains(t, now) {
			return true
		}
	}
	return false
}
