package visibility

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	id "fatepack/pkg/domain"
	dErrors "fatepack/pkg/domain-errors"
	"fatepack/pkg/requestcontext"

	"fatepack/internal/residency/models"
)

// IntervalSource supplies a resident's full occupancy history. The residency
// service implements it.
type IntervalSource interface {
	History(ctx context.Context, residentID id.ResidentID, descending bool) ([]*models.Interval, error)
}

// RecordSource supplies all records for one apartment. The delivery store
// implements it through an adapter.
type RecordSource interface {
	RecordsForApartment(ctx context.Context, apartmentID id.ApartmentID) ([]Record, error)
}

// Service resolves the visible record set for a resident by joining the
// occupancy ledger with a record source.
type Service struct {
	intervals IntervalSource
	records   RecordSource
	logger    *slog.Logger
}

func NewService(intervals IntervalSource, records RecordSource, logger *slog.Logger) *Service {
	return &Service{intervals: intervals, records: records, logger: logger}
}

// VisibleRecords fetches the resident's intervals, gathers records from every
// apartment the resident has ever occupied, and resolves them against the
// occupancy windows. Per-apartment fetches run in parallel.
func (s *Service) VisibleRecords(ctx context.Context, residentID id.ResidentID) ([]Record, error) {
	if residentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "resident id is required")
	}

	intervals, err := s.intervals.History(ctx, residentID, false)
	if err != nil {
		return nil, err
	}

	apartments := distinctApartments(intervals)
	if len(apartments) == 0 {
		return nil, nil
	}

	var (
		mu      sync.Mutex
		records []Record
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, apartmentID := range apartments {
		g.Go(func() error {
			batch, err := s.records.RecordsForApartment(gctx, apartmentID)
			if err != nil {
				return err
			}
			mu.Lock()
			records = append(records, batch...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to gather records")
	}

	result := Resolve(records, intervals, requestcontext.Now(ctx))
	for _, excluded := range result.Excluded {
		if excluded.Reason == ReasonMissingTimestamp {
			s.logger.WarnContext(ctx, "record excluded from visibility",
				"record", excluded.Record.Key(),
				"reason", string(excluded.Reason),
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}
	return result.Visible, nil
}

func distinctApartments(intervals []*models.Interval) []id.ApartmentID {
	seen := make(map[id.ApartmentID]struct{}, len(intervals))
	var out []id.ApartmentID
	for _, interval := range intervals {
		if _, dup := seen[interval.ApartmentID]; dup {
			continue
		}
		seen[interval.ApartmentID] = struct{}{}
		out = append(out, interval.ApartmentID)
	}
	return out
}
