package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "fatepack/pkg/domain"
	"fatepack/pkg/platform/sentinel"

	"fatepack/internal/residency/models"
)

// PostgresStore persists occupancy intervals in PostgreSQL.
//
// The ledger table carries a partial unique index on
// (resident_id) WHERE left_at IS NULL, which makes "at most one active
// interval per resident" a storage guarantee rather than a service-level
// convention. Violations surface as sentinel.ErrDuplicateLink.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Open(ctx context.Context, interval *models.Interval) error {
	query := `
		INSERT INTO occupancy_intervals (id, resident_id, apartment_id, entered_at, left_at)
		VALUES ($1, $2, $3, $4, NULL)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(interval.ID),
		uuid.UUID(interval.ResidentID),
		uuid.UUID(interval.ApartmentID),
		interval.EnteredAt,
	)
	if err != nil {
		return classify(err, "open interval")
	}
	return nil
}

// CloseActive stamps left_at on the resident's active interval and returns
// it. Returns sentinel.ErrNotFound when no interval is active.
func (s *PostgresStore) CloseActive(ctx context.Context, residentID id.ResidentID, closedAt time.Time) (*models.Interval, error) {
	query := `
		UPDATE occupancy_intervals
		SET left_at = $2
		WHERE resident_id = $1 AND left_at IS NULL
		RETURNING id, resident_id, apartment_id, entered_at, left_at
	`
	interval, err := scanInterval(s.db.QueryRowContext(ctx, query, uuid.UUID(residentID), closedAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("close active interval: %w", err)
	}
	return interval, nil
}

// Move atomically closes the resident's active interval (if any) and opens a
// new one. Both statements run in one transaction: a concurrent reader never
// observes the resident with zero or two active intervals.
func (s *PostgresStore) Move(ctx context.Context, interval *models.Interval) (*models.Interval, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin move: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	closeQuery := `
		UPDATE occupancy_intervals
		SET left_at = $2
		WHERE resident_id = $1 AND left_at IS NULL
	`
	if _, err := tx.ExecContext(ctx, closeQuery, uuid.UUID(interval.ResidentID), interval.EnteredAt); err != nil {
		return nil, classify(err, "move: close active interval")
	}

	openQuery := `
		INSERT INTO occupancy_intervals (id, resident_id, apartment_id, entered_at, left_at)
		VALUES ($1, $2, $3, $4, NULL)
		RETURNING id, resident_id, apartment_id, entered_at, left_at
	`
	opened, err := scanInterval(tx.QueryRowContext(ctx, openQuery,
		uuid.UUID(interval.ID),
		uuid.UUID(interval.ResidentID),
		uuid.UUID(interval.ApartmentID),
		interval.EnteredAt,
	))
	if err != nil {
		return nil, classify(err, "move: open interval")
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit move: %w", err)
	}
	return opened, nil
}

func (s *PostgresStore) FindActive(ctx context.Context, residentID id.ResidentID) (*models.Interval, error) {
	query := `
		SELECT id, resident_id, apartment_id, entered_at, left_at
		FROM occupancy_intervals
		WHERE resident_id = $1 AND left_at IS NULL
	`
	interval, err := scanInterval(s.db.QueryRowContext(ctx, query, uuid.UUID(residentID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find active interval: %w", err)
	}
	return interval, nil
}

// ListByResident returns the resident's full interval history. Ascending
// entered_at serves audit views; descending serves "most recent apartment"
// queries.
func (s *PostgresStore) ListByResident(ctx context.Context, residentID id.ResidentID, descending bool) ([]*models.Interval, error) {
	order := "ASC"
	if descending {
		order = "DESC"
	}
	query := fmt.Sprintf(`
		SELECT id, resident_id, apartment_id, entered_at, left_at
		FROM occupancy_intervals
		WHERE resident_id = $1
		ORDER BY entered_at %s
	`, order)

	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(residentID))
	if err != nil {
		return nil, fmt.Errorf("list intervals: %w", err)
	}
	defer rows.Close()

	var out []*models.Interval
	for rows.Next() {
		interval, err := scanInterval(rows)
		if err != nil {
			return nil, fmt.Errorf("scan interval: %w", err)
		}
		out = append(out, interval)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list intervals: %w", err)
	}
	return out, nil
}

// ActiveResidents returns the residents currently occupying an apartment.
func (s *PostgresStore) ActiveResidents(ctx context.Context, apartmentID id.ApartmentID) ([]id.ResidentID, error) {
	query := `
		SELECT resident_id
		FROM occupancy_intervals
		WHERE apartment_id = $1 AND left_at IS NULL
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(apartmentID))
	if err != nil {
		return nil, fmt.Errorf("active residents: %w", err)
	}
	defer rows.Close()

	var out []id.ResidentID
	for rows.Next() {
		var raw uuid.UUID
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan resident id: %w", err)
		}
		out = append(out, id.ResidentID(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("active residents: %w", err)
	}
	return out, nil
}

type intervalRow interface {
	Scan(dest ...any) error
}

func scanInterval(row intervalRow) (*models.Interval, error) {
	var (
		interval    models.Interval
		rawID       uuid.UUID
		residentID  uuid.UUID
		apartmentID uuid.UUID
		leftAt      sql.NullTime
	)
	if err := row.Scan(&rawID, &residentID, &apartmentID, &interval.EnteredAt, &leftAt); err != nil {
		return nil, err
	}
	interval.ID = id.IntervalID(rawID)
	interval.ResidentID = id.ResidentID(residentID)
	interval.ApartmentID = id.ApartmentID(apartmentID)
	if leftAt.Valid {
		interval.LeftAt = &leftAt.Time
	}
	return &interval, nil
}

// classify maps PostgreSQL constraint violations onto sentinels so the
// service can distinguish a duplicate residency link from a missing foreign
// row or a plain storage failure.
func classify(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w", op, sentinel.ErrDuplicateLink)
		case "23503":
			return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
