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

	"fatepack/internal/delivery/models"
)

// PostgresStore persists blocks, apartments, deliveries and pickups.
//
// Blocks carry a unique index on normalized_name and apartments on
// (block_id, normalized_label); the Ensure methods lean on those indexes to
// make lookup-or-create race-free.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureBlock finds the block matching the normalized name or creates it.
// On a concurrent create the upsert returns the row the other writer won
// with; the display name of the first writer is kept.
func (s *PostgresStore) EnsureBlock(ctx context.Context, name string, now time.Time) (*models.Block, error) {
	query := `
		INSERT INTO blocks (id, name, normalized_name, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (normalized_name) DO UPDATE SET normalized_name = EXCLUDED.normalized_name
		RETURNING id, name, created_at
	`
	var (
		block models.Block
		rawID uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, query,
		uuid.New(), name, models.NormalizeBlockKey(name), now,
	).Scan(&rawID, &block.Name, &block.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("ensure block: %w", err)
	}
	block.ID = id.BlockID(rawID)
	return &block, nil
}

// EnsureApartment finds the unit matching the normalized label within the
// block or creates it.
func (s *PostgresStore) EnsureApartment(ctx context.Context, blockID id.BlockID, label string, now time.Time) (*models.Apartment, error) {
	query := `
		INSERT INTO apartments (id, block_id, label, normalized_label, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (block_id, normalized_label) DO UPDATE SET normalized_label = EXCLUDED.normalized_label
		RETURNING id, block_id, label, created_at
	`
	var (
		apartment models.Apartment
		rawID     uuid.UUID
		rawBlock  uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, query,
		uuid.New(), uuid.UUID(blockID), label, models.NormalizeApartmentKey(label), now,
	).Scan(&rawID, &rawBlock, &apartment.Label, &apartment.CreatedAt)
	if err != nil {
		return nil, classify(err, "ensure apartment")
	}
	apartment.ID = id.ApartmentID(rawID)
	apartment.BlockID = id.BlockID(rawBlock)
	return &apartment, nil
}

func (s *PostgresStore) CreateDelivery(ctx context.Context, delivery *models.Delivery) error {
	query := `
		INSERT INTO deliveries (id, apartment_id, company, description, received_by, received_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(delivery.ID),
		uuid.UUID(delivery.ApartmentID),
		delivery.Company,
		delivery.Description,
		delivery.ReceivedBy,
		delivery.ReceivedAt,
	)
	if err != nil {
		return classify(err, "create delivery")
	}
	return nil
}

func (s *PostgresStore) FindDelivery(ctx context.Context, deliveryID id.DeliveryID) (*models.Delivery, error) {
	query := baseSelect + ` WHERE d.id = $1`
	delivery, err := scanDelivery(s.db.QueryRowContext(ctx, query, uuid.UUID(deliveryID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find delivery: %w", err)
	}
	return delivery, nil
}

// AttachPickup records the collection of a delivery. The unique index on
// pickups.delivery_id makes double pickup a conflict; a bad delivery id
// surfaces as the foreign key violation and maps to not found.
func (s *PostgresStore) AttachPickup(ctx context.Context, pickup *models.Pickup) error {
	query := `
		INSERT INTO pickups (id, delivery_id, picked_up_by, picked_up_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(pickup.ID),
		uuid.UUID(pickup.DeliveryID),
		pickup.PickedUpBy,
		pickup.PickedUpAt,
	)
	if err != nil {
		return classify(err, "attach pickup")
	}
	return nil
}

// ListByApartment returns the apartment's deliveries, pickups included,
// most recent first.
func (s *PostgresStore) ListByApartment(ctx context.Context, apartmentID id.ApartmentID) ([]*models.Delivery, error) {
	query := baseSelect + ` WHERE d.apartment_id = $1 ORDER BY d.received_at DESC, d.id DESC`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(apartmentID))
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var out []*models.Delivery
	for rows.Next() {
		delivery, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		out = append(out, delivery)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	return out, nil
}

const baseSelect = `
	SELECT d.id, d.apartment_id, d.company, d.description, d.received_by, d.received_at,
	       p.id, p.picked_up_by, p.picked_up_at
	FROM deliveries d
	LEFT JOIN pickups p ON p.delivery_id = d.id
`

type deliveryRow interface {
	Scan(dest ...any) error
}

func scanDelivery(row deliveryRow) (*models.Delivery, error) {
	var (
		delivery    models.Delivery
		rawID       uuid.UUID
		apartmentID uuid.UUID
		pickupID    uuid.NullUUID
		pickedUpBy  sql.NullString
		pickedUpAt  sql.NullTime
	)
	err := row.Scan(&rawID, &apartmentID, &delivery.Company, &delivery.Description,
		&delivery.ReceivedBy, &delivery.ReceivedAt, &pickupID, &pickedUpBy, &pickedUpAt)
	if err != nil {
		return nil, err
	}
	delivery.ID = id.DeliveryID(rawID)
	delivery.ApartmentID = id.ApartmentID(apartmentID)
	if pickupID.Valid {
		delivery.Pickup = &models.Pickup{
			ID:         id.PickupID(pickupID.UUID),
			DeliveryID: delivery.ID,
			PickedUpBy: pickedUpBy.String,
			PickedUpAt: pickedUpAt.Time,
		}
	}
	return &delivery, nil
}

// classify maps constraint violations onto sentinels: a duplicate pickup is
// a conflict, a dangling foreign key means the referenced row is missing.
func classify(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w", op, sentinel.ErrConflict)
		case "23503":
			return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
