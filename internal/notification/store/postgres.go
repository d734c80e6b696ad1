package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "fatepack/pkg/domain"
	"fatepack/pkg/platform/sentinel"

	"fatepack/internal/notification/models"
)

// PostgresStore persists push endpoints. Subscription is an upsert keyed by
// (resident_id, url): re-subscribing from the same device refreshes the
// secret instead of stacking duplicate rows.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, endpoint *models.Endpoint) (*models.Endpoint, error) {
	query := `
		INSERT INTO push_endpoints (id, resident_id, url, secret, device, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (resident_id, url) DO UPDATE SET secret = EXCLUDED.secret, device = EXCLUDED.device
		RETURNING id, resident_id, url, secret, device, created_at
	`
	stored, err := scanEndpoint(s.db.QueryRowContext(ctx, query,
		uuid.UUID(endpoint.ID),
		uuid.UUID(endpoint.ResidentID),
		endpoint.URL,
		endpoint.Secret,
		endpoint.Device,
		endpoint.CreatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("upsert endpoint: %w", err)
	}
	return stored, nil
}

func (s *PostgresStore) ListByResident(ctx context.Context, residentID id.ResidentID) ([]*models.Endpoint, error) {
	query := `
		SELECT id, resident_id, url, secret, device, created_at
		FROM push_endpoints
		WHERE resident_id = $1
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(residentID))
	if err != nil {
		return nil, fmt.Errorf("list endpoints: %w", err)
	}
	defer rows.Close()

	var out []*models.Endpoint
	for rows.Next() {
		endpoint, err := scanEndpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan endpoint: %w", err)
		}
		out = append(out, endpoint)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list endpoints: %w", err)
	}
	return out, nil
}

// DeleteByURL removes one subscription. Unsubscribing an unknown URL is
// treated as not found so the service can decide to ignore it.
func (s *PostgresStore) DeleteByURL(ctx context.Context, residentID id.ResidentID, url string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM push_endpoints WHERE resident_id = $1 AND url = $2`,
		uuid.UUID(residentID), url,
	)
	if err != nil {
		return fmt.Errorf("delete endpoint: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete endpoint: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// DeleteByID prunes an endpoint the transport reported gone.
func (s *PostgresStore) DeleteByID(ctx context.Context, endpointID id.EndpointID) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM push_endpoints WHERE id = $1`, uuid.UUID(endpointID),
	); err != nil {
		return fmt.Errorf("prune endpoint: %w", err)
	}
	return nil
}

type endpointRow interface {
	Scan(dest ...any) error
}

func scanEndpoint(row endpointRow) (*models.Endpoint, error) {
	var (
		endpoint   models.Endpoint
		rawID      uuid.UUID
		residentID uuid.UUID
		device     sql.NullString
	)
	if err := row.Scan(&rawID, &residentID, &endpoint.URL, &endpoint.Secret, &device, &endpoint.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	endpoint.ID = id.EndpointID(rawID)
	endpoint.ResidentID = id.ResidentID(residentID)
	endpoint.Device = device.String
	return &endpoint, nil
}
