package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "fatepack/pkg/domain"
	"fatepack/pkg/platform/sentinel"

	"fatepack/internal/resident/models"
)

// PostgresStore persists residents in PostgreSQL. Pure I/O; validation and
// normalization belong to the service and model layers.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, resident *models.Resident) error {
	query := `
		INSERT INTO residents (id, name, email, phone, role, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(resident.ID),
		resident.Name,
		resident.Email,
		resident.Phone,
		string(resident.Role),
		resident.PasswordHash,
		resident.CreatedAt,
		resident.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create resident: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, residentID id.ResidentID) (*models.Resident, error) {
	query := `
		SELECT id, name, email, phone, role, password_hash, created_at, updated_at
		FROM residents
		WHERE id = $1
	`
	resident, err := scanResident(s.db.QueryRowContext(ctx, query, uuid.UUID(residentID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find resident by id: %w", err)
	}
	return resident, nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Resident, error) {
	query := `
		SELECT id, name, email, phone, role, password_hash, created_at, updated_at
		FROM residents
		WHERE lower(email) = lower($1)
	`
	resident, err := scanResident(s.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find resident by email: %w", err)
	}
	return resident, nil
}

func (s *PostgresStore) Update(ctx context.Context, resident *models.Resident) error {
	query := `
		UPDATE residents
		SET name = $2, phone = $3, updated_at = $4
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		uuid.UUID(resident.ID),
		resident.Name,
		resident.Phone,
		resident.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update resident: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update resident rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Resident, error) {
	query := `
		SELECT id, name, email, phone, role, password_hash, created_at, updated_at
		FROM residents
		ORDER BY name
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list residents: %w", err)
	}
	defer rows.Close()

	var out []*models.Resident
	for rows.Next() {
		resident, err := scanResident(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resident: %w", err)
		}
		out = append(out, resident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list residents: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListIDs(ctx context.Context) ([]id.ResidentID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM residents`)
	if err != nil {
		return nil, fmt.Errorf("list resident ids: %w", err)
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
		return nil, fmt.Errorf("list resident ids: %w", err)
	}
	return out, nil
}

type residentRow interface {
	Scan(dest ...any) error
}

func scanResident(row residentRow) (*models.Resident, error) {
	var (
		resident models.Resident
		rawID    uuid.UUID
		role     string
	)
	if err := row.Scan(&rawID, &resident.Name, &resident.Email, &resident.Phone, &role, &resident.PasswordHash, &resident.CreatedAt, &resident.UpdatedAt); err != nil {
		return nil, err
	}
	resident.ID = id.ResidentID(rawID)
	resident.Role = models.Role(role)
	return &resident, nil
}

// isUniqueViolation reports a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
