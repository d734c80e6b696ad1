package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"fatepack/pkg/platform/audit"
)

// Store persists audit events in PostgreSQL. Pure I/O; event shaping belongs
// to the emitters.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	detail, err := json.Marshal(event.Detail)
	if err != nil {
		return fmt.Errorf("marshal audit detail: %w", err)
	}
	query := `
		INSERT INTO audit_events (kind, actor_id, subject, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := s.db.ExecContext(ctx, query, event.Kind, nullable(event.ActorID), nullable(event.Subject), detail, event.At); err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
