package models

import (
	"time"

	id "fatepack/pkg/domain"
)

// SessionStatus tracks session lifecycle.
type SessionStatus string

const (
	SessionStatusActive  SessionStatus = "active"
	SessionStatusRevoked SessionStatus = "revoked"
)

// Session is the server-side record behind an issued access token. The role
// here is authoritative: middleware reads it on every request, so revoking or
// demoting takes effect immediately regardless of what tokens are in flight.
type Session struct {
	ID         id.SessionID  `json:"id"`
	ResidentID id.ResidentID `json:"resident_id"`
	Role       string        `json:"role"`
	Status     SessionStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	ExpiresAt  time.Time     `json:"expires_at"`
}

func (s *Session) IsActive(now time.Time) bool {
	return s.Status == SessionStatusActive && now.Before(s.ExpiresAt)
}
