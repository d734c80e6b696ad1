package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"fatepack/internal/auth/models"
	residentmodels "fatepack/internal/resident/models"
	id "fatepack/pkg/domain"
	dErrors "fatepack/pkg/domain-errors"
	"fatepack/pkg/platform/sentinel"
	"fatepack/pkg/requestcontext"
)

// SessionStore is the persistence surface for sessions.
type SessionStore interface {
	Save(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	Delete(ctx context.Context, sessionID id.SessionID) error
}

// Authenticator verifies credentials; implemented by the resident service.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*residentmodels.Resident, error)
}

// TokenIssuer mints access tokens; implemented by jwttoken.JWTService.
type TokenIssuer interface {
	GenerateAccessToken(residentID id.ResidentID, sessionID id.SessionID, expiresIn time.Duration) (string, error)
}

// Service handles login, logout, and session liveness checks.
type Service struct {
	residents  Authenticator
	sessions   SessionStore
	tokens     TokenIssuer
	sessionTTL time.Duration
}

func New(residents Authenticator, sessions SessionStore, tokens TokenIssuer, sessionTTL time.Duration) *Service {
	return &Service{
		residents:  residents,
		sessions:   sessions,
		tokens:     tokens,
		sessionTTL: sessionTTL,
	}
}

// LoginResult carries everything the login response needs.
type LoginResult struct {
	AccessToken string
	ExpiresIn   int64
	Resident    *residentmodels.Resident
}

func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	resident, err := s.residents.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	session := &models.Session{
		ID:         id.SessionID(uuid.New()),
		ResidentID: resident.ID,
		Role:       string(resident.Role),
		Status:     models.SessionStatusActive,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.sessionTTL),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session")
	}

	token, err := s.tokens.GenerateAccessToken(resident.ID, session.ID, s.sessionTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	return &LoginResult{
		AccessToken: token,
		ExpiresIn:   int64(s.sessionTTL.Seconds()),
		Resident:    resident,
	}, nil
}

// Logout revokes the caller's session. Idempotent: a second logout on the
// same session is a no-op.
func (s *Service) Logout(ctx context.Context, sessionID id.SessionID) error {
	if sessionID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "session id is required")
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke session")
	}
	return nil
}

// CheckSession implements middleware.SessionChecker: confirms liveness and
// returns the authoritative role.
func (s *Service) CheckSession(ctx context.Context, sessionID id.SessionID) (string, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "session not found")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	if !session.IsActive(requestcontext.Now(ctx)) {
		return "", dErrors.New(dErrors.CodeUnauthorized, "session expired or revoked")
	}
	return session.Role, nil
}
