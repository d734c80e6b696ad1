package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "fatepack/pkg/domain"
	dErrors "fatepack/pkg/domain-errors"
	"fatepack/pkg/requestcontext"

	"fatepack/internal/auth/service"
	sessionstore "fatepack/internal/auth/store/session"
	"fatepack/internal/jwttoken"
	residentmodels "fatepack/internal/resident/models"
	residentservice "fatepack/internal/resident/service"
	residentstore "fatepack/internal/resident/store"
)

type AuthServiceSuite struct {
	suite.Suite
	svc      *service.Service
	sessions *sessionstore.InMemoryStore
	now      time.Time
}

func (s *AuthServiceSuite) SetupTest() {
	residents := residentservice.New(residentstore.NewInMemory(), nil, nil)
	s.sessions = sessionstore.NewInMemory()
	tokens := jwttoken.NewJWTService("test-signing-key", "fatepack", "fatepack-api")
	s.svc = service.New(residents, s.sessions, tokens, time.Hour)
	s.now = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	_, err := residents.Register(s.ctx(), residentservice.RegisterInput{
		Name:     "Ana Souza",
		Email:    "ana@example.com",
		Password: "correct-horse",
		Role:     residentmodels.RoleStaff,
	})
	s.Require().NoError(err)
}

func (s *AuthServiceSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *AuthServiceSuite) TestLogin() {
	s.Run("issues token and session", func() {
		result, err := s.svc.Login(s.ctx(), "ana@example.com", "correct-horse")
		s.Require().NoError(err)
		s.NotEmpty(result.AccessToken)
		s.Equal(int64(3600), result.ExpiresIn)
		s.Equal("ana@example.com", result.Resident.Email)
	})

	s.Run("bad credentials", func() {
		_, err := s.svc.Login(s.ctx(), "ana@example.com", "wrong")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *AuthServiceSuite) TestCheckSession() {
	result, err := s.svc.Login(s.ctx(), "ana@example.com", "correct-horse")
	s.Require().NoError(err)

	claims, err := jwttoken.NewJWTService("test-signing-key", "fatepack", "fatepack-api").ValidateToken(result.AccessToken)
	s.Require().NoError(err)
	sessionID, err := id.ParseSessionID(claims.SessionID)
	s.Require().NoError(err)

	s.Run("live session returns server-side role", func() {
		role, err := s.svc.CheckSession(s.ctx(), sessionID)
		s.Require().NoError(err)
		s.Equal("staff", role)
	})

	s.Run("expired session rejected", func() {
		later := requestcontext.WithTime(context.Background(), s.now.Add(2*time.Hour))
		_, err := s.svc.CheckSession(later, sessionID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("logout revokes the session", func() {
		s.Require().NoError(s.svc.Logout(s.ctx(), sessionID))
		_, err := s.svc.CheckSession(s.ctx(), sessionID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		// Logout is idempotent.
		s.Require().NoError(s.svc.Logout(s.ctx(), sessionID))
	})
}

func (s *AuthServiceSuite) TestCheckSessionUnknown() {
	_, err := s.svc.CheckSession(s.ctx(), id.SessionID(uuid.New()))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}
