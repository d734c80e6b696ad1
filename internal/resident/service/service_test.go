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

	"fatepack/internal/resident/models"
	"fatepack/internal/resident/service"
	"fatepack/internal/resident/store"
)

type ResidentServiceSuite struct {
	suite.Suite
	svc *service.Service
	ctx context.Context
}

func (s *ResidentServiceSuite) SetupTest() {
	s.svc = service.New(store.NewInMemory(), nil, nil)
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
}

func (s *ResidentServiceSuite) register(email string) *models.Resident {
	resident, err := s.svc.Register(s.ctx, service.RegisterInput{
		Name:     "Ana Souza",
		Email:    email,
		Password: "correct-horse",
	})
	s.Require().NoError(err)
	return resident
}

func (s *ResidentServiceSuite) TestRegister() {
	s.Run("defaults to resident role and lowercases email", func() {
		resident, err := s.svc.Register(s.ctx, service.RegisterInput{
			Name:     "Ana Souza",
			Email:    "Ana@Example.COM",
			Password: "correct-horse",
		})
		s.Require().NoError(err)
		s.Equal(models.RoleResident, resident.Role)
		s.Equal("ana@example.com", resident.Email)
		s.NotEmpty(resident.PasswordHash)
		s.NotEqual("correct-horse", resident.PasswordHash)
	})

	s.Run("duplicate email conflicts", func() {
		_, err := s.svc.Register(s.ctx, service.RegisterInput{
			Name:     "Other",
			Email:    "ana@example.com",
			Password: "correct-horse",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("short password rejected", func() {
		_, err := s.svc.Register(s.ctx, service.RegisterInput{
			Name:     "Bob",
			Email:    "bob@example.com",
			Password: "short",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *ResidentServiceSuite) TestAuthenticate() {
	s.register("ana@example.com")

	s.Run("valid credentials", func() {
		resident, err := s.svc.Authenticate(s.ctx, "ana@example.com", "correct-horse")
		s.Require().NoError(err)
		s.Equal("ana@example.com", resident.Email)
	})

	s.Run("wrong password and unknown email are indistinguishable", func() {
		_, badPassword := s.svc.Authenticate(s.ctx, "ana@example.com", "wrong")
		_, unknownEmail := s.svc.Authenticate(s.ctx, "ghost@example.com", "correct-horse")
		s.Require().Error(badPassword)
		s.Require().Error(unknownEmail)
		s.Equal(dErrors.MessageOf(badPassword), dErrors.MessageOf(unknownEmail))
		s.True(dErrors.HasCode(badPassword, dErrors.CodeUnauthorized))
	})
}

func (s *ResidentServiceSuite) TestUpdateProfile() {
	resident := s.register("ana@example.com")

	updated, err := s.svc.UpdateProfile(s.ctx, resident.ID, "Ana S.", "+55 11 90000-0000")
	s.Require().NoError(err)
	s.Equal("Ana S.", updated.Name)
	s.Equal("+55 11 90000-0000", updated.Phone)

	_, err = s.svc.UpdateProfile(s.ctx, id.ResidentID(uuid.New()), "X", "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestResidentServiceSuite(t *testing.T) {
	suite.Run(t, new(ResidentServiceSuite))
}
