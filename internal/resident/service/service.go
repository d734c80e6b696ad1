package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	id "fatepack/pkg/domain"
	dErrors "fatepack/pkg/domain-errors"
	"fatepack/pkg/platform/audit"
	"fatepack/pkg/platform/sentinel"
	"fatepack/pkg/requestcontext"

	"fatepack/internal/platform/metrics"
	"fatepack/internal/resident/models"
)

// Store is the persistence surface the service needs.
type Store interface {
	Create(ctx context.Context, resident *models.Resident) error
	FindByID(ctx context.Context, residentID id.ResidentID) (*models.Resident, error)
	FindByEmail(ctx context.Context, email string) (*models.Resident, error)
	Update(ctx context.Context, resident *models.Resident) error
	List(ctx context.Context) ([]*models.Resident, error)
}

// Service orchestrates resident lifecycle: registration, profile edits,
// lookups for the auth layer.
type Service struct {
	residents Store
	auditor   audit.Publisher
	metrics   *metrics.Metrics
}

func New(residents Store, auditor audit.Publisher, m *metrics.Metrics) *Service {
	return &Service{residents: residents, auditor: auditor, metrics: m}
}

// RegisterInput carries self-registration fields. Role is fixed to resident
// for self-registration; staff accounts are provisioned separately.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Role     models.Role
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.Resident, error) {
	if strings.TrimSpace(in.Password) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "password is required")
	}
	if len(in.Password) < 8 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "password must be at least 8 characters")
	}

	role := in.Role
	if role == "" {
		role = models.RoleResident
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	resident, err := models.NewResident(id.ResidentID(uuid.New()), in.Name, in.Email, in.Phone, role, string(hash), requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.residents.Create(ctx, resident); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create resident")
	}

	s.emit(ctx, audit.Event{
		Kind:    audit.KindResidentRegistered,
		ActorID: resident.ID.String(),
		Subject: resident.ID.String(),
		Detail:  map[string]string{"email": resident.Email, "role": string(resident.Role)},
		At:      requestcontext.Now(ctx),
	})
	if s.metrics != nil {
		s.metrics.ResidentsRegistered.Inc()
	}
	return resident, nil
}

// Authenticate verifies email/password and returns the resident record. Used
// by the auth service at login; callers decide what to do with the result.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.Resident, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "email and password are required")
	}

	resident, err := s.residents.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Same error as a bad password so the response doesn't reveal
			// which emails are registered.
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up resident")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(resident.PasswordHash), []byte(password)); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	return resident, nil
}

func (s *Service) Get(ctx context.Context, residentID id.ResidentID) (*models.Resident, error) {
	if residentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "resident id is required")
	}
	resident, err := s.residents.FindByID(ctx, residentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "resident not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load resident")
	}
	return resident, nil
}

// UpdateProfile edits the mutable profile fields of a resident.
func (s *Service) UpdateProfile(ctx context.Context, residentID id.ResidentID, name, phone string) (*models.Resident, error) {
	resident, err := s.Get(ctx, residentID)
	if err != nil {
		return nil, err
	}
	if err := resident.ApplyProfileUpdate(name, phone, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.residents.Update(ctx, resident); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "resident not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update resident")
	}
	return resident, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Resident, error) {
	residents, err := s.residents.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list residents")
	}
	return residents, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	_ = s.auditor.Emit(ctx, event)
}
