package models

import (
	"strings"
	"time"

	id "fatepack/pkg/domain"
	dErrors "fatepack/pkg/domain-errors"
)

// Role distinguishes regular residents from building staff (porters,
// administrators). Staff register deliveries and manage residency; residents
// see and confirm their own packages.
type Role string

const (
	RoleResident Role = "resident"
	RoleStaff    Role = "staff"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleResident, RoleStaff:
		return Role(s), nil
	default:
		return "", dErrors.Newf(dErrors.CodeBadRequest, "unknown role %q", s)
	}
}

// Resident is a person known to the building.
//
// Invariants:
//   - Email is non-empty, lowercased, and unique across residents
//   - Name is non-empty and at most 128 characters
//   - Role is resident or staff
//   - CreatedAt is immutable after construction
type Resident struct {
	ID           id.ResidentID `json:"id"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	Phone        string        `json:"phone,omitempty"`
	Role         Role          `json:"role"`
	PasswordHash string        `json:"-"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func (r *Resident) IsStaff() bool {
	return r.Role == RoleStaff
}

// NewResident validates and constructs a resident record. The password hash
// is produced by the service layer; models never see plaintext.
func NewResident(residentID id.ResidentID, name, email, phone string, role Role, passwordHash string, now time.Time) (*Resident, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "name is required")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "name must be 128 characters or less")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeBadRequest, "a valid email is required")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "password is required")
	}

	return &Resident{
		ID:           residentID,
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(phone),
		Role:         role,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ApplyProfileUpdate mutates the editable profile fields. Empty inputs leave
// the current value untouched.
func (r *Resident) ApplyProfileUpdate(name, phone string, now time.Time) error {
	if name = strings.TrimSpace(name); name != "" {
		if len(name) > 128 {
			return dErrors.New(dErrors.CodeBadRequest, "name must be 128 characters or less")
		}
		r.Name = name
	}
	if phone = strings.TrimSpace(phone); phone != "" {
		r.Phone = phone
	}
	r.UpdatedAt = now
	return nil
}
