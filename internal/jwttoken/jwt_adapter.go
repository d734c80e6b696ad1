package jwttoken

import (
	id "fatepack/pkg/domain"
	dErrors "fatepack/pkg/domain-errors"

	"fatepack/internal/platform/middleware"
)

// MiddlewareAdapter bridges JWTService to the middleware.JWTValidator
// interface, converting string claims into typed ids at the boundary.
type MiddlewareAdapter struct {
	service *JWTService
}

func NewMiddlewareAdapter(service *JWTService) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	residentID, err := id.ParseResidentID(claims.ResidentID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	sessionID, err := id.ParseSessionID(claims.SessionID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	return &middleware.JWTClaims{
		ResidentID: residentID,
		SessionID:  sessionID,
	}, nil
}
