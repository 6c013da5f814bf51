package jwttoken

import (
	"modgate/internal/platform/middleware"
)

// MiddlewareAdapter bridges JWTService to the auth middleware's validator
// interface.
type MiddlewareAdapter struct {
	svc *JWTService
}

func NewMiddlewareAdapter(svc *JWTService) *MiddlewareAdapter {
	return &MiddlewareAdapter{svc: svc}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.svc.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{
		ModeratorID: claims.ModeratorID,
		OwnerID:     claims.OwnerID,
	}, nil
}
