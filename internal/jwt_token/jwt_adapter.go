package jwttoken

import (
	authmw "sanitrack/pkg/platform/middleware/auth"
)

func ToMiddlewareClaims(claims *AccessTokenClaims) *authmw.JWTClaims {
	return &authmw.JWTClaims{
		UserID:         claims.Subject,
		OrganizationID: claims.OrganizationID,
		JTI:            claims.ID,
	}
}

// JWTServiceAdapter exposes JWTService as an authmw.JWTValidator.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}
