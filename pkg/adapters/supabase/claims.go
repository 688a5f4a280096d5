package supabase

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// accessClaims are the GoTrue access-token claims the client reads.
type accessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// parseClaims decodes the token without verifying it. The client cannot
// hold the signing secret; the backend verifies every request.
func parseClaims(token string) (*accessClaims, error) {
	claims := &accessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	return claims, nil
}
