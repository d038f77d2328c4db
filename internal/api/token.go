package api

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the fields of the backend token the web front relies on.
type TokenClaims struct {
	Subject   string
	ExpiresAt time.Time // zero when the token carries no exp claim
}

// ParseToken reads the claims of a backend JWT without verifying its signature.
// The backend verifies tokens; the web front only needs the expiry and subject.
func ParseToken(token string) (TokenClaims, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return TokenClaims{}, fmt.Errorf("parse token: %w", err)
	}
	tc := TokenClaims{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		tc.ExpiresAt = claims.ExpiresAt.Time
	}
	return tc, nil
}
