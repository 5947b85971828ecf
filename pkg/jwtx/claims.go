package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is how long an issued session token stays valid.
const DefaultTTL = 24 * time.Hour

// Claims are the session token claims. Only the subject and the time based
// registered claims are populated.
type Claims struct {
	jwt.RegisteredClaims
}

// NewSessionClaims builds claims for subject expiring ttl after now.
func NewSessionClaims(subject string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}
