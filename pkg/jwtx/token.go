package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrEmptySecret = errors.New("jwtx: empty signing secret")
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrUnknownKID  = errors.New("jwtx: unknown kid")
	ErrExpired     = errors.New("jwtx: token expired")
)

// Issuer signs session tokens.
type Issuer interface {
	Issue(subject string) (string, error)
}

// Verifier validates a token and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// TokenService issues and verifies HS512 session tokens with a shared
// secret. The secret is copied at construction and never changes, so a
// single instance is safe for concurrent use.
type TokenService struct {
	secret []byte
	kid    string
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a TokenService.
type Option func(*TokenService)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *TokenService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewTokenService returns a TokenService signing with secret and stamping
// kid into every token header.
func NewTokenService(secret []byte, kid string, opts ...Option) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	s := &TokenService{
		secret: append([]byte(nil), secret...),
		kid:    kid,
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// KID returns the key identifier placed in token headers.
func (s *TokenService) KID() string { return s.kid }

// TTL returns the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for subject that expires after the configured TTL.
func (s *TokenService) Issue(subject string) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("jwtx: issue: %w", ErrMalformed)
	}

	claims := NewSessionClaims(subject, s.ttl, s.now().UTC())

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	if s.kid != "" {
		token.Header["kid"] = s.kid
	}

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token. It returns ErrExpired
// only when the signature is valid and the token is past exp; every other
// failure is ErrMalformed.
func (s *TokenService) Verify(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(tokenStr, &claims, s.keyFunc)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, fmt.Errorf("%w: %v", ErrExpired, err)
	default:
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrMalformed)
	}
	return claims, nil
}

func (s *TokenService) keyFunc(t *jwt.Token) (any, error) {
	if s.kid != "" {
		kid, _ := t.Header["kid"].(string)
		if kid != s.kid {
			return nil, fmt.Errorf("%w %q", ErrUnknownKID, kid)
		}
	}
	return s.secret, nil
}
