package jwtx_test

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/tabauth/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-please-change-me-0123456789")

func newService(t *testing.T, opts ...jwtx.Option) *jwtx.TokenService {
	t.Helper()
	s, err := jwtx.NewTokenService(testSecret, "test-kid", opts...)
	require.NoError(t, err)
	return s
}

func decodeHeader(t *testing.T, token string) map[string]any {
	t.Helper()
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	require.NoError(t, err)

	var header map[string]any
	require.NoError(t, json.Unmarshal(raw, &header))
	return header
}

func TestNewTokenService_EmptySecret(t *testing.T) {
	_, err := jwtx.NewTokenService(nil, "kid")
	require.ErrorIs(t, err, jwtx.ErrEmptySecret)
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	s := newService(t)

	before := time.Now().Add(-time.Second)
	token, err := s.Issue("2f1d3a6e-5b0c-4a8e-9d7f-1c2b3a4d5e6f")
	require.NoError(t, err)
	after := time.Now()

	claims, err := s.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "2f1d3a6e-5b0c-4a8e-9d7f-1c2b3a4d5e6f", claims.Subject)

	exp := claims.ExpiresAt.Time
	require.True(t, exp.After(before), "exp should be in the future")
	require.False(t, exp.After(after.Add(jwtx.DefaultTTL)), "exp should be at most one day out")
	require.WithinDuration(t, after.Add(24*time.Hour), exp, 2*time.Second)
}

func TestIssue_Header(t *testing.T) {
	s := newService(t)

	token, err := s.Issue("subject")
	require.NoError(t, err)

	header := decodeHeader(t, token)
	require.Equal(t, "HS512", header["alg"])
	require.Equal(t, "test-kid", header["kid"])
	require.Equal(t, "JWT", header["typ"])
}

func TestIssue_EmptySubject(t *testing.T) {
	_, err := newService(t).Issue("")
	require.ErrorIs(t, err, jwtx.ErrMalformed)
}

func TestVerify_Expired(t *testing.T) {
	past := func() time.Time { return time.Now().Add(-25 * time.Hour) }
	issuer := newService(t, jwtx.WithClock(past))

	token, err := issuer.Issue("subject")
	require.NoError(t, err)

	_, err = newService(t).Verify(token)
	require.ErrorIs(t, err, jwtx.ErrExpired)
	require.NotErrorIs(t, err, jwtx.ErrMalformed)
}

func TestVerify_ShortTTLExpires(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	s := newService(t, jwtx.WithTTL(time.Minute), jwtx.WithClock(clock))

	token, err := s.Issue("subject")
	require.NoError(t, err)

	_, err = s.Verify(token)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = s.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestVerify_Malformed(t *testing.T) {
	s := newService(t)
	good, err := s.Issue("subject")
	require.NoError(t, err)

	otherSecret, err := jwtx.NewTokenService([]byte("another-secret"), "test-kid")
	require.NoError(t, err)
	foreign, err := otherSecret.Issue("subject")
	require.NoError(t, err)

	otherKID, err := jwtx.NewTokenService(testSecret, "rotated-kid")
	require.NoError(t, err)
	rotated, err := otherKID.Issue("subject")
	require.NoError(t, err)

	hs256 := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwtx.NewSessionClaims("subject", time.Hour, time.Now()))
	hs256.Header["kid"] = "test-kid"
	weakAlg, err := hs256.SignedString(testSecret)
	require.NoError(t, err)

	noSub := jwt.NewWithClaims(jwt.SigningMethodHS512,
		jwtx.NewSessionClaims("", time.Hour, time.Now()))
	noSub.Header["kid"] = "test-kid"
	missingSubject, err := noSub.SignedString(testSecret)
	require.NoError(t, err)

	// Expired and badly signed must still read as malformed.
	expiredForeign, err := jwtx.NewTokenService([]byte("another-secret"), "test-kid",
		jwtx.WithClock(func() time.Time { return time.Now().Add(-48 * time.Hour) }))
	require.NoError(t, err)
	expiredBadSig, err := expiredForeign.Issue("subject")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"corrupted signature", good[:len(good)-4] + "AAAA"},
		{"corrupted payload", strings.Replace(good, ".", ".x", 1)},
		{"wrong secret", foreign},
		{"unknown kid", rotated},
		{"unexpected algorithm", weakAlg},
		{"missing subject", missingSubject},
		{"expired with bad signature", expiredBadSig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Verify(tt.token)
			require.ErrorIs(t, err, jwtx.ErrMalformed)
			require.NotErrorIs(t, err, jwtx.ErrExpired)
		})
	}
}

func TestTokenService_Accessors(t *testing.T) {
	s := newService(t, jwtx.WithTTL(time.Hour))
	require.Equal(t, "test-kid", s.KID())
	require.Equal(t, time.Hour, s.TTL())
}
