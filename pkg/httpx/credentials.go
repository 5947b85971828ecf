package httpx

import (
	"encoding/base64"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/aussiebroadwan/tabauth/pkg/errx"
)

// ErrMissingSeparator reports decoded credentials without a ':'.
var ErrMissingSeparator = errors.New("httpx: credentials missing ':' separator")

// Credentials is a decoded Basic-Auth payload. It is request scoped and
// never persisted or logged.
type Credentials struct {
	Username string
	Password string
}

// String keeps the password out of logs and panics.
func (c Credentials) String() string {
	return "Credentials{Username:" + c.Username + ", Password:***}"
}

// DecodeCredentials decodes base64(username:password). The payload is split
// on the first ':' so passwords may contain colons.
func DecodeCredentials(encoded string) (Credentials, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return Credentials{}, errx.Wrap(errx.KindAuth, "AUTH_CREDENTIALS_ENCODING", err)
	}
	if !utf8.Valid(raw) {
		return Credentials{}, errx.New(errx.KindInput, "AUTH_CREDENTIALS_UTF8", "credentials are not valid utf-8")
	}

	username, password, ok := strings.Cut(string(raw), ":")
	if !ok {
		return Credentials{}, errx.Wrap(errx.KindAuth, "AUTH_CREDENTIALS_SEPARATOR", ErrMissingSeparator)
	}

	return Credentials{Username: username, Password: password}, nil
}

// DecodeToken decodes a base64 wrapped session token.
func DecodeToken(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", errx.Wrap(errx.KindAuth, "AUTH_TOKEN_ENCODING", err)
	}
	if !utf8.Valid(raw) {
		return "", errx.New(errx.KindNotCompleted, "AUTH_TOKEN_UTF8", "token is not valid utf-8")
	}

	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", errx.New(errx.KindAuth, "AUTH_TOKEN_EMPTY", "empty token")
	}
	return token, nil
}

// EncodeCredentials is the inverse of DecodeCredentials.
func EncodeCredentials(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}

// EncodeToken is the inverse of DecodeToken.
func EncodeToken(token string) string {
	return base64.StdEncoding.EncodeToString([]byte(token))
}
