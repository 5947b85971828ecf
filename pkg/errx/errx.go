// Package errx defines the typed error kinds used across the auth service
// and the single table that turns them into HTTP responses.
package errx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/aussiebroadwan/tabauth/pkg/jwtx"
)

// Kind classifies a failure. Every Kind has exactly one row in Status.
type Kind int

const (
	KindInternal Kind = iota
	KindPathMismatch
	KindMethodNotAllowed
	KindNotFound
	KindInput
	KindBody
	KindAuth
	KindTokenExpired
	KindToken
	KindNotCompleted
	KindExists
	KindDBQuery
	KindDBConn
	KindHash
)

var kindNames = map[Kind]string{
	KindInternal:         "internal",
	KindPathMismatch:     "path_mismatch",
	KindMethodNotAllowed: "method_not_allowed",
	KindNotFound:         "not_found",
	KindInput:            "input",
	KindBody:             "body",
	KindAuth:             "auth",
	KindTokenExpired:     "token_expired",
	KindToken:            "token",
	KindNotCompleted:     "not_completed",
	KindExists:           "exists",
	KindDBQuery:          "db_query",
	KindDBConn:           "db_conn",
	KindHash:             "hash",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified failure. Err carries the oops code and context for
// logs; none of it is ever rendered to clients.
type Error struct {
	Kind Kind
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a classified error with a fresh message.
func New(kind Kind, code, msg string) error {
	return &Error{
		Kind: kind,
		Code: code,
		Err:  oops.Code(code).With("kind", kind.String()).Errorf("%s", msg),
	}
}

// Wrap classifies err. It returns nil when err is nil. An err that is already
// classified keeps its original kind so the most specific failure wins.
func Wrap(kind Kind, code string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{
		Kind: kind,
		Code: code,
		Err:  oops.Code(code).With("kind", kind.String()).Wrap(err),
	}
}

// FromToken classifies a token verification failure. Expired tokens with a
// valid signature become KindTokenExpired, everything else KindToken.
func FromToken(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, jwtx.ErrExpired) {
		return Wrap(KindTokenExpired, "TOKEN_EXPIRED", err)
	}
	return Wrap(KindToken, "TOKEN_INVALID", err)
}

// KindOf reports the kind of err, or KindInternal if err is unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the error code of err, or an empty string.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Status maps err to its HTTP status and stable client message.
func Status(err error) (int, string) {
	switch KindOf(err) {
	case KindPathMismatch:
		return http.StatusNotFound, "Not Found"
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed, "Method Not Allowed"
	case KindNotFound:
		return http.StatusNotFound, "Entity Not Found"
	case KindInput:
		return http.StatusBadRequest, "Invalid Input"
	case KindBody:
		return http.StatusBadRequest, "Invalid Body"
	case KindAuth:
		return http.StatusUnauthorized, "Not authorized"
	case KindTokenExpired:
		return http.StatusBadRequest, "Bad Request (expired)"
	case KindToken:
		return http.StatusBadRequest, "Generation Token Error"
	case KindNotCompleted:
		return http.StatusBadRequest, "Operation Could Not Be Completed"
	case KindExists:
		return http.StatusConflict, "Resource Already Exists"
	case KindDBQuery, KindDBConn:
		return http.StatusBadRequest, "Could not Execute request"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

// Log writes err to logger at level, expanding oops code and context when
// present.
func Log(ctx context.Context, logger *slog.Logger, level slog.Level, msg string, err error) {
	attrs := []any{"error", err.Error(), "kind", KindOf(err).String()}
	if oopsErr, ok := oops.AsOops(err); ok {
		if code := oopsErr.Code(); code != nil && code != "" {
			attrs = append(attrs, "code", code)
		}
		if fields := oopsErr.Context(); len(fields) > 0 {
			attrs = append(attrs, "context", fields)
		}
	}
	logger.Log(ctx, level, msg, attrs...)
}
