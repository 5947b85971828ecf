package errx_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"testing"

	"github.com/aussiebroadwan/tabauth/pkg/errx"
	"github.com/aussiebroadwan/tabauth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		kind    errx.Kind
		status  int
		message string
	}{
		{errx.KindPathMismatch, http.StatusNotFound, "Not Found"},
		{errx.KindMethodNotAllowed, http.StatusMethodNotAllowed, "Method Not Allowed"},
		{errx.KindNotFound, http.StatusNotFound, "Entity Not Found"},
		{errx.KindInput, http.StatusBadRequest, "Invalid Input"},
		{errx.KindBody, http.StatusBadRequest, "Invalid Body"},
		{errx.KindAuth, http.StatusUnauthorized, "Not authorized"},
		{errx.KindTokenExpired, http.StatusBadRequest, "Bad Request (expired)"},
		{errx.KindToken, http.StatusBadRequest, "Generation Token Error"},
		{errx.KindNotCompleted, http.StatusBadRequest, "Operation Could Not Be Completed"},
		{errx.KindExists, http.StatusConflict, "Resource Already Exists"},
		{errx.KindDBQuery, http.StatusBadRequest, "Could not Execute request"},
		{errx.KindDBConn, http.StatusBadRequest, "Could not Execute request"},
		{errx.KindHash, http.StatusInternalServerError, "Internal Server Error"},
		{errx.KindInternal, http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			status, msg := errx.Status(errx.New(tt.kind, "TEST", "boom"))
			require.Equal(t, tt.status, status)
			require.Equal(t, tt.message, msg)
		})
	}
}

func TestStatus_Unclassified(t *testing.T) {
	status, msg := errx.Status(errors.New("driver exploded: password=hunter2"))
	require.Equal(t, http.StatusInternalServerError, status)
	require.Equal(t, "Internal Server Error", msg)
}

func TestKindOf_ThroughWrapping(t *testing.T) {
	base := errx.New(errx.KindExists, "USER_EXISTS", "username taken")
	wrapped := fmt.Errorf("signup: %w", base)

	require.Equal(t, errx.KindExists, errx.KindOf(wrapped))
	require.Equal(t, "USER_EXISTS", errx.CodeOf(wrapped))
}

func TestWrap(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		require.NoError(t, errx.Wrap(errx.KindDBQuery, "X", nil))
	})

	t.Run("keeps cause", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := errx.Wrap(errx.KindDBConn, "STORE_CONN_FAILED", cause)
		require.ErrorIs(t, err, cause)
		require.Equal(t, errx.KindDBConn, errx.KindOf(err))
	})

	t.Run("does not downgrade a classified error", func(t *testing.T) {
		inner := errx.New(errx.KindNotCompleted, "ZERO_ROWS", "nothing deleted")
		err := errx.Wrap(errx.KindDBQuery, "STORE_QUERY_FAILED", inner)
		require.Equal(t, errx.KindNotCompleted, errx.KindOf(err))
	})
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errx.Log(context.Background(), logger, slog.LevelError, "request failed",
		errx.New(errx.KindAuth, "AUTH_REALM_MISMATCH", "realm mismatch"))

	out := buf.String()
	require.Contains(t, out, `"code":"AUTH_REALM_MISMATCH"`)
	require.Contains(t, out, `"kind":"auth"`)
}

func TestFromToken(t *testing.T) {
	require.NoError(t, errx.FromToken(nil))

	expired := errx.FromToken(fmt.Errorf("%w: token is expired", jwtx.ErrExpired))
	require.Equal(t, errx.KindTokenExpired, errx.KindOf(expired))
	require.ErrorIs(t, expired, jwtx.ErrExpired)
	status, msg := errx.Status(expired)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "Bad Request (expired)", msg)

	malformed := errx.FromToken(jwtx.ErrMalformed)
	require.Equal(t, errx.KindToken, errx.KindOf(malformed))
	_, msg = errx.Status(malformed)
	require.Equal(t, "Generation Token Error", msg)
}
