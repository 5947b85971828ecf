package slogx_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/tabauth/pkg/idx"
	"github.com/aussiebroadwan/tabauth/pkg/slogx"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var m map[string]any
		require.NoError(t, dec.Decode(&m))
		out = append(out, m)
	}
	return out
}

func TestNew_AddsTraceContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slogx.New(slogx.Config{Service: "auth", Version: "test", Env: "test", Output: &buf})
	t.Cleanup(func() { slog.SetDefault(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))

	logger.InfoContext(ctx, "traced")
	logger.Info("untraced")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	require.Equal(t, "auth", lines[0]["service"])
	require.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", lines[0]["trace_id"])
	require.Equal(t, "00f067aa0ba902b7", lines[0]["span_id"])
	require.NotContains(t, lines[1], "trace_id")
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, slogx.ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, slogx.ParseLevel("warning"))
	require.Equal(t, slog.LevelError, slogx.ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, slogx.ParseLevel("nonsense"))
}

func TestFromContext_DefaultsWhenUnset(t *testing.T) {
	require.Same(t, slog.Default(), slogx.FromContext(context.Background()))
}

func TestHTTPMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	var inner *slog.Logger
	h := slogx.HTTPMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = slogx.FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("generates request id", func(t *testing.T) {
		buf.Reset()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))

		reqID := rec.Header().Get(slogx.HeaderRequestID)
		_, err := idx.Parse(reqID)
		require.NoError(t, err)
		require.NotSame(t, base, inner)

		lines := decodeLines(t, &buf)
		require.Len(t, lines, 1)
		require.Equal(t, "http_request", lines[0]["msg"])
		require.Equal(t, reqID, lines[0]["req_id"])
		require.EqualValues(t, http.StatusTeapot, lines[0]["status"])
	})

	t.Run("reuses valid inbound id", func(t *testing.T) {
		want := idx.New().String()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(slogx.HeaderRequestID, want)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, want, rec.Header().Get(slogx.HeaderRequestID))
	})

	t.Run("replaces junk inbound id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(slogx.HeaderRequestID, "not a ulid\n")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.NotEqual(t, "not a ulid\n", rec.Header().Get(slogx.HeaderRequestID))
	})
}
