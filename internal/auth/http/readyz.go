package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tabauth/internal/auth/store"
	"github.com/aussiebroadwan/tabauth/pkg/authsdk"
	"github.com/aussiebroadwan/tabauth/pkg/httpx"
	"github.com/aussiebroadwan/tabauth/pkg/slogx"
	"github.com/aussiebroadwan/tabauth/pkg/workerx"
)

const readyProbeTimeout = 2 * time.Second

// ReadyzHandler reports 503 unless the database answers and the hashing pool
// accepts work.
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	pool *workerx.Pool,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyProbeTimeout)
		defer cancel()

		checks := &authsdk.HealthChecks{
			Database: "ok",
			Hashing:  "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		// Detail stays in the logs, the probe body only says which check failed.
		if err := st.Ping(ctx); err != nil {
			slogx.FromContext(ctx).Warn("readiness database check failed", "err", err)
			checks.Database = "error"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if pool != nil {
			if err := pool.Do(ctx, func(context.Context) error { return nil }); err != nil {
				slogx.FromContext(ctx).Warn("readiness hashing check failed", "err", err)
				checks.Hashing = "error"
				overallStatus = "degraded"
				statusCode = http.StatusServiceUnavailable
			}
		}

		response := authsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}
		httpx.WriteJSON(w, statusCode, response)
	}
}
