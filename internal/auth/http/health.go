package http

import (
	"net/http"

	"github.com/aussiebroadwan/tabauth/internal/auth/service"
	"github.com/aussiebroadwan/tabauth/pkg/httpx"
)

// HealthHandler runs SELECT 1 against the store and answers 200 with an
// empty body. Failures go through the error taxonomy.
func HealthHandler(svc *service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Health(r.Context()); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
