package http

import (
	"net/http"

	"github.com/aussiebroadwan/tabauth/internal/auth/service"
	"github.com/aussiebroadwan/tabauth/pkg/authsdk"
	"github.com/aussiebroadwan/tabauth/pkg/errx"
	"github.com/aussiebroadwan/tabauth/pkg/httpx"
)

const maxFormBytes = 64 << 10

type AuthHandler struct {
	Service *service.AuthService
}

// Signup expects Basic credentials and an "email" form field.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	creds, ok := httpx.CredentialsFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, r, errx.New(errx.KindAuth, "AUTH_CREDENTIALS_MISSING", "no credentials on request"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		httpx.WriteError(w, r, errx.Wrap(errx.KindBody, "SIGNUP_FORM_INVALID", err))
		return
	}

	token, err := h.Service.Signup(r.Context(), creds, r.PostForm.Get("email"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{Token: token})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	creds, ok := httpx.CredentialsFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, r, errx.New(errx.KindAuth, "AUTH_CREDENTIALS_MISSING", "no credentials on request"))
		return
	}

	token, err := h.Service.Login(r.Context(), creds)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{Token: token})
}
