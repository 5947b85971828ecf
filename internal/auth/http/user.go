package http

import (
	"encoding/json"
	"net/http"

	"github.com/aussiebroadwan/tabauth/internal/auth/domain"
	"github.com/aussiebroadwan/tabauth/internal/auth/service"
	"github.com/aussiebroadwan/tabauth/pkg/authsdk"
	"github.com/aussiebroadwan/tabauth/pkg/errx"
	"github.com/aussiebroadwan/tabauth/pkg/httpx"
)

const maxProfileBytes = 16 << 10

type UserHandler struct {
	Service *service.AuthService
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFrom(w, r)
	if !ok {
		return
	}

	user, err := h.Service.Me(r.Context(), token)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, user.Public())
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFrom(w, r)
	if !ok {
		return
	}

	id, err := h.Service.Delete(r.Context(), token)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.DeleteResponse{ID: id})
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFrom(w, r)
	if !ok {
		return
	}

	var p domain.UpdateProfile
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxProfileBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		httpx.WriteError(w, r, errx.Wrap(errx.KindBody, "PROFILE_BODY_INVALID", err))
		return
	}

	user, err := h.Service.UpdateProfile(r.Context(), token, p)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, user.Public())
}

func tokenFrom(w http.ResponseWriter, r *http.Request) (string, bool) {
	token, ok := httpx.TokenFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, r, errx.New(errx.KindAuth, "AUTH_TOKEN_MISSING", "no token on request"))
	}
	return token, ok
}
