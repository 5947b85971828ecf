package httpx

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tabauth/pkg/errx"
	"github.com/aussiebroadwan/tabauth/pkg/slogx"
)

const (
	// DefaultScheme labels both credential and bearer transport.
	DefaultScheme = "Basic"

	// HeaderRealm carries the realm the client is addressing.
	HeaderRealm = "WWW-Authenticate"

	realmPrefix = "Basic realm="
)

// Filters extract and validate the auth headers of a request. Each filter
// either stores its result on the request context or rejects the request.
type Filters struct {
	Realm  string
	Scheme string
}

// NewFilters returns Filters for realm. An empty scheme means DefaultScheme.
func NewFilters(realm, scheme string) Filters {
	if scheme == "" {
		scheme = DefaultScheme
	}
	return Filters{Realm: realm, Scheme: scheme}
}

// RealmFilter only admits requests whose WWW-Authenticate header names this
// service's realm.
func (f Filters) RealmFilter() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := f.CheckRealm(r.Header.Get(HeaderRealm)); err != nil {
				slogx.FromContext(r.Context()).Debug("realm rejected")
				WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CheckRealm validates a raw realm header value.
func (f Filters) CheckRealm(header string) error {
	realm, ok := strings.CutPrefix(strings.TrimSpace(header), realmPrefix)
	if !ok {
		return errx.New(errx.KindAuth, "AUTH_REALM_MISSING", "realm header missing or malformed")
	}
	if realm != f.Realm {
		return errx.New(errx.KindAuth, "AUTH_REALM_MISMATCH", "realm mismatch")
	}
	return nil
}

// BasicCredentialsFilter decodes "Authorization: Basic <base64(user:pass)>".
func (f Filters) BasicCredentialsFilter() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			payload, err := stripScheme(r.Header.Get("Authorization"), DefaultScheme)
			if err != nil {
				WriteError(w, r, err)
				return
			}

			creds, err := DecodeCredentials(payload)
			if err != nil {
				slogx.FromContext(r.Context()).Debug("credentials rejected", "code", errx.CodeOf(err))
				WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCredentials(r.Context(), creds)))
		})
	}
}

// BearerFilter decodes "Authorization: <Scheme> <base64(token)>".
func (f Filters) BearerFilter() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			payload, err := stripScheme(r.Header.Get("Authorization"), f.Scheme)
			if err != nil {
				WriteError(w, r, err)
				return
			}

			token, err := DecodeToken(payload)
			if err != nil {
				slogx.FromContext(r.Context()).Debug("bearer rejected", "code", errx.CodeOf(err))
				WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithToken(r.Context(), token)))
		})
	}
}

func stripScheme(header, scheme string) (string, error) {
	if header == "" {
		return "", errx.New(errx.KindAuth, "AUTH_HEADER_MISSING", "authorization header missing")
	}
	payload, ok := strings.CutPrefix(header, scheme+" ")
	if !ok || strings.TrimSpace(payload) == "" {
		return "", errx.New(errx.KindAuth, "AUTH_SCHEME_INVALID", "unexpected authorization scheme")
	}
	return payload, nil
}
