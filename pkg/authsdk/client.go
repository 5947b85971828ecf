package authsdk

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/tabauth/pkg/httpx"
)

const defaultRealm = "AuthServer"

// SDKClient is a client for the tabauth service. It performs the
// unauthenticated calls and creates Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// Realm is sent in the WWW-Authenticate header of every auth call.
	Realm string

	// Scheme labels the Authorization header on token calls.
	Scheme string
}

type Option func(*SDKClient)

func WithRealm(realm string) Option { return func(c *SDKClient) { c.Realm = realm } }

func WithScheme(scheme string) Option { return func(c *SDKClient) { c.Scheme = scheme } }

func WithHTTPClient(hc *http.Client) Option { return func(c *SDKClient) { c.HTTPClient = hc } }

// NewSDKClient creates a new auth service client.
func NewSDKClient(baseURL string, opts ...Option) *SDKClient {
	c := &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		Realm:  defaultRealm,
		Scheme: httpx.DefaultScheme,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Signup registers a user and returns a session for it.
func (c *SDKClient) Signup(ctx context.Context, username, password, email string) (*Session, error) {
	form := url.Values{"email": {email}}
	resp, err := c.doRequest(ctx, http.MethodPost, "/signup", strings.NewReader(form.Encode()), map[string]string{
		"Content-Type":  "application/x-www-form-urlencoded",
		"Authorization": httpx.DefaultScheme + " " + httpx.EncodeCredentials(username, password),
	})
	if err != nil {
		return nil, err
	}

	var tok TokenResponse
	if err := decodeJSON(resp, &tok, http.StatusOK); err != nil {
		return nil, err
	}
	return c.NewSession(tok.Token), nil
}

// Login exchanges credentials for a session.
func (c *SDKClient) Login(ctx context.Context, username, password string) (*Session, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/login", nil, map[string]string{
		"Authorization": httpx.DefaultScheme + " " + httpx.EncodeCredentials(username, password),
	})
	if err != nil {
		return nil, err
	}

	var tok TokenResponse
	if err := decodeJSON(resp, &tok, http.StatusOK); err != nil {
		return nil, err
	}
	return c.NewSession(tok.Token), nil
}

// NewSession wraps a token obtained elsewhere.
func (c *SDKClient) NewSession(token string) *Session {
	return &Session{client: c, token: token}
}
