package httpx

import "context"

type ctxKey string

const (
	ctxKeyCredentials ctxKey = "credentials"
	ctxKeyToken       ctxKey = "token"
)

// WithCredentials stores decoded Basic credentials on ctx.
func WithCredentials(ctx context.Context, c Credentials) context.Context {
	return context.WithValue(ctx, ctxKeyCredentials, c)
}

// CredentialsFromContext returns the credentials stored by
// BasicCredentialsFilter.
func CredentialsFromContext(ctx context.Context) (Credentials, bool) {
	c, ok := ctx.Value(ctxKeyCredentials).(Credentials)
	return c, ok
}

// WithToken stores a raw session token on ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKeyToken, token)
}

// TokenFromContext returns the raw token stored by BearerFilter.
func TokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(ctxKeyToken).(string)
	return t, ok && t != ""
}
