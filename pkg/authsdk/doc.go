/*
Package authsdk is a Go client for the tabauth HTTP API.

Every request carries the realm header the service expects, and credentials
and tokens are base64 wrapped the same way the service decodes them.

	client := authsdk.NewSDKClient("http://localhost:8080",
		authsdk.WithRealm("AuthServer"),
	)

	session, err := client.Signup(ctx, "alice", "secret", "alice@example.com")
	if err != nil {
		var apiErr *authsdk.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
			session, err = client.Login(ctx, "alice", "secret")
		}
	}

	me, err := session.Me(ctx)

A Session only holds the token. Tokens are not refreshed; once a token
expires the service answers 400 with ErrTokenExpired and the caller logs in
again.
*/
package authsdk
