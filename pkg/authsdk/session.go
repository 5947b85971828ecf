package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Session performs token authenticated calls.
type Session struct {
	client *SDKClient
	token  string
}

// Token returns the raw session token.
func (s *Session) Token() string { return s.token }

// Me returns the session's user.
func (s *Session) Me(ctx context.Context) (*User, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/me", nil, nil)
	if err != nil {
		return nil, err
	}

	var u User
	if err := decodeJSON(resp, &u, http.StatusOK); err != nil {
		return nil, err
	}
	return &u, nil
}

// Delete removes the session's user and returns its id.
func (s *Session) Delete(ctx context.Context) (string, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, "/me", nil, nil)
	if err != nil {
		return "", err
	}

	var out DeleteResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return "", err
	}
	return out.ID, nil
}

// UpdateProfile applies p and returns the updated user.
func (s *Session) UpdateProfile(ctx context.Context, p ProfileUpdate) (*User, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile: %w", err)
	}

	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/me/profile", bytes.NewReader(body), map[string]string{
		"Content-Type": "application/json",
	})
	if err != nil {
		return nil, err
	}

	var u User
	if err := decodeJSON(resp, &u, http.StatusOK); err != nil {
		return nil, err
	}
	return &u, nil
}
