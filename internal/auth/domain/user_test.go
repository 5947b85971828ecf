package domain_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/aussiebroadwan/tabauth/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestValidateSignup(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		email    string
		err      error
	}{
		{"valid", "alice", "secret", "alice@example.com", nil},
		{"single character username", "u", "password", "a@b.com", nil},
		{"empty username", "", "secret", "alice@example.com", domain.ErrInvalidUsername},
		{"username too long", strings.Repeat("a", 65), "secret", "alice@example.com", domain.ErrInvalidUsername},
		{"username padded", " alice", "secret", "alice@example.com", domain.ErrInvalidUsername},
		{"username with colon", "ali:ce", "secret", "alice@example.com", domain.ErrInvalidUsername},
		{"password too short", "alice", "pw", "alice@example.com", domain.ErrInvalidPassword},
		{"missing email", "alice", "secret", "", domain.ErrInvalidEmail},
		{"bad email", "alice", "secret", "not-an-email", domain.ErrInvalidEmail},
		{"display name email", "alice", "secret", "Alice <alice@example.com>", domain.ErrInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := domain.ValidateSignup(tt.username, tt.password, tt.email)
			if tt.err == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestUpdateProfile_Validate(t *testing.T) {
	tests := []struct {
		name    string
		profile domain.UpdateProfile
		valid   bool
	}{
		{"empty", domain.UpdateProfile{}, true},
		{"https image", domain.UpdateProfile{Image: ptr("https://cdn.example.com/a.png")}, true},
		{"clear image", domain.UpdateProfile{Image: ptr("")}, true},
		{"relative image", domain.UpdateProfile{Image: ptr("/a.png")}, false},
		{"ftp image", domain.UpdateProfile{Image: ptr("ftp://example.com/a.png")}, false},
		{"garbage image", domain.UpdateProfile{Image: ptr("::not a url")}, false},
		{"long bio", domain.UpdateProfile{Bio: ptr(strings.Repeat("b", domain.MaxBioLength+1))}, false},
		{"long name", domain.UpdateProfile{FullName: ptr(strings.Repeat("n", domain.MaxFullNameLength+1))}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if tt.valid {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, domain.ErrInvalidProfile)
		})
	}
}

func TestUpdateProfile_Empty(t *testing.T) {
	require.True(t, domain.UpdateProfile{}.Empty())
	require.False(t, domain.UpdateProfile{Bio: ptr("")}.Empty())
}

func TestPublicUser_OmitsSecrets(t *testing.T) {
	u := domain.User{
		ID:            "8a3c0d5e-6f7a-4b1c-9d2e-3f4a5b6c7d8e",
		Username:      "alice",
		Email:         "alice@example.com",
		PasswordHash:  "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$ZGlnZXN0",
		EmailVerified: true,
		Active:        true,
	}

	b, err := json.Marshal(u.Public())
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"8a3c0d5e-6f7a-4b1c-9d2e-3f4a5b6c7d8e","username":"alice","email":"alice@example.com"}`, string(b))
	require.NotContains(t, string(b), "argon2")
}
