package domain

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MinUsernameLength = 1
	MaxUsernameLength = 64
	MinPasswordLength = 3
	MaxFullNameLength = 128
	MaxBioLength      = 1024
)

var (
	ErrInvalidUsername = errors.New("domain: invalid username")
	ErrInvalidPassword = errors.New("domain: invalid password")
	ErrInvalidEmail    = errors.New("domain: invalid email")
	ErrInvalidProfile  = errors.New("domain: invalid profile")
)

type User struct {
	ID            string // uuid v4
	Username      string
	Email         string
	PasswordHash  string // argon2id PHC string
	FullName      string
	Bio           string
	Image         string
	EmailVerified bool
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PublicUser is the only shape of a user that leaves the service.
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Bio      string `json:"bio,omitempty"`
	Image    string `json:"image,omitempty"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Bio:      u.Bio,
		Image:    u.Image,
	}
}

// NewUser is the insert shape for signup. ID is assigned by the service.
type NewUser struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
}

// ValidateSignup checks the user supplied parts of a signup before any
// hashing happens.
func ValidateSignup(username, password, email string) error {
	if err := ValidateUsername(username); err != nil {
		return err
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}
	return ValidateEmail(email)
}

func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLength || n > MaxUsernameLength {
		return fmt.Errorf("%w: must be %d to %d characters", ErrInvalidUsername, MinUsernameLength, MaxUsernameLength)
	}
	if strings.TrimSpace(username) != username || strings.ContainsAny(username, ":\r\n\t") {
		return fmt.Errorf("%w: contains forbidden characters", ErrInvalidUsername)
	}
	return nil
}

func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrInvalidPassword, MinPasswordLength)
	}
	return nil
}

// ValidateEmail accepts a bare address only; display names are rejected.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

// UpdateProfile carries optional profile changes. Nil fields are left alone,
// an empty string clears the field.
type UpdateProfile struct {
	FullName *string `json:"full_name,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	Image    *string `json:"image,omitempty"`
}

func (p UpdateProfile) Empty() bool {
	return p.FullName == nil && p.Bio == nil && p.Image == nil
}

func (p UpdateProfile) Validate() error {
	if p.FullName != nil && utf8.RuneCountInString(*p.FullName) > MaxFullNameLength {
		return fmt.Errorf("%w: full_name too long", ErrInvalidProfile)
	}
	if p.Bio != nil && utf8.RuneCountInString(*p.Bio) > MaxBioLength {
		return fmt.Errorf("%w: bio too long", ErrInvalidProfile)
	}
	if p.Image != nil && *p.Image != "" {
		u, err := url.Parse(*p.Image)
		if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: image must be an absolute http(s) url", ErrInvalidProfile)
		}
	}
	return nil
}
