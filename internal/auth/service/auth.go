package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aussiebroadwan/tabauth/internal/auth/domain"
	"github.com/aussiebroadwan/tabauth/internal/auth/store"
	"github.com/aussiebroadwan/tabauth/pkg/errx"
	"github.com/aussiebroadwan/tabauth/pkg/httpx"
	"github.com/aussiebroadwan/tabauth/pkg/jwtx"
	"github.com/aussiebroadwan/tabauth/pkg/slogx"
	"github.com/aussiebroadwan/tabauth/pkg/workerx"
)

// PasswordHasher is satisfied by *cryptox.HashService.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, stored string) (bool, error)
}

// TokenIssuer is satisfied by *jwtx.TokenService.
type TokenIssuer interface {
	jwtx.Issuer
	jwtx.Verifier
}

// Recorder counts auth outcomes. *metricsx.Metrics satisfies it.
type Recorder interface {
	RecordAuth(op string, err error)
}

// AuthService implements signup, login and the token protected user
// operations. Every returned error is an *errx.Error.
type AuthService struct {
	Store store.Store

	// Hasher verifies stored hashes. Any instance can verify any hash.
	Hasher PasswordHasher

	// NewHasher builds a fresh hasher, and so a fresh salt, for every
	// password that gets stored. It is required for Signup.
	NewHasher func() (PasswordHasher, error)

	Tokens TokenIssuer

	// Pool runs argon2 work. Nil runs it on the calling goroutine.
	Pool *workerx.Pool

	// Metrics is optional.
	Metrics Recorder

	// NewID defaults to uuid.NewString.
	NewID func() string
}

// Signup creates a user and returns a session token for it.
func (s *AuthService) Signup(ctx context.Context, creds httpx.Credentials, email string) (token string, err error) {
	defer s.record("signup", &err)
	l := slogx.FromContext(ctx)

	if err := domain.ValidateSignup(creds.Username, creds.Password, email); err != nil {
		return "", errx.Wrap(errx.KindInput, "USER_INVALID", err)
	}

	hash, err := s.hash(ctx, creds.Password)
	if err != nil {
		return "", err
	}

	user, err := s.Store.Users().Create(ctx, domain.NewUser{
		ID:           s.newID(),
		Username:     creds.Username,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return "", errx.Wrap(errx.KindExists, "USER_EXISTS", err)
		}
		return "", storeError(err)
	}

	l.Info("user created", slog.String("user_id", user.ID))
	return s.issue(user.ID)
}

// Login verifies creds and returns a fresh session token.
func (s *AuthService) Login(ctx context.Context, creds httpx.Credentials) (token string, err error) {
	defer s.record("login", &err)

	user, err := s.Store.Users().FindByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", errx.Wrap(errx.KindNotFound, "USER_NOT_FOUND", err)
		}
		return "", storeError(err)
	}

	ok, err := s.verify(ctx, creds.Password, user.PasswordHash)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errx.New(errx.KindAuth, "AUTH_PASSWORD_MISMATCH", "password mismatch")
	}
	if !user.Active {
		return "", errx.New(errx.KindAuth, "AUTH_USER_INACTIVE", "user inactive")
	}

	return s.issue(user.ID)
}

// Me resolves token to its user. A valid token for a user that no longer
// exists is an auth failure so ids cannot be probed.
func (s *AuthService) Me(ctx context.Context, token string) (domain.User, error) {
	id, err := s.subject(token)
	if err != nil {
		return domain.User{}, err
	}

	user, err := s.Store.Users().FindByID(ctx, id)
	if err != nil {
		return domain.User{}, userLookupError(err)
	}
	if !user.Active {
		return domain.User{}, errx.New(errx.KindAuth, "AUTH_USER_INACTIVE", "user inactive")
	}
	return user, nil
}

// Delete removes the token's user and returns its id.
func (s *AuthService) Delete(ctx context.Context, token string) (id string, err error) {
	defer s.record("delete", &err)

	id, err = s.subject(token)
	if err != nil {
		return "", err
	}

	if err := s.Store.Users().ValidateID(ctx, id); err != nil {
		return "", userLookupError(err)
	}

	if err := s.Store.Users().Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNoRowsAffected) {
			return "", errx.Wrap(errx.KindNotCompleted, "USER_DELETE_NOOP", err)
		}
		return "", storeError(err)
	}

	slogx.FromContext(ctx).Info("user deleted", slog.String("user_id", id))
	return id, nil
}

// UpdateProfile applies p to the token's user and returns the result.
func (s *AuthService) UpdateProfile(ctx context.Context, token string, p domain.UpdateProfile) (domain.User, error) {
	id, err := s.subject(token)
	if err != nil {
		return domain.User{}, err
	}

	if err := p.Validate(); err != nil {
		return domain.User{}, errx.Wrap(errx.KindInput, "PROFILE_INVALID", err)
	}
	if p.Empty() {
		return s.Me(ctx, token)
	}

	user, err := s.Store.Users().UpdateProfile(ctx, id, p)
	if err != nil {
		return domain.User{}, userLookupError(err)
	}
	return user, nil
}

// Health proves the store answers a trivial query.
func (s *AuthService) Health(ctx context.Context) error {
	return storeError(s.Store.Ping(ctx))
}

func (s *AuthService) subject(token string) (string, error) {
	claims, err := s.Tokens.Verify(token)
	if err != nil {
		return "", errx.FromToken(err)
	}
	return claims.Subject, nil
}

func (s *AuthService) issue(subject string) (string, error) {
	token, err := s.Tokens.Issue(subject)
	if err != nil {
		return "", errx.Wrap(errx.KindToken, "TOKEN_ISSUE_FAILED", err)
	}
	return token, nil
}

func (s *AuthService) hash(ctx context.Context, password string) (string, error) {
	var hash string
	if s.NewHasher == nil {
		return "", errx.New(errx.KindInternal, "HASHER_MISSING", "no hasher factory configured")
	}

	err := s.run(ctx, func(context.Context) error {
		hasher, err := s.NewHasher()
		if err != nil {
			return errx.Wrap(errx.KindHash, "PASSWORD_HASH_FAILED", err)
		}
		h, err := hasher.Hash(password)
		if err != nil {
			return errx.Wrap(errx.KindHash, "PASSWORD_HASH_FAILED", err)
		}
		hash = h
		return nil
	})
	return hash, err
}

func (s *AuthService) verify(ctx context.Context, password, stored string) (bool, error) {
	var ok bool
	err := s.run(ctx, func(context.Context) error {
		match, err := s.Hasher.Verify(password, stored)
		if err != nil {
			return errx.Wrap(errx.KindHash, "PASSWORD_HASH_CORRUPT", err)
		}
		ok = match
		return nil
	})
	return ok, err
}

func (s *AuthService) run(ctx context.Context, fn func(context.Context) error) error {
	if s.Pool == nil {
		return fn(ctx)
	}
	err := s.Pool.Do(ctx, fn)
	if errors.Is(err, context.Canceled) {
		// Cancelled by the caller.
		return errx.Wrap(errx.KindNotCompleted, "REQUEST_CANCELLED", err)
	}
	return errx.Wrap(errx.KindInternal, "HASH_POOL_FAILED", err)
}

func (s *AuthService) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *AuthService) record(op string, err *error) {
	if s.Metrics != nil {
		s.Metrics.RecordAuth(op, *err)
	}
}

// userLookupError maps a missing user on a token protected route to an auth
// failure.
func userLookupError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return errx.Wrap(errx.KindAuth, "AUTH_USER_MISSING", err)
	}
	return storeError(err)
}

// storeError keeps driver classification and treats anything unclassified
// as a failed query.
func storeError(err error) error {
	return errx.Wrap(errx.KindDBQuery, "STORE_QUERY_FAILED", err)
}
