package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/tabauth/internal/auth/domain"
	"github.com/aussiebroadwan/tabauth/pkg/errx"
)

var (
	ErrNotFound       = errors.New("store: not found")
	ErrAlreadyExists  = errors.New("store: already exists")
	ErrNoRowsAffected = errors.New("store: no rows affected")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this and expose sub-repositories so new tables get their own
// interface rather than growing this one.
type Store interface {
	Users() Users

	ApplyMigrations() error

	// Ping runs a trivial query to prove the database answers.
	Ping(ctx context.Context) error

	// Close releases the underlying pool.
	Close() error
}

// Users reports semantic outcomes with the sentinels above. Infrastructure
// failures come back already classified as errx.KindDBQuery or
// errx.KindDBConn.
type Users interface {
	// Create inserts u. A duplicate username or email is ErrAlreadyExists.
	Create(ctx context.Context, u domain.NewUser) (domain.User, error)

	FindByID(ctx context.Context, id string) (domain.User, error)

	// FindByUsername is used during login.
	FindByUsername(ctx context.Context, username string) (domain.User, error)

	// ValidateID returns ErrNotFound unless an active user with id exists.
	ValidateID(ctx context.Context, id string) error

	// Delete removes the user. Zero affected rows is ErrNoRowsAffected.
	Delete(ctx context.Context, id string) error

	// UpdateProfile applies p and bumps updated_at. Missing users are
	// ErrNotFound.
	UpdateProfile(ctx context.Context, id string, p domain.UpdateProfile) (domain.User, error)
}

// QueryError classifies a failed statement.
func QueryError(op string, err error) error {
	return errx.Wrap(errx.KindDBQuery, "STORE_QUERY_FAILED", fmt.Errorf("%s: %w", op, err))
}

// ConnError classifies a failure to obtain or use a connection.
func ConnError(op string, err error) error {
	return errx.Wrap(errx.KindDBConn, "STORE_CONN_FAILED", fmt.Errorf("%s: %w", op, err))
}
