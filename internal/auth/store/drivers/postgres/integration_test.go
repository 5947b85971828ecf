//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aussiebroadwan/tabauth/internal/auth/domain"
	"github.com/aussiebroadwan/tabauth/internal/auth/store"
	"github.com/aussiebroadwan/tabauth/internal/auth/store/drivers/postgres"
)

func TestIntegration_UsersLifecycle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := tcpostgres.Run(ctx,
		"postgres:18-alpine",
		tcpostgres.WithDatabase("tabauth_test"),
		tcpostgres.WithUsername("tabauth"),
		tcpostgres.WithPassword("tabauth"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := postgres.NewStore(ctx, dsn, postgres.PoolConfig{MaxConns: 4, AcquireTimeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(ctx))

	users := s.Users()
	nu := domain.NewUser{ID: uuid.NewString(), Username: "alice", Email: "alice@example.com", PasswordHash: "$argon2id$x"}

	created, err := users.Create(ctx, nu)
	require.NoError(t, err)
	require.Equal(t, nu.ID, created.ID)

	_, err = users.Create(ctx, domain.NewUser{ID: uuid.NewString(), Username: "alice", Email: "b@example.com", PasswordHash: "x"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	found, err := users.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, nu.ID, found.ID)

	image := "https://example.com/a.png"
	updated, err := users.UpdateProfile(ctx, nu.ID, domain.UpdateProfile{Image: &image})
	require.NoError(t, err)
	require.Equal(t, image, updated.Image)

	require.NoError(t, users.ValidateID(ctx, nu.ID))
	require.NoError(t, users.Delete(ctx, nu.ID))
	require.ErrorIs(t, users.Delete(ctx, nu.ID), store.ErrNoRowsAffected)
	require.ErrorIs(t, users.ValidateID(ctx, nu.ID), store.ErrNotFound)
}
