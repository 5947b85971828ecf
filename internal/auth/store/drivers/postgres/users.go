package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/aussiebroadwan/tabauth/internal/auth/domain"
	"github.com/aussiebroadwan/tabauth/internal/auth/store"
)

const userColumns = `id::text, username, email, password_hash, full_name, bio, image, email_verified, active, created_at, updated_at`

type usersRepo struct {
	pool  Pool
	bound func(context.Context) (context.Context, context.CancelFunc)
}

func (r *usersRepo) Create(ctx context.Context, u domain.NewUser) (domain.User, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, username, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		u.ID, u.Username, u.Email, u.PasswordHash,
	)
	created, err := scanUser(row)
	if err != nil {
		return domain.User{}, classify("create user", err)
	}
	return created, nil
}

func (r *usersRepo) FindByID(ctx context.Context, id string) (domain.User, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return domain.User{}, classify("find user by id", err)
	}
	return u, nil
}

func (r *usersRepo) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		return domain.User{}, classify("find user by username", err)
	}
	return u, nil
}

func (r *usersRepo) ValidateID(ctx context.Context, id string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	var one int
	err := r.pool.QueryRow(ctx, `SELECT 1 FROM users WHERE id = $1 AND active`, id).Scan(&one)
	return classify("validate user id", err)
}

func (r *usersRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return classify("delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNoRowsAffected
	}
	return nil
}

func (r *usersRepo) UpdateProfile(ctx context.Context, id string, p domain.UpdateProfile) (domain.User, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET full_name = COALESCE($2, full_name),
		    bio = COALESCE($3, bio),
		    image = COALESCE($4, image),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		id, p.FullName, p.Bio, p.Image,
	)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, classify("update profile", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.FullName, &u.Bio, &u.Image,
		&u.EmailVerified, &u.Active,
		&u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}
