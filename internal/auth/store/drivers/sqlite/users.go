package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/tabauth/internal/auth/domain"
	"github.com/aussiebroadwan/tabauth/internal/auth/store"
)

const userColumns = `id, username, email, password_hash, full_name, bio, image, email_verified, active, created_at, updated_at`

type usersRepo struct {
	db  *sql.DB
	now func() time.Time
}

func (r *usersRepo) Create(ctx context.Context, u domain.NewUser) (domain.User, error) {
	now := r.now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.PasswordHash, now, now,
	)
	if err != nil {
		return domain.User{}, classify("create user", err)
	}

	return domain.User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (r *usersRepo) FindByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, classify("find user by id", err)
	}
	return u, nil
}

func (r *usersRepo) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, classify("find user by username", err)
	}
	return u, nil
}

func (r *usersRepo) ValidateID(ctx context.Context, id string) error {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ? AND active = 1`, id).Scan(&one)
	return classify("validate user id", err)
}

func (r *usersRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return classify("delete user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify("delete user", err)
	}
	if n == 0 {
		return store.ErrNoRowsAffected
	}
	return nil
}

func (r *usersRepo) UpdateProfile(ctx context.Context, id string, p domain.UpdateProfile) (domain.User, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET full_name = COALESCE(?, full_name),
		    bio = COALESCE(?, bio),
		    image = COALESCE(?, image),
		    updated_at = ?
		WHERE id = ?`,
		nullString(p.FullName), nullString(p.Bio), nullString(p.Image), r.now(), id,
	)
	if err != nil {
		return domain.User{}, classify("update profile", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.User{}, classify("update profile", err)
	}
	if n == 0 {
		return domain.User{}, store.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.FullName, &u.Bio, &u.Image,
		&u.EmailVerified, &u.Active,
		&u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
