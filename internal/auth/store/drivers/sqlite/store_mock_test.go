package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/tabauth/internal/auth/store"
	"github.com/aussiebroadwan/tabauth/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tabauth/pkg/errx"
)

func newMockStore(t *testing.T) (*sqlite.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlite.NewStoreFromDB(db), mock
}

func TestUsers_QueryFailureIsDBQuery(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT .* FROM users WHERE username = \?`).
		WithArgs("alice").
		WillReturnError(errors.New("disk I/O error"))

	_, err := s.Users().FindByUsername(context.Background(), "alice")
	require.Equal(t, errx.KindDBQuery, errx.KindOf(err))
	require.Equal(t, "STORE_QUERY_FAILED", errx.CodeOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUsers_ConnFailureIsDBConn(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`DELETE FROM users WHERE id = \?`).
		WithArgs("id-1").
		WillReturnError(sql.ErrConnDone)

	err := s.Users().Delete(context.Background(), "id-1")
	require.Equal(t, errx.KindDBConn, errx.KindOf(err))
	require.ErrorIs(t, err, sql.ErrConnDone)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUsers_DeleteZeroRows(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`DELETE FROM users WHERE id = \?`).
		WithArgs("id-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Users().Delete(context.Background(), "id-1")
	require.ErrorIs(t, err, store.ErrNoRowsAffected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_PingFailure(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT 1`).WillReturnError(errors.New("database is locked"))

	err := s.Ping(context.Background())
	require.Equal(t, errx.KindDBConn, errx.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Ping(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT 1`).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
