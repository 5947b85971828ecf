package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/aussiebroadwan/tabauth/internal/auth/store"
)

// PoolConfig sizes the database/sql pool. Zero values keep the defaults.
type PoolConfig struct {
	MaxOpen     int
	MaxIdle     int
	IdleTimeout time.Duration
}

type Store struct {
	db  *sql.DB
	dsn string
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

func NewStore(dsn string, pool PoolConfig) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, store.ConnError("open", err)
	}

	// Every connection to an in-memory database sees its own empty database,
	// so those are pinned to one connection that is never reaped.
	if isMemory(dsn) {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		if pool.MaxOpen > 0 {
			db.SetMaxOpenConns(pool.MaxOpen)
		}
		if pool.MaxIdle > 0 {
			db.SetMaxIdleConns(pool.MaxIdle)
		}
		if pool.IdleTimeout > 0 {
			db.SetConnMaxIdleTime(pool.IdleTimeout)
		}
	}

	// Enforce FKs
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, store.ConnError("pragma", err)
	}

	s := NewStoreFromDB(db)
	s.dsn = dsn
	return s, nil
}

// NewStoreFromDB wraps an already opened handle.
func NewStoreFromDB(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) Close() error { return s.db.Close() }

// Ping runs SELECT 1 so a wedged database is caught, not just a closed pool.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return store.ConnError("ping", err)
	}
	return nil
}

func (s *Store) Users() store.Users { return &usersRepo{db: s.db, now: s.now} }

func isMemory(dsn string) bool {
	return dsn == "" || strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// classify turns driver errors into store sentinels or classified errors.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return store.ErrNotFound
	case isUniqueViolation(err):
		return store.ErrAlreadyExists
	case errors.Is(err, sql.ErrConnDone), errors.Is(err, driver.ErrBadConn):
		return store.ConnError(op, err)
	default:
		return store.QueryError(op, err)
	}
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(sqliteErr.Error(), "UNIQUE")
	}
	return false
}
