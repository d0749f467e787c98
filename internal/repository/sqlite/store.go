// Package sqlite contains embedded SQLite implementations of repository interfaces,
// used for single-node deployments and end-to-end storage tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/and161185/account-manager/internal/errs"
	"github.com/and161185/account-manager/internal/ident"
	"github.com/and161185/account-manager/internal/migrate"
	"github.com/and161185/account-manager/internal/repository"
)

// DB wraps an sqlx handle to an SQLite database.
type DB struct{ x *sqlx.DB }

// Open opens (or creates) the database at path, enables foreign keys and applies
// pending migrations. Use ":memory:" for a private in-memory database.
func Open(ctx context.Context, path string) (*DB, error) {
	x, err := sqlx.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// One connection: SQLite has a single writer, and ":memory:" is per connection.
	x.SetMaxOpenConns(1)

	if _, err := x.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		x.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if path != ":memory:" {
		if _, err := x.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			x.Close()
			return nil, fmt.Errorf("enabling WAL mode: %w", err)
		}
	}
	if err := migrate.UpDB(ctx, x.DB, goose.DialectSQLite3); err != nil {
		x.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return &DB{x: x}, nil
}

func dsn(path string) string {
	if path == ":memory:" {
		return "file::memory:?_pragma=foreign_keys(1)"
	}
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Close closes the underlying database.
func (db *DB) Close() error { return db.x.Close() }

func sqliteCode(err error) (int, string, bool) {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return 0, "", false
	}
	return se.Code(), se.Error(), true
}

// mapWriteErr translates constraint violations into domain errors.
func mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	code, msg, ok := sqliteCode(err)
	if !ok {
		return err
	}
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		if strings.Contains(msg, "users.email") {
			return errs.ErrAlreadyExists
		}
		return fmt.Errorf("%s: %w", msg, errs.ErrIdentifierCollision)
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return errs.ErrNotFound
	default:
		return err
	}
}

func mapReadErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return errs.ErrNotFound
	}
	return err
}

func expectOne(res sql.Result, err error) error {
	if err != nil {
		return mapWriteErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func deleteByID(ctx context.Context, db *DB, table string, id uuid.UUID) error {
	return expectOne(db.x.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id))
}

func maxLocalID(ctx context.Context, db *DB, scope ident.Scope) (int64, error) {
	table, col, err := repository.ScopeTable(scope.Kind)
	if err != nil {
		return 0, err
	}
	var n int64
	q := `SELECT COALESCE(MAX(local_id), 0) FROM ` + table + ` WHERE ` + col + ` = ?`
	if err := db.x.GetContext(ctx, &n, q, scope.ParentID); err != nil {
		return 0, err
	}
	return n, nil
}

var (
	_ repository.UserRepository       = (*UserRepo)(nil)
	_ repository.ProjectRepository    = (*ProjectRepo)(nil)
	_ repository.CredentialRepository = (*CredentialRepo)(nil)
	_ repository.TaskRepository       = (*TaskRepo)(nil)
)
