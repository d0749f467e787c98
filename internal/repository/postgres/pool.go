// Package postgres contains PostgreSQL implementations of repository interfaces.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/account-manager/internal/errs"
	"github.com/and161185/account-manager/internal/ident"
	"github.com/and161185/account-manager/internal/repository"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxPool is a minimal abstraction over a Postgres connection pool,
// used by repositories. It is implemented by *pgxpool.Pool and pgxmock.PgxPoolIface.
type PgxPool interface {
	// Exec executes a SQL command and returns the command tag.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	// Query executes a SELECT and returns a rows iterator.
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	// QueryRow executes a query expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	// BeginTx starts a transaction with the provided options.
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	// Close shuts down the pool and frees resources.
	Close()
}

// querier is the read surface shared by the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB wraps pgxpool.Pool to satisfy repository constructors and allow testing.
type DB struct{ Pool PgxPool }

// New creates a new connection pool for the given DSN.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &DB{Pool: pool}, nil
}

// Close closes the underlying pool.
func (db *DB) Close() { db.Pool.Close() }

// isUniqueViolation reports whether the error is a unique constraint violation.
func isUniqueViolation(err error) bool {
	var pg *pgconn.PgError
	return errors.As(err, &pg) && pg.Code == "23505"
}

// isForeignKeyViolation reports whether the error is a foreign key violation,
// i.e. the parent row of an insert does not exist.
func isForeignKeyViolation(err error) bool {
	var pg *pgconn.PgError
	return errors.As(err, &pg) && pg.Code == "23503"
}

// mapWriteErr translates constraint violations on insert/update into domain errors.
func mapWriteErr(err error) error {
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		var pg *pgconn.PgError
		errors.As(err, &pg)
		if pg.ConstraintName == "users_email_key" {
			return errs.ErrAlreadyExists
		}
		return fmt.Errorf("%s: %w", pg.ConstraintName, errs.ErrIdentifierCollision)
	case isForeignKeyViolation(err):
		return errs.ErrNotFound
	default:
		return err
	}
}

// mapReadErr translates a missing row into errs.ErrNotFound.
func mapReadErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.ErrNotFound
	}
	return err
}

// deleteByID removes one row by primary key; table is always a package constant.
func deleteByID(ctx context.Context, db *DB, table string, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM `+table+` WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// maxLocalID implements ident.LocalIDSource for any scope kind.
func maxLocalID(ctx context.Context, db *DB, scope ident.Scope) (int64, error) {
	table, col, err := repository.ScopeTable(scope.Kind)
	if err != nil {
		return 0, err
	}
	var n int64
	q := `SELECT COALESCE(MAX(local_id), 0) FROM ` + table + ` WHERE ` + col + `=$1`
	if err := db.Pool.QueryRow(ctx, q, scope.ParentID).Scan(&n); err != nil {
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
