package database

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"verstore/internal/database/sqlc"
)

// dialect captures the differences between the supported SQL engines.
// Queries are shared; only placeholders, locking and error codes differ.
type dialect interface {
	// name is the golang-migrate driver name.
	name() string

	// wrap adapts a connection or transaction for the generated queries.
	wrap(db sqlc.DBTX) sqlc.DBTX

	// lockOwner serializes write transactions that touch one owner's files.
	lockOwner(ctx context.Context, tx *sql.Tx, ownerID string) error

	isUniqueViolation(err error) bool
}

// sqliteDialect relies on BEGIN IMMEDIATE (_txlock=immediate), which
// takes the database write lock when the transaction starts.
type sqliteDialect struct{}

func (sqliteDialect) name() string { return "sqlite3" }

func (sqliteDialect) wrap(db sqlc.DBTX) sqlc.DBTX { return db }

func (sqliteDialect) lockOwner(context.Context, *sql.Tx, string) error { return nil }

func (sqliteDialect) isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

type postgresDialect struct{}

func (postgresDialect) name() string { return "pgx5" }

func (postgresDialect) wrap(db sqlc.DBTX) sqlc.DBTX { return rebinder{db: db} }

func (postgresDialect) lockOwner(ctx context.Context, tx *sql.Tx, ownerID string) error {
	rows, err := tx.QueryContext(ctx, "SELECT id FROM owners WHERE id = $1 FOR UPDATE", ownerID)
	if err != nil {
		return err
	}
	return rows.Close()
}

func (postgresDialect) isUniqueViolation(err error) bool {
	var pg *pgconn.PgError
	return errors.As(err, &pg) && pg.Code == "23505"
}

// rebinder rewrites ? placeholders to $1, $2, ... before delegating.
type rebinder struct {
	db sqlc.DBTX
}

func (r rebinder) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return r.db.ExecContext(ctx, rebind(query), args...)
}

func (r rebinder) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	return r.db.PrepareContext(ctx, rebind(query))
}

func (r rebinder) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return r.db.QueryContext(ctx, rebind(query), args...)
}

func (r rebinder) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return r.db.QueryRowContext(ctx, rebind(query), args...)
}

// rebind numbers the placeholders of a query. The shared queries contain
// no ? inside string literals.
func rebind(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			b.WriteByte(query[i])
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}
