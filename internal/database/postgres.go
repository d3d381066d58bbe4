package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver

	"verstore/internal/database/migrations"
)

// NewPostgresDatabase connects to PostgreSQL and brings the schema up to date.
func NewPostgresDatabase(dsn string) (*SQLDatabase, error) {
	db, err := OpenPostgresConnection(dsn)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db, migrations.Postgres); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return newSQLDatabase(db, postgresDialect{}), nil
}

// NewPostgresDatabaseFromDB wraps an existing pgx connection.
func NewPostgresDatabaseFromDB(db *sql.DB) *SQLDatabase {
	return newSQLDatabase(db, postgresDialect{})
}

// OpenPostgresConnection opens a pgx-backed database/sql connection and
// verifies that the server is reachable.
func OpenPostgresConnection(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}
