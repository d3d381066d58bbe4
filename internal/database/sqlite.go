package database

import (
	"database/sql"
	"fmt"
	"strings"

	"verstore/internal/database/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// NewSQLiteDatabase opens a SQLite database and brings its schema up to date.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteDatabase(path string) (*SQLDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db, migrations.SQLite); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return newSQLDatabase(db, sqliteDialect{}), nil
}

// NewSQLiteDatabaseFromDB wraps an existing connection.
// The caller is responsible for ensuring the connection is properly configured
// and the schema is applied.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLDatabase {
	return newSQLDatabase(db, sqliteDialect{})
}

// OpenConnection opens and configures a SQLite database connection.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	// Connection settings go in the DSN so every pooled connection gets them:
	// - foreign keys on (SQLite default is OFF for backward compatibility)
	// - BEGIN IMMEDIATE so write transactions take the lock up front
	// - wait up to 5s for a competing writer
	params := "_foreign_keys=on&_txlock=immediate&_busy_timeout=5000"
	inMemory := path == ":memory:"
	if !inMemory {
		params += "&_journal_mode=WAL&_synchronous=NORMAL"
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}

	db, err := sql.Open("sqlite3", path+sep+params)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if inMemory {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}
