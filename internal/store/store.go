package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/stlog/internal/dburl"
)

//go:embed schema.sql
var schemaSQL string

// Store is the shared connection handle for log persistence. One Store is
// shared by every handler of a binding; its lifetime spans from Open to
// Close.
type Store struct {
	db     *sql.DB
	target dburl.Target
}

// Open connects to the target backend.
//
// For file-based targets the database file is created if absent, the
// required pragmas are applied and the schema is created idempotently.
// Client-server targets are only pinged; their schema is owned by the
// server side.
func Open(target dburl.Target) (*Store, error) {
	db, err := sql.Open(target.Driver, target.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", target.Flavor, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to %s database: %w", target.Flavor, err)
	}

	if target.File() {
		// SQLite supports one writer at a time; a single connection
		// avoids SQLITE_BUSY under concurrent emits.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragmas: %w", err)
		}
		if err := createSchemaIfAbsent(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	return &Store{db: db, target: target}, nil
}

// OpenFile opens (or creates) a SQLite database at path. Convenience for
// the file-based backend used by tooling and tests.
func OpenFile(path string) (*Store, error) {
	connStr, err := dburl.Build(dburl.FlavorSQLite, "", "", "", 0, path)
	if err != nil {
		return nil, err
	}
	target, err := dburl.Parse(connStr)
	if err != nil {
		return nil, err
	}
	return Open(target)
}

// Close releases the database connection. Safe to call on a zero Store.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Target returns the backend target the store was opened against.
func (s *Store) Target() dburl.Target {
	return s.target
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// createSchemaIfAbsent creates the logentry table and its indexes. The
// schema uses IF NOT EXISTS throughout, so repeated opens are no-ops.
func createSchemaIfAbsent(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}
