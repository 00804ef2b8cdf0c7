// Package sqlite provides the SQLite-backed passage store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Brandonf2022/touringbot"
	"github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Busy retry defaults for write transactions.
const (
	DefaultBusyAttempts = 5
	DefaultBusyBackoff  = 100 * time.Millisecond
)

// DB represents a SQLite database connection.
type DB struct {
	db   *sql.DB
	path string

	// BusyRetry controls how write transactions are retried when the
	// database is locked by another process. Retryable is ignored.
	BusyRetry touringbot.RetryPolicy
}

// NewDB creates a new DB instance with the given path.
// Use ":memory:" for an in-memory database.
func NewDB(path string) *DB {
	return &DB{
		path: path,
		BusyRetry: touringbot.RetryPolicy{
			MaxAttempts:    DefaultBusyAttempts,
			InitialBackoff: DefaultBusyBackoff,
			Factor:         2,
		},
	}
}

// Open opens the database connection and creates the schema if needed.
func (db *DB) Open() error {
	conn, err := sql.Open("sqlite3", db.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit to one connection.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Wait on lock contention before reporting SQLITE_BUSY.
	if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// WAL is not supported for in-memory databases.
	if db.path != ":memory:" {
		if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
			conn.Close()
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	db.db = conn

	if err := db.createSchema(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

// Path returns the database path.
func (db *DB) Path() string {
	return db.path
}

// QueryRowContext executes a query that returns a single row.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// ExecContext executes a statement that doesn't return rows.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

// WithTx runs fn inside a transaction and commits it. Any error from fn
// rolls the transaction back. If the database is busy the whole
// transaction is retried per BusyRetry; once attempts run out the error is
// reported as EBUSY. fn may therefore run more than once and must not keep
// state across calls.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	policy := db.BusyRetry
	policy.Retryable = isBusy

	err := touringbot.Retry(ctx, policy, func(ctx context.Context) error {
		tx, err := db.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	})
	if err != nil && isBusy(err) {
		return touringbot.WrapError(touringbot.EBUSY, err, "database is busy")
	}
	return err
}

// isBusy reports whether err means another connection holds a lock.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sqlite3.BUSY) || errors.Is(err, sqlite3.LOCKED) {
		return true
	}
	return strings.Contains(err.Error(), "database is locked")
}

// createSchema creates the database tables if they don't exist.
func (db *DB) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS passages (
			id TEXT PRIMARY KEY,
			date TEXT NOT NULL DEFAULT '',
			package_id TEXT NOT NULL,
			part TEXT NOT NULL,
			page INTEGER NOT NULL DEFAULT 0,
			text TEXT NOT NULL,
			source_ref TEXT NOT NULL DEFAULT '',
			venue TEXT NOT NULL DEFAULT '',
			run_id TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_passages_location ON passages(package_id, part, page);
		CREATE INDEX IF NOT EXISTS idx_passages_venue ON passages(venue);
	`

	_, err := db.db.Exec(schema)
	return err
}
