// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/claimflow/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// busyTimeoutMS bounds how long a statement waits on a locked database.
const busyTimeoutMS = 5000

// SQLiteStore implements storage.Store using SQLite.
//
// Every conditional write is a single statement, so the store never needs
// multi-statement transactions to honor the workflow's preconditions.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", dbPath, busyTimeoutMS)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection serializes writers inside the process; conditional
	// writes still guard against other processes sharing the file.
	db.SetMaxOpenConns(1)

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) unixNow() int64 {
	return s.now().Unix()
}

// nullString maps "" to SQL NULL.
func nullString(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}

// placeholders returns "?, ?, ?" with n entries.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// conditionalMiss resolves a conditional write that matched no row into
// storage.ErrNotFound or storage.ErrConflict.
func (s *SQLiteStore) conditionalMiss(exists bool, entity, id string) error {
	if !exists {
		return fmt.Errorf("%s %s: %w", entity, id, storage.ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", entity, id, storage.ErrConflict)
}
