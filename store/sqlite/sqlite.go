/*
Package sqlite provides a SQLite-backed implementation of ledger.DocumentStore.

PURPOSE:
  Stores each ledger collection as one row of the documents table. The
  body column holds the same indented JSON the flat-file backend writes,
  so switching backends does not change what the engine sees.

KEY TABLES:
  documents:          collection (PK), body, updated_at
  schema_migrations:  golang-migrate bookkeeping

MIGRATION:
  The schema lives in migrations/*.sql, embedded into the binary and
  applied with golang-migrate on New(). Only the table layout is
  migrated; the JSON documents themselves are never rewritten.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety, like the other backends. Saves are
  single-row upserts, so each one is atomic on its own; there is still no
  transaction spanning the three collections.

WAL MODE:
  File databases are opened with WAL (Write-Ahead Logging):
  - Readers don't block the writer
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/ledger.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - ledger/store.go: Interface definition
  - store/jsonfile/jsonfile.go: Flat-file backend
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/points-ledger/ledger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store implements ledger.DocumentStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens the database at dbPath and applies pending migrations.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_busy_timeout=5000&_journal_mode=WAL"
	if dbPath == ":memory:" {
		dsn = dbPath
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate applies the embedded schema migrations. The migrate instance is
// deliberately not closed: closing it would close s.db as well.
func (s *Store) migrate() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	defer source.Close()

	driver, err := sqlitemigrate.WithInstance(s.db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// =============================================================================
// DOCUMENT STORE (ledger.DocumentStore interface)
// =============================================================================

// Load returns the document body for c.
func (s *Store) Load(ctx context.Context, c ledger.Collection) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var body string
	err := s.db.QueryRowContext(ctx,
		"SELECT body FROM documents WHERE collection = ?",
		string(c),
	).Scan(&body)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", c, err)
	}
	return []byte(body), nil
}

// Save upserts the document body for c.
func (s *Store) Save(ctx context.Context, c ledger.Collection, document []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO documents (collection, body, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(collection) DO UPDATE SET
			body = excluded.body,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		string(c),
		string(document),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", c, err)
	}
	return nil
}

// Reset deletes every document.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return fmt.Errorf("failed to reset documents: %w", err)
	}
	return nil
}

// UpdatedAt returns when c was last saved, or the zero time if never.
func (s *Store) UpdatedAt(ctx context.Context, c ledger.Collection) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var updatedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT updated_at FROM documents WHERE collection = ?",
		string(c),
	).Scan(&updatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read %s timestamp: %w", c, err)
	}
	return time.Parse(time.RFC3339, updatedAt)
}
