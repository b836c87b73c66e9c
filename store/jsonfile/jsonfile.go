/*
Package jsonfile provides a flat-file implementation of ledger.DocumentStore.

PURPOSE:
  Keeps each collection as a human-readable JSON file in one directory:

    <dir>/users.json
    <dir>/history.json
    <dir>/ranking.json

  Every save rewrites the whole file. There is no append-only log and no
  binary encoding, so the files can be inspected and edited by hand.

FAILURE SEMANTICS:
  A missing file loads as (nil, nil). Any other read error is returned
  and the ledger's Collections layer treats it as an empty collection.

CONCURRENCY:
  sync.RWMutex per store. Writes to different files are not coordinated;
  the engine serialises its own read-modify-write sequence.

USAGE:
  store, err := jsonfile.New("./data")
  collections := ledger.NewCollections(store, log)

SEE ALSO:
  - ledger/store.go: Interface definition
  - store/sqlite/sqlite.go: Embedded database alternative
*/
package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/warp/points-ledger/ledger"
)

// Store implements ledger.DocumentStore with one file per collection.
type Store struct {
	dir string
	mu  sync.RWMutex
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file backing collection c.
func (s *Store) Path(c ledger.Collection) string {
	return filepath.Join(s.dir, string(c)+".json")
}

// Load reads the collection file.
func (s *Store) Load(_ context.Context, c ledger.Collection) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path(c))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", c, err)
	}
	return data, nil
}

// Save rewrites the collection file.
func (s *Store) Save(_ context.Context, c ledger.Collection, document []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(s.Path(c), document, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", c, err)
	}
	return nil
}

// Reset removes every collection file.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range ledger.AllCollections {
		if err := os.Remove(s.Path(c)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", c, err)
		}
	}
	return nil
}
