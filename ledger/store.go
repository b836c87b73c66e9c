/*
store.go - Persistence interface for the three ledger collections

PURPOSE:
  Defines the interface between the ledger and its storage backend.
  Each collection (users, history, ranking) is one document that is
  loaded whole and saved whole. There is no cross-document transaction.

CONTRACT:
  - Load(): Returns the raw document, or nil when it was never saved
  - Save(): Fully overwrites the document. Last writer wins.
  - Reset(): Drops every document (scenario loading, tests)

IMPLEMENTATIONS:
  - ledger/store/memory.go: In-memory for testing
  - store/jsonfile/jsonfile.go: One JSON file per collection (default)
  - store/sqlite/sqlite.go: One row per collection
  - store/redis/redis.go: One key per collection

SEE ALSO:
  - collections.go: Typed decoding on top of DocumentStore
*/
package ledger

import "context"

// DocumentStore persists one opaque document per collection.
type DocumentStore interface {
	// Load returns the persisted document. A collection that was never
	// saved returns (nil, nil).
	Load(ctx context.Context, c Collection) ([]byte, error)

	// Save replaces the persisted document.
	Save(ctx context.Context, c Collection, document []byte) error

	// Reset removes every collection.
	Reset(ctx context.Context) error
}
