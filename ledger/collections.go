/*
collections.go - Typed, tolerant access to the persisted collections

PURPOSE:
  Decodes and encodes the Users, History and Ranking documents on top of
  a DocumentStore.

LOAD SEMANTICS:
  A load never fails because of what is (or is not) on disk. A backend
  error, a missing document, blank content or JSON that does not decode
  into the collection's record type all yield an empty sequence. The
  problem is logged at WARN and otherwise swallowed. Callers must not
  assume a load reflects the last save if the document was corrupted in
  between.

  The one error Load returns is the caller's context error, checked
  before touching the backend.

SAVE SEMANTICS:
  The whole sequence is encoded as an indented JSON array and handed to
  the backend in a single Save. Save errors are returned.

SEE ALSO:
  - store.go: DocumentStore interface
  - engine.go: Uses Collections for every read-modify-write
*/
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Collections wraps a DocumentStore with typed load/save per collection.
type Collections struct {
	Store DocumentStore
	Log   logrus.FieldLogger
}

// NewCollections creates typed collections over store. A nil logger falls
// back to the logrus standard logger.
func NewCollections(store DocumentStore, log logrus.FieldLogger) *Collections {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Collections{Store: store, Log: log}
}

func (c *Collections) LoadUsers(ctx context.Context) ([]User, error) {
	return load[User](ctx, c, CollectionUsers)
}

func (c *Collections) SaveUsers(ctx context.Context, users []User) error {
	return save(ctx, c, CollectionUsers, users)
}

func (c *Collections) LoadHistory(ctx context.Context) ([]HistoryRecord, error) {
	return load[HistoryRecord](ctx, c, CollectionHistory)
}

func (c *Collections) SaveHistory(ctx context.Context, history []HistoryRecord) error {
	return save(ctx, c, CollectionHistory, history)
}

func (c *Collections) LoadRanking(ctx context.Context) ([]RankingEntry, error) {
	return load[RankingEntry](ctx, c, CollectionRanking)
}

func (c *Collections) SaveRanking(ctx context.Context, ranking []RankingEntry) error {
	return save(ctx, c, CollectionRanking, ranking)
}

// Reset drops every collection.
func (c *Collections) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.Store.Reset(ctx)
}

// =============================================================================
// ENCODING
// =============================================================================

func load[T any](ctx context.Context, c *Collections, name Collection) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, err := decode[T](c.Store.Load(ctx, name))
	if err != nil {
		c.Log.WithFields(logrus.Fields{
			"collection": name,
			"error":      err,
		}).Warn("Collection unreadable, treating as empty")
		return []T{}, nil
	}
	return records, nil
}

func decode[T any](data []byte, loadErr error) ([]T, error) {
	if loadErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnreadable, loadErr)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []T{}, nil
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnreadable, err)
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

func save[T any](ctx context.Context, c *Collections, name Collection, records []T) error {
	if records == nil {
		records = []T{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	if err := c.Store.Save(ctx, name, data); err != nil {
		return fmt.Errorf("failed to save %s: %w", name, err)
	}
	return nil
}
