/*
engine.go - Ledger engine: the only writer of the three collections

PURPOSE:
  Applies credits and debits to a user's balance, appends the matching
  history record and refreshes the ranking. Every mutation is a
  read-modify-write of whole documents.

WRITE SEQUENCE (per mutation, strictly in order):
  1. Validate input (no store access on failure)
  2. Load Users, load History
  3. Find user, compute new balance
  4. Prepend history record
  5. Save Users
  6. Save History
  7. Refresh and save Ranking

DURABILITY:
  Steps 5-7 are independent saves, not a transaction. A crash between
  them leaves the collections inconsistent (e.g. balance written but no
  history record). Once step 5 starts the sequence runs to completion or
  fails outright; there is no rollback.

  A ranking save failure is logged and does not fail the mutation. The
  ranking reconciler rebuilds it later.

CONCURRENCY:
  The backends only serialise writes per collection, so two concurrent
  read-modify-writes of the same user would lose an update. The engine
  holds one mutex across the whole sequence of every mutating operation,
  which removes that race within a process. Reads do not take it.

NO BALANCE FLOOR:
  Debits larger than the balance succeed and leave it negative.

SEE ALSO:
  - collections.go: Tolerant loads, indented saves
  - ranking.go: Rebuild and incremental strategies
  - users.go: Creating users
*/
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine mutates the ledger collections.
type Engine struct {
	Collections *Collections
	Strategy    RankingStrategy
	Log         logrus.FieldLogger

	// Now is the clock used for history timestamps.
	Now func() time.Time

	// NewUserID generates an id when a user is created without one.
	NewUserID func() UserID

	mu sync.Mutex
}

// NewEngine creates an engine over collections. A nil logger falls back to
// the collections' logger.
func NewEngine(collections *Collections, strategy RankingStrategy, log logrus.FieldLogger) *Engine {
	if log == nil {
		log = collections.Log
	}
	if strategy == "" {
		strategy = RankingRebuild
	}
	return &Engine{
		Collections: collections,
		Strategy:    strategy,
		Log:         log,
		Now:         time.Now,
		NewUserID:   GenerateUserID,
	}
}

// Credit adds rawAmount to the user's balance.
func (e *Engine) Credit(ctx context.Context, id UserID, rawAmount string, meta Context) (Amount, error) {
	return e.ApplyDelta(ctx, id, rawAmount, meta, SignCredit)
}

// Debit subtracts rawAmount from the user's balance.
func (e *Engine) Debit(ctx context.Context, id UserID, rawAmount string, meta Context) (Amount, error) {
	return e.ApplyDelta(ctx, id, rawAmount, meta, SignDebit)
}

// ApplyDelta validates the request, applies sign*rawAmount to the user's
// balance, records it in History, refreshes the Ranking and returns the new
// balance.
func (e *Engine) ApplyDelta(ctx context.Context, id UserID, rawAmount string, meta Context, sign Sign) (Amount, error) {
	if id == "" {
		return Amount{}, fmt.Errorf("%w: id is required", ErrInvalidRequest)
	}
	if sign != SignCredit && sign != SignDebit {
		return Amount{}, fmt.Errorf("%w: sign must be +1 or -1, got %d", ErrInvalidRequest, sign)
	}
	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return Amount{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	users, err := e.Collections.LoadUsers(ctx)
	if err != nil {
		return Amount{}, err
	}
	history, err := e.Collections.LoadHistory(ctx)
	if err != nil {
		return Amount{}, err
	}

	idx := findUser(users, id)
	if idx < 0 {
		return Amount{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	delta := amount.Mul(int64(sign))
	balance := users[idx].Balance.Add(delta)
	if err := checkFinite(balance.Value); err != nil {
		return Amount{}, fmt.Errorf("%w: %s: %v", ErrInvalidRequest, id, err)
	}
	users[idx].Balance = balance
	user := users[idx]

	record := HistoryRecord{
		Timestamp: e.timestamp(),
		ID:        id,
		Games:     Text(meta.Games),
		Type:      sign.entryType(),
		Amount:    delta,
		Balance:   user.Balance,
		Dealer:    Text(meta.Dealer),
	}
	history = prepend(history, record)

	if err := e.persist(ctx, users, history, user); err != nil {
		return Amount{}, err
	}

	e.Log.WithFields(logrus.Fields{
		"user_id": id,
		"type":    record.Type,
		"amount":  delta.String(),
		"balance": user.Balance.String(),
		"games":   meta.Games,
		"dealer":  meta.Dealer,
	}).Info("Balance updated")

	return user.Balance, nil
}

// ReconcileRanking rebuilds the ranking from Users and saves it when it
// differs from the persisted one. It reports whether anything was written.
func (e *Engine) ReconcileRanking(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	users, err := e.Collections.LoadUsers(ctx)
	if err != nil {
		return false, err
	}
	current, err := e.Collections.LoadRanking(ctx)
	if err != nil {
		return false, err
	}
	if RankingMatches(current, users) {
		return false, nil
	}

	if err := e.Collections.SaveRanking(context.WithoutCancel(ctx), RebuildRanking(users)); err != nil {
		return false, err
	}
	return true, nil
}

// Reset drops every collection. Used by the scenario loader before it
// replays a data set through the engine.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.Collections.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset ledger: %w", err)
	}
	e.Log.Warn("Ledger reset")
	return nil
}

// =============================================================================
// WRITE SEQUENCE
// =============================================================================

// persist saves Users, then History, then Ranking. The caller's
// cancellation no longer applies once the first save starts.
func (e *Engine) persist(ctx context.Context, users []User, history []HistoryRecord, changed User) error {
	ctx = context.WithoutCancel(ctx)

	if err := e.Collections.SaveUsers(ctx, users); err != nil {
		return err
	}
	if err := e.Collections.SaveHistory(ctx, history); err != nil {
		return err
	}
	e.refreshRanking(ctx, users, changed)
	return nil
}

func (e *Engine) refreshRanking(ctx context.Context, users []User, changed User) {
	var ranking []RankingEntry
	if e.Strategy == RankingIncremental {
		current, err := e.Collections.LoadRanking(ctx)
		if err == nil {
			ranking = UpdateRanking(current, users, changed)
		}
	}
	if ranking == nil {
		ranking = RebuildRanking(users)
	}

	if err := e.Collections.SaveRanking(ctx, ranking); err != nil {
		e.Log.WithFields(logrus.Fields{
			"user_id": changed.ID,
			"error":   err,
		}).Error("Failed to update ranking")
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func (e *Engine) timestamp() string {
	return e.Now().UTC().Format(TimestampLayout)
}

func findUser(users []User, id UserID) int {
	for i, u := range users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func prepend(history []HistoryRecord, record HistoryRecord) []HistoryRecord {
	out := make([]HistoryRecord, 0, len(history)+1)
	out = append(out, record)
	return append(out, history...)
}
