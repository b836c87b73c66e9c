/*
Package ledger provides the points ledger engine.

PURPOSE:
  This package owns the three collections behind the casino dashboard
  (Users, History, Ranking), the engine that mutates them, and the
  read-only projections served to the UI. Storage backends live in
  sibling packages and plug in through DocumentStore.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: An exact signed decimal quantity of points
  - User: Current balance per user id
  - HistoryRecord: Immutable audit entry for one balance change
  - RankingEntry: Denormalized {id, balance} row of the leaderboard

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point drift
  2. Point-in-time history: Each record stores the balance AFTER it applied
  3. Newest-first history: Records are prepended, never re-sorted on write
  4. Open entry types: Unknown history types are kept and rendered literally

USAGE:
  amount, err := ledger.ParseAmount("50")
  balance, err := engine.Credit(ctx, "U1", "50", ledger.Context{Games: "blackjack"})

SEE ALSO:
  - engine.go: Balance mutations
  - collections.go: Typed, tolerant access to persisted documents
  - query.go: Read-only projections
*/
package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Exact signed quantity of points
// =============================================================================

// Amount is a signed point value. It is a bare JSON number on the wire and on
// disk; decoding also accepts numeric strings and null (zero).
type Amount struct {
	Value decimal.Decimal
}

func NewAmountFromInt(value int64) Amount { return Amount{Value: decimal.NewFromInt(value)} }

// MustAmount parses s or panics. Intended for tests and static seed data.
func MustAmount(s string) Amount {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("ledger: invalid amount %q: %v", s, err))
	}
	return Amount{Value: d}
}

func (a Amount) Add(b Amount) Amount       { return Amount{Value: a.Value.Add(b.Value)} }
func (a Amount) Mul(s int64) Amount        { return Amount{Value: a.Value.Mul(decimal.NewFromInt(s))} }
func (a Amount) IsNegative() bool          { return a.Value.IsNegative() }
func (a Amount) IsZero() bool              { return a.Value.IsZero() }
func (a Amount) IsPositive() bool          { return a.Value.IsPositive() }
func (a Amount) Equal(b Amount) bool       { return a.Value.Equal(b.Value) }
func (a Amount) Cmp(b Amount) int          { return a.Value.Cmp(b.Value) }
func (a Amount) GreaterThan(b Amount) bool { return a.Value.GreaterThan(b.Value) }
func (a Amount) String() string            { return a.Value.String() }

// MarshalJSON writes the amount as a JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Value.String()), nil
}

// UnmarshalJSON reads a JSON number, a numeric string or null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		a.Value = decimal.Zero
		return nil
	}

	text := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			a.Value = decimal.Zero
			return nil
		}
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return fmt.Errorf("invalid amount %s: %w", data, err)
	}
	if err := checkFinite(d); err != nil {
		return err
	}
	a.Value = d
	return nil
}

// =============================================================================
// IDENTIFIERS & COLLECTIONS
// =============================================================================

type UserID string

// Collection names one persisted document.
type Collection string

const (
	CollectionUsers   Collection = "users"
	CollectionHistory Collection = "history"
	CollectionRanking Collection = "ranking"
)

// AllCollections lists every collection in write order.
var AllCollections = []Collection{CollectionUsers, CollectionHistory, CollectionRanking}

// =============================================================================
// USER
// =============================================================================

type User struct {
	ID      UserID `json:"id"`
	Balance Amount `json:"balance"`
}

// =============================================================================
// HISTORY
// =============================================================================

// EntryType tags a history record. The set is closed for records this
// package writes and open for records written by other tools: an unknown
// tag is stored and returned as-is.
type EntryType string

const (
	EntryAdd      EntryType = "add"
	EntrySubtract EntryType = "subtract"
	EntryGenerate EntryType = "generate"
)

// Known reports whether t is one of the tags this package understands.
func (t EntryType) Known() bool {
	switch t {
	case EntryAdd, EntrySubtract, EntryGenerate:
		return true
	}
	return false
}

// Symbol is the prefix the dashboard shows in front of an amount.
func (t EntryType) Symbol() string {
	switch t {
	case EntryAdd:
		return "+"
	case EntrySubtract:
		return "-"
	case EntryGenerate:
		return "*"
	}
	return ""
}

// HistoryRecord is one immutable change to a user's balance.
type HistoryRecord struct {
	Timestamp string    `json:"timestamp"`
	ID        UserID    `json:"id"`
	Games     Text      `json:"games,omitempty"`
	Type      EntryType `json:"type"`
	Amount    Amount    `json:"amount"`
	Balance   Amount    `json:"balance"` // balance after this record
	Dealer    Text      `json:"dealer,omitempty"`
}

// TimestampLayout is ISO-8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// DateLayout is the calendar-date prefix of a TimestampLayout string.
const DateLayout = "2006-01-02"

// =============================================================================
// FREE TEXT
// =============================================================================

// Text is unvalidated free text. Older writers stored whatever the client
// sent, so it decodes a JSON string, a number (kept in its literal form, so
// 12.50 stays "12.50") or null (""). It always encodes as a string.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*t = Text(n.String())
		return nil
	}
	return fmt.Errorf("expected string or number, got %s", data)
}

func (t Text) String() string {
	return string(t)
}

// =============================================================================
// RANKING
// =============================================================================

type RankingEntry struct {
	ID      UserID `json:"id"`
	Balance Amount `json:"balance"`
}

// =============================================================================
// REQUEST CONTEXT
// =============================================================================

// Context carries the free-text attribution of a balance change.
type Context struct {
	Games  string
	Dealer string
}

// Sign selects credit or debit.
type Sign int

const (
	SignCredit Sign = 1
	SignDebit  Sign = -1
)

func (s Sign) entryType() EntryType {
	if s > 0 {
		return EntryAdd
	}
	return EntrySubtract
}
