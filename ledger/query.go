/*
query.go - Read-only projections over the ledger collections

PURPOSE:
  Serves every read the dashboard polls for. Reads never go through the
  engine and never take its lock; they see whatever the backend last
  saved.

PROJECTIONS:
  Balance:         {id, balance} for one user
  History:         All records, newest first
  Ranking:         Persisted leaderboard, balance descending
  DashboardStats:  User count, balance total, record counts

TODAY'S TRANSACTIONS:
  Optional. Counts records whose timestamp string starts with the current
  UTC date (YYYY-MM-DD). This is calendar-date prefix equality, not an
  elapsed-time window.

SEE ALSO:
  - engine.go: The writer side
  - api/handlers.go: HTTP mapping
*/
package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// QueryService answers read requests.
type QueryService struct {
	Collections *Collections

	// IncludeToday enables the todaysTransactions statistic.
	IncludeToday bool

	Now func() time.Time
}

// NewQueryService creates a query service over collections.
func NewQueryService(collections *Collections, includeToday bool) *QueryService {
	return &QueryService{
		Collections:  collections,
		IncludeToday: includeToday,
		Now:          time.Now,
	}
}

// DashboardStats is the aggregate shown at the top of the dashboard.
type DashboardStats struct {
	ActiveIDs          int    `json:"activeIds"`
	TotalBalance       Amount `json:"totalBalance"`
	TotalTransactions  int    `json:"totalTransactions"`
	TodaysTransactions *int   `json:"todaysTransactions,omitempty"`
}

// GetBalance returns the current balance of one user.
func (q *QueryService) GetBalance(ctx context.Context, id UserID) (User, error) {
	users, err := q.Collections.LoadUsers(ctx)
	if err != nil {
		return User{}, err
	}
	if idx := findUser(users, id); idx >= 0 {
		return users[idx], nil
	}
	return User{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// GetHistory returns history records newest first. A limit <= 0 returns all.
func (q *QueryService) GetHistory(ctx context.Context, limit int) ([]HistoryRecord, error) {
	history, err := q.Collections.LoadHistory(ctx)
	if err != nil {
		return nil, err
	}

	sortNewestFirst(history)
	return truncate(history, limit), nil
}

// sortNewestFirst orders records by timestamp descending. Records are
// stored newest first, so the stable sort only moves records written out
// of order by other tools. Timestamps are compared as instants when both
// parse, since 09:30:00Z and 09:30:00.500Z do not order correctly as
// strings, and as strings otherwise.
func sortNewestFirst(history []HistoryRecord) {
	at := make(map[string]time.Time, len(history))
	for _, r := range history {
		if _, seen := at[r.Timestamp]; seen {
			continue
		}
		if ts, err := time.Parse(time.RFC3339Nano, r.Timestamp); err == nil {
			at[r.Timestamp] = ts
		}
	}

	sort.SliceStable(history, func(i, j int) bool {
		a, aok := at[history[i].Timestamp]
		b, bok := at[history[j].Timestamp]
		if aok && bok {
			return a.After(b)
		}
		return history[i].Timestamp > history[j].Timestamp
	})
}

// GetRanking returns the persisted ranking. A limit <= 0 returns all.
func (q *QueryService) GetRanking(ctx context.Context, limit int) ([]RankingEntry, error) {
	ranking, err := q.Collections.LoadRanking(ctx)
	if err != nil {
		return nil, err
	}
	return truncate(ranking, limit), nil
}

// GetDashboardStats aggregates the Users and History collections.
func (q *QueryService) GetDashboardStats(ctx context.Context) (DashboardStats, error) {
	users, err := q.Collections.LoadUsers(ctx)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("%w: %v", ErrAggregationFailure, err)
	}
	history, err := q.Collections.LoadHistory(ctx)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("%w: %v", ErrAggregationFailure, err)
	}

	stats := DashboardStats{
		ActiveIDs:         len(users),
		TotalBalance:      NewAmountFromInt(0),
		TotalTransactions: len(history),
	}
	for _, u := range users {
		stats.TotalBalance = stats.TotalBalance.Add(u.Balance)
	}

	if q.IncludeToday {
		today := q.Now().UTC().Format(DateLayout)
		count := 0
		for _, r := range history {
			if strings.HasPrefix(r.Timestamp, today) {
				count++
			}
		}
		stats.TodaysTransactions = &count
	}

	return stats, nil
}

func truncate[T any](records []T, limit int) []T {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}
