/*
ranking.go - Leaderboard projection of the Users collection

PURPOSE:
  The Ranking is a denormalized, recomputable view of Users sorted by
  balance, highest first. It is persisted so reads are a single load.

INVARIANT:
  After every engine operation each user has exactly one entry carrying
  its current balance, sorted descending. Equal balances keep their
  previous relative order (stable sort).

STRATEGIES:
  rebuild:      Project every user again. Ties follow Users order.
  incremental:  Patch the one mutated user in the persisted ranking and
                re-sort. Ties follow the previous ranking order. Falls
                back to a rebuild when the result does not hold exactly
                one entry per current user with its current balance.

SEE ALSO:
  - engine.go: Applies a strategy after every mutation
  - api/scheduler.go: Periodic rebuild that repairs drift
*/
package ledger

import (
	"fmt"
	"sort"
)

// RankingStrategy selects how the engine refreshes the ranking after a mutation.
type RankingStrategy string

const (
	RankingRebuild     RankingStrategy = "rebuild"
	RankingIncremental RankingStrategy = "incremental"
)

// ParseRankingStrategy validates a configured strategy name.
func ParseRankingStrategy(s string) (RankingStrategy, error) {
	switch RankingStrategy(s) {
	case "", RankingRebuild:
		return RankingRebuild, nil
	case RankingIncremental:
		return RankingIncremental, nil
	}
	return "", fmt.Errorf("unknown ranking strategy %q", s)
}

// RebuildRanking projects users to ranking entries sorted by balance descending.
func RebuildRanking(users []User) []RankingEntry {
	ranking := make([]RankingEntry, len(users))
	for i, u := range users {
		ranking[i] = RankingEntry{ID: u.ID, Balance: u.Balance}
	}
	sortRanking(ranking)
	return ranking
}

// UpdateRanking patches the entry of the changed user and re-sorts. When the
// patched ranking is still not the projection of users (an entry missing,
// duplicated or carrying a stale balance) it is rebuilt instead.
func UpdateRanking(ranking []RankingEntry, users []User, changed User) []RankingEntry {
	if !coversUsers(ranking, users) {
		return RebuildRanking(users)
	}

	updated := make([]RankingEntry, len(ranking))
	copy(updated, ranking)
	for i := range updated {
		if updated[i].ID == changed.ID {
			updated[i].Balance = changed.Balance
			break
		}
	}
	sortRanking(updated)
	if !RankingMatches(updated, users) {
		return RebuildRanking(users)
	}
	return updated
}

// RankingMatches reports whether ranking is exactly the projection of users:
// same length, one entry per user with the current balance, sorted descending.
func RankingMatches(ranking []RankingEntry, users []User) bool {
	if !coversUsers(ranking, users) {
		return false
	}

	balances := make(map[UserID]Amount, len(users))
	for _, u := range users {
		balances[u.ID] = u.Balance
	}
	for i, e := range ranking {
		if !balances[e.ID].Equal(e.Balance) {
			return false
		}
		if i > 0 && ranking[i-1].Balance.Cmp(e.Balance) < 0 {
			return false
		}
	}
	return true
}

func sortRanking(ranking []RankingEntry) {
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Balance.GreaterThan(ranking[j].Balance)
	})
}

// coversUsers reports whether ranking holds exactly one entry for every user.
func coversUsers(ranking []RankingEntry, users []User) bool {
	if len(ranking) != len(users) {
		return false
	}
	seen := make(map[UserID]bool, len(ranking))
	for _, e := range ranking {
		if seen[e.ID] {
			return false
		}
		seen[e.ID] = true
	}
	for _, u := range users {
		if !seen[u.ID] {
			return false
		}
	}
	return true
}
