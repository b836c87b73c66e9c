package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/points-ledger/ledger"
	"github.com/warp/points-ledger/ledger/store"
)

func newTestQuery(t *testing.T, includeToday bool) (*ledger.QueryService, *store.Memory) {
	t.Helper()

	mem := store.NewMemory()
	q := ledger.NewQueryService(ledger.NewCollections(mem, quietLogger()), includeToday)
	q.Now = func() time.Time { return fixedNow }
	return q, mem
}

func TestGetBalance(t *testing.T) {
	q, mem := newTestQuery(t, false)
	mem.Put(ledger.CollectionUsers, `[{"id":"P-001","balance":-350}]`)

	user, err := q.GetBalance(context.Background(), "P-001")
	require.NoError(t, err)
	assert.True(t, user.Balance.Equal(amt("-350")))

	_, err = q.GetBalance(context.Background(), "ghost")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestGetHistory_SortsOutOfOrderRecords(t *testing.T) {
	// GIVEN: History written out of order by another tool
	q, mem := newTestQuery(t, false)
	mem.Put(ledger.CollectionHistory, `[
		{"timestamp":"2025-10-15T08:00:00.000Z","id":"a","type":"add","amount":1,"balance":1},
		{"timestamp":"2025-10-16T08:00:00.000Z","id":"b","type":"add","amount":1,"balance":1},
		{"timestamp":"2025-10-14T08:00:00.000Z","id":"c","type":"add","amount":1,"balance":1}
	]`)

	// WHEN: Reading history
	history, err := q.GetHistory(context.Background(), 0)

	// THEN: Newest first
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, ledger.UserID("b"), history[0].ID)
	assert.Equal(t, ledger.UserID("a"), history[1].ID)
	assert.Equal(t, ledger.UserID("c"), history[2].ID)
}

func TestGetHistory_MixedTimestampPrecision(t *testing.T) {
	// GIVEN: An external record without milliseconds in the same second as
	// one with them
	q, mem := newTestQuery(t, false)
	mem.Put(ledger.CollectionHistory, `[
		{"timestamp":"2025-10-16T09:30:00Z","id":"older","type":"add","amount":1,"balance":1},
		{"timestamp":"2025-10-16T09:30:00.500Z","id":"newer","type":"add","amount":1,"balance":1}
	]`)

	// WHEN: Reading history
	history, err := q.GetHistory(context.Background(), 0)

	// THEN: The parsed instants decide the order
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, ledger.UserID("newer"), history[0].ID)
	assert.Equal(t, ledger.UserID("older"), history[1].ID)
}

func TestGetHistory_Limit(t *testing.T) {
	q, mem := newTestQuery(t, false)
	mem.Put(ledger.CollectionHistory, `[
		{"timestamp":"2025-10-16T08:00:03.000Z","id":"a","type":"add","amount":1,"balance":3},
		{"timestamp":"2025-10-16T08:00:02.000Z","id":"a","type":"add","amount":1,"balance":2},
		{"timestamp":"2025-10-16T08:00:01.000Z","id":"a","type":"add","amount":1,"balance":1}
	]`)

	history, err := q.GetHistory(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	history, err = q.GetHistory(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestGetRanking_AsPersisted(t *testing.T) {
	q, mem := newTestQuery(t, false)
	mem.Put(ledger.CollectionRanking, `[{"id":"b","balance":20},{"id":"a","balance":10}]`)

	ranking, err := q.GetRanking(context.Background(), 0)

	require.NoError(t, err)
	assert.Equal(t, []ledger.UserID{"b", "a"}, ids(ranking))
}

func TestGetDashboardStats(t *testing.T) {
	q, mem := newTestQuery(t, true)
	mem.Put(ledger.CollectionUsers, `[{"id":"a","balance":100},{"id":"b","balance":-30.5}]`)
	mem.Put(ledger.CollectionHistory, `[
		{"timestamp":"2025-10-16T23:59:59.999Z","id":"a","type":"add","amount":1,"balance":1},
		{"timestamp":"2025-10-16T00:00:00.000Z","id":"a","type":"add","amount":1,"balance":1},
		{"timestamp":"2025-10-15T23:59:59.999Z","id":"b","type":"add","amount":1,"balance":1}
	]`)

	stats, err := q.GetDashboardStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, stats.ActiveIDs)
	assert.True(t, stats.TotalBalance.Equal(amt("69.5")))
	assert.Equal(t, 3, stats.TotalTransactions)
	require.NotNil(t, stats.TodaysTransactions)
	assert.Equal(t, 2, *stats.TodaysTransactions)
}

func TestGetDashboardStats_TodayDisabled(t *testing.T) {
	q, _ := newTestQuery(t, false)

	stats, err := q.GetDashboardStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, stats.ActiveIDs)
	assert.True(t, stats.TotalBalance.IsZero())
	assert.Nil(t, stats.TodaysTransactions)
}

func TestGetDashboardStats_Failure(t *testing.T) {
	q, _ := newTestQuery(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.GetDashboardStats(ctx)

	assert.ErrorIs(t, err, ledger.ErrAggregationFailure)
}
