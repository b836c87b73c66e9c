package ledger_test

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/points-ledger/ledger"
	"github.com/warp/points-ledger/ledger/store"
)

// brokenStore fails every Load.
type brokenStore struct {
	*store.Memory
}

func (brokenStore) Load(context.Context, ledger.Collection) ([]byte, error) {
	return nil, assert.AnError
}

func TestCollections_UnreadableLoadsAsEmpty(t *testing.T) {
	tests := []struct {
		name string
		raw  *string
	}{
		{"never saved", nil},
		{"empty file", ptr("")},
		{"whitespace only", ptr("  \n\t ")},
		{"null", ptr("null")},
		{"truncated json", ptr(`[{"id":"P-001","bal`)},
		{"object instead of array", ptr(`{"id":"P-001"}`)},
		{"wrong field types", ptr(`[{"id":"P-001","balance":{"x":1}}]`)},
		{"balance out of range", ptr(`[{"id":"P-001","balance":1e400}]`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := store.NewMemory()
			if tt.raw != nil {
				mem.Put(ledger.CollectionUsers, *tt.raw)
			}
			collections := ledger.NewCollections(mem, quietLogger())

			users, err := collections.LoadUsers(context.Background())

			require.NoError(t, err)
			assert.NotNil(t, users)
			assert.Empty(t, users)
		})
	}
}

func TestCollections_CorruptDocumentIsLogged(t *testing.T) {
	logger, hook := test.NewNullLogger()
	mem := store.NewMemory()
	mem.Put(ledger.CollectionHistory, "{{{")
	collections := ledger.NewCollections(mem, logger)

	history, err := collections.LoadHistory(context.Background())

	require.NoError(t, err)
	assert.Empty(t, history)
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, ledger.CollectionHistory, hook.LastEntry().Data["collection"])
}

func TestCollections_BackendErrorLoadsAsEmpty(t *testing.T) {
	collections := ledger.NewCollections(brokenStore{store.NewMemory()}, quietLogger())

	ranking, err := collections.LoadRanking(context.Background())

	require.NoError(t, err)
	assert.Empty(t, ranking)
}

func TestCollections_CancelledContext(t *testing.T) {
	collections := ledger.NewCollections(store.NewMemory(), quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := collections.LoadUsers(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestCollections_SaveIsIndentedArray(t *testing.T) {
	mem := store.NewMemory()
	collections := ledger.NewCollections(mem, quietLogger())
	ctx := context.Background()

	require.NoError(t, collections.SaveUsers(ctx, []ledger.User{{ID: "P-001", Balance: amt("12.5")}}))
	require.NoError(t, collections.SaveRanking(ctx, nil))

	snap := mem.Snapshot()
	assert.Equal(t, "[\n  {\n    \"id\": \"P-001\",\n    \"balance\": 12.5\n  }\n]", snap[ledger.CollectionUsers])
	assert.Equal(t, "[]", snap[ledger.CollectionRanking])
}

func TestCollections_AcceptsStringAmounts(t *testing.T) {
	mem := store.NewMemory()
	mem.Put(ledger.CollectionUsers, `[{"id":"P-001","balance":"150"},{"id":"P-002","balance":null}]`)
	collections := ledger.NewCollections(mem, quietLogger())

	users, err := collections.LoadUsers(context.Background())

	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.True(t, users[0].Balance.Equal(amt("150")))
	assert.True(t, users[1].Balance.IsZero())
}

func TestCollections_NumericFreeTextKept(t *testing.T) {
	// GIVEN: History written by an older server that stored games as sent
	mem := store.NewMemory()
	mem.Put(ledger.CollectionHistory, `[
		{"timestamp":"2025-10-16T08:00:01.000Z","id":"P-001","games":7,"type":"add","amount":5,"balance":105,"dealer":12.50},
		{"timestamp":"2025-10-16T08:00:00.000Z","id":"P-001","games":null,"type":"generate","amount":100,"balance":100}
	]`)
	collections := ledger.NewCollections(mem, quietLogger())

	// WHEN: Loading history
	history, err := collections.LoadHistory(context.Background())

	// THEN: Both records survive, numbers kept in their literal form
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, ledger.Text("7"), history[0].Games)
	assert.Equal(t, ledger.Text("12.50"), history[0].Dealer)
	assert.Equal(t, ledger.Text(""), history[1].Games)
}

func ptr(s string) *string { return &s }
