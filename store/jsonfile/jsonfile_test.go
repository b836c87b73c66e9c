package jsonfile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/points-ledger/ledger"
	"github.com/warp/points-ledger/store/jsonfile"
)

func newTestStore(t *testing.T) *jsonfile.Store {
	t.Helper()
	s, err := jsonfile.New(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	return s
}

func TestStore_MissingFileLoadsNil(t *testing.T) {
	s := newTestStore(t)

	data, err := s.Load(context.Background(), ledger.CollectionUsers)

	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestStore_SaveWritesReadableFile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	doc := []byte("[\n  {\n    \"id\": \"P-001\",\n    \"balance\": 100\n  }\n]")

	require.NoError(t, s.Save(ctx, ledger.CollectionUsers, doc))

	onDisk, err := os.ReadFile(filepath.Join(s.Dir(), "users.json"))
	require.NoError(t, err)
	assert.Equal(t, doc, onDisk)

	loaded, err := s.Load(ctx, ledger.CollectionUsers)
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)
}

func TestStore_SaveOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, ledger.CollectionHistory, []byte(`[1,2,3]`)))
	require.NoError(t, s.Save(ctx, ledger.CollectionHistory, []byte(`[]`)))

	loaded, err := s.Load(ctx, ledger.CollectionHistory)
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), loaded)
}

func TestStore_Reset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, c := range ledger.AllCollections {
		require.NoError(t, s.Save(ctx, c, []byte(`[]`)))
	}

	require.NoError(t, s.Reset(ctx))
	require.NoError(t, s.Reset(ctx), "reset of an empty store is a no-op")

	for _, c := range ledger.AllCollections {
		_, err := os.Stat(s.Path(c))
		assert.True(t, os.IsNotExist(err), c)
	}
}

func TestStore_EngineRoundTrip(t *testing.T) {
	// GIVEN: An engine over flat files
	s := newTestStore(t)
	ctx := context.Background()
	engine := ledger.NewEngine(ledger.NewCollections(s, nil), ledger.RankingRebuild, nil)

	_, err := engine.CreateUser(ctx, ledger.NewUser{ID: "P-001", Balance: "100"})
	require.NoError(t, err)

	// WHEN: A debit drives the balance negative
	balance, err := engine.Debit(ctx, "P-001", "250", ledger.Context{Games: "Roulette"})
	require.NoError(t, err)

	// THEN: A fresh store over the same directory sees the same state
	reopened, err := jsonfile.New(s.Dir())
	require.NoError(t, err)
	users, err := ledger.NewCollections(reopened, nil).LoadUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.True(t, users[0].Balance.Equal(balance))
	assert.Equal(t, "-150", balance.String())
}
