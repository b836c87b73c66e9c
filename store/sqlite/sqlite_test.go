package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/points-ledger/ledger"
	"github.com/warp/points-ledger/store/sqlite"
)

func newTestStore(t *testing.T) (*sqlite.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	s, err := sqlite.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestStore_MissingDocumentLoadsNil(t *testing.T) {
	s, _ := newTestStore(t)

	data, err := s.Load(context.Background(), ledger.CollectionRanking)

	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestStore_SaveAndLoad(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, ledger.CollectionUsers, []byte(`[{"id":"a","balance":1}]`)))
	require.NoError(t, s.Save(ctx, ledger.CollectionUsers, []byte(`[{"id":"a","balance":2}]`)))

	data, err := s.Load(ctx, ledger.CollectionUsers)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a","balance":2}]`, string(data))

	updatedAt, err := s.UpdatedAt(ctx, ledger.CollectionUsers)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), updatedAt, time.Minute)

	never, err := s.UpdatedAt(ctx, ledger.CollectionHistory)
	require.NoError(t, err)
	assert.True(t, never.IsZero())
}

func TestStore_Reset(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, ledger.CollectionHistory, []byte(`[]`)))

	require.NoError(t, s.Reset(ctx))

	data, err := s.Load(ctx, ledger.CollectionHistory)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestStore_ReopenKeepsDataAndSkipsMigrations(t *testing.T) {
	// GIVEN: A database with one saved document
	s, path := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, ledger.CollectionUsers, []byte(`[]`)))
	require.NoError(t, s.Close())

	// WHEN: Opening it again (migrations already applied)
	reopened, err := sqlite.New(path)
	require.NoError(t, err)
	defer reopened.Close()

	// THEN: The document is still there
	data, err := reopened.Load(ctx, ledger.CollectionUsers)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))
}

func TestStore_InMemory(t *testing.T) {
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	engine := ledger.NewEngine(ledger.NewCollections(s, nil), ledger.RankingIncremental, nil)
	_, err = engine.CreateUser(ctx, ledger.NewUser{ID: "P-001"})
	require.NoError(t, err)
	_, err = engine.Credit(ctx, "P-001", "5", ledger.Context{})
	require.NoError(t, err)

	ranking, err := ledger.NewCollections(s, nil).LoadRanking(ctx)
	require.NoError(t, err)
	require.Len(t, ranking, 1)
	assert.Equal(t, "105", ranking[0].Balance.String())
}
