package ledger_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/points-ledger/ledger"
)

func TestCreateUser_RecordsGenerateEntry(t *testing.T) {
	engine, _ := newTestEngine(t, ledger.RankingRebuild)

	user, err := engine.CreateUser(context.Background(), ledger.NewUser{ID: "P-001", Balance: "250", Dealer: "Mika"})

	require.NoError(t, err)
	assert.True(t, user.Balance.Equal(amt("250")))

	users, history, ranking := loadAll(t, engine)
	require.Len(t, history, 1)
	assert.Equal(t, ledger.EntryGenerate, history[0].Type)
	assert.Equal(t, ledger.Text("Mika"), history[0].Dealer)
	assertReplays(t, users, history)
	assert.True(t, ledger.RankingMatches(ranking, users))
}

func TestCreateUser_DefaultBalanceAndGeneratedID(t *testing.T) {
	engine, _ := newTestEngine(t, ledger.RankingRebuild)

	user, err := engine.CreateUser(context.Background(), ledger.NewUser{})

	require.NoError(t, err)
	assert.True(t, user.Balance.Equal(amt(ledger.DefaultInitialBalance)))
	assert.True(t, strings.HasPrefix(string(user.ID), "U-"))
	assert.True(t, ledger.ValidUserID(user.ID))
}

func TestCreateUser_GeneratedIDRetriesOnCollision(t *testing.T) {
	engine, _ := newTestEngine(t, ledger.RankingRebuild)
	mustCreate(t, engine, "U-AAAAAAAA", "1")

	ids := []ledger.UserID{"U-AAAAAAAA", "U-AAAAAAAA", "U-BBBBBBBB"}
	engine.NewUserID = func() ledger.UserID {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	user, err := engine.CreateUser(context.Background(), ledger.NewUser{})

	require.NoError(t, err)
	assert.Equal(t, ledger.UserID("U-BBBBBBBB"), user.ID)
}

func TestCreateUser_ZeroBalanceAllowed(t *testing.T) {
	engine, _ := newTestEngine(t, ledger.RankingRebuild)

	user, err := engine.CreateUser(context.Background(), ledger.NewUser{ID: "P-001", Balance: "0"})

	require.NoError(t, err)
	assert.True(t, user.Balance.IsZero())
}

func TestCreateUser_Rejections(t *testing.T) {
	tests := []struct {
		name string
		req  ledger.NewUser
		err  error
	}{
		{"duplicate", ledger.NewUser{ID: "P-001"}, ledger.ErrUserExists},
		{"too short", ledger.NewUser{ID: "ab"}, ledger.ErrInvalidRequest},
		{"too long", ledger.NewUser{ID: ledger.UserID(strings.Repeat("x", 33))}, ledger.ErrInvalidRequest},
		{"bad characters", ledger.NewUser{ID: "P 001"}, ledger.ErrInvalidRequest},
		{"negative balance", ledger.NewUser{ID: "P-002", Balance: "-1"}, ledger.ErrInvalidRequest},
		{"NaN balance", ledger.NewUser{ID: "P-002", Balance: "NaN"}, ledger.ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, mem := newTestEngine(t, ledger.RankingRebuild)
			mustCreate(t, engine, "P-001", "100")
			before := mem.Snapshot()

			_, err := engine.CreateUser(context.Background(), tt.req)

			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, before, mem.Snapshot())
		})
	}
}

func TestGenerateUserID(t *testing.T) {
	id := ledger.GenerateUserID()

	assert.Regexp(t, `^U-[0-9A-F]{8}$`, string(id))
	assert.NotEqual(t, id, ledger.GenerateUserID())
}
