package ledger_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/points-ledger/ledger"
)

func TestParseAmount(t *testing.T) {
	valid := map[string]string{
		"50":     "50",
		" 12.5 ": "12.5",
		"0.01":   "0.01",
		"1e3":    "1000",
		"1e308":  "1e308",
	}
	for raw, want := range valid {
		a, err := ledger.ParseAmount(raw)
		require.NoError(t, err, raw)
		assert.True(t, a.Equal(amt(want)), raw)
	}

	for _, raw := range []string{
		"", "  ", "0", "-5", "abc", "NaN", "Infinity", "-Infinity", "5 points",
		"1e400", "1e999999999", "2e308", "1e-400", "1e-999999999",
	} {
		_, err := ledger.ParseAmount(raw)
		assert.ErrorIs(t, err, ledger.ErrInvalidRequest, raw)
	}
}

func TestParseBalance(t *testing.T) {
	b, err := ledger.ParseBalance("0")
	require.NoError(t, err)
	assert.True(t, b.IsZero())

	_, err = ledger.ParseBalance("-0.5")
	assert.ErrorIs(t, err, ledger.ErrInvalidRequest)
}

func TestAmount_JSON(t *testing.T) {
	data, err := json.Marshal(ledger.HistoryRecord{
		Timestamp: "2025-10-16T09:30:00.000Z",
		ID:        "P-001",
		Type:      ledger.EntrySubtract,
		Amount:    amt("-500"),
		Balance:   amt("-350"),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"timestamp":"2025-10-16T09:30:00.000Z","id":"P-001","type":"subtract","amount":-500,"balance":-350}`, string(data))

	var a ledger.Amount
	require.NoError(t, json.Unmarshal([]byte(`" 7.25 "`), &a))
	assert.True(t, a.Equal(amt("7.25")))

	assert.Error(t, json.Unmarshal([]byte(`"seven"`), &a))
	assert.Error(t, json.Unmarshal([]byte(`1e2000000`), &a))
}

func TestEntryType_Symbol(t *testing.T) {
	assert.Equal(t, "+", ledger.EntryAdd.Symbol())
	assert.Equal(t, "-", ledger.EntrySubtract.Symbol())
	assert.Equal(t, "*", ledger.EntryGenerate.Symbol())
	assert.Equal(t, "", ledger.EntryType("bonus").Symbol())
}
