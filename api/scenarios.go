/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built data sets that populate the ledger with realistic
	users and table transactions, so the dashboard has something to show.

AVAILABLE SCENARIOS:

	empty:         No users, no history
	casino-night:  Six players with a round of table games
	high-rollers:  Large balances, one player deep in the red

HOW SCENARIOS WORK:
 1. Reset the ledger (all collections dropped)
 2. Create each user through the engine (writes a "generate" record)
 3. Replay the table transactions through the engine

	Nothing is written to the store directly, so the history replays to
	every balance and the ranking matches the users when loading is done.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "casino-night"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Add its seed data to 'scenarioSeeds'

NOTE:

	Scenarios reset the ledger. Disable them in production with
	LEDGER_SCENARIOS=false.

SEE ALSO:
  - handlers.go: Handler definition
  - ledger/engine.go: Reset, ApplyDelta
  - ledger/users.go: CreateUser
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/warp/points-ledger/ledger"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "empty",
		Name:        "Empty",
		Description: "No users and no history",
	},
	{
		ID:          "casino-night",
		Name:        "Casino Night",
		Description: "Six players, 100 points each, after a round of blackjack, roulette and poker",
	},
	{
		ID:          "high-rollers",
		Name:        "High Rollers",
		Description: "Large balances with one player below zero",
	},
}

type scenarioMove struct {
	ID     ledger.UserID
	Amount string
	Sign   ledger.Sign
	Games  string
	Dealer string
}

type scenarioSeed struct {
	Users []ledger.NewUser
	Moves []scenarioMove
}

func win(id ledger.UserID, amount, games, dealer string) scenarioMove {
	return scenarioMove{ID: id, Amount: amount, Sign: ledger.SignCredit, Games: games, Dealer: dealer}
}

func lose(id ledger.UserID, amount, games, dealer string) scenarioMove {
	return scenarioMove{ID: id, Amount: amount, Sign: ledger.SignDebit, Games: games, Dealer: dealer}
}

var scenarioSeeds = map[string]scenarioSeed{
	"empty": {},
	"casino-night": {
		Users: []ledger.NewUser{
			{ID: "P-001", Dealer: "Mika"},
			{ID: "P-002", Dealer: "Mika"},
			{ID: "P-003", Dealer: "Mika"},
			{ID: "P-004", Dealer: "Ren"},
			{ID: "P-005", Dealer: "Ren"},
			{ID: "P-006", Dealer: "Ren"},
		},
		Moves: []scenarioMove{
			win("P-001", "50", "Blackjack", "Mika"),
			lose("P-002", "30", "Blackjack", "Mika"),
			win("P-003", "120", "Roulette", "Ren"),
			lose("P-004", "100", "Roulette", "Ren"),
			win("P-005", "15", "Poker", "Mika"),
			lose("P-006", "60", "Poker", "Mika"),
			win("P-002", "45", "Baccarat", "Ren"),
			lose("P-001", "20", "Roulette", "Ren"),
		},
	},
	"high-rollers": {
		Users: []ledger.NewUser{
			{ID: "whale-01", Balance: "50000", Dealer: "House"},
			{ID: "whale-02", Balance: "25000", Dealer: "House"},
			{ID: "shark", Balance: "10000", Dealer: "House"},
		},
		Moves: []scenarioMove{
			win("whale-01", "12500", "Baccarat", "House"),
			lose("whale-02", "7500", "Craps", "House"),
			lose("shark", "12500", "Poker", "House"),
		},
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.scenarioMu.Lock()
	current := h.currentScenario
	h.scenarioMu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the ledger and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	if !h.ScenariosEnabled {
		writeError(w, http.StatusForbidden, "Scenario loading is disabled")
		return
	}

	var req LoadScenarioRequest
	if !decodeBody(w, r, &req) {
		return
	}

	seed, ok := scenarioSeeds[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario")
		return
	}

	// A disconnecting client must not leave a half-loaded ledger behind.
	ctx := context.WithoutCancel(r.Context())

	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()

	h.currentScenario = "" // Clear current scenario on reset
	if err := h.loadSeed(ctx, seed); err != nil {
		h.writeLedgerError(w, r, fmt.Errorf("failed to load scenario %s: %w", req.ScenarioID, err))
		return
	}
	h.currentScenario = req.ScenarioID

	h.Log.WithFields(logrus.Fields{
		"scenario": req.ScenarioID,
		"users":    len(seed.Users),
		"moves":    len(seed.Moves),
	}).Info("Scenario loaded")

	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok", Scenario: req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadSeed(ctx context.Context, seed scenarioSeed) error {
	if err := h.Engine.Reset(ctx); err != nil {
		return err
	}

	for _, u := range seed.Users {
		if _, err := h.Engine.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("create %s: %w", u.ID, err)
		}
	}

	for _, m := range seed.Moves {
		meta := ledger.Context{Games: m.Games, Dealer: m.Dealer}
		if _, err := h.Engine.ApplyDelta(ctx, m.ID, m.Amount, meta, m.Sign); err != nil {
			return fmt.Errorf("replay %s %s: %w", m.ID, m.Amount, err)
		}
	}
	return nil
}
