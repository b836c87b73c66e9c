/*
handlers.go - HTTP API handlers for the points ledger

PURPOSE:
  Exposes the ledger engine and query service via a JSON API. Handles
  HTTP request/response, JSON serialization, and delegates to ledger
  logic.

ENDPOINTS:
  Balances:
    GET    /api/balance/{id}      Current balance of one user
    POST   /api/add               Credit a user
    POST   /api/subtract          Debit a user

  Users:
    POST   /api/users             Register a user

  Dashboard:
    GET    /api/history           History, newest first (?limit=N)
    GET    /api/ranking           Leaderboard (?limit=N)
    GET    /api/dashboard-stats   Aggregate counters

  Scenarios:
    GET    /api/scenarios         List demo scenarios
    GET    /api/scenarios/current Currently loaded scenario
    POST   /api/scenarios/load    Load a demo scenario

REQUEST FLOW:
  1. Parse HTTP request
  2. Call ledger (engine for writes, query service for reads)
  3. Serialize response
  4. Map errors to status codes

ERROR HANDLING:
  Errors are returned as {"error": "..."} with a fixed message per status:
  - 400: invalid request (bad id, amount, body, limit)
  - 404: ID not found
  - 409: ID already exists
  - 500: internal error, details logged only

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/warp/points-ledger/ledger"
)

// Fixed error messages. The dashboard matches on some of them.
const (
	msgInvalidRequest = "invalid request"
	msgNotFound       = "ID not found"
	msgUserExists     = "ID already exists"
	msgStatsFailed    = "Failed to compute stats"
	msgInternal       = "internal server error"
)

// maxBodyBytes bounds request bodies; every body here is a handful of fields.
const maxBodyBytes = 64 << 10

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *ledger.Engine
	Query  *ledger.QueryService
	Log    logrus.FieldLogger

	// ScenariosEnabled allows POST /api/scenarios/load, which wipes the ledger.
	ScenariosEnabled bool

	// Track currently loaded scenario
	scenarioMu      sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler.
func NewHandler(engine *ledger.Engine, query *ledger.QueryService, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = engine.Log
	}
	return &Handler{
		Engine:           engine,
		Query:            query,
		Log:              log,
		ScenariosEnabled: true,
	}
}

// =============================================================================
// BALANCE HANDLERS
// =============================================================================

// GetBalance returns the current balance of one user.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := ledger.UserID(chi.URLParam(r, "id"))

	user, err := h.Query.GetBalance(r.Context(), id)
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// AddPoints credits a user.
func (h *Handler) AddPoints(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, ledger.SignCredit)
}

// SubtractPoints debits a user. The balance may go negative.
func (h *Handler) SubtractPoints(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, ledger.SignDebit)
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request, sign ledger.Sign) {
	var req AdjustRequest
	if !decodeBody(w, r, &req) {
		return
	}

	meta := ledger.Context{
		Games:  req.Games.String(),
		Dealer: req.Dealer.String(),
	}

	balance, err := h.Engine.ApplyDelta(r.Context(), ledger.UserID(req.ID), req.Amount.String(), meta, sign)
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, MutationResponse{Success: true, Balance: balance})
}

// =============================================================================
// USER HANDLERS
// =============================================================================

// CreateUser registers a user. Both id and balance are optional.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.Engine.CreateUser(r.Context(), ledger.NewUser{
		ID:      ledger.UserID(strings.TrimSpace(req.ID.String())),
		Balance: req.Balance.String(),
		Dealer:  req.Dealer.String(),
	})
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, UserResponse{User: user})
}

// =============================================================================
// DASHBOARD HANDLERS
// =============================================================================

// GetHistory returns history records newest first.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	history, err := h.Query.GetHistory(r.Context(), limit)
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, history)
}

// GetRanking returns the leaderboard, highest balance first.
func (h *Handler) GetRanking(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	ranking, err := h.Query.GetRanking(r.Context(), limit)
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ranking)
}

// GetDashboardStats returns the aggregate counters.
func (h *Handler) GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Query.GetDashboardStats(r.Context())
	if err != nil {
		h.Log.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"error":      err,
		}).Error("Failed to compute stats")
		writeError(w, http.StatusInternalServerError, msgStatsFailed)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Healthz reports that the process is serving.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeLedgerError maps ledger errors to HTTP responses. Unexpected errors
// are logged with the request id and answered with a generic 500.
func (h *Handler) writeLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, msgInvalidRequest)
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, msgNotFound)
	case ledger.IsConflict(err):
		writeError(w, http.StatusConflict, msgUserExists)
	case errors.Is(err, ledger.ErrAggregationFailure):
		writeError(w, http.StatusInternalServerError, msgStatsFailed)
	default:
		h.Log.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"error":      err,
		}).Error("Request failed")
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

// decodeBody decodes a JSON body into dst. A missing, empty or malformed
// body is answered with 400 and false is returned.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil {
		writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return false
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return false
	}
	return true
}

// parseLimit reads ?limit=N. Absent means 0 (no limit).
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return 0, false
	}
	return limit, true
}
