/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. The dashboard reads
  users, history records and ranking entries in exactly the shape they are
  persisted, so those are returned as the ledger types themselves. Only
  request bodies and response wrappers live here.

NAMING CONVENTION:
  - *Request:  Request body types from clients
  - *Response: Response wrappers
  - *DTO:      Other response types

LOOSE FIELDS:
  The browser front-end sends amounts sometimes as numbers, sometimes as
  strings typed into an input. ledger.Text accepts either on decode;
  anything else (objects, arrays, booleans) fails the decode and the
  request is rejected as invalid.

SEE ALSO:
  - handlers.go: Uses these types
  - ledger/types.go: User, HistoryRecord, RankingEntry
*/
package api

import "github.com/warp/points-ledger/ledger"

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// AdjustRequest is the body of POST /api/add and POST /api/subtract.
type AdjustRequest struct {
	ID     ledger.Text `json:"id"`
	Amount ledger.Text `json:"amount"`
	Games  ledger.Text `json:"games"`
	Dealer ledger.Text `json:"dealer"`
}

// MutationResponse is returned after a successful credit or debit.
type MutationResponse struct {
	Success bool          `json:"success"`
	Balance ledger.Amount `json:"balance"`
}

// CreateUserRequest is the body of POST /api/users.
type CreateUserRequest struct {
	ID      ledger.Text `json:"id"`
	Balance ledger.Text `json:"balance"`
	Dealer  ledger.Text `json:"dealer"`
}

// UserResponse wraps a created user.
type UserResponse struct {
	User ledger.User `json:"user"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the body of POST /api/scenarios/load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// StatusResponse is a plain acknowledgement.
type StatusResponse struct {
	Status   string `json:"status"`
	Scenario string `json:"scenario,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
