/*
errors.go - Centralized error types for the ledger

PURPOSE:
  All error types in one place for consistency and discoverability.
  The HTTP layer maps these to status codes with errors.Is().

ERROR CATEGORIES:
  1. Client errors - Invalid input, unknown user, duplicate user
  2. Storage errors - Unreadable documents (recovered, never surfaced)
  3. Aggregation errors - Dashboard statistics failures

SEE ALSO:
  - collections.go: Recovers ErrStorageUnreadable
  - api/handlers.go: Maps errors to HTTP status codes
*/
package ledger

import "errors"

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRequest is returned for an empty id or an amount that is not
	// a positive finite number. Raised before any store access.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNotFound is returned when the user id is not in the Users collection.
	ErrNotFound = errors.New("ID not found")

	// ErrUserExists is returned when creating a user whose id is taken.
	ErrUserExists = errors.New("ID already exists")

	// ErrStorageUnreadable marks a persisted document that could not be read
	// or decoded. Collections treats it as an empty collection.
	ErrStorageUnreadable = errors.New("storage unreadable")

	// ErrAggregationFailure is returned when dashboard statistics cannot be computed.
	ErrAggregationFailure = errors.New("failed to compute stats")
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}

// IsNotFound returns true if the error indicates a missing user.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict returns true if the error indicates a duplicate user.
func IsConflict(err error) bool {
	return errors.Is(err, ErrUserExists)
}
