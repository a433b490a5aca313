package booking

import (
	"errors"
	"fmt"

	"slotbook/models"
)

var (
	ErrNotFound = errors.New("booking not found")

	// ErrContactProvider is the deliberate answer to cancelling a confirmed
	// booking: unsupported online, the customer has to reach the provider.
	ErrContactProvider = errors.New("confirmed bookings cannot be cancelled here; contact the provider")

	// ErrAuthorizationReplayed means re-requesting an identical slot inside the
	// processor's idempotency window replayed a hold that was already released
	// and attached to an earlier booking. Retrying after the window clears it.
	ErrAuthorizationReplayed = errors.New("a released hold for this slot was replayed; retry shortly")
)

// ValidationError rejects bad input before any payment call happens.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func newValidationError(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError carries the slot, not just the booking, so a client knows to
// re-query availability.
type ConflictError struct {
	ProviderID string
	Date       string
	Start      int
	End        int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot %s %d-%d for provider %s overlaps an active booking",
		e.Date, e.Start, e.End, e.ProviderID)
}

// AuthorizationError means the acting party does not own the action.
type AuthorizationError struct {
	Action  string
	ActorID string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("actor %s is not allowed to %s this booking", e.ActorID, e.Action)
}

// NotPendingError is the deterministic answer to retrying a transition on a
// booking that already left pending. It never re-triggers a payment call.
type NotPendingError struct {
	BookingID string
	Current   models.BookingStatus
}

func (e *NotPendingError) Error() string {
	return fmt.Sprintf("booking %s is %s, not pending", e.BookingID, e.Current)
}
