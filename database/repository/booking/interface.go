package bookingRepo

import (
	"context"
	"errors"

	"slotbook/models"
)

// Sentinel errors surfaced by every implementation. The booking engine maps
// them onto its own error taxonomy.
var (
	ErrNotFound   = errors.New("booking not found")
	ErrNotPending = errors.New("booking is not pending")
	ErrSlotTaken  = errors.New("provider slot overlaps an active booking")

	// ErrDuplicatePaymentRef means the unique payment_ref index rejected the
	// insert: the processor replayed an authorization that is already attached
	// to an earlier booking (a re-request inside the idempotency window).
	ErrDuplicatePaymentRef = errors.New("payment ref already attached to another booking")
)

// BookingRepository is the data-access contract for booking records.
//
// InsertPending and ConfirmPending are the authoritative conflict checks: both
// re-validate interval overlap inside the same transaction that commits the
// write, so the no-overlap invariant never depends on application memory.
// The *IfPending methods are atomic compare-and-set on status; they fail with
// ErrNotPending rather than mutate a booking that has already left pending.
type BookingRepository interface {
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	GetByPaymentRef(ctx context.Context, ref string) (*models.Booking, error)
	ListByCustomer(ctx context.Context, customerID string, status models.BookingStatus) ([]models.Booking, error)
	ListByProvider(ctx context.Context, providerID string, status models.BookingStatus) ([]models.Booking, error)

	// FindOverlapping returns active (pending/confirmed) bookings for the
	// provider whose half-open interval intersects [start, end) on the given
	// date, excluding excludeID when non-empty. Used for the advisory pre-check
	// and availability listing; the authoritative check re-runs the same query
	// transactionally.
	FindOverlapping(ctx context.Context, providerID, date string, start, end int, excludeID string) ([]models.Booking, error)

	// InsertPending persists a new pending booking, re-checking overlap against
	// active bookings inside the transaction. Returns ErrSlotTaken on conflict.
	InsertPending(ctx context.Context, b *models.Booking) error

	// ConfirmPending moves a pending booking to confirmed/captured inside a
	// transaction that re-checks overlap (excluding the booking itself).
	// Returns ErrNotPending if the booking already left pending, ErrSlotTaken
	// if a conflicting booking was confirmed in the interim.
	ConfirmPending(ctx context.Context, id, captureRef string) (*models.Booking, error)

	// TerminatePending is the CAS used by decline, customer cancel and expiry:
	// pending -> the given terminal status, recording the payment outcome.
	TerminatePending(ctx context.Context, id string, to models.BookingStatus, pay models.PaymentStatus, reason string) (*models.Booking, error)

	// MarkCapturedByRef applies a processor "succeeded" fact monotonically: only
	// a still-pending booking with this payment ref is moved to
	// confirmed/captured. Returns ErrNotPending when the booking is already
	// terminal (the event is stale) and ErrNotFound when no booking owns the ref.
	MarkCapturedByRef(ctx context.Context, ref, captureRef string) (*models.Booking, error)

	// MarkClosedByRef applies a processor "failed"/"canceled" fact: a
	// still-pending booking moves to cancelled with the given payment status;
	// terminal bookings only have their payment status aligned if it is behind.
	MarkClosedByRef(ctx context.Context, ref string, pay models.PaymentStatus) (*models.Booking, error)
}
