package booking

import (
	"context"
	"errors"
	"fmt"

	bookingRepo "slotbook/database/repository/booking"
	"slotbook/models"
	"slotbook/services/payment"

	"go.uber.org/zap"
)

// Accept is the provider's decision. Guards: booking must exist, belong to the
// provider, and still be pending. The conflict detector re-runs before any
// money moves (another booking may have been confirmed in the interim), the
// capture is idempotent by booking ID, and the final pending->confirmed flip is
// a transactional compare-and-set — two concurrent accepts produce exactly one
// capture and one confirmed booking.
func (e *DefaultEngine) Accept(ctx context.Context, bookingID, providerID string) (*models.Booking, error) {
	b, err := e.getOwned(ctx, bookingID, providerID, "accept", actorProvider)
	if err != nil {
		return nil, err
	}
	if b.Status != models.BookingPending {
		return nil, &NotPendingError{BookingID: bookingID, Current: b.Status}
	}

	// Conflict re-check before capture. If the slot was lost, release the
	// customer's hold and close the booking out.
	overlapping, err := e.Repo.FindOverlapping(ctx, b.ProviderID, b.Date, b.Start, b.End, b.ID)
	if err != nil {
		return nil, fmt.Errorf("conflict re-check failed: %w", err)
	}
	if len(overlapping) > 0 {
		return nil, e.loseSlot(ctx, b)
	}

	captureRef, err := e.Processor.Capture(ctx, b.PaymentRef, payment.CaptureKey(b.ID))
	if err != nil {
		if errors.Is(err, payment.ErrAuthorizationExpired) {
			if _, termErr := e.Repo.TerminatePending(ctx, b.ID, models.BookingExpired, models.PaymentFailed, "authorization expired"); termErr != nil && !errors.Is(termErr, bookingRepo.ErrNotPending) {
				e.Logger.Error("failed to expire booking after capture expiry",
					zap.String("booking_id", b.ID), zap.Error(termErr))
			}
			e.invalidateDayCache(ctx, b.ProviderID, b.Date)
			return nil, fmt.Errorf("booking %s: %w", b.ID, payment.ErrAuthorizationExpired)
		}
		return nil, err
	}

	confirmed, err := e.Repo.ConfirmPending(ctx, b.ID, captureRef)
	if err != nil {
		switch {
		case errors.Is(err, bookingRepo.ErrNotPending):
			// Another worker won the pending CAS; the capture above was
			// idempotent, so no duplicate charge exists.
			return nil, &NotPendingError{BookingID: b.ID, Current: currentStatus(ctx, e, b.ID)}
		case errors.Is(err, bookingRepo.ErrSlotTaken):
			// Safety net: insert-time exclusion keeps active bookings
			// non-overlapping, so this path needs an out-of-band write.
			e.Logger.Error("conflicting booking appeared between capture and confirm",
				zap.String("booking_id", b.ID), zap.String("capture_ref", captureRef))
			return nil, e.loseSlot(ctx, b)
		default:
			return nil, fmt.Errorf("failed to confirm booking: %w", err)
		}
	}

	e.invalidateDayCache(ctx, b.ProviderID, b.Date)
	e.Logger.Info("booking confirmed",
		zap.String("booking_id", confirmed.ID),
		zap.String("capture_ref", captureRef),
	)
	return confirmed, nil
}

// loseSlot closes out a pending booking that lost its slot: release the hold,
// terminate, and report the conflict with the slot attached.
func (e *DefaultEngine) loseSlot(ctx context.Context, b *models.Booking) error {
	e.releaseAuthorization(ctx, b.PaymentRef, b.ID)
	if _, err := e.Repo.TerminatePending(ctx, b.ID, models.BookingCancelled, models.PaymentCanceled, "slot conflict"); err != nil && !errors.Is(err, bookingRepo.ErrNotPending) {
		e.Logger.Error("failed to terminate conflicted booking",
			zap.String("booking_id", b.ID), zap.Error(err))
	}
	e.invalidateDayCache(ctx, b.ProviderID, b.Date)
	return &ConflictError{ProviderID: b.ProviderID, Date: b.Date, Start: b.Start, End: b.End}
}

func currentStatus(ctx context.Context, e *DefaultEngine, bookingID string) models.BookingStatus {
	if cur, err := e.Repo.GetByID(ctx, bookingID); err == nil {
		return cur.Status
	}
	return ""
}
