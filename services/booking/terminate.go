package booking

import (
	"context"
	"errors"

	bookingRepo "slotbook/database/repository/booking"
	"slotbook/models"
	"slotbook/services/payment"

	"go.uber.org/zap"
)

type actorRole int

const (
	actorProvider actorRole = iota
	actorCustomer
)

func (e *DefaultEngine) getOwned(ctx context.Context, bookingID, actorID, action string, role actorRole) (*models.Booking, error) {
	b, err := e.Repo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	owner := b.ProviderID
	if role == actorCustomer {
		owner = b.CustomerID
	}
	if owner != actorID {
		return nil, &AuthorizationError{Action: action, ActorID: actorID}
	}
	return b, nil
}

// Decline is the provider rejecting a pending request: release the hold,
// record the optional reason. Only valid from pending.
func (e *DefaultEngine) Decline(ctx context.Context, bookingID, providerID, reason string) (*models.Booking, error) {
	b, err := e.getOwned(ctx, bookingID, providerID, "decline", actorProvider)
	if err != nil {
		return nil, err
	}
	if b.Status != models.BookingPending {
		return nil, &NotPendingError{BookingID: bookingID, Current: b.Status}
	}
	return e.terminate(ctx, b, models.BookingDeclined, reason)
}

// Cancel is customer-initiated and only supported while pending. Cancelling a
// confirmed booking returns ErrContactProvider and never mutates state.
func (e *DefaultEngine) Cancel(ctx context.Context, bookingID, customerID, reason string) (*models.Booking, error) {
	b, err := e.getOwned(ctx, bookingID, customerID, "cancel", actorCustomer)
	if err != nil {
		return nil, err
	}
	if b.Status == models.BookingConfirmed {
		return nil, ErrContactProvider
	}
	if b.Status != models.BookingPending {
		return nil, &NotPendingError{BookingID: bookingID, Current: b.Status}
	}
	return e.terminate(ctx, b, models.BookingCancelled, reason)
}

// ExpireIfPending is the deferred sweep for bookings whose authorization window
// lapsed without a provider decision. Safe to run against any booking: anything
// no longer pending is left alone.
func (e *DefaultEngine) ExpireIfPending(ctx context.Context, bookingID string) error {
	b, err := e.Repo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil
		}
		return err
	}
	if b.Status != models.BookingPending {
		return nil
	}
	if _, err := e.terminate(ctx, b, models.BookingExpired, "authorization window lapsed"); err != nil {
		var notPending *NotPendingError
		if errors.As(err, &notPending) {
			return nil
		}
		return err
	}
	e.Logger.Info("pending booking expired", zap.String("booking_id", bookingID))
	return nil
}

// terminate releases the hold and flips a pending booking to a terminal state
// with a CAS; the cancel call is idempotent so a retried termination cannot
// double-release.
func (e *DefaultEngine) terminate(ctx context.Context, b *models.Booking, to models.BookingStatus, reason string) (*models.Booking, error) {
	if b.PaymentRef != "" {
		if err := e.Processor.Cancel(ctx, b.PaymentRef, payment.CancelKey(b.ID)); err != nil {
			return nil, err
		}
	}

	terminated, err := e.Repo.TerminatePending(ctx, b.ID, to, models.PaymentCanceled, reason)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotPending) {
			return nil, &NotPendingError{BookingID: b.ID, Current: currentStatus(ctx, e, b.ID)}
		}
		return nil, err
	}

	e.invalidateDayCache(ctx, b.ProviderID, b.Date)
	e.Logger.Info("booking terminated",
		zap.String("booking_id", b.ID),
		zap.String("status", string(to)),
		zap.String("reason", reason),
	)
	return terminated, nil
}
