package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingRepo "slotbook/database/repository/booking"
	serviceRepo "slotbook/database/repository/service"
	"slotbook/models"
	"slotbook/services/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const minutesPerDay = 24 * 60

// Request runs the booking-request flow: validate, price, advisory conflict
// pre-check, authorize, then transactional insert with the authoritative
// conflict re-check. If the insert loses the race, the authorization created
// for this attempt is canceled before the conflict error returns.
func (e *DefaultEngine) Request(ctx context.Context, in RequestInput) (*models.Booking, error) {
	if err := e.normalizeAndValidate(ctx, &in); err != nil {
		return nil, err
	}

	breakdown := ComputeBreakdown(e.Fees, in.PriceCents)

	// Advisory pre-check: avoid authorizing a charge for a slot that is
	// already clearly taken. The transactional insert below is what the
	// no-overlap invariant actually relies on.
	overlapping, err := e.Repo.FindOverlapping(ctx, in.ProviderID, in.Date, in.Start, in.End, "")
	if err != nil {
		return nil, fmt.Errorf("conflict pre-check failed: %w", err)
	}
	if len(overlapping) > 0 {
		return nil, &ConflictError{ProviderID: in.ProviderID, Date: in.Date, Start: in.Start, End: in.End}
	}

	bookingID := uuid.New().String()
	authKey := payment.RequestKey(in.CustomerID, in.ProviderID, in.Date, in.Start, in.End)
	paymentRef, err := e.Processor.Authorize(ctx, models.AuthorizeRequest{
		AmountCents:    breakdown.AmountTotalCents,
		Currency:       e.Currency,
		IdempotencyKey: authKey,
		Description:    fmt.Sprintf("booking %s on %s", bookingID, in.Date),
		Metadata: map[string]string{
			"booking_id":  bookingID,
			"customer_id": in.CustomerID,
			"provider_id": in.ProviderID,
			"date":        in.Date,
			"interval":    fmt.Sprintf("%d-%d", in.Start, in.End),
		},
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	b := &models.Booking{
		ID:                bookingID,
		CustomerID:        in.CustomerID,
		ProviderID:        in.ProviderID,
		ServiceID:         in.ServiceID,
		Date:              in.Date,
		Start:             in.Start,
		End:               in.End,
		ServicePriceCents: breakdown.ServicePriceCents,
		PlatformFeeCents:  breakdown.PlatformFeeCents,
		AmountTotalCents:  breakdown.AmountTotalCents,
		Status:            models.BookingPending,
		PaymentStatus:     models.PaymentAuthorized,
		PaymentRef:        paymentRef,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := e.Repo.InsertPending(ctx, b); err != nil {
		// The rollback is part of the contract: never leave a dangling hold
		// for a booking that was not persisted.
		e.releaseAuthorization(ctx, paymentRef, bookingID)
		if errors.Is(err, bookingRepo.ErrSlotTaken) {
			return nil, &ConflictError{ProviderID: in.ProviderID, Date: in.Date, Start: in.Start, End: in.End}
		}
		if errors.Is(err, bookingRepo.ErrDuplicatePaymentRef) {
			// The processor replayed an already-released hold for this exact
			// slot (identical request inside the idempotency window).
			e.Logger.Warn("replayed authorization rejected by payment ref index",
				zap.String("payment_ref", paymentRef),
				zap.String("provider_id", in.ProviderID),
			)
			return nil, ErrAuthorizationReplayed
		}
		return nil, fmt.Errorf("failed to persist booking: %w", err)
	}

	e.invalidateDayCache(ctx, in.ProviderID, in.Date)
	e.scheduleExpiry(ctx, bookingID)

	e.Logger.Info("booking request accepted",
		zap.String("booking_id", bookingID),
		zap.String("provider_id", in.ProviderID),
		zap.String("payment_ref", paymentRef),
		zap.Int64("amount_total_cents", breakdown.AmountTotalCents),
	)
	return b, nil
}

func (e *DefaultEngine) normalizeAndValidate(ctx context.Context, in *RequestInput) error {
	if in.CustomerID == "" || in.ProviderID == "" {
		return newValidationError("customer_id and provider_id are required")
	}

	day, err := time.Parse("2006-01-02", in.Date)
	if err != nil {
		return newValidationError("date must be YYYY-MM-DD, got %q", in.Date)
	}
	today, _ := time.Parse("2006-01-02", time.Now().Format("2006-01-02"))
	if day.Before(today) {
		return newValidationError("date %s is in the past", in.Date)
	}

	if in.ServiceID != "" {
		svc, err := e.Services.GetByID(ctx, in.ServiceID)
		if err != nil {
			if errors.Is(err, serviceRepo.ErrNotFound) {
				return newValidationError("unknown service %s", in.ServiceID)
			}
			return fmt.Errorf("failed to load service: %w", err)
		}
		if !svc.Active {
			return newValidationError("service %s is not active", in.ServiceID)
		}
		if svc.ProviderID != in.ProviderID {
			return newValidationError("service %s does not belong to provider %s", in.ServiceID, in.ProviderID)
		}
		in.PriceCents = svc.PriceCents
		if in.End == 0 {
			in.End = in.Start + svc.DurationMinutes
		}
	}

	if in.PriceCents <= 0 {
		return newValidationError("booking has no price; supply service_id or price_cents")
	}
	if in.Start < 0 || in.End > minutesPerDay {
		return newValidationError("interval %d-%d outside the day", in.Start, in.End)
	}
	if in.End <= in.Start {
		return newValidationError("interval end %d must be after start %d", in.End, in.Start)
	}
	return nil
}

// releaseAuthorization cancels a hold created for a failed attempt. Best
// effort: cancel is idempotent and the expiry sweep is the backstop.
func (e *DefaultEngine) releaseAuthorization(ctx context.Context, paymentRef, bookingID string) {
	if err := e.Processor.Cancel(ctx, paymentRef, payment.CancelKey(bookingID)); err != nil {
		e.Logger.Error("failed to release authorization after aborted booking",
			zap.String("booking_id", bookingID),
			zap.String("payment_ref", paymentRef),
			zap.Error(err),
		)
	}
}

func (e *DefaultEngine) scheduleExpiry(ctx context.Context, bookingID string) {
	if e.Expiry == nil {
		return
	}
	window := e.AuthWindow
	if window <= 0 {
		window = 6 * 24 * time.Hour
	}
	if err := e.Expiry.ScheduleExpiry(ctx, bookingID, window); err != nil {
		e.Logger.Warn("failed to schedule authorization expiry sweep",
			zap.String("booking_id", bookingID),
			zap.Error(err),
		)
	}
}
