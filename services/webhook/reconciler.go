package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	bookingRepo "slotbook/database/repository/booking"
	webhookeventRepo "slotbook/database/repository/webhookevent"
	"slotbook/models"
	"slotbook/services/payment"

	"github.com/stripe/stripe-go/v76"
	stripewebhook "github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// Reconciler applies processor-reported payment facts to bookings. It is safe
// under at-least-once, reordered delivery: events are deduplicated durably and
// applied through monotonic compare-and-set updates, so replays and stale
// events are acknowledged without side effects.
type Reconciler struct {
	Bookings  bookingRepo.BookingRepository
	Events    webhookeventRepo.WebhookEventRepository
	Processor payment.Processor
	Secret    string
	Logger    *zap.Logger
}

// HandleDelivery verifies the raw payload's signature and applies the event.
// A nil return means the delivery was evaluated and must be acknowledged
// (including duplicates, unverifiable payloads and events that belong to other
// subsystems); a non-nil return means a transient failure the sender should
// retry.
func (r *Reconciler) HandleDelivery(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := stripewebhook.ConstructEvent(payload, sigHeader, r.Secret)
	if err != nil {
		// A delivery that fails signature verification can never become valid
		// on redelivery, so it is discarded after logging instead of bouncing
		// back for days of retries. It is never applied.
		r.Logger.Warn("discarded unverifiable webhook delivery", zap.Error(err))
		return nil
	}
	return r.ApplyEvent(ctx, event)
}

// ApplyEvent is the single reconciliation entry point: dedup, then look up the
// owning booking by payment ref, then apply the fact monotonically.
func (r *Reconciler) ApplyEvent(ctx context.Context, event stripe.Event) error {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		// Not a payment-intent shaped event; nothing here to reconcile.
		r.Logger.Info("ignoring non payment-intent event",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)))
		return nil
	}

	claim := &models.ProcessedWebhookEvent{
		EventID:    event.ID,
		Type:       string(event.Type),
		PaymentRef: pi.ID,
	}
	if err := r.Events.Claim(ctx, claim); err != nil {
		if errors.Is(err, webhookeventRepo.ErrAlreadyProcessed) {
			r.Logger.Info("webhook event already processed",
				zap.String("event_id", event.ID))
			return nil
		}
		return fmt.Errorf("webhook dedup store unavailable: %w", err)
	}

	if err := r.apply(ctx, event, &pi); err != nil {
		// Give the claim back so the sender's retry is not swallowed.
		if relErr := r.Events.Release(ctx, event.ID); relErr != nil {
			r.Logger.Error("failed to release webhook claim after transient failure",
				zap.String("event_id", event.ID), zap.Error(relErr))
		}
		return err
	}
	return nil
}

func (r *Reconciler) apply(ctx context.Context, event stripe.Event, pi *stripe.PaymentIntent) error {
	b, err := r.Bookings.GetByPaymentRef(ctx, pi.ID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			// The ref may belong to another subsystem; acknowledge and move on.
			r.Logger.Info("webhook event does not match any booking",
				zap.String("event_id", event.ID),
				zap.String("payment_ref", pi.ID))
			return nil
		}
		return fmt.Errorf("booking lookup failed: %w", err)
	}

	// The event's amount must agree with the booking's own audit copy. A
	// mismatch is metadata tampering: log it, never apply it.
	if pi.Amount != 0 && pi.Amount != b.AmountTotalCents {
		r.Logger.Error("webhook amount disagrees with booking record",
			zap.String("event_id", event.ID),
			zap.String("booking_id", b.ID),
			zap.Int64("event_amount_cents", pi.Amount),
			zap.Int64("booking_amount_cents", b.AmountTotalCents))
		return nil
	}

	switch event.Type {
	case "payment_intent.succeeded":
		return r.applyCaptured(ctx, event.ID, b, pi)
	case "payment_intent.payment_failed":
		return r.applyClosed(ctx, event.ID, b, models.PaymentFailed)
	case "payment_intent.canceled":
		return r.applyClosed(ctx, event.ID, b, models.PaymentCanceled)
	case "payment_intent.amount_capturable_updated":
		// The hold is in place; the synchronous flow already recorded it.
		return nil
	default:
		r.Logger.Debug("ignoring webhook event type",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)))
		return nil
	}
}

// applyCaptured moves a still-pending booking to confirmed/captured. Stale
// success events — arriving after a decline, cancel or expiry — must not
// resurrect the booking, so the update only matches pending.
func (r *Reconciler) applyCaptured(ctx context.Context, eventID string, b *models.Booking, pi *stripe.PaymentIntent) error {
	// Independently verify with the processor rather than trusting the
	// delivered payload alone.
	status, err := r.Processor.RetrieveStatus(ctx, pi.ID)
	if err != nil {
		return fmt.Errorf("status verification failed: %w", err)
	}
	if status != models.RemoteSucceeded {
		r.Logger.Warn("success event contradicted by processor status",
			zap.String("event_id", eventID),
			zap.String("booking_id", b.ID),
			zap.String("remote_status", string(status)))
		return nil
	}

	captureRef := pi.ID
	if pi.LatestCharge != nil {
		captureRef = pi.LatestCharge.ID
	}

	updated, err := r.Bookings.MarkCapturedByRef(ctx, pi.ID, captureRef)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotPending) || errors.Is(err, bookingRepo.ErrNotFound) {
			r.Logger.Info("stale success event left terminal booking untouched",
				zap.String("event_id", eventID),
				zap.String("booking_id", b.ID),
				zap.String("status", string(b.Status)))
			return nil
		}
		return fmt.Errorf("captured reconciliation failed: %w", err)
	}

	r.Logger.Info("booking confirmed by webhook reconciliation",
		zap.String("event_id", eventID),
		zap.String("booking_id", updated.ID))
	return nil
}

// applyClosed records a failure or cancellation: a still-pending booking is
// cancelled, a terminal one only has its payment status aligned.
func (r *Reconciler) applyClosed(ctx context.Context, eventID string, b *models.Booking, pay models.PaymentStatus) error {
	updated, err := r.Bookings.MarkClosedByRef(ctx, b.PaymentRef, pay)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("closed reconciliation failed: %w", err)
	}

	r.Logger.Info("payment closure reconciled",
		zap.String("event_id", eventID),
		zap.String("booking_id", updated.ID),
		zap.String("payment_status", string(pay)))
	return nil
}
