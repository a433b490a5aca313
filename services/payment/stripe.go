package payment

import (
	"context"
	"errors"
	"strings"

	"slotbook/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"go.uber.org/zap"
)

// StripeProcessor implements Processor on Stripe PaymentIntents with manual
// capture. The API key is set process-wide (stripe.Key) at startup.
type StripeProcessor struct {
	logger *zap.Logger

	// Immutable policy, resolved once from config.
	Currency       string
	MinChargeCents int64
}

func NewStripeProcessor(logger *zap.Logger, currency string, minChargeCents int64) *StripeProcessor {
	return &StripeProcessor{
		logger:         logger,
		Currency:       strings.ToLower(currency),
		MinChargeCents: minChargeCents,
	}
}

func (p *StripeProcessor) Authorize(ctx context.Context, req models.AuthorizeRequest) (string, error) {
	if req.AmountCents <= 0 {
		return "", newValidationError("authorize amount must be positive, got %d", req.AmountCents)
	}
	if req.AmountCents < p.MinChargeCents {
		return "", newValidationError("amount %d below processor minimum %d", req.AmountCents, p.MinChargeCents)
	}
	if strings.ToLower(req.Currency) != p.Currency {
		return "", newValidationError("currency %q not allowed, platform operates in %q", req.Currency, p.Currency)
	}
	if req.IdempotencyKey == "" {
		return "", newValidationError("authorize requires an idempotency key")
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.AmountCents),
		Currency:      stripe.String(p.Currency),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(req.IdempotencyKey)
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return "", p.wrapStripeErr("authorize", req.IdempotencyKey, req.AmountCents, err)
	}

	p.logger.Info("payment authorization created",
		zap.String("payment_ref", pi.ID),
		zap.Int64("amount_cents", req.AmountCents),
		zap.String("currency", p.Currency),
		zap.String("idempotency_key", req.IdempotencyKey),
	)
	return pi.ID, nil
}

func (p *StripeProcessor) Capture(ctx context.Context, ref, idempotencyKey string) (string, error) {
	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(idempotencyKey)

	pi, err := paymentintent.Capture(ref, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeChargeExpiredForCapture {
			p.logger.Warn("capture hit expired authorization",
				zap.String("payment_ref", ref),
				zap.String("idempotency_key", idempotencyKey),
			)
			return "", ErrAuthorizationExpired
		}
		return "", p.wrapStripeErr("capture", idempotencyKey, 0, err)
	}

	captureRef := pi.ID
	if pi.LatestCharge != nil {
		captureRef = pi.LatestCharge.ID
	}
	p.logger.Info("payment captured",
		zap.String("payment_ref", ref),
		zap.String("capture_ref", captureRef),
		zap.String("idempotency_key", idempotencyKey),
	)
	return captureRef, nil
}

func (p *StripeProcessor) Cancel(ctx context.Context, ref, idempotencyKey string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(idempotencyKey)

	_, err := paymentintent.Cancel(ref, params)
	if err == nil {
		p.logger.Info("payment authorization canceled",
			zap.String("payment_ref", ref),
			zap.String("idempotency_key", idempotencyKey),
		)
		return nil
	}

	// A second cancel reports an unexpected state; if the intent is in fact
	// already canceled, that is success.
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodePaymentIntentUnexpectedState {
		status, getErr := p.RetrieveStatus(ctx, ref)
		if getErr == nil && status == models.RemoteCanceled {
			return nil
		}
	}
	return p.wrapStripeErr("cancel", idempotencyKey, 0, err)
}

func (p *StripeProcessor) RetrieveStatus(ctx context.Context, ref string) (models.RemotePaymentStatus, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := paymentintent.Get(ref, params)
	if err != nil {
		return "", p.wrapStripeErr("retrieve", "", 0, err)
	}
	switch pi.Status {
	case stripe.PaymentIntentStatusRequiresCapture:
		return models.RemoteRequiresCapture, nil
	case stripe.PaymentIntentStatusSucceeded:
		return models.RemoteSucceeded, nil
	case stripe.PaymentIntentStatusCanceled:
		return models.RemoteCanceled, nil
	case stripe.PaymentIntentStatusProcessing:
		return models.RemoteProcessing, nil
	default:
		return models.RemoteFailed, nil
	}
}

func (p *StripeProcessor) wrapStripeErr(op, idempotencyKey string, amount int64, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		p.logger.Error("payment provider error",
			zap.String("op", op),
			zap.String("code", string(stripeErr.Code)),
			zap.Int64("amount_cents", amount),
			zap.String("currency", p.Currency),
			zap.String("idempotency_key", idempotencyKey),
			zap.String("message", stripeErr.Msg),
		)
		return &ProviderError{Op: op, Code: string(stripeErr.Code), Msg: stripeErr.Msg}
	}
	p.logger.Error("payment call failed",
		zap.String("op", op),
		zap.String("idempotency_key", idempotencyKey),
		zap.Error(err),
	)
	return &ProviderError{Op: op, Code: "transport_error", Msg: err.Error()}
}
