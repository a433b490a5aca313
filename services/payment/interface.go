package payment

import (
	"context"

	"slotbook/models"
)

// Processor wraps the remote payment processor. Every mutating call carries a
// deterministic idempotency key derived from business identifiers, so a client
// retry lands on the same remote object instead of a duplicate charge.
type Processor interface {
	// Authorize places a hold without capturing funds and returns the
	// processor's authorization reference.
	Authorize(ctx context.Context, req models.AuthorizeRequest) (string, error)

	// Capture converts a hold into a charge. An expired authorization surfaces
	// as ErrAuthorizationExpired so callers can move the booking to expired
	// instead of retrying blindly.
	Capture(ctx context.Context, ref, idempotencyKey string) (string, error)

	// Cancel releases a hold. Safe to call twice; a hold that is already
	// canceled counts as success.
	Cancel(ctx context.Context, ref, idempotencyKey string) error

	// RetrieveStatus fetches the processor's own view of an authorization. The
	// reconciliation path uses it instead of trusting client-supplied claims.
	RetrieveStatus(ctx context.Context, ref string) (models.RemotePaymentStatus, error)
}
