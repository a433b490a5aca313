package webhookeventRepo

import (
	"context"
	"errors"

	"slotbook/models"
)

// ErrAlreadyProcessed means another delivery of the same event already claimed it.
var ErrAlreadyProcessed = errors.New("webhook event already processed")

// WebhookEventRepository is the durable dedup set for processed webhook events.
// Claim is insert-first: whichever delivery inserts the event_id wins, every
// later delivery observes ErrAlreadyProcessed and acknowledges without side
// effects.
type WebhookEventRepository interface {
	Claim(ctx context.Context, ev *models.ProcessedWebhookEvent) error

	// Release drops a claim so a redelivery can retry the event. Used when
	// processing fails transiently after the claim was taken.
	Release(ctx context.Context, eventID string) error
}
