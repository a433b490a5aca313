package models

import "time"

// ProcessedWebhookEvent is the durable dedup record for at-least-once webhook
// delivery. A unique index on event_id makes the insert the claim.
type ProcessedWebhookEvent struct {
	EventID    string    `bson:"event_id" json:"event_id"`
	Type       string    `bson:"type" json:"type"`
	PaymentRef string    `bson:"payment_ref,omitempty" json:"payment_ref,omitempty"`
	ReceivedAt time.Time `bson:"received_at" json:"received_at"`
}
