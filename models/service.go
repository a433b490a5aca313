package models

import "time"

// Service is a provider-defined offering. The booking engine only reads it;
// catalog management owns writes.
type Service struct {
	ID              string    `bson:"id" json:"id"`
	ProviderID      string    `bson:"provider_id" json:"provider_id"`
	Name            string    `bson:"name" json:"name"`
	PriceCents      int64     `bson:"price_cents" json:"price_cents"`
	DurationMinutes int       `bson:"duration_minutes" json:"duration_minutes"`
	Active          bool      `bson:"active" json:"active"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updated_at"`
}
