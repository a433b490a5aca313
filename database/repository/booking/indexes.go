package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the bookings collection.
func (r *MongoBookingRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		// Unique index on booking ID
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// Payment refs are immutable join keys for the reconciler; unique and
		// sparse because a booking may fail before authorization.
		{
			Keys:    bson.D{{Key: "payment_ref", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("unique_payment_ref"),
		},
		// Primary conflict-query pattern
		{
			Keys: bson.D{
				{Key: "provider_id", Value: 1},
				{Key: "date", Value: 1},
				{Key: "status", Value: 1},
				{Key: "start", Value: 1},
				{Key: "end", Value: 1},
			},
			Options: options.Index().SetName("provider_date_status_interval_idx"),
		},
		{
			Keys:    bson.D{{Key: "customer_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("customer_status_idx"),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}
