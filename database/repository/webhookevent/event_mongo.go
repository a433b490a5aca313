package webhookeventRepo

import (
	"context"
	"fmt"
	"time"

	"slotbook/database"
	"slotbook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoWebhookEventRepo implements WebhookEventRepository on MongoDB.
type MongoWebhookEventRepo struct {
	coll *mongo.Collection
}

func NewMongoWebhookEventRepo() *MongoWebhookEventRepo {
	coll := database.MongoClient.Database("slotbook").Collection("webhook_events")
	return &MongoWebhookEventRepo{coll: coll}
}

func (r *MongoWebhookEventRepo) Claim(ctx context.Context, ev *models.ProcessedWebhookEvent) error {
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now()
	}
	_, err := r.coll.InsertOne(ctx, ev)
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadyProcessed
	}
	if err != nil {
		return fmt.Errorf("failed to record webhook event: %w", err)
	}
	return nil
}

func (r *MongoWebhookEventRepo) Release(ctx context.Context, eventID string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"event_id": eventID}); err != nil {
		return fmt.Errorf("failed to release webhook event claim: %w", err)
	}
	return nil
}

// EnsureIndexes creates the unique dedup index and a retention TTL.
func (r *MongoWebhookEventRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_event_id"),
		},
		// Processed events are only needed for dedup; 30 days is far beyond any
		// provider redelivery window.
		{
			Keys:    bson.D{{Key: "received_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(30 * 24 * 3600).SetName("received_at_ttl"),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create webhook event indexes: %w", err)
	}
	return nil
}
