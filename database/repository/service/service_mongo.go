package serviceRepo

import (
	"context"
	"fmt"

	"slotbook/database"
	"slotbook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoServiceRepo implements ServiceRepository on MongoDB.
type MongoServiceRepo struct {
	coll *mongo.Collection
}

func NewMongoServiceRepo() *MongoServiceRepo {
	coll := database.MongoClient.Database("slotbook").Collection("services")
	return &MongoServiceRepo{coll: coll}
}

func (r *MongoServiceRepo) GetByID(ctx context.Context, id string) (*models.Service, error) {
	var s models.Service
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch service %s: %w", id, err)
	}
	return &s, nil
}

func (r *MongoServiceRepo) ListByProvider(ctx context.Context, providerID string) ([]models.Service, error) {
	cur, err := r.coll.Find(ctx, bson.M{"provider_id": providerID, "active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.Service
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode services: %w", err)
	}
	return out, nil
}
