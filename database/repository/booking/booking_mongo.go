package bookingRepo

import (
	"context"
	"fmt"

	"slotbook/database"
	"slotbook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBookingRepo implements BookingRepository on MongoDB.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

func NewMongoBookingRepo() *MongoBookingRepo {
	coll := database.MongoClient.Database("slotbook").Collection("bookings")
	return &MongoBookingRepo{coll: coll}
}

func (r *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	var b models.Booking
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&b)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking %s: %w", id, err)
	}
	return &b, nil
}

func (r *MongoBookingRepo) GetByPaymentRef(ctx context.Context, ref string) (*models.Booking, error) {
	var b models.Booking
	err := r.coll.FindOne(ctx, bson.M{"payment_ref": ref}).Decode(&b)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking by payment ref: %w", err)
	}
	return &b, nil
}

func (r *MongoBookingRepo) ListByCustomer(ctx context.Context, customerID string, status models.BookingStatus) ([]models.Booking, error) {
	filter := bson.M{"customer_id": customerID}
	if status != "" {
		filter["status"] = status
	}
	return r.list(ctx, filter)
}

func (r *MongoBookingRepo) ListByProvider(ctx context.Context, providerID string, status models.BookingStatus) ([]models.Booking, error) {
	filter := bson.M{"provider_id": providerID}
	if status != "" {
		filter["status"] = status
	}
	return r.list(ctx, filter)
}

func (r *MongoBookingRepo) list(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "start", Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.Booking
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return out, nil
}

// overlapFilter builds the half-open interval intersection predicate over
// active statuses: start < otherEnd && end > otherStart.
func overlapFilter(providerID, date string, start, end int, excludeID string) bson.M {
	filter := bson.M{
		"provider_id": providerID,
		"date":        date,
		"status":      bson.M{"$in": models.ActiveBookingStatuses},
		"start":       bson.M{"$lt": end},
		"end":         bson.M{"$gt": start},
	}
	if excludeID != "" {
		filter["id"] = bson.M{"$ne": excludeID}
	}
	return filter
}

func (r *MongoBookingRepo) FindOverlapping(ctx context.Context, providerID, date string, start, end int, excludeID string) ([]models.Booking, error) {
	return r.list(ctx, overlapFilter(providerID, date, start, end, excludeID))
}
