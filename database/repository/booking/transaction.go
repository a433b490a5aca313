package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"slotbook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// withTransaction runs fn inside a session transaction, aborting on error.
// Mongo has no range-exclusion constraint, so the overlap re-query inside the
// transaction is what makes the conflict check authoritative.
func (r *MongoBookingRepo) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	client := r.coll.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := fn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	})
}

func (r *MongoBookingRepo) InsertPending(ctx context.Context, b *models.Booking) error {
	return r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		n, err := r.coll.CountDocuments(sc, overlapFilter(b.ProviderID, b.Date, b.Start, b.End, ""))
		if err != nil {
			return fmt.Errorf("overlap re-check failed: %w", err)
		}
		if n > 0 {
			return ErrSlotTaken
		}
		if _, err := r.coll.InsertOne(sc, b); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrDuplicatePaymentRef
			}
			return fmt.Errorf("insert booking failed: %w", err)
		}
		return nil
	})
}

func (r *MongoBookingRepo) ConfirmPending(ctx context.Context, id, captureRef string) (*models.Booking, error) {
	var confirmed models.Booking
	err := r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		var b models.Booking
		if err := r.coll.FindOne(sc, bson.M{"id": id}).Decode(&b); err != nil {
			if err == mongo.ErrNoDocuments {
				return ErrNotFound
			}
			return fmt.Errorf("failed to fetch booking %s: %w", id, err)
		}
		if b.Status != models.BookingPending {
			return ErrNotPending
		}

		n, err := r.coll.CountDocuments(sc, overlapFilter(b.ProviderID, b.Date, b.Start, b.End, b.ID))
		if err != nil {
			return fmt.Errorf("overlap re-check failed: %w", err)
		}
		if n > 0 {
			return ErrSlotTaken
		}

		now := time.Now()
		update := bson.M{"$set": bson.M{
			"status":         models.BookingConfirmed,
			"payment_status": models.PaymentCaptured,
			"capture_ref":    captureRef,
			"updated_at":     now,
		}}
		res, err := r.coll.UpdateOne(sc, bson.M{"id": id, "status": models.BookingPending}, update)
		if err != nil {
			return fmt.Errorf("confirm update failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrNotPending
		}

		confirmed = b
		confirmed.Status = models.BookingConfirmed
		confirmed.PaymentStatus = models.PaymentCaptured
		confirmed.CaptureRef = captureRef
		confirmed.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &confirmed, nil
}
