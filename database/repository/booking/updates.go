package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"slotbook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var afterUpdate = options.FindOneAndUpdate().SetReturnDocument(options.After)

func (r *MongoBookingRepo) TerminatePending(ctx context.Context, id string, to models.BookingStatus, pay models.PaymentStatus, reason string) (*models.Booking, error) {
	set := bson.M{
		"status":         to,
		"payment_status": pay,
		"updated_at":     time.Now(),
	}
	if reason != "" {
		set["decline_reason"] = reason
	}

	var b models.Booking
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"id": id, "status": models.BookingPending},
		bson.M{"$set": set}, afterUpdate).Decode(&b)
	if err == mongo.ErrNoDocuments {
		// Distinguish a missing booking from one that already left pending.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrNotPending
	}
	if err != nil {
		return nil, fmt.Errorf("terminate update failed: %w", err)
	}
	return &b, nil
}

func (r *MongoBookingRepo) MarkCapturedByRef(ctx context.Context, ref, captureRef string) (*models.Booking, error) {
	var b models.Booking
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"payment_ref": ref, "status": models.BookingPending},
		bson.M{"$set": bson.M{
			"status":         models.BookingConfirmed,
			"payment_status": models.PaymentCaptured,
			"capture_ref":    captureRef,
			"updated_at":     time.Now(),
		}}, afterUpdate).Decode(&b)
	if err == mongo.ErrNoDocuments {
		if _, getErr := r.GetByPaymentRef(ctx, ref); getErr != nil {
			return nil, getErr
		}
		return nil, ErrNotPending
	}
	if err != nil {
		return nil, fmt.Errorf("captured-by-ref update failed: %w", err)
	}
	return &b, nil
}

func (r *MongoBookingRepo) MarkClosedByRef(ctx context.Context, ref string, pay models.PaymentStatus) (*models.Booking, error) {
	var b models.Booking
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"payment_ref": ref, "status": models.BookingPending},
		bson.M{"$set": bson.M{
			"status":         models.BookingCancelled,
			"payment_status": pay,
			"updated_at":     time.Now(),
		}}, afterUpdate).Decode(&b)
	if err == nil {
		return &b, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("closed-by-ref update failed: %w", err)
	}

	// Already terminal: align the payment status only if it is still behind
	// (authorized/none). Never touch the booking status.
	var existing models.Booking
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{
			"payment_ref":    ref,
			"payment_status": bson.M{"$in": []models.PaymentStatus{models.PaymentNone, models.PaymentAuthorized}},
		},
		bson.M{"$set": bson.M{"payment_status": pay, "updated_at": time.Now()}},
		afterUpdate).Decode(&existing)
	if err == mongo.ErrNoDocuments {
		if cur, getErr := r.GetByPaymentRef(ctx, ref); getErr == nil {
			return cur, nil
		}
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("payment-status align failed: %w", err)
	}
	return &existing, nil
}
