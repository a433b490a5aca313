package tasks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TypeBookingExpire = "booking:expire"

// ExpiryPayload carries the booking to sweep once its authorization window
// has elapsed.
type ExpiryPayload struct {
	BookingID string `json:"bookingId"`
}

func NewExpiryTask(payload ExpiryPayload, in time.Duration) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeBookingExpire, b)
	opts := []asynq.Option{asynq.ProcessIn(in), asynq.MaxRetry(5)}

	return task, opts, nil
}

// AsynqExpiryScheduler enqueues delayed expiry sweeps through asynq.
type AsynqExpiryScheduler struct {
	Client *asynq.Client
}

func (s *AsynqExpiryScheduler) ScheduleExpiry(ctx context.Context, bookingID string, in time.Duration) error {
	task, opts, err := NewExpiryTask(ExpiryPayload{BookingID: bookingID}, in)
	if err != nil {
		return err
	}
	_, err = s.Client.EnqueueContext(ctx, task, opts...)
	return err
}
