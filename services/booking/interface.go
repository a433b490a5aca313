package booking

import (
	"context"
	"time"

	bookingRepo "slotbook/database/repository/booking"
	serviceRepo "slotbook/database/repository/service"
	"slotbook/models"
	"slotbook/services/payment"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RequestInput is a customer's booking request. Either ServiceID prices the
// request from the catalog, or PriceCents is supplied directly.
type RequestInput struct {
	CustomerID string `json:"customer_id"`
	ProviderID string `json:"provider_id"`
	ServiceID  string `json:"service_id,omitempty"`
	Date       string `json:"date"`  // "YYYY-MM-DD"
	Start      int    `json:"start"` // minutes from midnight
	End        int    `json:"end"`   // optional when ServiceID carries a duration
	PriceCents int64  `json:"price_cents,omitempty"`
}

// Interval is a free or busy stretch of a provider's day.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ExpiryScheduler enqueues the deferred task that expires a booking whose
// authorization window lapsed. Implemented on asynq in the tasks package.
type ExpiryScheduler interface {
	ScheduleExpiry(ctx context.Context, bookingID string, in time.Duration) error
}

// Engine owns the booking state machine: it is the only component that mutates
// status/payment_status, and only through guarded transitions.
type Engine interface {
	Request(ctx context.Context, in RequestInput) (*models.Booking, error)
	Accept(ctx context.Context, bookingID, providerID string) (*models.Booking, error)
	Decline(ctx context.Context, bookingID, providerID, reason string) (*models.Booking, error)
	Cancel(ctx context.Context, bookingID, customerID, reason string) (*models.Booking, error)
	ExpireIfPending(ctx context.Context, bookingID string) error

	Get(ctx context.Context, bookingID string) (*models.Booking, error)
	ListFor(ctx context.Context, role, actorID string, status models.BookingStatus) ([]models.Booking, error)
	Availability(ctx context.Context, providerID, date string) ([]Interval, error)
}

// DefaultEngine wires the conflict detector, fee policy and payment
// orchestrator around the booking repository.
type DefaultEngine struct {
	Repo      bookingRepo.BookingRepository
	Services  serviceRepo.ServiceRepository
	Processor payment.Processor
	Fees      FeePolicy
	Currency  string

	// Cache accelerates availability reads; optional and never authoritative.
	Cache *redis.Client

	// Expiry schedules the authorization-window sweep; optional.
	Expiry     ExpiryScheduler
	AuthWindow time.Duration

	Logger *zap.Logger
}

var _ Engine = (*DefaultEngine)(nil)
