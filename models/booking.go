package models

import "time"

// BookingStatus is the local lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingDeclined  BookingStatus = "declined"
	BookingCancelled BookingStatus = "cancelled"
	BookingExpired   BookingStatus = "expired"
)

// PaymentStatus tracks the processor-side state of the booking's funds.
type PaymentStatus string

const (
	PaymentNone       PaymentStatus = "none"
	PaymentAuthorized PaymentStatus = "authorized"
	PaymentCaptured   PaymentStatus = "captured"
	PaymentCanceled   PaymentStatus = "canceled"
	PaymentFailed     PaymentStatus = "failed"
)

// Booking is the central record. Intervals are civil time: a date string plus
// start/end minutes from midnight, half-open [start, end). The commercial fields
// are a denormalized audit copy, immutable once set. Bookings are never deleted;
// terminal states are retained.
type Booking struct {
	ID         string `bson:"id" json:"id"`
	CustomerID string `bson:"customer_id" json:"customer_id"`
	ProviderID string `bson:"provider_id" json:"provider_id"`
	ServiceID  string `bson:"service_id,omitempty" json:"service_id,omitempty"`

	Date  string `bson:"date" json:"date"`   // "YYYY-MM-DD"
	Start int    `bson:"start" json:"start"` // minutes from midnight
	End   int    `bson:"end" json:"end"`

	ServicePriceCents int64 `bson:"service_price_cents" json:"service_price_cents"`
	PlatformFeeCents  int64 `bson:"platform_fee_cents" json:"platform_fee_cents"`
	AmountTotalCents  int64 `bson:"amount_total_cents" json:"amount_total_cents"`

	Status        BookingStatus `bson:"status" json:"status"`
	PaymentStatus PaymentStatus `bson:"payment_status" json:"payment_status"`

	// Processor correlation IDs. PaymentRef is the authorization (PaymentIntent)
	// reference and is immutable once set; the reconciler joins events to
	// bookings through it.
	PaymentRef string `bson:"payment_ref,omitempty" json:"payment_ref,omitempty"`
	CaptureRef string `bson:"capture_ref,omitempty" json:"capture_ref,omitempty"`

	DeclineReason string    `bson:"decline_reason,omitempty" json:"decline_reason,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

// IsTerminal reports whether the booking has reached a state the reconciler must
// never move it out of.
func (b *Booking) IsTerminal() bool {
	switch b.Status {
	case BookingConfirmed, BookingDeclined, BookingCancelled, BookingExpired:
		return true
	}
	return false
}

// ActiveBookingStatuses are the states that occupy calendar time. The no-overlap
// invariant quantifies over exactly this set.
var ActiveBookingStatuses = []BookingStatus{BookingPending, BookingConfirmed}
