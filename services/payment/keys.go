package payment

import "fmt"

// Idempotency keys are derived from business identifiers, never from random
// values: the same logical operation always maps to the same remote object.

func RequestKey(customerID, providerID, date string, start, end int) string {
	return fmt.Sprintf("booking-request:%s:%s:%s:%d-%d", customerID, providerID, date, start, end)
}

func CaptureKey(bookingID string) string {
	return "booking-capture:" + bookingID
}

func CancelKey(bookingID string) string {
	return "booking-cancel:" + bookingID
}
