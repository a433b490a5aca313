package payment

import (
	"errors"
	"fmt"
)

// ErrAuthorizationExpired means the hold's capture window lapsed. Retrying the
// capture can never succeed; the customer has to re-initiate the booking.
var ErrAuthorizationExpired = errors.New("payment authorization expired")

// ValidationError rejects a request before it ever reaches the processor.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func newValidationError(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ProviderError wraps a rejection from the remote processor that is outside
// this system's control. It is surfaced to the caller, never swallowed.
type ProviderError struct {
	Op   string
	Code string
	Msg  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider rejected %s (%s): %s", e.Op, e.Code, e.Msg)
}
