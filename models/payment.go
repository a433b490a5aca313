package models

// AuthorizeRequest describes a hold to place against the processor.
type AuthorizeRequest struct {
	AmountCents    int64
	Currency       string
	IdempotencyKey string
	Metadata       map[string]string
	Description    string
}

// RemotePaymentStatus mirrors the processor's view of an authorization.
type RemotePaymentStatus string

const (
	RemoteRequiresCapture RemotePaymentStatus = "requires_capture"
	RemoteSucceeded       RemotePaymentStatus = "succeeded"
	RemoteCanceled        RemotePaymentStatus = "canceled"
	RemoteFailed          RemotePaymentStatus = "failed"
	RemoteProcessing      RemotePaymentStatus = "processing"
)
