package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	bookingRepo "slotbook/database/repository/booking"
	webhookeventRepo "slotbook/database/repository/webhookevent"
	"slotbook/models"
	"slotbook/services/payment"

	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

// fakeBookings covers only the repository surface the reconciler touches; the
// booking engine's own paths are tested in its package.
type fakeBookings struct {
	mu        sync.Mutex
	byRef     map[string]*models.Booking
	lookupErr error

	capturedCalls int
}

func newFakeBookings(bookings ...*models.Booking) *fakeBookings {
	f := &fakeBookings{byRef: make(map[string]*models.Booking)}
	for _, b := range bookings {
		cp := *b
		f.byRef[b.PaymentRef] = &cp
	}
	return f
}

func (f *fakeBookings) GetByPaymentRef(ctx context.Context, ref string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	b, ok := f.byRef[ref]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookings) MarkCapturedByRef(ctx context.Context, ref, captureRef string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.capturedCalls++
	b, ok := f.byRef[ref]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	if b.Status != models.BookingPending {
		return nil, bookingRepo.ErrNotPending
	}
	b.Status = models.BookingConfirmed
	b.PaymentStatus = models.PaymentCaptured
	b.CaptureRef = captureRef
	cp := *b
	return &cp, nil
}

func (f *fakeBookings) MarkClosedByRef(ctx context.Context, ref string, pay models.PaymentStatus) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byRef[ref]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	if b.Status == models.BookingPending {
		b.Status = models.BookingCancelled
		b.PaymentStatus = pay
	} else if b.PaymentStatus == models.PaymentNone || b.PaymentStatus == models.PaymentAuthorized {
		b.PaymentStatus = pay
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookings) current(ref string) models.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.byRef[ref]
}

func (f *fakeBookings) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	return nil, errors.New("not used by reconciliation")
}

func (f *fakeBookings) ListByCustomer(ctx context.Context, customerID string, status models.BookingStatus) ([]models.Booking, error) {
	return nil, errors.New("not used by reconciliation")
}

func (f *fakeBookings) ListByProvider(ctx context.Context, providerID string, status models.BookingStatus) ([]models.Booking, error) {
	return nil, errors.New("not used by reconciliation")
}

func (f *fakeBookings) FindOverlapping(ctx context.Context, providerID, date string, start, end int, excludeID string) ([]models.Booking, error) {
	return nil, errors.New("not used by reconciliation")
}

func (f *fakeBookings) InsertPending(ctx context.Context, b *models.Booking) error {
	return errors.New("not used by reconciliation")
}

func (f *fakeBookings) ConfirmPending(ctx context.Context, id, captureRef string) (*models.Booking, error) {
	return nil, errors.New("not used by reconciliation")
}

func (f *fakeBookings) TerminatePending(ctx context.Context, id string, to models.BookingStatus, pay models.PaymentStatus, reason string) (*models.Booking, error) {
	return nil, errors.New("not used by reconciliation")
}

var _ bookingRepo.BookingRepository = (*fakeBookings)(nil)

type fakeEvents struct {
	mu      sync.Mutex
	claimed map[string]bool
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{claimed: make(map[string]bool)}
}

func (f *fakeEvents) Claim(ctx context.Context, ev *models.ProcessedWebhookEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimed[ev.EventID] {
		return webhookeventRepo.ErrAlreadyProcessed
	}
	f.claimed[ev.EventID] = true
	return nil
}

func (f *fakeEvents) Release(ctx context.Context, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.claimed, eventID)
	return nil
}

var _ webhookeventRepo.WebhookEventRepository = (*fakeEvents)(nil)

// statusProcessor answers RetrieveStatus from a fixed map; the reconciler
// never authorizes, captures or cancels on its own.
type statusProcessor struct {
	statuses map[string]models.RemotePaymentStatus
}

func (p *statusProcessor) Authorize(ctx context.Context, req models.AuthorizeRequest) (string, error) {
	return "", errors.New("not used by reconciliation")
}

func (p *statusProcessor) Capture(ctx context.Context, ref, idempotencyKey string) (string, error) {
	return "", errors.New("not used by reconciliation")
}

func (p *statusProcessor) Cancel(ctx context.Context, ref, idempotencyKey string) error {
	return errors.New("not used by reconciliation")
}

func (p *statusProcessor) RetrieveStatus(ctx context.Context, ref string) (models.RemotePaymentStatus, error) {
	s, ok := p.statuses[ref]
	if !ok {
		return "", fmt.Errorf("unknown payment ref %s", ref)
	}
	return s, nil
}

var _ payment.Processor = (*statusProcessor)(nil)

func pendingBooking(ref string) *models.Booking {
	return &models.Booking{
		ID:               "bk-1",
		CustomerID:       "cust-1",
		ProviderID:       "prov-1",
		Date:             "2031-06-02",
		Start:            600,
		End:              660,
		AmountTotalCents: 10000,
		Status:           models.BookingPending,
		PaymentStatus:    models.PaymentAuthorized,
		PaymentRef:       ref,
	}
}

func makeEvent(id string, eventType stripe.EventType, pi map[string]interface{}) stripe.Event {
	raw, _ := json.Marshal(pi)
	return stripe.Event{
		ID:   id,
		Type: eventType,
		Data: &stripe.EventData{Raw: raw},
	}
}

func succeededEvent(id, ref string, amount int64) stripe.Event {
	return makeEvent(id, "payment_intent.succeeded", map[string]interface{}{
		"id":            ref,
		"amount":        amount,
		"latest_charge": map[string]interface{}{"id": "ch_99"},
	})
}

func newReconcilerFixture(bookings *fakeBookings, remote models.RemotePaymentStatus) *Reconciler {
	return &Reconciler{
		Bookings:  bookings,
		Events:    newFakeEvents(),
		Processor: &statusProcessor{statuses: map[string]models.RemotePaymentStatus{"pi_1": remote}},
		Secret:    "whsec_test",
		Logger:    zap.NewNop(),
	}
}

func TestSucceededEventConfirmsPending(t *testing.T) {
	bookings := newFakeBookings(pendingBooking("pi_1"))
	r := newReconcilerFixture(bookings, models.RemoteSucceeded)

	if err := r.ApplyEvent(context.Background(), succeededEvent("evt_1", "pi_1", 10000)); err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}

	b := bookings.current("pi_1")
	if b.Status != models.BookingConfirmed || b.PaymentStatus != models.PaymentCaptured {
		t.Errorf("got %s/%s, want confirmed/captured", b.Status, b.PaymentStatus)
	}
	if b.CaptureRef != "ch_99" {
		t.Errorf("capture ref = %q, want ch_99", b.CaptureRef)
	}
}

func TestReplayAppliesOnce(t *testing.T) {
	bookings := newFakeBookings(pendingBooking("pi_1"))
	r := newReconcilerFixture(bookings, models.RemoteSucceeded)
	ctx := context.Background()

	ev := succeededEvent("evt_1", "pi_1", 10000)
	if err := r.ApplyEvent(ctx, ev); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := r.ApplyEvent(ctx, ev); err != nil {
		t.Fatalf("replay must be acknowledged, got %v", err)
	}
	if bookings.capturedCalls != 1 {
		t.Errorf("capture applied %d times across a replay, want 1", bookings.capturedCalls)
	}
}

func TestStaleSuccessDoesNotResurrect(t *testing.T) {
	cancelled := pendingBooking("pi_1")
	cancelled.Status = models.BookingCancelled
	cancelled.PaymentStatus = models.PaymentCanceled
	bookings := newFakeBookings(cancelled)
	r := newReconcilerFixture(bookings, models.RemoteSucceeded)

	if err := r.ApplyEvent(context.Background(), succeededEvent("evt_1", "pi_1", 10000)); err != nil {
		t.Fatalf("stale success must be acknowledged, got %v", err)
	}
	b := bookings.current("pi_1")
	if b.Status != models.BookingCancelled {
		t.Errorf("terminal booking resurrected to %s", b.Status)
	}
}

func TestAmountMismatchIsNeverApplied(t *testing.T) {
	bookings := newFakeBookings(pendingBooking("pi_1"))
	r := newReconcilerFixture(bookings, models.RemoteSucceeded)

	if err := r.ApplyEvent(context.Background(), succeededEvent("evt_1", "pi_1", 99)); err != nil {
		t.Fatalf("tampered event must be acknowledged without retry, got %v", err)
	}
	b := bookings.current("pi_1")
	if b.Status != models.BookingPending || bookings.capturedCalls != 0 {
		t.Errorf("tampered amount mutated the booking: %s, %d capture calls", b.Status, bookings.capturedCalls)
	}
}

func TestSuccessContradictedByProcessorIsIgnored(t *testing.T) {
	bookings := newFakeBookings(pendingBooking("pi_1"))
	// The delivered payload claims success but the processor says the hold is
	// still open.
	r := newReconcilerFixture(bookings, models.RemoteRequiresCapture)

	if err := r.ApplyEvent(context.Background(), succeededEvent("evt_1", "pi_1", 10000)); err != nil {
		t.Fatalf("contradicted event must be acknowledged, got %v", err)
	}
	if b := bookings.current("pi_1"); b.Status != models.BookingPending {
		t.Errorf("booking moved to %s on a contradicted success", b.Status)
	}
}

func TestFailureEventClosesPending(t *testing.T) {
	bookings := newFakeBookings(pendingBooking("pi_1"))
	r := newReconcilerFixture(bookings, models.RemoteFailed)

	ev := makeEvent("evt_1", "payment_intent.payment_failed", map[string]interface{}{
		"id": "pi_1", "amount": int64(10000),
	})
	if err := r.ApplyEvent(context.Background(), ev); err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}
	b := bookings.current("pi_1")
	if b.Status != models.BookingCancelled || b.PaymentStatus != models.PaymentFailed {
		t.Errorf("got %s/%s, want cancelled/failed", b.Status, b.PaymentStatus)
	}
}

func TestCanceledEventAlignsTerminalBooking(t *testing.T) {
	declined := pendingBooking("pi_1")
	declined.Status = models.BookingDeclined
	declined.PaymentStatus = models.PaymentAuthorized
	bookings := newFakeBookings(declined)
	r := newReconcilerFixture(bookings, models.RemoteCanceled)

	ev := makeEvent("evt_1", "payment_intent.canceled", map[string]interface{}{
		"id": "pi_1", "amount": int64(10000),
	})
	if err := r.ApplyEvent(context.Background(), ev); err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}
	b := bookings.current("pi_1")
	if b.Status != models.BookingDeclined {
		t.Errorf("canceled event changed the booking status to %s", b.Status)
	}
	if b.PaymentStatus != models.PaymentCanceled {
		t.Errorf("payment status = %s, want canceled", b.PaymentStatus)
	}
}

func TestUnknownRefIsAcknowledged(t *testing.T) {
	bookings := newFakeBookings()
	r := newReconcilerFixture(bookings, models.RemoteSucceeded)

	if err := r.ApplyEvent(context.Background(), succeededEvent("evt_1", "pi_other", 500)); err != nil {
		t.Fatalf("events for other subsystems must be acknowledged, got %v", err)
	}
}

func TestTransientFailureReleasesClaim(t *testing.T) {
	bookings := newFakeBookings(pendingBooking("pi_1"))
	bookings.lookupErr = errors.New("primary stepped down")
	r := newReconcilerFixture(bookings, models.RemoteSucceeded)
	ctx := context.Background()

	ev := succeededEvent("evt_1", "pi_1", 10000)
	if err := r.ApplyEvent(ctx, ev); err == nil {
		t.Fatal("transient failure must surface so the sender retries")
	}

	// Redelivery after the outage must not be swallowed by the dedup claim.
	bookings.mu.Lock()
	bookings.lookupErr = nil
	bookings.mu.Unlock()
	if err := r.ApplyEvent(ctx, ev); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if b := bookings.current("pi_1"); b.Status != models.BookingConfirmed {
		t.Errorf("redelivery not applied, booking is %s", b.Status)
	}
}

func TestUnverifiableDeliveryIsDiscarded(t *testing.T) {
	bookings := newFakeBookings(pendingBooking("pi_1"))
	events := newFakeEvents()
	r := &Reconciler{
		Bookings:  bookings,
		Events:    events,
		Processor: &statusProcessor{statuses: map[string]models.RemotePaymentStatus{"pi_1": models.RemoteSucceeded}},
		Secret:    "whsec_test",
		Logger:    zap.NewNop(),
	}

	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","amount":10000}}}`)
	err := r.HandleDelivery(context.Background(), payload, "t=1,v1=bogus")
	if err != nil {
		t.Fatalf("unverifiable delivery must be acknowledged, got %v", err)
	}

	// Acknowledged but never applied: no dedup claim, no state change.
	if len(events.claimed) != 0 {
		t.Error("unverifiable delivery must not claim dedup state")
	}
	if b := bookings.current("pi_1"); b.Status != models.BookingPending {
		t.Errorf("unverifiable delivery mutated the booking to %s", b.Status)
	}
}
