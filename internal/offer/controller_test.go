package offer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/devlinkhq/client-gateway/internal/model"
	"github.com/devlinkhq/client-gateway/internal/payment"
	"github.com/devlinkhq/client-gateway/pkg/logger"
)

type fakeBooker struct {
	calls   atomic.Int64
	booking *payment.Booking
	err     error
}

func (f *fakeBooker) Book(ctx context.Context, params payment.BookingParams) (*payment.Booking, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	if f.booking != nil {
		return f.booking, nil
	}
	return &payment.Booking{OrderID: "order-1", Amount: params.Amount}, nil
}

type fakeMarkerSender struct {
	mu    sync.Mutex
	sent  []model.PayloadKind
	fail  bool
	calls int
}

func (f *fakeMarkerSender) SendMarker(ctx context.Context, conversationID, senderID, receiverID string, kind model.PayloadKind, offerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.sent = append(f.sent, kind)
	if f.fail {
		return errors.New("send failed")
	}
	return nil
}

func offerMsg(t *testing.T, off model.Offer) model.Message {
	t.Helper()
	payload, err := json.Marshal(off)
	if err != nil {
		t.Fatalf("marshal offer: %v", err)
	}
	return model.Message{
		ID:             "m1",
		ConversationID: "conv-1",
		SenderID:       "dev-1",
		ReceiverID:     "student-1",
		Kind:           model.PayloadOffer,
		Payload:        payload,
	}
}

func TestAcceptBooksOnce(t *testing.T) {
	booker := &fakeBooker{}
	c := NewController(booker, &fakeMarkerSender{}, logger.NewNop())
	msg := offerMsg(t, model.Offer{ID: "offer-1", Description: "Fix build", Amount: "50.00"})

	booking, err := c.Accept(context.Background(), msg, "student-1")
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if booking.OrderID != "order-1" {
		t.Errorf("order id = %q", booking.OrderID)
	}

	if _, err := c.Accept(context.Background(), msg, "student-1"); !errors.Is(err, ErrAlreadyAccepted) {
		t.Fatalf("second Accept err = %v, want ErrAlreadyAccepted", err)
	}
	if got := booker.calls.Load(); got != 1 {
		t.Errorf("Book called %d times, want 1", got)
	}
	if c.State("offer-1") != model.OfferAccepted {
		t.Errorf("state = %q, want accepted", c.State("offer-1"))
	}
}

func TestAcceptConcurrentDoubleClick(t *testing.T) {
	booker := &fakeBooker{}
	c := NewController(booker, &fakeMarkerSender{}, logger.NewNop())
	msg := offerMsg(t, model.Offer{ID: "offer-1", Amount: "50.00"})

	const attempts = 8
	var wg sync.WaitGroup
	var successes atomic.Int64
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Accept(context.Background(), msg, "student-1"); err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := successes.Load(); got != 1 {
		t.Errorf("%d acceptances succeeded, want exactly 1", got)
	}
	if got := booker.calls.Load(); got != 1 {
		t.Errorf("Book called %d times, want exactly 1", got)
	}
}

func TestAcceptBookingFailureReleasesLatch(t *testing.T) {
	booker := &fakeBooker{err: errors.New("payment provider down")}
	c := NewController(booker, &fakeMarkerSender{}, logger.NewNop())
	msg := offerMsg(t, model.Offer{ID: "offer-1", Amount: "50.00"})

	if _, err := c.Accept(context.Background(), msg, "student-1"); err == nil {
		t.Fatal("expected booking error")
	}
	if c.State("offer-1") != model.OfferOpen {
		t.Fatalf("state after failed booking = %q, want open", c.State("offer-1"))
	}

	// The user retries after the provider recovers.
	booker.err = nil
	if _, err := c.Accept(context.Background(), msg, "student-1"); err != nil {
		t.Fatalf("retry Accept: %v", err)
	}
	if got := booker.calls.Load(); got != 2 {
		t.Errorf("Book called %d times, want 2", got)
	}
}

func TestAcceptRejectsWrongParty(t *testing.T) {
	c := NewController(&fakeBooker{}, &fakeMarkerSender{}, logger.NewNop())
	msg := offerMsg(t, model.Offer{ID: "offer-1"})

	if _, err := c.Accept(context.Background(), msg, "dev-1"); !errors.Is(err, ErrNotReceiver) {
		t.Errorf("sender acceptance err = %v, want ErrNotReceiver", err)
	}
}

func TestAcceptRejectsNonOfferMessage(t *testing.T) {
	c := NewController(&fakeBooker{}, &fakeMarkerSender{}, logger.NewNop())
	msg := model.Message{ID: "m1", SenderID: "dev-1", ReceiverID: "student-1", Kind: model.PayloadText, Body: "hi"}

	if _, err := c.Accept(context.Background(), msg, "student-1"); !errors.Is(err, ErrNotOffer) {
		t.Errorf("err = %v, want ErrNotOffer", err)
	}
}

func TestAcceptRejectsWithdrawnOffer(t *testing.T) {
	booker := &fakeBooker{}
	c := NewController(booker, &fakeMarkerSender{}, logger.NewNop())
	msg := offerMsg(t, model.Offer{ID: "offer-1"})

	c.HandleWithdrawal("offer-1")

	if _, err := c.Accept(context.Background(), msg, "student-1"); !errors.Is(err, ErrWithdrawn) {
		t.Fatalf("err = %v, want ErrWithdrawn", err)
	}
	if got := booker.calls.Load(); got != 0 {
		t.Errorf("Book called %d times for a withdrawn offer", got)
	}
}

func TestAcceptFreeOfferSendsAcceptanceMarker(t *testing.T) {
	booker := &fakeBooker{booking: &payment.Booking{OrderID: "order-1", Amount: "0.00", Order: &model.Order{ID: "order-1"}}}
	markers := &fakeMarkerSender{}
	c := NewController(booker, markers, logger.NewNop())
	msg := offerMsg(t, model.Offer{ID: "offer-1", Amount: "0.00"})

	if _, err := c.Accept(context.Background(), msg, "student-1"); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if markers.calls != 1 || markers.sent[0] != model.PayloadAcceptance {
		t.Errorf("markers sent: %+v", markers.sent)
	}
}

func TestAcceptPaidOfferDefersMarker(t *testing.T) {
	// Order is nil until the checkout success route runs; no marker yet.
	booker := &fakeBooker{booking: &payment.Booking{OrderID: "order-1", Amount: "50.00", RedirectURL: "https://pay.example/s1"}}
	markers := &fakeMarkerSender{}
	c := NewController(booker, markers, logger.NewNop())
	msg := offerMsg(t, model.Offer{ID: "offer-1", Amount: "50.00"})

	if _, err := c.Accept(context.Background(), msg, "student-1"); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if markers.calls != 0 {
		t.Errorf("marker sent before payment completed")
	}
}

func TestAcceptMarkerFailureDoesNotFailAcceptance(t *testing.T) {
	booker := &fakeBooker{booking: &payment.Booking{OrderID: "order-1", Order: &model.Order{ID: "order-1"}}}
	markers := &fakeMarkerSender{fail: true}
	c := NewController(booker, markers, logger.NewNop())
	msg := offerMsg(t, model.Offer{ID: "offer-1", Amount: "0.00"})

	if _, err := c.Accept(context.Background(), msg, "student-1"); err != nil {
		t.Fatalf("Accept failed on marker error: %v", err)
	}
	if c.State("offer-1") != model.OfferAccepted {
		t.Errorf("state = %q, want accepted", c.State("offer-1"))
	}
}

func TestAcceptOfferIDFallsBackToMessageID(t *testing.T) {
	booker := &fakeBooker{}
	c := NewController(booker, &fakeMarkerSender{}, logger.NewNop())
	msg := offerMsg(t, model.Offer{Description: "No id"})

	if _, err := c.Accept(context.Background(), msg, "student-1"); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if c.State(msg.ID) != model.OfferAccepted {
		t.Errorf("message-id keyed state = %q, want accepted", c.State(msg.ID))
	}
}

func TestHandleWithdrawalIsIdempotent(t *testing.T) {
	c := NewController(&fakeBooker{}, &fakeMarkerSender{}, logger.NewNop())

	if !c.HandleWithdrawal("offer-1") {
		t.Error("first withdrawal should report the state change")
	}
	if c.HandleWithdrawal("offer-1") {
		t.Error("duplicate withdrawal should be a no-op")
	}
	if c.State("offer-1") != model.OfferWithdrawn {
		t.Errorf("state = %q, want withdrawn", c.State("offer-1"))
	}
}

func TestObserveAppliesMarkers(t *testing.T) {
	c := NewController(&fakeBooker{}, &fakeMarkerSender{}, logger.NewNop())

	withdrawal, _ := json.Marshal(model.MarkerPayload{OfferID: "offer-1"})
	c.Observe(model.Message{ID: "m1", Kind: model.PayloadWithdrawal, Payload: withdrawal})
	if c.State("offer-1") != model.OfferWithdrawn {
		t.Errorf("state = %q, want withdrawn", c.State("offer-1"))
	}

	acceptance, _ := json.Marshal(model.MarkerPayload{OfferID: "offer-2"})
	c.Observe(model.Message{ID: "m2", Kind: model.PayloadAcceptance, Payload: acceptance})
	if c.State("offer-2") != model.OfferAccepted {
		t.Errorf("state = %q, want accepted", c.State("offer-2"))
	}
}

func TestObserveIgnoresNonMarkers(t *testing.T) {
	c := NewController(&fakeBooker{}, &fakeMarkerSender{}, logger.NewNop())

	c.Observe(model.Message{ID: "m1", Kind: model.PayloadText, Body: "hello"})
	c.Observe(model.Message{ID: "m2", Kind: model.PayloadWithdrawal, Payload: json.RawMessage(`{{bad`)})

	if c.State("offer-1") != model.OfferOpen {
		t.Errorf("state changed by a non-marker or malformed marker")
	}
}
