package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/devlinkhq/client-gateway/internal/backend"
	"github.com/devlinkhq/client-gateway/internal/model"
	"github.com/devlinkhq/client-gateway/internal/store"
	"github.com/devlinkhq/client-gateway/pkg/logger"
)

// echoServer behaves like the backend's message endpoint: it stores nothing
// and echoes the confirmed record back with the client-assigned id intact.
func echoServer(t *testing.T, fail bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		var msg model.Message
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			t.Errorf("decode message: %v", err)
		}
		msg.ConversationID = "conv-1"
		json.NewEncoder(w).Encode(msg)
	}))
}

func newTestMessenger(t *testing.T, serverURL string) (*Messenger, *store.Store) {
	t.Helper()
	bc := backend.NewClient(serverURL, nil)
	st := store.New(bc, logger.NewNop())
	st.SetUser("student-1")
	st.Select("dev-1")
	return NewMessenger(st, bc, logger.NewNop()), st
}

func TestSendTextConfirmsOptimisticCopy(t *testing.T) {
	server := echoServer(t, false)
	defer server.Close()
	m, st := newTestMessenger(t, server.URL)

	sent, err := m.SendText(context.Background(), "student-1", "dev-1", "hello")
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if sent.ID == "" {
		t.Fatal("no client-assigned id")
	}
	if sent.Pending {
		t.Error("confirmed message still pending")
	}

	msgs := st.Messages()
	if len(msgs) != 1 {
		t.Fatalf("store holds %d messages, want 1 (optimistic copy must reconcile, not duplicate)", len(msgs))
	}
	if msgs[0].ID != sent.ID || msgs[0].Pending {
		t.Errorf("store message = %+v", msgs[0])
	}
}

func TestSendTextFailureLeavesOptimisticCopy(t *testing.T) {
	server := echoServer(t, true)
	defer server.Close()
	m, st := newTestMessenger(t, server.URL)

	sent, err := m.SendText(context.Background(), "student-1", "dev-1", "hello")
	if err == nil {
		t.Fatal("expected send error")
	}

	got, ok := st.Message(sent.ID)
	if !ok {
		t.Fatal("optimistic copy removed on failure")
	}
	if !got.Pending {
		t.Error("failed send should leave the copy pending")
	}
}

func TestSendOfferCarriesPayload(t *testing.T) {
	server := echoServer(t, false)
	defer server.Close()
	m, _ := newTestMessenger(t, server.URL)

	off := model.Offer{ID: "offer-1", Description: "Fix build", Amount: "50.00"}
	sent, err := m.SendOffer(context.Background(), "dev-1", "student-1", off)
	if err != nil {
		t.Fatalf("SendOffer: %v", err)
	}
	if sent.Kind != model.PayloadOffer {
		t.Errorf("kind = %q", sent.Kind)
	}

	var decoded model.Offer
	if err := json.Unmarshal(sent.Payload, &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded.ID != "offer-1" || decoded.Amount != "50.00" {
		t.Errorf("payload = %+v", decoded)
	}
}

func TestSendMarkerReferencesOffer(t *testing.T) {
	server := echoServer(t, false)
	defer server.Close()
	m, st := newTestMessenger(t, server.URL)

	err := m.SendMarker(context.Background(), "conv-1", "dev-1", "student-1", model.PayloadWithdrawal, "offer-1")
	if err != nil {
		t.Fatalf("SendMarker: %v", err)
	}

	msgs := st.Messages()
	if len(msgs) != 1 {
		t.Fatalf("store holds %d messages, want 1", len(msgs))
	}
	if msgs[0].Kind != model.PayloadWithdrawal {
		t.Errorf("kind = %q", msgs[0].Kind)
	}
	var marker model.MarkerPayload
	if err := json.Unmarshal(msgs[0].Payload, &marker); err != nil || marker.OfferID != "offer-1" {
		t.Errorf("marker payload = %s (%v)", msgs[0].Payload, err)
	}
}

func TestUniqueMessageIDs(t *testing.T) {
	server := echoServer(t, false)
	defer server.Close()
	m, _ := newTestMessenger(t, server.URL)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		sent, err := m.SendText(context.Background(), "student-1", "dev-1", "hello")
		if err != nil {
			t.Fatalf("SendText: %v", err)
		}
		if seen[sent.ID] {
			t.Fatalf("duplicate message id %q", sent.ID)
		}
		seen[sent.ID] = true
	}
}
