package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/devlinkhq/client-gateway/internal/model"
)

func TestAuthorizationHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(model.ListConversationsResponse{})
	}))
	defer server.Close()

	client := NewClient(server.URL, func() string { return "session-jwt" })
	if _, err := client.Conversations(context.Background()); err != nil {
		t.Fatalf("Conversations: %v", err)
	}
	if gotAuth != "Bearer session-jwt" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestSignedOutRequestsCarryNoToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(model.AuthResponse{Token: "fresh-jwt"})
	}))
	defer server.Close()

	client := NewClient(server.URL, func() string { return "" })
	resp, err := client.Login(context.Background(), &model.LoginRequest{Email: "a@b.c", Password: "pw"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("signed-out request carried Authorization %q", gotAuth)
	}
	if resp.Token != "fresh-jwt" {
		t.Errorf("token = %q", resp.Token)
	}
}

func TestStatusCodeMapping(t *testing.T) {
	tests := []struct {
		status  int
		wantErr error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusNotFound, ErrNotFound},
	}

	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		client := NewClient(server.URL, nil)
		_, err := client.Order(context.Background(), "order-1")
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("status %d mapped to %v, want %v", tt.status, err, tt.wantErr)
		}
		server.Close()
	}
}

func TestUnauthorizedHookFiresOnExpiredSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	hookCalls := 0
	client := NewClient(server.URL, func() string { return "stale-jwt" },
		WithUnauthorizedHook(func() { hookCalls++ }))

	if _, err := client.Conversations(context.Background()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if hookCalls == 0 {
		t.Error("hook not called for a rejected session token")
	}

	// A 401 on an unauthenticated call (bad login) must not fire the hook.
	hookCalls = 0
	signedOut := NewClient(server.URL, func() string { return "" },
		WithUnauthorizedHook(func() { hookCalls++ }))
	if _, err := signedOut.Login(context.Background(), &model.LoginRequest{Email: "a@b.c", Password: "bad"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if hookCalls != 0 {
		t.Error("hook fired for an unauthenticated 401")
	}
}

func TestAPIErrorCarriesBackendMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": "amount too large"})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	_, err := client.CreateOffer(context.Background(), &model.Offer{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity || apiErr.Message != "amount too large" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestGetRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(model.Order{ID: "order-1"})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	order, err := client.Order(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	if order.ID != "order-1" {
		t.Errorf("order id = %q", order.ID)
	}
	if got := calls.Load(); got < 3 {
		t.Errorf("server saw %d calls, want at least 3", got)
	}
}

func TestGetDoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	if _, err := client.Order(context.Background(), "order-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server saw %d calls, want 1 (not-found must not retry)", got)
	}
}

func TestSendMessageEchoesClientID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg model.Message
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			t.Errorf("decode request: %v", err)
		}
		// The backend stores and echoes the client-assigned id.
		json.NewEncoder(w).Encode(msg)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	sent := &model.Message{ID: "client-id-1", SenderID: "student-1", ReceiverID: "dev-1", Kind: model.PayloadText, Body: "hi"}
	confirmed, err := client.SendMessage(context.Background(), sent)
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if confirmed.ID != "client-id-1" {
		t.Errorf("confirmed id = %q, want the client-assigned id", confirmed.ID)
	}
}

func TestSendAttachmentMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("id"); got != "client-id-1" {
			t.Errorf("id field = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("file part: %v", err)
		}
		file.Close()
		if header.Filename != "notes.txt" {
			t.Errorf("filename = %q", header.Filename)
		}
		json.NewEncoder(w).Encode(model.Message{ID: "client-id-1", Kind: model.PayloadAttachment})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	msg := &model.Message{ID: "client-id-1", SenderID: "student-1", ReceiverID: "dev-1"}
	confirmed, err := client.SendAttachment(context.Background(), msg, "notes.txt", strings.NewReader("file body"))
	if err != nil {
		t.Fatalf("SendAttachment: %v", err)
	}
	if confirmed.ID != "client-id-1" {
		t.Errorf("confirmed id = %q", confirmed.ID)
	}
}

func TestDevelopersSkillFilter(t *testing.T) {
	var gotSkill string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSkill = r.URL.Query().Get("skill")
		json.NewEncoder(w).Encode(map[string][]model.User{"developers": {{ID: "dev-1"}}})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	devs, err := client.Developers(context.Background(), "golang")
	if err != nil {
		t.Fatalf("Developers: %v", err)
	}
	if gotSkill != "golang" {
		t.Errorf("skill query = %q", gotSkill)
	}
	if len(devs) != 1 || devs[0].ID != "dev-1" {
		t.Errorf("developers = %+v", devs)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"server error", &APIError{Status: 503}, true},
		{"client error", &APIError{Status: 422}, false},
		{"unauthorized", ErrUnauthorized, false},
		{"not found", ErrNotFound, false},
		{"context canceled", context.Canceled, false},
		{"transport failure", errors.New("connection refused"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTransient(tt.err); got != tt.want {
				t.Errorf("isTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
