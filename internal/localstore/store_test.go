package localstore

import (
	"errors"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetGetDelete(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing err = %v, want ErrNotFound", err)
	}

	if err := s.Set("greeting", "hello"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get("greeting")
	if err != nil || got != "hello" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	// Overwrite replaces the value.
	if err := s.Set("greeting", "hi"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	if got, _ := s.Get("greeting"); got != "hi" {
		t.Errorf("Get after overwrite = %q", got)
	}

	if err := s.Delete("greeting"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get("greeting"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete err = %v, want ErrNotFound", err)
	}

	// Deleting a missing key is not an error.
	if err := s.Delete("greeting"); err != nil {
		t.Errorf("Delete missing key: %v", err)
	}
}

func TestSetRejectsEmptyKey(t *testing.T) {
	s := newTestStore(t)
	if err := s.Set("", "value"); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Session(); !errors.Is(err, ErrNotFound) {
		t.Errorf("Session while signed out err = %v, want ErrNotFound", err)
	}
	if got := s.Token(); got != "" {
		t.Errorf("Token while signed out = %q, want empty", got)
	}

	sess := Session{Token: "jwt-token", UserID: "student-1", Username: "alice", Role: "student"}
	if err := s.SaveSession(sess); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	got, err := s.Session()
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if got != sess {
		t.Errorf("Session = %+v, want %+v", got, sess)
	}
	if s.Token() != "jwt-token" {
		t.Errorf("Token = %q", s.Token())
	}

	if err := s.ClearSession(); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}
	if _, err := s.Session(); !errors.Is(err, ErrNotFound) {
		t.Errorf("Session after clear err = %v, want ErrNotFound", err)
	}
	if got := s.Token(); got != "" {
		t.Errorf("Token after clear = %q", got)
	}
}

func TestSaveSessionRequiresIdentity(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveSession(Session{Token: "jwt-token"}); err == nil {
		t.Error("expected error for session without user id")
	}
	if err := s.SaveSession(Session{UserID: "student-1"}); err == nil {
		t.Error("expected error for session without token")
	}
}

func TestDarkModePreference(t *testing.T) {
	s := newTestStore(t)

	if s.DarkMode() {
		t.Error("dark mode should default to false")
	}
	if err := s.SetDarkMode(true); err != nil {
		t.Fatalf("SetDarkMode: %v", err)
	}
	if !s.DarkMode() {
		t.Error("dark mode not persisted")
	}
	if err := s.SetDarkMode(false); err != nil {
		t.Fatalf("SetDarkMode: %v", err)
	}
	if s.DarkMode() {
		t.Error("dark mode not cleared")
	}
}

func TestPendingOrderLifecycle(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.PendingOrder("order-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("PendingOrder missing err = %v, want ErrNotFound", err)
	}

	payload := []byte(`{"offer_id":"offer-1","amount":"100.00"}`)
	if err := s.SavePendingOrder("order-1", payload); err != nil {
		t.Fatalf("SavePendingOrder: %v", err)
	}

	got, err := s.PendingOrder("order-1")
	if err != nil {
		t.Fatalf("PendingOrder: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("payload = %s", got)
	}

	// Saving again replaces the payload.
	if err := s.SavePendingOrder("order-1", []byte(`{"amount":"80.00"}`)); err != nil {
		t.Fatalf("SavePendingOrder replace: %v", err)
	}
	got, _ = s.PendingOrder("order-1")
	if string(got) != `{"amount":"80.00"}` {
		t.Errorf("payload after replace = %s", got)
	}

	if err := s.DeletePendingOrder("order-1"); err != nil {
		t.Fatalf("DeletePendingOrder: %v", err)
	}
	if _, err := s.PendingOrder("order-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("PendingOrder after delete err = %v, want ErrNotFound", err)
	}

	// Deleting a missing order is not an error.
	if err := s.DeletePendingOrder("order-1"); err != nil {
		t.Errorf("DeletePendingOrder missing: %v", err)
	}
}

func TestSavePendingOrderRequiresID(t *testing.T) {
	s := newTestStore(t)
	if err := s.SavePendingOrder("", []byte(`{}`)); err == nil {
		t.Error("expected error for empty order id")
	}
}

func TestStateSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := s.SaveSession(Session{Token: "jwt-token", UserID: "student-1"}); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if err := s.SavePendingOrder("order-1", []byte(`{"amount":"50.00"}`)); err != nil {
		t.Fatalf("SavePendingOrder: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// A gateway restart (or payment redirect) must find the same state.
	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()

	sess, err := reopened.Session()
	if err != nil || sess.UserID != "student-1" {
		t.Errorf("session after reopen = %+v, %v", sess, err)
	}
	payload, err := reopened.PendingOrder("order-1")
	if err != nil || string(payload) != `{"amount":"50.00"}` {
		t.Errorf("pending order after reopen = %s, %v", payload, err)
	}
}
