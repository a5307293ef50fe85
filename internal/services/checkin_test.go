package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/example/ruangtamu/internal/gateway"
	"github.com/example/ruangtamu/internal/guest"
	"github.com/example/ruangtamu/internal/models"
)

type memoryAudit struct {
	mu      sync.Mutex
	entries []models.CheckinAudit
}

func (a *memoryAudit) Record(ctx context.Context, entry models.CheckinAudit) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
}

func (a *memoryAudit) last(t *testing.T) models.CheckinAudit {
	t.Helper()
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.entries) == 0 {
		t.Fatal("no audit entries recorded")
	}
	return a.entries[len(a.entries)-1]
}

func newService(t *testing.T, handler http.Handler) (*CheckinService, *memoryAudit) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	gw := gateway.New(srv.URL, "", "", nil, zerolog.Nop())
	audit := &memoryAudit{}
	return NewCheckinService(gw, audit, nil, zerolog.Nop()), audit
}

var admin = &models.Operator{ID: "op-1", Name: "Dina", Role: models.RoleAdmin}

func TestCheckInSuccess(t *testing.T) {
	t.Parallel()

	svc, audit := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"guest":{"table_number":"5"}}`))
	}))

	g := guest.Record{UID: "g1", Name: "Ahmad", CheckInStatus: guest.StatusNotArrived}
	updated, err := svc.CheckIn(context.Background(), g, CheckinData{CompanionCount: 2, GiftType: "angpao"}, admin)
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	if updated.CheckInStatus != guest.StatusQueue || !updated.CheckedIn() {
		t.Errorf("guest not transitioned: %+v", updated)
	}
	if updated.CompanionCount != 2 || updated.GiftType != "angpao" {
		t.Error("check-in data not applied")
	}
	if updated.CheckInTime == nil {
		t.Error("check-in time not set")
	}
	if updated.CheckedInBy != "Dina" {
		t.Errorf("checked_in_by = %q", updated.CheckedInBy)
	}
	// The backend echo overlays the local transition.
	if updated.TableNumber != "5" {
		t.Errorf("table = %q, want 5", updated.TableNumber)
	}

	entry := audit.last(t)
	if entry.Action != models.AuditActionCheckIn || !entry.Succeeded || entry.Operator != "Dina" {
		t.Errorf("audit entry = %+v", entry)
	}
}

func TestCheckInIsStrict(t *testing.T) {
	t.Parallel()

	// A 2xx without the explicit success flag is a failure on check-in.
	svc, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"not recorded"}`))
	}))

	g := guest.Record{UID: "g1", CheckInStatus: guest.StatusNotArrived}
	_, err := svc.CheckIn(context.Background(), g, CheckinData{}, admin)
	var httpErr *gateway.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.Message != "not recorded" {
		t.Errorf("message = %q", httpErr.Message)
	}
}

func TestCheckInValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be sent")
	}))

	arrived := guest.Record{UID: "g1", CheckInStatus: guest.StatusQueue}
	_, err := svc.CheckIn(context.Background(), arrived, CheckinData{}, admin)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if validationErr.Reason != "Guest already checked in." {
		t.Errorf("reason = %q", validationErr.Reason)
	}

	fresh := guest.Record{UID: "g2", CheckInStatus: guest.StatusNotArrived}
	if _, err := svc.CheckIn(context.Background(), fresh, CheckinData{CompanionCount: -1}, admin); !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError for negative companions, got %v", err)
	}
}

func TestCancelLeniency(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"explicit success", http.StatusOK, `{"success":true}`},
		{"plain 200 without flag", http.StatusOK, `{}`},
		{"http 400", http.StatusBadRequest, `{"success":false,"message":"already reset"}`},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc, audit := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))

			g := guest.Record{
				UID:            "g1",
				Name:           "Ahmad",
				CheckInStatus:  guest.StatusDone,
				IsCheckedIn:    true,
				CompanionCount: 3,
				GiftType:       "angpao",
				CheckedInBy:    "Dina",
			}
			updated, err := svc.Cancel(context.Background(), g, admin)
			if err != nil {
				t.Fatalf("Cancel: %v", err)
			}

			if updated.CheckInStatus != guest.StatusNotArrived || updated.CheckedIn() {
				t.Errorf("guest not reset: %+v", updated)
			}
			if updated.CompanionCount != 0 || updated.GiftType != "" || updated.CheckedInBy != "" {
				t.Error("check-in fields not cleared")
			}

			entry := audit.last(t)
			if entry.Action != models.AuditActionCancel || !entry.Succeeded {
				t.Errorf("audit entry = %+v", entry)
			}
		})
	}
}

func TestCancelRealFailureLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
	}{
		{"server error", http.StatusInternalServerError},
		{"forbidden", http.StatusForbidden},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(`{"success":false,"message":"backend exploded"}`))
			}))

			g := guest.Record{UID: "g1", CheckInStatus: guest.StatusQueue, IsCheckedIn: true, CompanionCount: 2}
			back, err := svc.Cancel(context.Background(), g, admin)
			var httpErr *gateway.HTTPError
			if !errors.As(err, &httpErr) {
				t.Fatalf("expected HTTPError, got %v", err)
			}
			if httpErr.Message != "backend exploded" {
				t.Errorf("message = %q, want backend message verbatim", httpErr.Message)
			}
			if back.CheckInStatus != guest.StatusQueue || !back.CheckedIn() || back.CompanionCount != 2 {
				t.Error("failed cancel must leave the record untouched")
			}
		})
	}
}

func TestCancelEchoOverridesReset(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"guest":{"table_number":"","runner_notes":"abandoned"}}`))
	}))

	g := guest.Record{UID: "g1", CheckInStatus: guest.StatusQueue, IsCheckedIn: true, TableNumber: "4"}
	updated, err := svc.Cancel(context.Background(), g, admin)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if updated.RunnerNotes != "abandoned" {
		t.Errorf("runner_notes = %q, want backend echo", updated.RunnerNotes)
	}
}

func TestCancelRequiresArrivedGuest(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be sent")
	}))

	g := guest.Record{UID: "g1", CheckInStatus: guest.StatusNotArrived}
	_, err := svc.Cancel(context.Background(), g, admin)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestInFlightGuard(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	svc, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() {
			close(started)
			<-release
		})
		w.Write([]byte(`{"success":true}`))
	}))

	g := guest.Record{UID: "g1", CheckInStatus: guest.StatusQueue, IsCheckedIn: true}

	done := make(chan error, 1)
	go func() {
		_, err := svc.Cancel(context.Background(), g, admin)
		done <- err
	}()

	<-started
	if _, err := svc.Cancel(context.Background(), g, admin); !errors.Is(err, ErrActionInFlight) {
		t.Errorf("expected ErrActionInFlight, got %v", err)
	}

	// A different guest is not blocked.
	other := guest.Record{UID: "g2", CheckInStatus: guest.StatusNotArrived}
	if _, err := svc.Cancel(context.Background(), other, admin); errors.Is(err, ErrActionInFlight) {
		t.Error("unrelated guest must not be blocked")
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first cancel failed: %v", err)
	}

	// After settlement the slot is free again.
	if _, err := svc.Cancel(context.Background(), g, admin); err != nil {
		t.Errorf("cancel after settlement failed: %v", err)
	}
}

func TestTake(t *testing.T) {
	t.Parallel()

	svc, audit := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true}`))
	}))

	g := guest.Record{UID: "g1", Name: "Siti", CheckInStatus: guest.StatusQueue, IsCheckedIn: true}
	runner := &models.Operator{ID: "run-1", Name: "Rio", Role: models.RoleRunner}

	updated, err := svc.Take(context.Background(), g, TakeData{TableNumber: "9"}, runner)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if updated.CheckInStatus != guest.StatusDone {
		t.Errorf("status = %q, want done", updated.CheckInStatus)
	}
	if updated.AssignedRunner != "run-1" || updated.TableNumber != "9" {
		t.Errorf("runner fields not applied: %+v", updated)
	}

	entry := audit.last(t)
	if entry.Action != models.AuditActionTake || entry.OperatorRole != models.RoleRunner {
		t.Errorf("audit entry = %+v", entry)
	}

	// Only queued guests can be taken.
	fresh := guest.Record{UID: "g2", CheckInStatus: guest.StatusNotArrived}
	var validationErr *ValidationError
	if _, err := svc.Take(context.Background(), fresh, TakeData{}, runner); !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
