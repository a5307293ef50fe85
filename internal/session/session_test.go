package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/ruangtamu/internal/gateway"
	"github.com/example/ruangtamu/internal/models"
)

func newBackend(t *testing.T, handler http.Handler) *gateway.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return gateway.New(srv.URL, "", "", nil, zerolog.Nop())
}

func loginBackend(t *testing.T) *gateway.Client {
	return newBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"user":{"id":"op-1","name":"Dina","email":"dina@example.com","role":"admin"},"token":"tok-123"}}`))
	}))
}

func TestLoginPersistsSlots(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	m := NewManager(store, loginBackend(t), zerolog.Nop())

	op, redirect, err := m.Login(context.Background(), "dina@example.com", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if op.ID != "op-1" || redirect != RouteAdminHome {
		t.Errorf("got op %+v redirect %q", op, redirect)
	}
	if !m.Authenticated() || m.State() != StateAuthenticated {
		t.Error("session should be authenticated")
	}
	if m.Token() != "tok-123" {
		t.Errorf("token = %q", m.Token())
	}

	userJSON, ok, _ := store.Get(models.StateKeyUser)
	if !ok {
		t.Fatal("user slot not persisted")
	}
	var persisted models.Operator
	if err := json.Unmarshal([]byte(userJSON), &persisted); err != nil || persisted.ID != "op-1" {
		t.Errorf("persisted user invalid: %q", userJSON)
	}

	if tok, ok, _ := store.Get(models.StateKeyToken); !ok || tok != "tok-123" {
		t.Errorf("token slot = %q, %v", tok, ok)
	}
	if raw, ok, _ := store.Get(models.StateKeyLastLogin); !ok {
		t.Error("last-login slot not persisted")
	} else if _, err := time.Parse(time.RFC3339, raw); err != nil {
		t.Errorf("last-login not RFC3339: %q", raw)
	}
}

func TestLoginFailurePersistsNothing(t *testing.T) {
	t.Parallel()

	gw := newBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false}`))
	}))
	store := NewMemoryStore()
	m := NewManager(store, gw, zerolog.Nop())

	_, _, err := m.Login(context.Background(), "dina@example.com", "wrong")
	var httpErr *gateway.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if m.State() != StateAnonymous || m.Authenticated() {
		t.Error("failed login must return to anonymous")
	}
	if _, ok, _ := store.Get(models.StateKeyUser); ok {
		t.Error("user slot must not be persisted on failure")
	}
	if _, ok, _ := store.Get(models.StateKeyToken); ok {
		t.Error("token slot must not be persisted on failure")
	}
}

func TestRestore(t *testing.T) {
	t.Parallel()

	t.Run("both slots valid", func(t *testing.T) {
		t.Parallel()
		store := NewMemoryStore()
		store.Set(models.StateKeyUser, `{"id":"op-2","name":"Rio","role":"runner"}`)
		store.Set(models.StateKeyToken, "tok-456")

		m := NewManager(store, nil, zerolog.Nop())
		m.Restore()

		if !m.Authenticated() {
			t.Fatal("session should restore")
		}
		if op := m.Operator(); op.ID != "op-2" || !op.IsRunner() {
			t.Errorf("operator = %+v", op)
		}
		if m.Token() != "tok-456" {
			t.Errorf("token = %q", m.Token())
		}
	})

	t.Run("missing token clears the pair", func(t *testing.T) {
		t.Parallel()
		store := NewMemoryStore()
		store.Set(models.StateKeyUser, `{"id":"op-2","name":"Rio","role":"runner"}`)

		m := NewManager(store, nil, zerolog.Nop())
		m.Restore()

		if m.Authenticated() {
			t.Error("session must stay anonymous")
		}
		if _, ok, _ := store.Get(models.StateKeyUser); ok {
			t.Error("orphaned user slot should be cleared")
		}
	})

	t.Run("corrupt user clears the pair", func(t *testing.T) {
		t.Parallel()
		store := NewMemoryStore()
		store.Set(models.StateKeyUser, `{not json`)
		store.Set(models.StateKeyToken, "tok-456")

		m := NewManager(store, nil, zerolog.Nop())
		m.Restore()

		if m.Authenticated() {
			t.Error("session must stay anonymous")
		}
		if _, ok, _ := store.Get(models.StateKeyToken); ok {
			t.Error("token slot should be cleared alongside the corrupt user")
		}
	})
}

func TestLogoutClearsEverything(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	m := NewManager(store, loginBackend(t), zerolog.Nop())
	if _, _, err := m.Login(context.Background(), "dina@example.com", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	m.Logout()

	if m.Authenticated() || m.Token() != "" || m.Operator() != nil {
		t.Error("logout must clear memory state")
	}
	for _, key := range []string{models.StateKeyUser, models.StateKeyToken, models.StateKeyLastLogin} {
		if _, ok, _ := store.Get(key); ok {
			t.Errorf("slot %q should be deleted", key)
		}
	}

	// Logout is safe to repeat while anonymous.
	m.Logout()
}

func TestUpdateOperator(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	m := NewManager(store, loginBackend(t), zerolog.Nop())
	if _, _, err := m.Login(context.Background(), "dina@example.com", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	op, ok := m.UpdateOperator(models.Operator{Name: "Dina S."})
	if !ok || op.Name != "Dina S." {
		t.Fatalf("update failed: %+v, %v", op, ok)
	}
	// Empty patch fields keep the current values.
	if op.Email != "dina@example.com" {
		t.Errorf("email = %q", op.Email)
	}

	userJSON, _, _ := store.Get(models.StateKeyUser)
	var persisted models.Operator
	if err := json.Unmarshal([]byte(userJSON), &persisted); err != nil || persisted.Name != "Dina S." {
		t.Errorf("persisted user not updated: %q", userJSON)
	}
}

func TestRedirectFor(t *testing.T) {
	t.Parallel()

	if got := RedirectFor(models.RoleAdmin); got != RouteAdminHome {
		t.Errorf("admin redirect = %q", got)
	}
	if got := RedirectFor(models.RoleRunner); got != RouteRunnerHome {
		t.Errorf("runner redirect = %q", got)
	}
}
