// Package session owns the operator's authentication state: restored
// optimistically from the persisted slots at boot, populated by login,
// cleared unconditionally by logout.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/ruangtamu/internal/gateway"
	"github.com/example/ruangtamu/internal/models"
)

// State is the session lifecycle phase.
type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
)

// Role-based landing routes returned to the operator UI after login.
const (
	RouteAdminHome  = "/admin/dashboard"
	RouteRunnerHome = "/runner/dashboard"
)

// Manager holds the station's single operator session. All methods are
// safe for concurrent use; the store is written only by Login, Logout and
// UpdateOperator.
type Manager struct {
	store Store
	gw    *gateway.Client
	log   zerolog.Logger

	mu       sync.RWMutex
	state    State
	operator *models.Operator
	token    string
}

// NewManager builds an anonymous session manager. Call Restore before
// serving traffic.
func NewManager(store Store, gw *gateway.Client, log zerolog.Logger) *Manager {
	return &Manager{
		store: store,
		gw:    gw,
		log:   log,
		state: StateAnonymous,
	}
}

// Restore loads the persisted user/token pair at boot. Both slots must be
// present and the user must parse; anything less clears the pair and
// leaves the session anonymous. No validation round-trip is made.
func (m *Manager) Restore() {
	m.mu.Lock()
	defer m.mu.Unlock()

	userJSON, okUser, err := m.store.Get(models.StateKeyUser)
	if err != nil {
		m.log.Warn().Err(err).Msg("session restore failed")
		return
	}
	token, okToken, err := m.store.Get(models.StateKeyToken)
	if err != nil {
		m.log.Warn().Err(err).Msg("session restore failed")
		return
	}

	if !okUser || !okToken || token == "" {
		m.clearLocked()
		return
	}

	var op models.Operator
	if err := json.Unmarshal([]byte(userJSON), &op); err != nil || op.ID == "" {
		m.log.Warn().Msg("stored session invalid, clearing")
		m.clearLocked()
		return
	}

	m.operator = &op
	m.token = token
	m.state = StateAuthenticated
	m.log.Info().Str("operator", op.Name).Str("role", op.Role).Msg("session restored")
}

// Login authenticates against the backend. On success the user/token pair
// is persisted and the role-based landing route is returned. On failure the
// session returns to anonymous and nothing is persisted.
func (m *Manager) Login(ctx context.Context, email, password string) (*models.Operator, string, error) {
	m.mu.Lock()
	m.state = StateAuthenticating
	m.mu.Unlock()

	op, token, err := m.gw.Login(ctx, email, password)
	if err != nil {
		m.mu.Lock()
		if m.state == StateAuthenticating {
			m.state = StateAnonymous
		}
		m.mu.Unlock()
		return nil, "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.operator = op
	m.token = token
	m.state = StateAuthenticated

	userJSON, _ := json.Marshal(op)
	if err := m.store.Set(models.StateKeyUser, string(userJSON)); err != nil {
		m.log.Warn().Err(err).Msg("persist user slot failed")
	}
	if err := m.store.Set(models.StateKeyToken, token); err != nil {
		m.log.Warn().Err(err).Msg("persist token slot failed")
	}
	if err := m.store.Set(models.StateKeyLastLogin, time.Now().UTC().Format(time.RFC3339)); err != nil {
		m.log.Warn().Err(err).Msg("persist last-login slot failed")
	}

	m.log.Info().Str("operator", op.Name).Str("role", op.Role).Msg("operator logged in")
	return op, m.redirectLocked(), nil
}

// Logout clears memory and the persisted slots unconditionally.
func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clearLocked()
	m.log.Info().Msg("operator logged out")
}

func (m *Manager) clearLocked() {
	m.operator = nil
	m.token = ""
	m.state = StateAnonymous
	if err := m.store.Delete(models.StateKeyUser, models.StateKeyToken, models.StateKeyLastLogin); err != nil {
		m.log.Warn().Err(err).Msg("clear session slots failed")
	}
}

// UpdateOperator merges non-empty profile fields into the current operator
// and persists the updated user slot. No-op when anonymous.
func (m *Manager) UpdateOperator(patch models.Operator) (*models.Operator, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.operator == nil {
		return nil, false
	}

	updated := *m.operator
	if patch.Name != "" {
		updated.Name = patch.Name
	}
	if patch.Email != "" {
		updated.Email = patch.Email
	}
	m.operator = &updated

	userJSON, _ := json.Marshal(updated)
	if err := m.store.Set(models.StateKeyUser, string(userJSON)); err != nil {
		m.log.Warn().Err(err).Msg("persist user slot failed")
	}
	result := updated
	return &result, true
}

// Token returns the backend bearer token, or "" when anonymous. Suitable
// as a gateway.TokenSource.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Operator returns a copy of the logged-in operator, or nil.
func (m *Manager) Operator() *models.Operator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.operator == nil {
		return nil
	}
	op := *m.operator
	return &op
}

// State returns the current lifecycle phase.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Authenticated reports whether both a user and a token are held.
func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateAuthenticated && m.operator != nil && m.token != ""
}

func (m *Manager) redirectLocked() string {
	if m.operator.IsAdmin() {
		return RouteAdminHome
	}
	return RouteRunnerHome
}

// RedirectFor returns the landing route for a role.
func RedirectFor(role string) string {
	if role == models.RoleAdmin {
		return RouteAdminHome
	}
	return RouteRunnerHome
}
