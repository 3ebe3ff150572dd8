package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/harsha08-2k6/studyplan/internal/api"
	"github.com/harsha08-2k6/studyplan/internal/store"
)

// State is the session lifecycle phase.
type State int

const (
	StateUnknown State = iota
	StateRestoring
	StateAuthenticated
	StateAnonymous
)

// Manager owns the authenticated user and the credential pair. It is the
// sole writer of the client's outgoing token; views read the published user
// through CurrentUser and must never mutate it.
type Manager struct {
	client *api.Client
	store  *store.Store

	mu    sync.RWMutex
	state State
	user  *api.User
}

func New(client *api.Client, st *store.Store) *Manager {
	return &Manager{
		client: client,
		store:  st,
		state:  StateUnknown,
	}
}

// Restore reinstates a persisted session without a server round trip. A
// stale or tampered local user record is accepted as-is until Validate or
// the next authenticated call; startup never blocks on the network.
func (m *Manager) Restore() error {
	m.setState(StateRestoring)

	token, err := m.store.GetSession(store.KeyAccessToken)
	if errors.Is(err, store.ErrNotFound) {
		m.setState(StateAnonymous)
		return nil
	}
	if err != nil {
		m.setState(StateAnonymous)
		return fmt.Errorf("restore session: %w", err)
	}

	raw, err := m.store.GetSession(store.KeyUser)
	if err != nil {
		// A token without a user record is an invariant violation; drop
		// the whole session rather than publish half of one.
		m.clearPersisted()
		m.setState(StateAnonymous)
		return fmt.Errorf("restore session: stored user missing: %w", err)
	}

	var user api.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		m.clearPersisted()
		m.setState(StateAnonymous)
		return fmt.Errorf("restore session: decode stored user: %w", err)
	}

	m.client.SetToken(token)
	m.publish(&user)
	return nil
}

// Validate re-checks a restored session against the server and refreshes
// the published profile. An auth rejection logs the session out; transport
// failures leave the restored session standing.
func (m *Manager) Validate(ctx context.Context) error {
	if m.CurrentUser() == nil {
		return nil
	}

	user, err := m.client.Me(ctx)
	if err != nil {
		var authErr *api.AuthError
		if errors.As(err, &authErr) {
			m.Logout()
		}
		return err
	}

	m.publish(&user)
	m.persistUser(user)
	return nil
}

// Login exchanges credentials for a token pair, then fetches the canonical
// profile. The two steps are atomic from the outside: a profile-fetch
// failure rolls back the token write so no partial session is visible.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	creds, err := m.client.Login(ctx, username, password)
	if err != nil {
		return err
	}

	m.client.SetToken(creds.Access)

	user, err := m.client.Me(ctx)
	if err != nil {
		m.client.ClearToken()
		m.clearPersisted()
		return fmt.Errorf("fetch profile: %w", err)
	}

	if err := m.store.SetSession(store.KeyAccessToken, creds.Access); err != nil {
		return fmt.Errorf("persist access token: %w", err)
	}
	if err := m.store.SetSession(store.KeyRefreshToken, creds.Refresh); err != nil {
		return fmt.Errorf("persist refresh token: %w", err)
	}
	m.persistUser(user)

	m.publish(&user)
	return nil
}

// Register forwards a new-account payload. The new account is not logged in.
func (m *Manager) Register(ctx context.Context, req api.RegisterRequest) error {
	_, err := m.client.Register(ctx, req)
	return err
}

// Logout clears the published user, the persisted credential pair and the
// outgoing token. It never fails.
func (m *Manager) Logout() {
	m.client.ClearToken()
	m.clearPersisted()

	m.mu.Lock()
	m.user = nil
	m.state = StateAnonymous
	m.mu.Unlock()
}

// ChangePassword checks the confirmation client-side before dispatching.
func (m *Manager) ChangePassword(ctx context.Context, oldPassword, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return &api.ValidationError{Detail: "passwords do not match"}
	}
	return m.client.ChangePassword(ctx, oldPassword, newPassword, confirmPassword)
}

// CurrentUser returns the published user, or nil when anonymous.
func (m *Manager) CurrentUser() *api.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Loading reports whether the session is still being restored. The view
// gate must not admit protected content while this is true.
func (m *Manager) Loading() bool {
	s := m.State()
	return s == StateUnknown || s == StateRestoring
}

func (m *Manager) Authenticated() bool {
	return m.State() == StateAuthenticated && m.CurrentUser() != nil
}

func (m *Manager) publish(user *api.User) {
	m.mu.Lock()
	m.user = user
	m.state = StateAuthenticated
	m.mu.Unlock()
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Manager) persistUser(user api.User) {
	if data, err := json.Marshal(user); err == nil {
		m.store.SetSession(store.KeyUser, string(data))
	}
}

func (m *Manager) clearPersisted() {
	m.store.DeleteSession(store.KeyAccessToken)
	m.store.DeleteSession(store.KeyRefreshToken)
	m.store.DeleteSession(store.KeyUser)
}
