// Package session owns the process-wide authentication state. The Manager is
// the single writer; everything else observes it through Snapshot and
// Subscribe.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/beaconapp/authcore/internal/api"
	"github.com/beaconapp/authcore/internal/keystore"
)

// State is the session as the rest of the application sees it. Loading is
// true only between process start and the first keystore consultation.
type State struct {
	User          *api.User
	Authenticated bool
	Loading       bool
}

// Gateway is the slice of the API client the manager needs.
type Gateway interface {
	Login(ctx context.Context, email, password string) (api.AuthResult, error)
	Register(ctx context.Context, req api.SignupRequest) (api.AuthResult, error)
	Logout(ctx context.Context) error
	UpdatePassword(ctx context.Context, current, updated string) error
}

// Manager drives the session lifecycle: restore on startup, login, register,
// logout and password changes. It persists tokens through the keystore and
// notifies subscribers on every state change.
type Manager struct {
	gw     Gateway
	tokens keystore.Store
	logger *slog.Logger

	// mu guards state and the subscriber set. Callers issue one operation
	// at a time; overlapping calls are not serialized beyond this, so the
	// last write to the state wins.
	mu      sync.Mutex
	state   State
	subs    map[int]func(State)
	nextSub int
}

// NewManager builds a manager in the initial loading state.
func NewManager(gw Gateway, tokens keystore.Store, logger *slog.Logger) *Manager {
	return &Manager{
		gw:     gw,
		tokens: tokens,
		logger: logger,
		state:  State{Loading: true},
		subs:   make(map[int]func(State)),
	}
}

// Init consults the keystore once at startup. A stored token restores the
// authenticated flag; the user record itself is not refetched here, so User
// stays nil until the next login. Keystore read failures count as no token.
func (m *Manager) Init(ctx context.Context) {
	tok, err := m.tokens.Get(ctx)
	if err != nil && !errors.Is(err, keystore.ErrNotFound) {
		m.logger.Warn("restore session", "error", err)
	}

	m.setState(State{
		Authenticated: err == nil && tok != "",
		Loading:       false,
	})
}

// Login authenticates, persists the returned token and stores the user. On
// failure the session is untouched and the caller gets a single
// human-readable message.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	res, err := m.gw.Login(ctx, email, password)
	if err != nil {
		return errors.New(api.ErrorMessage(err))
	}
	return m.establish(ctx, res)
}

// Register creates the account and establishes the session exactly like a
// successful login.
func (m *Manager) Register(ctx context.Context, req api.SignupRequest) error {
	res, err := m.gw.Register(ctx, req)
	if err != nil {
		return errors.New(api.ErrorMessage(err))
	}
	return m.establish(ctx, res)
}

// Logout tears the session down locally no matter what the server says: the
// remote call and the token removal may fail, but the state always ends up
// signed out. Remote failures are logged, never surfaced.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.gw.Logout(ctx); err != nil {
		m.logger.Warn("remote logout", "error", err)
	}
	if err := m.tokens.Remove(ctx); err != nil {
		m.logger.Warn("remove token", "error", err)
	}
	m.setState(State{})
}

// UpdatePassword changes the password without touching session state.
func (m *Manager) UpdatePassword(ctx context.Context, current, updated string) error {
	if err := m.gw.UpdatePassword(ctx, current, updated); err != nil {
		return errors.New(api.ErrorMessage(err))
	}
	return nil
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers a listener called on every state change. The returned
// function unsubscribes it.
func (m *Manager) Subscribe(fn func(State)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

func (m *Manager) establish(ctx context.Context, res api.AuthResult) error {
	// Keystore write failures surface; the session would not survive a
	// restart without the persisted token.
	if err := m.tokens.Set(ctx, res.Token); err != nil {
		return errors.New(api.ErrorMessage(err))
	}

	user := res.User
	m.setState(State{User: &user, Authenticated: true})
	return nil
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	listeners := make([]func(State), 0, len(m.subs))
	for _, fn := range m.subs {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	// Notify outside the lock so a listener can call back into the manager.
	for _, fn := range listeners {
		fn(s)
	}
}
