package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/adiwinata/fittrack/internal/client/api"
	"github.com/adiwinata/fittrack/internal/client/models"
	"github.com/adiwinata/fittrack/internal/client/session"
	"github.com/adiwinata/fittrack/internal/logging"
)

var (
	// ErrBusy is returned when a login/register submit arrives while another
	// attempt is still resolving. Attempts are not queued.
	ErrBusy = errors.New("another authentication attempt is in progress")

	// ErrSuperseded is returned when a response resolved after a newer
	// action (logout, abandon) made it stale; its result was discarded.
	ErrSuperseded = errors.New("request superseded by a newer action")

	// ErrNotAuthenticated guards operations that require a session.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// Manager owns the process-wide auth state. It is constructed explicitly at
// the application root and passed by reference; there is no ambient global.
//
// Every dispatched request captures the generation counter at submit time.
// Any action that invalidates in-flight work (logout, abandon) bumps the
// counter, and resolutions whose generation is behind the current one are
// discarded, so a slow login response can never resurrect an authenticated
// state after a logout.
type Manager struct {
	api     api.Client
	store   session.Store
	persist *session.Persister
	log     logging.Logger

	mu    sync.Mutex
	state State
	gen   uint64

	subs []func(State)

	bootstrapOnce sync.Once
	ready         chan struct{}

	now func() time.Time
}

// NewManager wires the machine to its collaborators. The persister must be
// backed by the same store.
func NewManager(apiClient api.Client, store session.Store, persist *session.Persister, log logging.Logger) *Manager {
	return &Manager{
		api:     apiClient,
		store:   store,
		persist: persist,
		log:     log.With("component", "auth"),
		ready:   make(chan struct{}),
		now:     time.Now,
	}
}

// State returns the current snapshot.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers fn to be called with every new state snapshot.
// Callbacks run outside the manager lock, on the goroutine that triggered
// the transition. Must be called before the machine starts receiving events.
func (m *Manager) Subscribe(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// applyLocked reduces the state under the lock and returns the snapshot.
func (m *Manager) applyLocked(ev Event) State {
	m.state = reduce(m.state, ev)
	return m.state
}

func (m *Manager) notify(st State) {
	m.mu.Lock()
	subs := make([]func(State), len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()
	for _, fn := range subs {
		fn(st)
	}
}

// Bootstrap restores a prior session from the store. It runs exactly once,
// makes no network call, and always signals readiness: a load failure is the
// same as having no prior session.
func (m *Manager) Bootstrap(ctx context.Context) {
	m.bootstrapOnce.Do(func() {
		defer close(m.ready)

		sess, err := m.store.Load(ctx)
		if err != nil {
			m.log.Warn(ctx, "could not restore session, starting unauthenticated", "error", err)
			return
		}
		if !sess.Valid() {
			return
		}
		if sess.Expired(m.now()) {
			m.log.Info(ctx, "persisted session expired, discarding")
			m.persist.Clear()
			return
		}

		m.mu.Lock()
		st := m.applyLocked(SessionRestored{Session: *sess})
		m.mu.Unlock()
		m.notify(st)
		m.log.Info(ctx, "session restored", "user", sess.User.Username)
	})
}

// Ready is closed once Bootstrap has finished, successfully or not. Gated
// screens wait on it instead of showing an indefinite loading state.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Login submits a credential pair. Rejected with ErrBusy while another
// attempt is resolving; returns ErrSuperseded when the response arrived
// after a newer action invalidated it.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	gen, err := m.beginAttempt()
	if err != nil {
		return err
	}

	res, err := m.api.Login(ctx, username, password)

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		m.log.Info(ctx, "discarding stale login response")
		return ErrSuperseded
	}
	if err != nil {
		st := m.applyLocked(LoginFailed{Message: err.Error()})
		m.mu.Unlock()
		m.notify(st)
		return err
	}

	sess := models.Session{Token: res.Token, User: res.User, ExpiresAt: res.ExpiresAt}
	st := m.applyLocked(LoginSucceeded{Session: sess})
	m.persist.Save(&sess)
	m.mu.Unlock()
	m.notify(st)
	return nil
}

// Register submits a new account. On success the machine moves to
// PendingVerification and records the email the code was sent to; no
// session is created.
func (m *Manager) Register(ctx context.Context, req api.RegisterRequest) error {
	gen, err := m.beginAttempt()
	if err != nil {
		return err
	}

	res, err := m.api.Register(ctx, req)

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		m.log.Info(ctx, "discarding stale register response")
		return ErrSuperseded
	}
	if err != nil {
		st := m.applyLocked(RegisterFailed{Message: err.Error()})
		m.mu.Unlock()
		m.notify(st)
		return err
	}

	st := m.applyLocked(RegisterSucceeded{Email: res.Email})
	m.mu.Unlock()
	m.notify(st)
	return nil
}

// beginAttempt enforces the no-concurrent-submits rule and moves the
// machine into Authenticating, returning the generation tag the resolution
// must present.
func (m *Manager) beginAttempt() (uint64, error) {
	m.mu.Lock()
	if m.state.Status == StatusAuthenticating {
		m.mu.Unlock()
		return 0, ErrBusy
	}
	if m.state.Status == StatusAuthenticated {
		m.mu.Unlock()
		return 0, errors.New("already authenticated")
	}
	m.gen++
	gen := m.gen
	st := m.applyLocked(SubmitStarted{})
	m.mu.Unlock()
	m.notify(st)
	return gen, nil
}

// Abandon resolves an in-flight attempt whose screen was navigated away
// from. The network call is not cancelled, but its eventual result is
// stale-generation and will be ignored.
func (m *Manager) Abandon() {
	m.mu.Lock()
	if m.state.Status != StatusAuthenticating {
		m.mu.Unlock()
		return
	}
	m.gen++
	st := m.applyLocked(SubmitAbandoned{})
	m.mu.Unlock()
	m.notify(st)
}

// CompleteVerification reports that the external email-verification step
// finished, returning the machine to Unauthenticated so the user can log in.
func (m *Manager) CompleteVerification() {
	m.mu.Lock()
	st := m.applyLocked(VerificationResolved{})
	m.mu.Unlock()
	m.notify(st)
}

// UpdateProfile pushes a partial update to the backend, merges it into the
// in-memory profile and schedules persistence. The UI does not block on the
// write; Settle on the persister awaits it.
func (m *Manager) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) error {
	m.mu.Lock()
	if m.state.Status != StatusAuthenticated {
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	gen := m.gen
	token := m.state.Session.Token
	m.mu.Unlock()

	if _, err := m.api.UpdateProfile(ctx, token, upd); err != nil {
		return err
	}

	m.mu.Lock()
	if gen != m.gen || m.state.Status != StatusAuthenticated {
		m.mu.Unlock()
		m.log.Info(ctx, "discarding stale profile update response")
		return ErrSuperseded
	}
	st := m.applyLocked(ProfileMerged{Update: upd})
	sess := st.Session
	m.persist.Save(&sess)
	m.mu.Unlock()
	m.notify(st)
	return nil
}

// Logout drops the session. Local state and the store are always cleared;
// the backend revocation call is best effort and its failure only logged.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	token := m.state.Session.Token
	m.gen++
	st := m.applyLocked(LoggedOut{})
	m.persist.Clear()
	m.mu.Unlock()
	m.notify(st)

	if token == "" {
		return
	}
	if err := m.api.Logout(ctx, token); err != nil {
		m.log.Warn(ctx, "server logout failed, local session cleared anyway", "error", err)
	}
}

// DismissError clears the error annotation after the UI has shown it.
func (m *Manager) DismissError() {
	m.mu.Lock()
	st := m.applyLocked(ErrorDismissed{})
	m.mu.Unlock()
	m.notify(st)
}

// Route derives the flow for the current state.
func (m *Manager) Route() Flow {
	st := m.State()
	return RouteFor(st.Status, st.Session.User)
}
