package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adiwinata/fittrack/internal/client/api"
	"github.com/adiwinata/fittrack/internal/client/models"
	"github.com/adiwinata/fittrack/internal/client/session"
	"github.com/adiwinata/fittrack/internal/logging"
)

// ---- fakes ----

type fakeAPI struct {
	loginFn    func(ctx context.Context, username, password string) (*api.LoginResult, error)
	registerFn func(ctx context.Context, req api.RegisterRequest) (*api.RegisterResult, error)
	updateFn   func(ctx context.Context, token string, upd models.ProfileUpdate) (*models.Profile, error)

	logoutErr   error
	logoutCalls atomic.Int32
}

func (f *fakeAPI) Login(ctx context.Context, username, password string) (*api.LoginResult, error) {
	return f.loginFn(ctx, username, password)
}

func (f *fakeAPI) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResult, error) {
	return f.registerFn(ctx, req)
}

func (f *fakeAPI) UpdateProfile(ctx context.Context, token string, upd models.ProfileUpdate) (*models.Profile, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, token, upd)
	}
	return nil, nil
}

func (f *fakeAPI) Logout(ctx context.Context, token string) error {
	f.logoutCalls.Add(1)
	return f.logoutErr
}

func (f *fakeAPI) RegenerateOTP(ctx context.Context, email string) (string, error) { return "", nil }
func (f *fakeAPI) ForgotPassword(ctx context.Context, email string) (string, error) {
	return "", nil
}
func (f *fakeAPI) ChangePassword(ctx context.Context, token, cur, next string) (string, error) {
	return "", nil
}
func (f *fakeAPI) FetchProfile(ctx context.Context, token string) (*models.Profile, error) {
	return nil, nil
}
func (f *fakeAPI) WorkUnitParents(ctx context.Context) ([]api.WorkUnit, error) { return nil, nil }
func (f *fakeAPI) WorkUnitChildren(ctx context.Context, id int64) ([]api.WorkUnit, error) {
	return nil, nil
}
func (f *fakeAPI) Close() error { return nil }

// memStore is an in-memory session.Store.
type memStore struct {
	mu   sync.Mutex
	sess *models.Session

	loadErr error
}

func (m *memStore) Load(ctx context.Context) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.sess.Clone(), nil
}

func (m *memStore) Save(ctx context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = s.Clone()
	return nil
}

func (m *memStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = nil
	return nil
}

func (m *memStore) get() *models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess.Clone()
}

// ---- helpers ----

func okLogin(token string) func(ctx context.Context, username, password string) (*api.LoginResult, error) {
	return func(ctx context.Context, username, password string) (*api.LoginResult, error) {
		return &api.LoginResult{
			Token: token,
			User:  &models.Profile{ID: 1, Username: username},
		}, nil
	}
}

func newTestManager(t *testing.T, apiClient api.Client, store session.Store) (*Manager, *session.Persister) {
	t.Helper()
	log := logging.NewText(io.Discard, slog.LevelError)
	persist := session.NewPersister(store, log)
	t.Cleanup(persist.Close)
	return NewManager(apiClient, store, persist, log), persist
}

func settle(t *testing.T, p *session.Persister) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Settle(ctx))
}

// ---- tests ----

func TestManager_LoginSuccess_PersistsSession(t *testing.T) {
	store := &memStore{}
	f := &fakeAPI{loginFn: okLogin("tok-1")}
	m, p := newTestManager(t, f, store)

	require.NoError(t, m.Login(context.Background(), "budi", "pw"))

	st := m.State()
	assert.Equal(t, StatusAuthenticated, st.Status)
	assert.Equal(t, "tok-1", st.Session.Token)

	settle(t, p)
	persisted := store.get()
	require.NotNil(t, persisted, "authenticated state implies a persisted session")
	assert.Equal(t, "tok-1", persisted.Token)
	assert.Equal(t, "budi", persisted.User.Username)
}

func TestManager_LoginFailure_LeavesStoreEmpty(t *testing.T) {
	store := &memStore{}
	f := &fakeAPI{loginFn: func(ctx context.Context, u, p string) (*api.LoginResult, error) {
		return nil, api.ErrInvalidCredentials
	}}
	m, p := newTestManager(t, f, store)

	err := m.Login(context.Background(), "budi", "wrong")
	assert.ErrorIs(t, err, api.ErrInvalidCredentials)

	st := m.State()
	assert.Equal(t, StatusUnauthenticated, st.Status)
	assert.NotEmpty(t, st.Err)

	settle(t, p)
	assert.Nil(t, store.get(), "failed login must not persist anything")
}

func TestManager_ConcurrentSubmitIsRejected(t *testing.T) {
	release := make(chan struct{})
	f := &fakeAPI{loginFn: func(ctx context.Context, u, p string) (*api.LoginResult, error) {
		<-release
		return okLogin("tok")(ctx, u, p)
	}}
	m, _ := newTestManager(t, f, &memStore{})

	done := make(chan error, 1)
	go func() { done <- m.Login(context.Background(), "budi", "pw") }()

	// Wait for the first attempt to enter Authenticating.
	require.Eventually(t, func() bool {
		return m.State().Status == StatusAuthenticating
	}, time.Second, time.Millisecond)

	err := m.Login(context.Background(), "budi", "pw")
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	require.NoError(t, <-done)
}

func TestManager_StaleLoginResponseIsDiscarded(t *testing.T) {
	// Attempt A blocks; the user abandons the screen and submits attempt B,
	// which resolves first. A's late resolution must be ignored.
	releaseA := make(chan struct{})
	var calls atomic.Int32
	f := &fakeAPI{loginFn: func(ctx context.Context, u, p string) (*api.LoginResult, error) {
		if calls.Add(1) == 1 {
			<-releaseA
			return &api.LoginResult{Token: "tok-A", User: &models.Profile{ID: 1, Username: "a"}}, nil
		}
		return &api.LoginResult{Token: "tok-B", User: &models.Profile{ID: 2, Username: "b"}}, nil
	}}
	store := &memStore{}
	m, p := newTestManager(t, f, store)

	doneA := make(chan error, 1)
	go func() { doneA <- m.Login(context.Background(), "a", "pw") }()

	require.Eventually(t, func() bool {
		return m.State().Status == StatusAuthenticating
	}, time.Second, time.Millisecond)

	m.Abandon()
	assert.Equal(t, StatusUnauthenticated, m.State().Status)

	require.NoError(t, m.Login(context.Background(), "b", "pw"))
	assert.Equal(t, "tok-B", m.State().Session.Token)

	close(releaseA)
	assert.ErrorIs(t, <-doneA, ErrSuperseded)

	// B's session remains.
	st := m.State()
	assert.Equal(t, StatusAuthenticated, st.Status)
	assert.Equal(t, "tok-B", st.Session.Token)

	settle(t, p)
	assert.Equal(t, "tok-B", store.get().Token)
}

func TestManager_SlowLoginCannotResurrectAfterLogout(t *testing.T) {
	release := make(chan struct{})
	f := &fakeAPI{loginFn: func(ctx context.Context, u, p string) (*api.LoginResult, error) {
		<-release
		return okLogin("late-token")(ctx, u, p)
	}}
	store := &memStore{}
	m, p := newTestManager(t, f, store)

	done := make(chan error, 1)
	go func() { done <- m.Login(context.Background(), "budi", "pw") }()

	require.Eventually(t, func() bool {
		return m.State().Status == StatusAuthenticating
	}, time.Second, time.Millisecond)

	m.Logout(context.Background())
	close(release)

	assert.ErrorIs(t, <-done, ErrSuperseded)
	assert.Equal(t, StatusUnauthenticated, m.State().Status)

	settle(t, p)
	assert.Nil(t, store.get())
}

func TestManager_RegisterSuccess_PendingVerification(t *testing.T) {
	store := &memStore{}
	f := &fakeAPI{registerFn: func(ctx context.Context, req api.RegisterRequest) (*api.RegisterResult, error) {
		return &api.RegisterResult{Message: "check your inbox", Email: req.Email}, nil
	}}
	m, p := newTestManager(t, f, store)

	require.NoError(t, m.Register(context.Background(), api.RegisterRequest{Email: "a@b.com"}))

	st := m.State()
	assert.Equal(t, StatusPendingVerification, st.Status)
	assert.Equal(t, "a@b.com", st.PendingVerificationEmail)
	assert.False(t, st.Session.Valid(), "register must not authenticate")

	settle(t, p)
	assert.Nil(t, store.get())

	m.CompleteVerification()
	st = m.State()
	assert.Equal(t, StatusUnauthenticated, st.Status)
	assert.Empty(t, st.PendingVerificationEmail)
}

func TestManager_RegisterFailure(t *testing.T) {
	wantErr := &api.ValidationError{Message: "taken", Fields: map[string][]string{"email": {"taken"}}}
	f := &fakeAPI{registerFn: func(ctx context.Context, req api.RegisterRequest) (*api.RegisterResult, error) {
		return nil, wantErr
	}}
	m, _ := newTestManager(t, f, &memStore{})

	err := m.Register(context.Background(), api.RegisterRequest{Email: "a@b.com"})

	var ve *api.ValidationError
	require.ErrorAs(t, err, &ve)
	st := m.State()
	assert.Equal(t, StatusUnauthenticated, st.Status)
	assert.NotEmpty(t, st.Err)
}

func TestManager_Logout_ClearsStoreEvenWhenServerCallFails(t *testing.T) {
	store := &memStore{}
	f := &fakeAPI{loginFn: okLogin("tok"), logoutErr: errors.New("backend down")}
	m, p := newTestManager(t, f, store)

	require.NoError(t, m.Login(context.Background(), "budi", "pw"))
	settle(t, p)
	require.NotNil(t, store.get())

	m.Logout(context.Background())

	assert.Equal(t, StatusUnauthenticated, m.State().Status)
	settle(t, p)
	assert.Nil(t, store.get(), "local session must be cleared regardless of the server outcome")
	assert.Equal(t, int32(1), f.logoutCalls.Load())
}

func TestManager_UpdateProfile_MergesAndPersists(t *testing.T) {
	store := &memStore{}
	f := &fakeAPI{loginFn: func(ctx context.Context, u, p string) (*api.LoginResult, error) {
		height := 180.0
		return &api.LoginResult{
			Token: "tok",
			User:  &models.Profile{ID: 1, Username: u, Height: &height},
		}, nil
	}}
	m, p := newTestManager(t, f, store)
	require.NoError(t, m.Login(context.Background(), "budi", "pw"))

	weight := 70.0
	require.NoError(t, m.UpdateProfile(context.Background(), models.ProfileUpdate{Weight: &weight}))

	user := m.State().Session.User
	require.NotNil(t, user.Weight)
	require.NotNil(t, user.Height)
	assert.Equal(t, 70.0, *user.Weight)
	assert.Equal(t, 180.0, *user.Height)

	settle(t, p)
	persisted := store.get()
	require.NotNil(t, persisted)
	require.NotNil(t, persisted.User.Weight)
	assert.Equal(t, 70.0, *persisted.User.Weight)
}

func TestManager_UpdateProfile_RequiresAuthentication(t *testing.T) {
	m, _ := newTestManager(t, &fakeAPI{}, &memStore{})

	w := 70.0
	err := m.UpdateProfile(context.Background(), models.ProfileUpdate{Weight: &w})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestManager_UpdateProfile_StaleAfterLogout(t *testing.T) {
	release := make(chan struct{})
	f := &fakeAPI{
		loginFn: okLogin("tok"),
		updateFn: func(ctx context.Context, token string, upd models.ProfileUpdate) (*models.Profile, error) {
			<-release
			return nil, nil
		},
	}
	m, _ := newTestManager(t, f, &memStore{})
	require.NoError(t, m.Login(context.Background(), "budi", "pw"))

	done := make(chan error, 1)
	w := 70.0
	go func() { done <- m.UpdateProfile(context.Background(), models.ProfileUpdate{Weight: &w}) }()

	// Let the update reach the network call, then log out underneath it.
	time.Sleep(10 * time.Millisecond)
	m.Logout(context.Background())
	close(release)

	assert.ErrorIs(t, <-done, ErrSuperseded)
	assert.Equal(t, StatusUnauthenticated, m.State().Status)
}

func TestManager_Bootstrap_RestoresValidSession(t *testing.T) {
	store := &memStore{sess: &models.Session{
		Token: "tok",
		User:  &models.Profile{ID: 1, Username: "budi"},
	}}
	m, _ := newTestManager(t, &fakeAPI{}, store)

	m.Bootstrap(context.Background())

	<-m.Ready()
	st := m.State()
	assert.Equal(t, StatusAuthenticated, st.Status)
	assert.Equal(t, "tok", st.Session.Token)
}

func TestManager_Bootstrap_PartialSessionIsIgnored(t *testing.T) {
	// Token without user: never restore a half-populated session.
	store := &memStore{sess: &models.Session{Token: "x"}}
	m, _ := newTestManager(t, &fakeAPI{}, store)

	m.Bootstrap(context.Background())

	assert.Equal(t, StatusUnauthenticated, m.State().Status)
}

func TestManager_Bootstrap_StorageErrorMeansNoSession(t *testing.T) {
	store := &memStore{loadErr: &session.StorageError{Op: "load", Err: errors.New("disk gone")}}
	m, _ := newTestManager(t, &fakeAPI{}, store)

	m.Bootstrap(context.Background())

	select {
	case <-m.Ready():
	default:
		t.Fatal("bootstrap must signal completion even on storage failure")
	}
	assert.Equal(t, StatusUnauthenticated, m.State().Status)
}

func TestManager_Bootstrap_ExpiredSessionIsDiscarded(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	store := &memStore{sess: &models.Session{
		Token:     "tok",
		User:      &models.Profile{ID: 1},
		ExpiresAt: &past,
	}}
	m, p := newTestManager(t, &fakeAPI{}, store)

	m.Bootstrap(context.Background())

	assert.Equal(t, StatusUnauthenticated, m.State().Status)
	settle(t, p)
	assert.Nil(t, store.get(), "expired session must be cleared from the store")
}

func TestManager_Bootstrap_RunsOnce(t *testing.T) {
	store := &memStore{sess: &models.Session{Token: "tok", User: &models.Profile{ID: 1}}}
	m, _ := newTestManager(t, &fakeAPI{}, store)

	m.Bootstrap(context.Background())
	m.Logout(context.Background())
	m.Bootstrap(context.Background())

	assert.Equal(t, StatusUnauthenticated, m.State().Status, "second bootstrap must be a no-op")
}

func TestManager_SubscribersSeeEveryTransition(t *testing.T) {
	f := &fakeAPI{loginFn: okLogin("tok")}
	m, _ := newTestManager(t, f, &memStore{})

	var mu sync.Mutex
	var seen []Status
	m.Subscribe(func(st State) {
		mu.Lock()
		seen = append(seen, st.Status)
		mu.Unlock()
	})

	require.NoError(t, m.Login(context.Background(), "budi", "pw"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Status{StatusAuthenticating, StatusAuthenticated}, seen)
}

func TestManager_Route_FollowsAuthState(t *testing.T) {
	f := &fakeAPI{loginFn: okLogin("tok")}
	m, _ := newTestManager(t, f, &memStore{})

	assert.Equal(t, FlowAuth, m.Route())

	require.NoError(t, m.Login(context.Background(), "budi", "pw"))
	assert.Equal(t, FlowOnboarding, m.Route(), "fresh account has not finished onboarding")

	done := true
	require.NoError(t, m.UpdateProfile(context.Background(), models.ProfileUpdate{OnboardingCompleted: &done}))
	assert.Equal(t, FlowMain, m.Route())

	m.Logout(context.Background())
	assert.Equal(t, FlowAuth, m.Route())
}
