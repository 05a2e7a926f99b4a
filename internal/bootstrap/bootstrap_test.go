package bootstrap

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"workflow_portal_backend/internal/session"

	"github.com/google/uuid"
)

type fakeStore struct {
	mu           sync.Mutex
	sess         *session.Session
	err          error
	delay        time.Duration
	signOutCalls int
	signOutErr   error
	updatedUser  *session.User
	updateErr    error
	lastUpdate   session.UserUpdate
}

func (f *fakeStore) CurrentSession(ctx context.Context, accessToken string) (*session.Session, error) {
	f.mu.Lock()
	delay, sess, err := f.delay, f.sess, f.err
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return sess, err
}

func (f *fakeStore) SignOut(ctx context.Context, accessToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOutCalls++
	return f.signOutErr
}

func (f *fakeStore) UpdateUser(ctx context.Context, accessToken string, update session.UserUpdate) (*session.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUpdate = update
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.updatedUser, nil
}

type fakeProfiles struct {
	mu      sync.Mutex
	profile *Profile
	err     error
	delay   time.Duration
	calls   int
}

func (f *fakeProfiles) ProfileByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	f.mu.Lock()
	delay, profile, err := f.delay, f.profile, f.err
	f.calls++
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return profile, err
}

type fakeWriter struct {
	mu      sync.Mutex
	profile *Profile
	err     error
}

func (f *fakeWriter) UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

type fakePurger struct {
	mu    sync.Mutex
	calls []uuid.UUID
}

func (f *fakePurger) SchedulePurge(ctx context.Context, userID uuid.UUID, delay time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, userID)
	return nil
}

func (f *fakePurger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type testConfig struct {
	initTimeout time.Duration
}

func (c testConfig) GetBootstrapInitTimeout() time.Duration { return c.initTimeout }
func (c testConfig) GetGuardFallbackTimeout() time.Duration { return time.Second }
func (c testConfig) GetSignOutPurgeDelay() time.Duration    { return time.Millisecond }

func testSession(userID uuid.UUID) *session.Session {
	return &session.Session{
		AccessToken: "token-" + userID.String(),
		ExpiresAt:   time.Now().Add(time.Hour),
		User: session.User{
			ID:    userID,
			Email: "user@example.com",
		},
	}
}

func waitPhase(t *testing.T, b *Bootstrap, want Phase) State {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s := b.Snapshot()
		if s.Phase == want && !s.Loading {
			return s
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("bootstrap never reached %q, last phase %q", want, b.Snapshot().Phase)
	return State{}
}

func TestStartResolvesSessionAndProfile(t *testing.T) {
	userID := uuid.New()
	store := &fakeStore{sess: testSession(userID)}
	profiles := &fakeProfiles{profile: &Profile{ID: userID, DisplayName: "Ada", Role: "client"}}

	b := New(store, profiles, &fakeWriter{}, &fakePurger{}, testConfig{initTimeout: 500 * time.Millisecond}, nil)
	defer b.Close()
	b.Start("some-token")

	s := waitPhase(t, b, PhaseAuthenticated)
	if s.User == nil || s.User.ID != userID {
		t.Fatalf("expected user %s, got %+v", userID, s.User)
	}
	if s.Profile == nil || s.Profile.DisplayName != "Ada" {
		t.Fatalf("expected resolved profile, got %+v", s.Profile)
	}
	if !s.Initialized || s.Loading {
		t.Fatalf("expected initialized non-loading state, got %+v", s)
	}
}

func TestStartWithoutSessionIsUnauthenticated(t *testing.T) {
	store := &fakeStore{}
	b := New(store, &fakeProfiles{}, &fakeWriter{}, &fakePurger{}, testConfig{initTimeout: 500 * time.Millisecond}, nil)
	defer b.Close()
	b.Start("")

	s := waitPhase(t, b, PhaseUnauthenticated)
	if s.User != nil || s.Session != nil {
		t.Fatalf("expected empty state, got user=%v session=%v", s.User, s.Session)
	}
	if s.LastSuppressed != nil {
		t.Fatalf("no error expected for an ordinary empty session, got %v", s.LastSuppressed)
	}
}

func TestInitTimeoutSuppressedAndLateResultDiscarded(t *testing.T) {
	userID := uuid.New()
	store := &fakeStore{sess: testSession(userID), delay: 300 * time.Millisecond}
	profiles := &fakeProfiles{profile: &Profile{ID: userID, Role: "client"}}

	b := New(store, profiles, &fakeWriter{}, &fakePurger{}, testConfig{initTimeout: 50 * time.Millisecond}, nil)
	defer b.Close()
	b.Start("some-token")

	s := waitPhase(t, b, PhaseUnauthenticated)
	if s.LastSuppressed == nil {
		t.Fatal("expected suppressed timeout error")
	}
	if !s.Initialized {
		t.Fatal("a timed-out init still counts as initialized")
	}

	// The slow session check eventually completes; it must not resurrect an
	// authenticated state.
	time.Sleep(400 * time.Millisecond)
	if got := b.Snapshot().Phase; got != PhaseUnauthenticated {
		t.Fatalf("late init result resurrected state: %q", got)
	}
}

func TestInitErrorSuppressedIntoUnauthenticated(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	b := New(store, &fakeProfiles{}, &fakeWriter{}, &fakePurger{}, testConfig{initTimeout: 500 * time.Millisecond}, nil)
	defer b.Close()
	b.Start("some-token")

	s := waitPhase(t, b, PhaseUnauthenticated)
	if s.Err != nil {
		t.Fatalf("init failure must not surface as a hard error, got %v", s.Err)
	}
	if s.LastSuppressed == nil {
		t.Fatal("expected the suppressed error to be retained for diagnostics")
	}
}

func TestNotifySupersedesPendingInit(t *testing.T) {
	userID := uuid.New()
	store := &fakeStore{sess: testSession(userID), delay: 200 * time.Millisecond}
	profiles := &fakeProfiles{profile: &Profile{ID: userID, Role: "client"}}

	b := New(store, profiles, &fakeWriter{}, &fakePurger{}, testConfig{initTimeout: time.Second}, nil)
	defer b.Close()
	b.Start("some-token")

	// A sign-out notification lands while the init check is still in flight.
	b.Notify(session.Event{Type: session.EventSignedOut, UserID: userID})

	waitPhase(t, b, PhaseUnauthenticated)

	// When the init check finally resolves with a session, the notification
	// stream has already won.
	time.Sleep(300 * time.Millisecond)
	if got := b.Snapshot().Phase; got != PhaseUnauthenticated {
		t.Fatalf("stale init result overrode the notification stream: %q", got)
	}
}

func TestNotifySignedInIsIdempotent(t *testing.T) {
	userID := uuid.New()
	profiles := &fakeProfiles{profile: &Profile{ID: userID, DisplayName: "Ada", Role: "admin"}}

	b := New(&fakeStore{}, profiles, &fakeWriter{}, &fakePurger{}, testConfig{initTimeout: 500 * time.Millisecond}, nil)
	defer b.Close()
	b.Start("")
	waitPhase(t, b, PhaseUnauthenticated)

	event := session.Event{Type: session.EventSignedIn, UserID: userID, Session: testSession(userID)}
	b.Notify(event)
	b.Notify(event)

	s := waitPhase(t, b, PhaseAuthenticated)
	if s.User == nil || s.User.ID != userID {
		t.Fatalf("expected user %s after duplicate sign-in events, got %+v", userID, s.User)
	}
	if s.Profile == nil || s.Profile.Role != "admin" {
		t.Fatalf("expected resolved profile, got %+v", s.Profile)
	}
}

func TestNotifyRestartsFallbackWindow(t *testing.T) {
	userID := uuid.New()
	store := &fakeStore{sess: testSession(userID)}
	profiles := &fakeProfiles{profile: &Profile{ID: userID, Role: "client"}}

	b := New(store, profiles, &fakeWriter{}, &fakePurger{}, testConfig{initTimeout: 500 * time.Millisecond}, nil)
	defer b.Close()
	b.Start("some-token")
	settled := waitPhase(t, b, PhaseAuthenticated)

	// Hold the re-resolve open so the loading snapshot is observable.
	profiles.mu.Lock()
	profiles.delay = 150 * time.Millisecond
	profiles.mu.Unlock()

	b.Notify(session.Event{Type: session.EventTokenRefreshed, UserID: userID, Session: testSession(userID)})

	s := b.Snapshot()
	if !s.Loading {
		t.Fatalf("expected re-resolve in flight, got %+v", s)
	}
	// The guard's fallback window must measure the re-resolve, not the age of
	// the bootstrap; a stale anchor would expire a long-lived session the
	// moment a token refresh arrives.
	if !s.StartedAt.After(settled.StartedAt) {
		t.Fatalf("fallback anchor not restarted: %v is not after %v", s.StartedAt, settled.StartedAt)
	}

	waitPhase(t, b, PhaseAuthenticated)
}

func TestMissingProfileYieldsNoProfilePhase(t *testing.T) {
	userID := uuid.New()
	store := &fakeStore{sess: testSession(userID)}

	b := New(store, &fakeProfiles{}, &fakeWriter{}, &fakePurger{}, testConfig{initTimeout: 500 * time.Millisecond}, nil)
	defer b.Close()
	b.Start("some-token")

	s := waitPhase(t, b, PhaseAuthenticatedNoProf)
	if s.User == nil {
		t.Fatal("user must survive a missing profile")
	}
	if s.Profile != nil {
		t.Fatalf("expected nil profile, got %+v", s.Profile)
	}
}

func TestSignOutClearsLocallyAndSchedulesPurge(t *testing.T) {
	userID := uuid.New()
	store := &fakeStore{sess: testSession(userID)}
	profiles := &fakeProfiles{profile: &Profile{ID: userID, Role: "client"}}
	purger := &fakePurger{}

	b := New(store, profiles, &fakeWriter{}, purger, testConfig{initTimeout: 500 * time.Millisecond}, nil)
	defer b.Close()
	b.Start("some-token")
	waitPhase(t, b, PhaseAuthenticated)

	b.SignOut(context.Background())

	// Local state is cleared synchronously.
	s := b.Snapshot()
	if s.Phase != PhaseUnauthenticated || s.User != nil || s.Session != nil {
		t.Fatalf("sign-out did not clear local state: %+v", s)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		store.mu.Lock()
		calls := store.signOutCalls
		store.mu.Unlock()
		if calls == 1 && purger.count() == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("remote sign-out or purge scheduling never happened")
}

func TestSignOutRemoteFailureIsSwallowed(t *testing.T) {
	userID := uuid.New()
	store := &fakeStore{sess: testSession(userID), signOutErr: errors.New("boom")}
	profiles := &fakeProfiles{profile: &Profile{ID: userID, Role: "client"}}
	purger := &fakePurger{}

	b := New(store, profiles, &fakeWriter{}, purger, testConfig{initTimeout: 500 * time.Millisecond}, nil)
	defer b.Close()
	b.Start("some-token")
	waitPhase(t, b, PhaseAuthenticated)

	b.SignOut(context.Background())

	if got := b.Snapshot().Phase; got != PhaseUnauthenticated {
		t.Fatalf("remote failure leaked into local state: %q", got)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if purger.count() == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("purge must still be scheduled when remote sign-out fails")
}

func TestUpdateProfileReplacesCacheOnSuccess(t *testing.T) {
	userID := uuid.New()
	store := &fakeStore{sess: testSession(userID)}
	profiles := &fakeProfiles{profile: &Profile{ID: userID, DisplayName: "Old", Role: "client"}}
	writer := &fakeWriter{profile: &Profile{ID: userID, DisplayName: "New", Role: "client"}}

	b := New(store, profiles, writer, &fakePurger{}, testConfig{initTimeout: 500 * time.Millisecond}, nil)
	defer b.Close()
	b.Start("some-token")
	waitPhase(t, b, PhaseAuthenticated)

	name := "New"
	updated, err := b.UpdateProfile(context.Background(), ProfileUpdate{DisplayName: &name})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.DisplayName != "New" {
		t.Fatalf("expected returned row, got %+v", updated)
	}
	if got := b.Snapshot().Profile.DisplayName; got != "New" {
		t.Fatalf("cache not replaced, got %q", got)
	}
}

func TestUpdateProfileFailureLeavesCache(t *testing.T) {
	userID := uuid.New()
	store := &fakeStore{sess: testSession(userID)}
	profiles := &fakeProfiles{profile: &Profile{ID: userID, DisplayName: "Old", Role: "client"}}
	writer := &fakeWriter{err: errors.New("db down")}

	b := New(store, profiles, writer, &fakePurger{}, testConfig{initTimeout: 500 * time.Millisecond}, nil)
	defer b.Close()
	b.Start("some-token")
	waitPhase(t, b, PhaseAuthenticated)

	name := "New"
	if _, err := b.UpdateProfile(context.Background(), ProfileUpdate{DisplayName: &name}); err == nil {
		t.Fatal("expected error")
	}
	if got := b.Snapshot().Profile.DisplayName; got != "Old" {
		t.Fatalf("failed update mutated the cache: %q", got)
	}
}

func TestChangePasswordClearsFlag(t *testing.T) {
	userID := uuid.New()
	sess := testSession(userID)
	sess.User.RequiresPasswordChange = true
	store := &fakeStore{
		sess:        sess,
		updatedUser: &session.User{ID: userID, Email: "user@example.com"},
	}
	profiles := &fakeProfiles{profile: &Profile{ID: userID, Role: "client"}}

	b := New(store, profiles, &fakeWriter{}, &fakePurger{}, testConfig{initTimeout: 500 * time.Millisecond}, nil)
	defer b.Close()
	b.Start("some-token")
	waitPhase(t, b, PhaseAuthenticated)

	if err := b.ChangePassword(context.Background(), "correct-horse"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := b.Snapshot()
	if s.User.RequiresPasswordChange {
		t.Fatal("flag not cleared after password change")
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.lastUpdate.Password == nil || *store.lastUpdate.Password != "correct-horse" {
		t.Fatalf("password not forwarded to the session store: %+v", store.lastUpdate)
	}
	if store.lastUpdate.RequiresPasswordChange == nil || *store.lastUpdate.RequiresPasswordChange {
		t.Fatal("requires_password_change must be cleared in the same update")
	}
}

func TestCloseDiscardsLateResults(t *testing.T) {
	userID := uuid.New()
	store := &fakeStore{sess: testSession(userID), delay: 100 * time.Millisecond}
	profiles := &fakeProfiles{profile: &Profile{ID: userID, Role: "client"}}

	b := New(store, profiles, &fakeWriter{}, &fakePurger{}, testConfig{initTimeout: time.Second}, nil)
	b.Start("some-token")
	b.Close()

	time.Sleep(200 * time.Millisecond)
	if got := b.Snapshot().Phase; got != PhaseStarting {
		t.Fatalf("closed bootstrap still transitioned: %q", got)
	}
}

func TestRegistryAcquireAndDispatch(t *testing.T) {
	userID := uuid.New()
	store := &fakeStore{sess: testSession(userID)}
	profiles := &fakeProfiles{profile: &Profile{ID: userID, Role: "client"}}

	r := NewRegistry(store, profiles, &fakeWriter{}, &fakePurger{}, testConfig{initTimeout: 500 * time.Millisecond}, nil)
	defer r.Close()

	b := r.Acquire(userID, "some-token")
	if again := r.Acquire(userID, "some-token"); again != b {
		t.Fatal("second acquire must return the same instance")
	}
	waitPhase(t, b, PhaseAuthenticated)

	r.Dispatch(session.Event{Type: session.EventSignedOut, UserID: userID})
	waitPhase(t, b, PhaseUnauthenticated)

	// Events for unknown principals are dropped.
	r.Dispatch(session.Event{Type: session.EventSignedOut, UserID: uuid.New()})
}

func TestRegistryRemoveClosesBootstrap(t *testing.T) {
	userID := uuid.New()
	store := &fakeStore{sess: testSession(userID)}
	profiles := &fakeProfiles{profile: &Profile{ID: userID, Role: "client"}}

	r := NewRegistry(store, profiles, &fakeWriter{}, &fakePurger{}, testConfig{initTimeout: 500 * time.Millisecond}, nil)
	defer r.Close()

	b := r.Acquire(userID, "some-token")
	waitPhase(t, b, PhaseAuthenticated)

	r.Remove(userID)
	if _, ok := r.Lookup(userID); ok {
		t.Fatal("removed bootstrap still registered")
	}

	// A fresh acquire builds a new instance.
	if again := r.Acquire(userID, "some-token"); again == b {
		t.Fatal("expected a new instance after removal")
	}
}
