package bootstrap

import (
	"context"
	"errors"
	"sync"
	"time"

	"workflow_portal_backend/internal/session"
	"workflow_portal_backend/platform/apperr"
	"workflow_portal_backend/platform/config"
	"workflow_portal_backend/platform/logger"
	"workflow_portal_backend/platform/race"

	"github.com/google/uuid"
)

// Bootstrap runs the session bootstrap state machine for one principal.
//
// Lifecycle: New → Start (init race against the init timeout) → terminal
// phase; Notify feeds the authoritative session-change stream, which
// idempotently re-derives state regardless of how it interleaves with the
// initial check. Close tears down timers and in-flight calls; late results
// are no-ops.
type Bootstrap struct {
	store    session.Store
	profiles ProfileReader
	writer   ProfileWriter
	purger   PurgeScheduler
	log      *logger.Logger

	initTimeout  time.Duration
	signOutDelay time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu sync.Mutex
	// generation orders authoritative transitions; an async result produced
	// under an older generation is stale and must be discarded.
	generation uint64
	state      State
	closed     bool
}

// New creates a bootstrap in the starting state. Start must be called to run
// the initial session check.
func New(store session.Store, profiles ProfileReader, writer ProfileWriter, purger PurgeScheduler, cfg config.BootstrapConfig, log *logger.Logger) *Bootstrap {
	ctx, cancel := context.WithCancel(context.Background())

	initTimeout := cfg.GetBootstrapInitTimeout()
	if initTimeout <= 0 {
		initTimeout = 2 * time.Second
	}

	return &Bootstrap{
		store:        store,
		profiles:     profiles,
		writer:       writer,
		purger:       purger,
		log:          log,
		initTimeout:  initTimeout,
		signOutDelay: cfg.GetSignOutPurgeDelay(),
		ctx:          ctx,
		cancel:       cancel,
		state: State{
			Phase:     PhaseStarting,
			Loading:   true,
			StartedAt: time.Now(),
		},
	}
}

// Start races the initial session check against the init timeout. A timeout
// or a failed check is deliberately suppressed into the unauthenticated state
// so a broken connectivity check never locks out a user who might still be
// able to authenticate; only missing configuration is a hard error, and that
// is rejected before a Bootstrap ever exists (config.Load).
func (b *Bootstrap) Start(accessToken string) {
	gen := b.currentGeneration()

	go func() {
		sess, err := race.First(b.ctx, b.initTimeout, func(ctx context.Context) (*session.Session, error) {
			return b.store.CurrentSession(ctx, accessToken)
		})

		switch {
		case err != nil:
			suppressed := err
			if errors.Is(err, race.ErrTimedOut) {
				suppressed = apperr.Timeout("initial session check timed out")
			}
			b.becomeUnauthenticated(gen, suppressed)
		case sess == nil:
			b.becomeUnauthenticated(gen, nil)
		default:
			b.resolveProfile(gen, sess)
		}
	}()
}

// Notify applies a session-change notification. The notification stream is
// authoritative: state is re-derived idempotently no matter whether the event
// arrives before, during, or after the initial check resolves.
func (b *Bootstrap) Notify(event session.Event) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.generation++
	gen := b.generation

	if event.Type == session.EventSignedOut {
		b.state = State{
			Phase:       PhaseUnauthenticated,
			Loading:     false,
			Initialized: true,
			StartedAt:   b.state.StartedAt,
		}
		b.mu.Unlock()
		b.logTransition(PhaseUnauthenticated, uuid.Nil, nil)
		return
	}

	if event.Session == nil {
		// A signed-in/refresh event without a session is malformed; ignore it
		// rather than guessing.
		b.mu.Unlock()
		return
	}

	user := event.Session.User
	b.state.Phase = PhaseResolvingProfile
	b.state.User = &user
	b.state.Session = event.Session
	b.state.Profile = nil
	b.state.Loading = true
	b.state.Err = nil
	// A fresh loading phase restarts the guard's fallback window; otherwise a
	// routine token refresh on a long-lived bootstrap would read as expired
	// and bounce an authenticated user to login mid-session.
	b.state.StartedAt = time.Now()
	b.mu.Unlock()

	go b.resolveProfile(gen, event.Session)
}

// Snapshot returns a copy of the current bootstrap state.
func (b *Bootstrap) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// SignOut clears local state synchronously, then revokes the remote session
// and schedules the deferred purge asynchronously. Remote failures are logged
// and never surfaced: the local state is already gone.
func (b *Bootstrap) SignOut(ctx context.Context) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.generation++

	var userID uuid.UUID
	var token string
	if b.state.User != nil {
		userID = b.state.User.ID
	}
	if b.state.Session != nil {
		token = b.state.Session.AccessToken
	}

	b.state = State{
		Phase:       PhaseUnauthenticated,
		Loading:     false,
		Initialized: true,
		StartedAt:   b.state.StartedAt,
	}
	b.mu.Unlock()

	b.logTransition(PhaseUnauthenticated, userID, nil)

	go func() {
		detached := context.WithoutCancel(ctx)
		if token != "" {
			if err := b.store.SignOut(detached, token); err != nil && b.log != nil {
				b.log.Error("remote sign-out failed", "error", err, "user_id", userID.String())
			}
		}
		if b.purger != nil && userID != uuid.Nil {
			if err := b.purger.SchedulePurge(detached, userID, b.signOutDelay); err != nil && b.log != nil {
				b.log.Error("failed to schedule post-sign-out purge", "error", err, "user_id", userID.String())
			}
		}
	}()
}

// UpdateProfile applies a partial update scoped to the current user. The
// server's returned row replaces the cache on success; on failure the error
// propagates and the cache is left unchanged.
func (b *Bootstrap) UpdateProfile(ctx context.Context, update ProfileUpdate) (*Profile, error) {
	b.mu.Lock()
	if b.state.User == nil {
		b.mu.Unlock()
		return nil, apperr.Unauthorized("no authenticated user")
	}
	userID := b.state.User.ID
	gen := b.generation
	b.mu.Unlock()

	updated, err := b.writer.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	if !b.closed && gen == b.generation && b.state.User != nil && b.state.User.ID == userID {
		b.state.Profile = updated
	}
	b.mu.Unlock()

	return updated, nil
}

// ChangePassword updates the user's password via the session store and clears
// the requires-password-change flag on success.
func (b *Bootstrap) ChangePassword(ctx context.Context, newPassword string) error {
	b.mu.Lock()
	if b.state.Session == nil {
		b.mu.Unlock()
		return apperr.Unauthorized("no active session")
	}
	token := b.state.Session.AccessToken
	gen := b.generation
	b.mu.Unlock()

	cleared := false
	user, err := b.store.UpdateUser(ctx, token, session.UserUpdate{
		Password:               &newPassword,
		RequiresPasswordChange: &cleared,
	})
	if err != nil {
		return err
	}

	b.mu.Lock()
	if !b.closed && gen == b.generation && b.state.User != nil && b.state.User.ID == user.ID {
		b.state.User = user
		if b.state.Session != nil {
			b.state.Session.User = *user
		}
	}
	b.mu.Unlock()

	return nil
}

// Close tears down the bootstrap: pending timers and in-flight calls are
// cancelled, and any result arriving afterwards is discarded.
func (b *Bootstrap) Close() {
	b.mu.Lock()
	b.closed = true
	b.generation++
	b.mu.Unlock()
	b.cancel()
}

func (b *Bootstrap) currentGeneration() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.generation
}

// becomeUnauthenticated applies the suppressed-error unauthenticated
// transition, unless the generation shows a notification already superseded
// this init attempt.
func (b *Bootstrap) becomeUnauthenticated(gen uint64, suppressed error) {
	b.mu.Lock()
	if b.closed || gen != b.generation {
		b.mu.Unlock()
		return
	}
	b.state = State{
		Phase:          PhaseUnauthenticated,
		Loading:        false,
		Initialized:    true,
		LastSuppressed: suppressed,
		StartedAt:      b.state.StartedAt,
	}
	b.mu.Unlock()
	b.logTransition(PhaseUnauthenticated, uuid.Nil, suppressed)
}

// resolveProfile fetches the profile row for the session's user. The profile
// is always fetched fresh; no caching survives a session transition.
func (b *Bootstrap) resolveProfile(gen uint64, sess *session.Session) {
	profile, err := b.profiles.ProfileByUserID(b.ctx, sess.User.ID)

	b.mu.Lock()
	if b.closed || gen != b.generation {
		b.mu.Unlock()
		return
	}

	user := sess.User
	b.state.User = &user
	b.state.Session = sess
	b.state.Loading = false
	b.state.Initialized = true
	b.state.Err = nil

	var phase Phase
	if err != nil || profile == nil {
		// Ambiguous for the guard: null profile with a live user reads as
		// still-loading until the fallback timeout.
		b.state.Profile = nil
		b.state.LastSuppressed = err
		phase = PhaseAuthenticatedNoProf
	} else {
		b.state.Profile = profile
		b.state.LastSuppressed = nil
		phase = PhaseAuthenticated
	}
	b.state.Phase = phase
	b.mu.Unlock()

	b.logTransition(phase, sess.User.ID, err)
}

func (b *Bootstrap) logTransition(phase Phase, userID uuid.UUID, suppressed error) {
	if b.log == nil {
		return
	}
	id := ""
	if userID != uuid.Nil {
		id = userID.String()
	}
	b.log.BootstrapEvent(string(phase), id, suppressed)
}
