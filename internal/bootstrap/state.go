// Package bootstrap owns the session bootstrap state machine: it produces a
// single consistent snapshot of {user, profile, session, loading, error} for
// the rest of the application and keeps it updated as the external session
// changes. Nothing else mutates this state.
package bootstrap

import (
	"context"
	"time"

	"workflow_portal_backend/internal/session"

	"github.com/google/uuid"
)

// Phase names the bootstrap's observable states. Used for logging and tests;
// guard decisions are derived from the State fields, not the phase label.
type Phase string

const (
	PhaseStarting            Phase = "starting"
	PhaseUnauthenticated     Phase = "unauthenticated"
	PhaseResolvingProfile    Phase = "resolving_profile"
	PhaseAuthenticated       Phase = "authenticated"
	PhaseAuthenticatedNoProf Phase = "authenticated_no_profile"
)

// Profile is the bootstrap's view of the user's profile row. The profiles
// module is the source; role is the sole authorization input downstream.
type Profile struct {
	ID          uuid.UUID
	DisplayName string
	Email       string
	Phone       *string
	AvatarKey   *string
	Role        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// State is the process-local bootstrap record. Created fresh per bootstrap,
// mutated exclusively by the Bootstrap component, never persisted.
type State struct {
	Phase       Phase
	User        *session.User
	Profile     *Profile
	Session     *session.Session
	Loading     bool
	Initialized bool
	// Err is non-nil only for the unconfigured terminal state; init-time
	// network failures are suppressed per the guard contract.
	Err error
	// LastSuppressed retains the normalized error a suppression hid, for
	// diagnostics only. Guard decisions must not read it.
	LastSuppressed error
	// StartedAt anchors the route guard's fallback timeout. Restamped each
	// time a new loading phase begins, so the window measures the current
	// resolve, not the lifetime of the bootstrap.
	StartedAt time.Time
}

// ProfileUpdate carries the mutable profile fields a user may change.
type ProfileUpdate struct {
	DisplayName *string
	Phone       *string
	AvatarKey   *string
}

// ProfileReader resolves the profile row backing a user identity.
type ProfileReader interface {
	ProfileByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
}

// ProfileWriter applies partial profile updates, returning the authoritative
// server row.
type ProfileWriter interface {
	UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*Profile, error)
}

// PurgeScheduler schedules the deferred cleanup that runs after sign-out so
// no cached per-user state survives the session.
type PurgeScheduler interface {
	SchedulePurge(ctx context.Context, userID uuid.UUID, delay time.Duration) error
}
