// Package session provides the client for the hosted auth service: session
// retrieval, sign-out, user updates, and the session-change event stream.
// All errors crossing this boundary are normalized to apperr kinds so callers
// never inspect transport-specific error shapes.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is the stable identity supplied by the hosted auth service.
type User struct {
	ID                     uuid.UUID      `json:"id"`
	Email                  string         `json:"email"`
	RequiresPasswordChange bool           `json:"requiresPasswordChange"`
	Metadata               map[string]any `json:"metadata,omitempty"`
}

// Session is the credential bundle issued by the hosted auth service. The
// application holds a read-only cached reference; the service owns lifetime
// and refresh.
type Session struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	User        User      `json:"user"`
}

// Expired reports whether the session's access token lifetime has elapsed.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// EventType identifies a session-change notification from the auth service.
type EventType string

const (
	// EventSignedIn is delivered when a session is established.
	EventSignedIn EventType = "SIGNED_IN"
	// EventSignedOut is delivered when the session is invalidated.
	EventSignedOut EventType = "SIGNED_OUT"
	// EventTokenRefreshed is delivered when the service rotates the token.
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
)

// Event is a session-change notification. Session is nil for sign-out events;
// UserID identifies the affected user either way.
type Event struct {
	Type    EventType `json:"type"`
	UserID  uuid.UUID `json:"userId"`
	Session *Session  `json:"session,omitempty"`
}

// UserUpdate carries the mutable user fields accepted by the auth service.
type UserUpdate struct {
	Password               *string `json:"password,omitempty"`
	RequiresPasswordChange *bool   `json:"requiresPasswordChange,omitempty"`
}

// Store is the application-facing interface over the hosted auth service.
type Store interface {
	// CurrentSession validates the access token against the service and
	// returns the live session, or (nil, nil) when no session exists.
	CurrentSession(ctx context.Context, accessToken string) (*Session, error)
	// SignOut revokes the session server-side.
	SignOut(ctx context.Context, accessToken string) error
	// UpdateUser applies password/metadata changes and returns the updated user.
	UpdateUser(ctx context.Context, accessToken string, update UserUpdate) (*User, error)
}
