// Package authgate decides what an authenticated request may reach: whether
// the bootstrap state admits the request at all, and which console (admin or
// client) serves it. Decisions read only the bootstrap snapshot; they never
// trigger network calls of their own.
package authgate

import (
	"time"

	"workflow_portal_backend/internal/bootstrap"
)

// Decision is the guard's verdict for one request.
type Decision int

const (
	// DecisionWait means the bootstrap has not settled yet; the caller
	// should retry shortly.
	DecisionWait Decision = iota
	// DecisionLogin means there is no usable session; the caller must
	// authenticate, preserving the originally requested path.
	DecisionLogin
	// DecisionGrant admits the request.
	DecisionGrant
)

// Console names the surface a granted request is routed to.
type Console string

const (
	ConsoleAdmin          Console = "admin"
	ConsoleClient         Console = "client"
	ConsolePasswordChange Console = "password_change"
)

// RoleAdmin is the profile role granting access to the admin console. Any
// other role value, including an absent profile, routes to the client
// console.
const RoleAdmin = "admin"

// Decide evaluates the guard for a bootstrap snapshot.
//
// While the bootstrap is still loading the verdict is wait, but never
// indefinitely: once fallback has elapsed since the current loading phase
// began, a still-unsettled state degrades to login rather than hanging the
// caller. A user whose profile fetch resolved empty is held as loading within
// the window; once the window elapses the missing row is accepted and the
// request is granted, routing to the client console.
func Decide(s bootstrap.State, now time.Time, fallback time.Duration) Decision {
	expired := fallback > 0 && now.Sub(s.StartedAt) >= fallback

	if s.Loading || !s.Initialized {
		if expired {
			return DecisionLogin
		}
		return DecisionWait
	}

	if s.User == nil || s.Session == nil {
		return DecisionLogin
	}

	if s.Profile == nil && !expired {
		return DecisionWait
	}

	return DecisionGrant
}

// SelectConsole picks the console for a granted snapshot. A pending forced
// password change overrides everything else; otherwise the profile role is
// the sole input.
func SelectConsole(s bootstrap.State) Console {
	if s.User != nil && s.User.RequiresPasswordChange {
		return ConsolePasswordChange
	}
	if s.Profile != nil && s.Profile.Role == RoleAdmin {
		return ConsoleAdmin
	}
	return ConsoleClient
}
