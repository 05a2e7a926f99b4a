package authgate

import (
	"testing"
	"time"

	"workflow_portal_backend/internal/bootstrap"
	"workflow_portal_backend/internal/session"

	"github.com/google/uuid"
)

func grantedState(role string, started time.Time) bootstrap.State {
	userID := uuid.New()
	return bootstrap.State{
		Phase:       bootstrap.PhaseAuthenticated,
		User:        &session.User{ID: userID, Email: "user@example.com"},
		Session:     &session.Session{AccessToken: "token"},
		Profile:     &bootstrap.Profile{ID: userID, Role: role},
		Initialized: true,
		StartedAt:   started,
	}
}

func TestDecideWaitsWhileLoading(t *testing.T) {
	now := time.Now()
	s := bootstrap.State{
		Phase:     bootstrap.PhaseStarting,
		Loading:   true,
		StartedAt: now,
	}
	if got := Decide(s, now, 10*time.Second); got != DecisionWait {
		t.Fatalf("expected wait, got %v", got)
	}
}

func TestDecideFallsBackToLoginAfterTimeout(t *testing.T) {
	started := time.Now().Add(-11 * time.Second)
	s := bootstrap.State{
		Phase:     bootstrap.PhaseStarting,
		Loading:   true,
		StartedAt: started,
	}
	if got := Decide(s, time.Now(), 10*time.Second); got != DecisionLogin {
		t.Fatalf("a guard stuck past the fallback must degrade to login, got %v", got)
	}
}

func TestDecideLoginWithoutSession(t *testing.T) {
	s := bootstrap.State{
		Phase:       bootstrap.PhaseUnauthenticated,
		Initialized: true,
		StartedAt:   time.Now(),
	}
	if got := Decide(s, time.Now(), 10*time.Second); got != DecisionLogin {
		t.Fatalf("expected login, got %v", got)
	}
}

func TestDecideGrantsSettledSession(t *testing.T) {
	s := grantedState("client", time.Now())
	if got := Decide(s, time.Now(), 10*time.Second); got != DecisionGrant {
		t.Fatalf("expected grant, got %v", got)
	}
}

func TestDecideTreatsMissingProfileAsStillLoading(t *testing.T) {
	now := time.Now()
	userID := uuid.New()
	s := bootstrap.State{
		Phase:       bootstrap.PhaseAuthenticatedNoProf,
		User:        &session.User{ID: userID},
		Session:     &session.Session{AccessToken: "token"},
		Initialized: true,
		StartedAt:   now,
	}

	if got := Decide(s, now, 10*time.Second); got != DecisionWait {
		t.Fatalf("user without profile should wait within the window, got %v", got)
	}
	if got := Decide(s, now.Add(11*time.Second), 10*time.Second); got != DecisionGrant {
		t.Fatalf("user whose profile resolved empty must be granted once the window elapses, got %v", got)
	}
	if got := SelectConsole(s); got != ConsoleClient {
		t.Fatalf("missing profile must route to the client console, got %q", got)
	}
}

func TestSelectConsoleByRole(t *testing.T) {
	if got := SelectConsole(grantedState("admin", time.Now())); got != ConsoleAdmin {
		t.Fatalf("expected admin console, got %q", got)
	}
	if got := SelectConsole(grantedState("client", time.Now())); got != ConsoleClient {
		t.Fatalf("expected client console, got %q", got)
	}
	// Unknown roles never escalate.
	if got := SelectConsole(grantedState("superuser", time.Now())); got != ConsoleClient {
		t.Fatalf("unknown role must map to client console, got %q", got)
	}
}

func TestSelectConsolePasswordChangeOverridesRole(t *testing.T) {
	s := grantedState("admin", time.Now())
	s.User.RequiresPasswordChange = true
	if got := SelectConsole(s); got != ConsolePasswordChange {
		t.Fatalf("forced password change must override the admin console, got %q", got)
	}
}
