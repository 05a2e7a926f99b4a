package account

import (
	"context"
	"testing"
	"time"

	"workflow_portal_backend/internal/bootstrap"
	"workflow_portal_backend/internal/events"
	"workflow_portal_backend/internal/session"
	"workflow_portal_backend/platform/logger"
	"workflow_portal_backend/platform/validator"

	"github.com/google/uuid"
)

type nullStore struct{}

func (nullStore) CurrentSession(context.Context, string) (*session.Session, error) {
	return nil, nil
}
func (nullStore) SignOut(context.Context, string) error { return nil }
func (nullStore) UpdateUser(context.Context, string, session.UserUpdate) (*session.User, error) {
	return nil, nil
}

type nullProfiles struct{}

func (nullProfiles) ProfileByUserID(context.Context, uuid.UUID) (*bootstrap.Profile, error) {
	return nil, nil
}

type nullWriter struct{}

func (nullWriter) UpdateProfile(context.Context, uuid.UUID, bootstrap.ProfileUpdate) (*bootstrap.Profile, error) {
	return nil, nil
}

type nullPurger struct{}

func (nullPurger) SchedulePurge(context.Context, uuid.UUID, time.Duration) error { return nil }

type testConfig struct{}

func (testConfig) GetBootstrapInitTimeout() time.Duration  { return 50 * time.Millisecond }
func (testConfig) GetGuardFallbackTimeout() time.Duration  { return 10 * time.Second }
func (testConfig) GetSignOutPurgeDelay() time.Duration     { return time.Millisecond }
func (testConfig) GetAuthServiceURL() string               { return "http://auth.test" }
func (testConfig) GetAuthServiceKey() string               { return "key" }
func (testConfig) GetAuthJWTSecret() string                { return "secret" }
func (testConfig) GetSessionCallbackSecret() string        { return "callback" }

func newTestModule() (*Module, *bootstrap.Registry) {
	registry := bootstrap.NewRegistry(nullStore{}, nullProfiles{}, nullWriter{}, nullPurger{}, testConfig{}, logger.New("test"))
	m := NewModule(registry, testConfig{}, events.NewInMemoryBus(logger.New("test")), validator.New(), logger.New("test"))
	return m, registry
}

func TestSessionRevokedEvictsBootstrap(t *testing.T) {
	m, registry := newTestModule()
	userID := uuid.New()
	registry.Acquire(userID, "token")

	if err := m.Handle(context.Background(), events.SessionRevoked{BaseEvent: events.NewBaseEvent(), UserID: userID, Reason: "signed_out"}); err != nil {
		t.Fatalf("Handle returned %v", err)
	}

	if _, ok := registry.Lookup(userID); ok {
		t.Fatal("bootstrap still cached after session revocation")
	}
}

func TestRoleChangeEvictsBootstrap(t *testing.T) {
	m, registry := newTestModule()
	userID := uuid.New()
	registry.Acquire(userID, "token")

	event := events.ProfileRoleChanged{
		BaseEvent: events.NewBaseEvent(),
		UserID:    userID,
		OldRole:   "client",
		NewRole:   "admin",
		ChangedBy: uuid.New(),
	}
	if err := m.Handle(context.Background(), event); err != nil {
		t.Fatalf("Handle returned %v", err)
	}

	if _, ok := registry.Lookup(userID); ok {
		t.Fatal("bootstrap still cached after role change")
	}
}

func TestSelfProfileUpdateKeepsBootstrap(t *testing.T) {
	m, registry := newTestModule()
	userID := uuid.New()
	registry.Acquire(userID, "token")

	// A self-service update refreshes the cached profile on the request path,
	// so the handler must not evict it.
	self := events.ProfileUpdated{BaseEvent: events.NewBaseEvent(), UserID: userID, UpdatedBy: userID}
	if err := m.Handle(context.Background(), self); err != nil {
		t.Fatalf("Handle returned %v", err)
	}
	if _, ok := registry.Lookup(userID); !ok {
		t.Fatal("bootstrap evicted by the user's own profile update")
	}

	admin := events.ProfileUpdated{BaseEvent: events.NewBaseEvent(), UserID: userID, UpdatedBy: uuid.New()}
	if err := m.Handle(context.Background(), admin); err != nil {
		t.Fatalf("Handle returned %v", err)
	}
	if _, ok := registry.Lookup(userID); ok {
		t.Fatal("bootstrap still cached after an admin edited the profile")
	}
}
