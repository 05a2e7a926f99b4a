package store

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"workflow_portal_backend/platform/apperr"
)

func newTestStore(t *testing.T, secret string) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return NewWithClient(rdb, secret), mr
}

func TestPortalSettingRoundTrip(t *testing.T) {
	s, _ := newTestStore(t, "")
	ctx := context.Background()

	err := s.SetPortal(ctx, Setting{Key: "webhook_retries", Value: "3", UpdatedBy: "admin"})
	if err != nil {
		t.Fatalf("SetPortal: %v", err)
	}

	got, err := s.GetPortal(ctx, "webhook_retries")
	if err != nil {
		t.Fatalf("GetPortal: %v", err)
	}
	if got.Key != "webhook_retries" || got.Value != "3" {
		t.Fatalf("unexpected setting: %+v", got)
	}
	if got.UpdatedBy != "admin" {
		t.Fatalf("expected updatedBy admin, got %q", got.UpdatedBy)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatal("expected UpdatedAt to be stamped")
	}
}

func TestGetMissingSettingIsNotFound(t *testing.T) {
	s, _ := newTestStore(t, "")

	_, err := s.GetPortal(context.Background(), "nope")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteMissingSettingIsNotFound(t *testing.T) {
	s, _ := newTestStore(t, "")

	err := s.DeletePortal(context.Background(), "nope")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSecretValueIsEncryptedAtRest(t *testing.T) {
	s, mr := newTestStore(t, "portal-secret")
	ctx := context.Background()

	err := s.SetPortal(ctx, Setting{Key: "smtp_password", Value: "hunter2", Secret: true})
	if err != nil {
		t.Fatalf("SetPortal: %v", err)
	}

	raw, err := mr.Get("settings:portal:smtp_password")
	if err != nil {
		t.Fatalf("raw get: %v", err)
	}
	if strings.Contains(raw, "hunter2") {
		t.Fatal("secret value stored in the clear")
	}

	got, err := s.GetPortal(ctx, "smtp_password")
	if err != nil {
		t.Fatalf("GetPortal: %v", err)
	}
	if got.Value != "hunter2" {
		t.Fatalf("expected decrypted value, got %q", got.Value)
	}
	if !got.Secret {
		t.Fatal("expected secret flag to survive the round trip")
	}
}

func TestSecretValueWithoutSecretKeyIsUnconfigured(t *testing.T) {
	s, _ := newTestStore(t, "")

	err := s.SetPortal(context.Background(), Setting{Key: "token", Value: "abc", Secret: true})
	if !apperr.Is(err, apperr.KindUnconfigured) {
		t.Fatalf("expected unconfigured, got %v", err)
	}
}

func TestUserScopesAreIsolated(t *testing.T) {
	s, _ := newTestStore(t, "")
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()

	if err := s.SetUser(ctx, alice, Setting{Key: "theme", Value: "dark"}); err != nil {
		t.Fatalf("SetUser alice: %v", err)
	}
	if err := s.SetUser(ctx, bob, Setting{Key: "theme", Value: "light"}); err != nil {
		t.Fatalf("SetUser bob: %v", err)
	}

	got, err := s.GetUser(ctx, alice, "theme")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Value != "dark" {
		t.Fatalf("expected alice's value, got %q", got.Value)
	}

	if _, err := s.GetPortal(ctx, "theme"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("user setting leaked into portal scope: %v", err)
	}
}

func TestListPortalReturnsAllEntries(t *testing.T) {
	s, _ := newTestStore(t, "")
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		if err := s.SetPortal(ctx, Setting{Key: key, Value: "v-" + key}); err != nil {
			t.Fatalf("SetPortal %s: %v", key, err)
		}
	}

	settings, err := s.ListPortal(ctx)
	if err != nil {
		t.Fatalf("ListPortal: %v", err)
	}
	if len(settings) != 3 {
		t.Fatalf("expected 3 settings, got %d", len(settings))
	}
}

func TestPurgeUserRemovesOnlyThatUser(t *testing.T) {
	s, _ := newTestStore(t, "")
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()

	if err := s.SetUser(ctx, alice, Setting{Key: "theme", Value: "dark"}); err != nil {
		t.Fatalf("SetUser: %v", err)
	}
	if err := s.SetUser(ctx, alice, Setting{Key: "locale", Value: "nl"}); err != nil {
		t.Fatalf("SetUser: %v", err)
	}
	if err := s.SetUser(ctx, bob, Setting{Key: "theme", Value: "light"}); err != nil {
		t.Fatalf("SetUser: %v", err)
	}

	if err := s.PurgeUser(ctx, alice); err != nil {
		t.Fatalf("PurgeUser: %v", err)
	}

	remaining, err := s.ListUser(ctx, alice)
	if err != nil {
		t.Fatalf("ListUser: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected alice's settings purged, got %d", len(remaining))
	}

	if _, err := s.GetUser(ctx, bob, "theme"); err != nil {
		t.Fatalf("bob's setting should survive: %v", err)
	}
}
