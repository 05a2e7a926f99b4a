package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"workflow_portal_backend/internal/profiles/transport"
	"workflow_portal_backend/platform/httpkit"
	"workflow_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type fakeSelfUpdater struct {
	mu     sync.Mutex
	userID uuid.UUID
	token  string
	req    transport.UpdateProfileRequest
	resp   transport.ProfileResponse
	err    error
	calls  int
}

func (f *fakeSelfUpdater) UpdateOwnProfile(_ context.Context, userID uuid.UUID, accessToken string, req transport.UpdateProfileRequest) (transport.ProfileResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.userID = userID
	f.token = accessToken
	f.req = req
	return f.resp, f.err
}

func newUpdateOwnContext(t *testing.T, userID uuid.UUID, token, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	req, err := http.NewRequest(http.MethodPut, "/me/profile", strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(httpkit.ContextUserIDKey, userID)
	c.Set(httpkit.ContextAccessTokenKey, token)
	return c, rec
}

func TestUpdateOwnGoesThroughSelfUpdater(t *testing.T) {
	userID := uuid.New()
	updater := &fakeSelfUpdater{
		resp: transport.ProfileResponse{ID: userID.String(), DisplayName: "Renamed", Role: "client"},
	}

	h := New(nil, validator.New())
	h.SetSelfUpdater(updater)

	c, rec := newUpdateOwnContext(t, userID, "token-abc", `{"displayName":"Renamed"}`)
	h.UpdateOwn(c)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	updater.mu.Lock()
	defer updater.mu.Unlock()
	if updater.calls != 1 {
		t.Fatalf("self updater calls = %d, want 1", updater.calls)
	}
	if updater.userID != userID {
		t.Fatalf("self updater user = %s, want %s", updater.userID, userID)
	}
	if updater.token != "token-abc" {
		t.Fatalf("self updater token = %q, want %q", updater.token, "token-abc")
	}
	if updater.req.DisplayName == nil || *updater.req.DisplayName != "Renamed" {
		t.Fatalf("self updater got displayName %v, want Renamed", updater.req.DisplayName)
	}
	if !strings.Contains(rec.Body.String(), "Renamed") {
		t.Fatalf("response body %s does not carry the updated profile", rec.Body.String())
	}
}

func TestUpdateOwnRejectsInvalidBody(t *testing.T) {
	updater := &fakeSelfUpdater{}

	h := New(nil, validator.New())
	h.SetSelfUpdater(updater)

	long := strings.Repeat("x", 200)
	c, rec := newUpdateOwnContext(t, uuid.New(), "token-abc", `{"displayName":"`+long+`"}`)
	h.UpdateOwn(c)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	updater.mu.Lock()
	defer updater.mu.Unlock()
	if updater.calls != 0 {
		t.Fatalf("self updater reached on invalid body, calls = %d", updater.calls)
	}
}
