package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"workflow_portal_backend/platform/apperr"
	"workflow_portal_backend/platform/config"
	"workflow_portal_backend/platform/logger"
)

// Client talks to the hosted auth service over its REST API.
type Client struct {
	baseURL    string
	serviceKey string
	jwtSecret  string
	http       *http.Client
	log        *logger.Logger
}

// NewClient creates the auth service client. Configuration validity is
// guaranteed by config.Load; the client itself never re-checks it.
func NewClient(cfg config.AuthServiceConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.GetAuthServiceURL(), "/"),
		serviceKey: cfg.GetAuthServiceKey(),
		jwtSecret:  cfg.GetAuthJWTSecret(),
		http:       &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// Compile-time check that Client implements Store.
var _ Store = (*Client)(nil)

type userPayload struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// CurrentSession validates the access token against the service and returns
// the live session. An empty token means no session without a network call.
func (c *Client) CurrentSession(ctx context.Context, accessToken string) (*Session, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "build session request", err)
	}
	c.setHeaders(req, accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, normalizeTransportError("current session", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, apperr.Unauthorized("session is not valid")
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, apperr.Unavailable(fmt.Sprintf("auth service returned %d", resp.StatusCode))
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, apperr.BadRequest(fmt.Sprintf("auth service rejected session check (%d)", resp.StatusCode))
	}

	var payload userPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "decode auth service response", err)
	}

	user, err := userFromPayload(payload)
	if err != nil {
		return nil, err
	}

	// Expiry comes from the token itself; the service response carries no
	// session envelope on this endpoint.
	expiresAt, _ := tokenExpiry(accessToken, c.jwtSecret)

	return &Session{
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
		User:        user,
	}, nil
}

// SignOut revokes the session server-side.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/logout", nil)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "build signout request", err)
	}
	c.setHeaders(req, accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return normalizeTransportError("sign out", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Revoking an already-dead session is fine.
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return apperr.Unavailable(fmt.Sprintf("auth service sign-out returned %d", resp.StatusCode))
	}

	return nil
}

// UpdateUser applies password/metadata changes and returns the updated user.
func (c *Client) UpdateUser(ctx context.Context, accessToken string, update UserUpdate) (*User, error) {
	body := map[string]any{}
	if update.Password != nil {
		body["password"] = *update.Password
	}
	if update.RequiresPasswordChange != nil {
		body["data"] = map[string]any{"requires_password_change": *update.RequiresPasswordChange}
	}
	if len(body) == 0 {
		return nil, apperr.Validation("no user fields to update")
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "marshal user update", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/auth/v1/user", bytes.NewReader(encoded))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "build user update request", err)
	}
	c.setHeaders(req, accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, normalizeTransportError("update user", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, apperr.Unauthorized("session is not valid")
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, apperr.Unavailable(fmt.Sprintf("auth service returned %d", resp.StatusCode))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return nil, apperr.BadRequest(strings.TrimSpace(string(data)))
	}

	var payload userPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "decode auth service response", err)
	}

	user, err := userFromPayload(payload)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) setHeaders(req *http.Request, accessToken string) {
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)
}

func userFromPayload(payload userPayload) (User, error) {
	id, err := parseUserUUID(payload.ID)
	if err != nil {
		return User{}, apperr.Wrap(apperr.KindUnavailable, "auth service returned malformed user id", err)
	}

	requiresChange := false
	if payload.UserMetadata != nil {
		requiresChange, _ = payload.UserMetadata["requires_password_change"].(bool)
	}

	return User{
		ID:                     id,
		Email:                  payload.Email,
		RequiresPasswordChange: requiresChange,
		Metadata:               payload.UserMetadata,
	}, nil
}

// normalizeTransportError maps raw transport failures onto the closed error
// taxonomy: deadline exhaustion becomes KindTimeout, anything else
// KindUnavailable. Callers never see *url.Error shapes.
func normalizeTransportError(op string, err error) *apperr.Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperr.Wrap(apperr.KindTimeout, "auth service call timed out", err).WithOp(op)
	}
	return apperr.Wrap(apperr.KindUnavailable, "auth service unreachable", err).WithOp(op)
}
