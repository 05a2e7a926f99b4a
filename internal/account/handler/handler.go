// Package handler exposes the account endpoints: the bootstrap snapshot,
// sign-out, password changes, and the session-event callback from the auth
// service.
package handler

import (
	"io"
	"net/http"

	"workflow_portal_backend/internal/account/transport"
	"workflow_portal_backend/internal/bootstrap"
	"workflow_portal_backend/internal/events"
	"workflow_portal_backend/internal/session"
	"workflow_portal_backend/platform/config"
	"workflow_portal_backend/platform/httpkit"
	"workflow_portal_backend/platform/logger"
	"workflow_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"

	// SignatureHeader carries the HMAC of the callback body.
	SignatureHeader = "X-Session-Signature"

	maxCallbackBody = 64 << 10
)

// Handler handles HTTP requests for the account module.
type Handler struct {
	registry *bootstrap.Registry
	cfg      config.AuthServiceConfig
	bus      events.Bus
	val      *validator.Validator
	log      *logger.Logger
}

// New creates a new account handler.
func New(registry *bootstrap.Registry, cfg config.AuthServiceConfig, bus events.Bus, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{registry: registry, cfg: cfg, bus: bus, val: val, log: log}
}

// RegisterProtected registers routes that require a granted session.
func (h *Handler) RegisterProtected(rg *gin.RouterGroup) {
	rg.POST("/me/signout", h.SignOut)
}

// RegisterSession registers routes that only need a verified token. The
// snapshot endpoint must be able to report a still-loading bootstrap, and the
// password-change flow must stay reachable while the guard would otherwise
// block a forced-change user.
func (h *Handler) RegisterSession(rg *gin.RouterGroup) {
	rg.GET("/me/bootstrap", h.Bootstrap)
	rg.POST("/me/password", h.ChangePassword)
}

// RegisterPublic registers the auth-service callback, which authenticates by
// HMAC signature rather than session.
func (h *Handler) RegisterPublic(rg *gin.RouterGroup) {
	rg.POST("/session-events", h.SessionEvent)
}

// Bootstrap returns the caller's current bootstrap snapshot.
func (h *Handler) Bootstrap(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	b := h.registry.Acquire(id.UserID(), id.AccessToken())
	httpkit.OK(c, transport.NewBootstrapResponse(b.Snapshot()))
}

// SignOut clears the caller's session. Always succeeds from the caller's
// perspective; remote revocation failures are handled out of band.
func (h *Handler) SignOut(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	b := h.registry.Acquire(id.UserID(), id.AccessToken())
	b.SignOut(c.Request.Context())

	h.bus.Publish(c.Request.Context(), events.SessionRevoked{
		BaseEvent: events.NewBaseEvent(),
		UserID:    id.UserID(),
		Reason:    "sign_out",
	})

	c.Status(http.StatusNoContent)
}

// ChangePassword updates the caller's password at the auth service and clears
// a pending forced-change flag.
func (h *Handler) ChangePassword(c *gin.Context) {
	var req transport.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	b := h.registry.Acquire(id.UserID(), id.AccessToken())
	if err := b.ChangePassword(c.Request.Context(), req.NewPassword); httpkit.HandleError(c, err) {
		return
	}

	h.bus.Publish(c.Request.Context(), events.PasswordChanged{
		BaseEvent: events.NewBaseEvent(),
		UserID:    id.UserID(),
		Email:     id.Email(),
		Forced:    id.RequiresPasswordChange(),
	})

	c.Status(http.StatusNoContent)
}

// SessionEvent ingests a signed session-change callback and routes it to the
// affected user's bootstrap.
func (h *Handler) SessionEvent(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBody))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	signature := c.GetHeader(SignatureHeader)
	if !session.VerifyCallbackSignature(body, signature, h.cfg.GetSessionCallbackSecret()) {
		h.log.Warn("session callback with bad signature", "remote", c.ClientIP())
		httpkit.Error(c, http.StatusUnauthorized, "invalid signature", nil)
		return
	}

	event, err := session.ParseCallback(body, h.cfg.GetAuthJWTSecret())
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	h.registry.Dispatch(event)

	if event.Type == session.EventSignedOut {
		h.bus.Publish(c.Request.Context(), events.SessionRevoked{
			BaseEvent: events.NewBaseEvent(),
			UserID:    event.UserID,
			Reason:    "auth_service_callback",
		})
	}

	c.Status(http.StatusAccepted)
}
