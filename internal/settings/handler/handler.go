// Package handler handles HTTP requests for settings.
package handler

import (
	"net/http"

	"workflow_portal_backend/internal/settings/service"
	"workflow_portal_backend/internal/settings/transport"
	"workflow_portal_backend/platform/httpkit"
	"workflow_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for settings.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new settings handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterSelf registers the per-user settings routes.
func (h *Handler) RegisterSelf(rg *gin.RouterGroup) {
	rg.GET("/me/settings", h.ListOwn)
	rg.PUT("/me/settings", h.SetOwn)
	rg.GET("/me/settings/:key", h.GetOwn)
	rg.DELETE("/me/settings/:key", h.DeleteOwn)
}

// RegisterAdmin registers the portal-wide settings routes.
func (h *Handler) RegisterAdmin(rg *gin.RouterGroup) {
	rg.GET("", h.ListPortal)
	rg.PUT("", h.SetPortal)
	rg.GET("/:key", h.GetPortal)
	rg.DELETE("/:key", h.DeletePortal)
}

func (h *Handler) ListPortal(c *gin.Context) {
	resp, err := h.svc.ListPortal(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) SetPortal(c *gin.Context) {
	var req transport.SetSettingRequest
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

	resp, err := h.svc.SetPortal(c.Request.Context(), req, id.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) GetPortal(c *gin.Context) {
	resp, err := h.svc.GetPortal(c.Request.Context(), c.Param("key"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) DeletePortal(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	if err := h.svc.DeletePortal(c.Request.Context(), c.Param("key"), id.UserID()); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListOwn(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	resp, err := h.svc.ListUser(c.Request.Context(), id.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) SetOwn(c *gin.Context) {
	var req transport.SetSettingRequest
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

	resp, err := h.svc.SetUser(c.Request.Context(), id.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) GetOwn(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	resp, err := h.svc.GetUser(c.Request.Context(), id.UserID(), c.Param("key"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) DeleteOwn(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	if err := h.svc.DeleteUser(c.Request.Context(), id.UserID(), c.Param("key")); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}
