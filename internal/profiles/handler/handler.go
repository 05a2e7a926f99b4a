// Package handler handles HTTP requests for profiles.
package handler

import (
	"context"
	"net/http"

	"workflow_portal_backend/internal/profiles/service"
	"workflow_portal_backend/internal/profiles/transport"
	"workflow_portal_backend/platform/httpkit"
	"workflow_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid profile id"
)

// SelfUpdater applies a self-service profile update through the caller's
// session bootstrap, so the cached profile row tracks the server row.
type SelfUpdater interface {
	UpdateOwnProfile(ctx context.Context, userID uuid.UUID, accessToken string, req transport.UpdateProfileRequest) (transport.ProfileResponse, error)
}

// Handler handles HTTP requests for profiles.
type Handler struct {
	svc         *service.Service
	val         *validator.Validator
	selfUpdater SelfUpdater
}

// New creates a new profiles handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// SetSelfUpdater routes self-profile updates through the session bootstrap.
// Without one, updates write straight to the profile store.
func (h *Handler) SetSelfUpdater(updater SelfUpdater) {
	h.selfUpdater = updater
}

// RegisterSelf registers the routes every authenticated user gets for their
// own profile.
func (h *Handler) RegisterSelf(rg *gin.RouterGroup) {
	rg.GET("/me/profile", h.GetOwn)
	rg.PUT("/me/profile", h.UpdateOwn)
	rg.POST("/me/profile/avatar/presign", h.PresignOwnAvatar)
	rg.POST("/me/profile/avatar", h.SetOwnAvatar)
	rg.GET("/me/profile/avatar/download", h.DownloadOwnAvatar)
	rg.DELETE("/me/profile/avatar", h.DeleteOwnAvatar)
}

// RegisterAdmin registers the admin-console profile management routes.
func (h *Handler) RegisterAdmin(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)
	rg.PUT("/:id/role", h.SetRole)
	rg.DELETE("/:id", h.Delete)
}

func (h *Handler) GetOwn(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	profile, err := h.svc.Get(c.Request.Context(), id.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, profile)
}

func (h *Handler) UpdateOwn(c *gin.Context) {
	var req transport.UpdateProfileRequest
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

	if h.selfUpdater != nil {
		profile, err := h.selfUpdater.UpdateOwnProfile(c.Request.Context(), id.UserID(), id.AccessToken(), req)
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, profile)
		return
	}

	profile, err := h.svc.Update(c.Request.Context(), id.UserID(), id.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, profile)
}

func (h *Handler) PresignOwnAvatar(c *gin.Context) {
	var req transport.PresignAvatarRequest
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

	url, err := h.svc.PresignAvatar(c.Request.Context(), id.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, url)
}

func (h *Handler) SetOwnAvatar(c *gin.Context) {
	var req transport.SetAvatarRequest
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

	profile, err := h.svc.SetAvatar(c.Request.Context(), id.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, profile)
}

func (h *Handler) DownloadOwnAvatar(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	url, err := h.svc.AvatarDownloadURL(c.Request.Context(), id.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, url)
}

func (h *Handler) DeleteOwnAvatar(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	profile, err := h.svc.DeleteAvatar(c.Request.Context(), id.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, profile)
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListProfilesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.List(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	profile, err := h.svc.Create(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, profile)
}

func (h *Handler) GetByID(c *gin.Context) {
	profileID, ok := parseID(c)
	if !ok {
		return
	}

	profile, err := h.svc.Get(c.Request.Context(), profileID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, profile)
}

func (h *Handler) Update(c *gin.Context) {
	profileID, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	profile, err := h.svc.Update(c.Request.Context(), profileID, identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, profile)
}

func (h *Handler) SetRole(c *gin.Context) {
	profileID, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	profile, err := h.svc.SetRole(c.Request.Context(), profileID, identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, profile)
}

func (h *Handler) Delete(c *gin.Context) {
	profileID, ok := parseID(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), profileID, identity.UserID()); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}
