// Package handler handles HTTP requests for workflows.
package handler

import (
	"net/http"

	"workflow_portal_backend/internal/authgate"
	"workflow_portal_backend/internal/workflows/service"
	"workflow_portal_backend/internal/workflows/transport"
	"workflow_portal_backend/platform/httpkit"
	"workflow_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid workflow id"
)

// Handler handles HTTP requests for workflows.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new workflows handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterClient registers the read-only routes available in the client console.
func (h *Handler) RegisterClient(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.GetByID)
}

// RegisterAdmin registers the full management routes for the admin console.
func (h *Handler) RegisterAdmin(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/upload", h.Upload)
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListWorkflowsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.List(c.Request.Context(), req, callerScope(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateWorkflowRequest
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

	workflow, err := h.svc.Create(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, workflow)
}

func (h *Handler) GetByID(c *gin.Context) {
	workflowID, ok := parseID(c)
	if !ok {
		return
	}

	workflow, err := h.svc.Get(c.Request.Context(), workflowID, callerScope(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, workflow)
}

func (h *Handler) Update(c *gin.Context) {
	workflowID, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.UpdateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	workflow, err := h.svc.Update(c.Request.Context(), workflowID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, workflow)
}

func (h *Handler) Delete(c *gin.Context) {
	workflowID, ok := parseID(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), workflowID, identity.UserID()); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Upload(c *gin.Context) {
	workflowID, ok := parseID(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	workflow, err := h.svc.Upload(c.Request.Context(), workflowID, identity.UserID(), identity.Email())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, workflow)
}

// callerScope derives the read constraint for a request: admin-console reads
// are unrestricted, every other console only sees its own client.
func callerScope(c *gin.Context) service.Scope {
	if authgate.ConsoleFor(c) == authgate.ConsoleAdmin {
		return service.Scope{}
	}
	return service.Scope{ClientName: authgate.ClientNameFor(c), Restricted: true}
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}
