// Package handler handles HTTP requests for analytics.
package handler

import (
	"net/http"

	"workflow_portal_backend/internal/analytics/service"
	"workflow_portal_backend/internal/analytics/transport"
	"workflow_portal_backend/internal/authgate"
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

// Handler handles HTTP requests for analytics.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new analytics handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRead registers the read routes shared by both consoles.
func (h *Handler) RegisterRead(rg *gin.RouterGroup) {
	rg.GET("/summary", h.Summary)
	rg.GET("/timeseries", h.TimeSeries)
	rg.GET("/workflows/:id", h.WorkflowStats)
}

// RegisterAdmin registers the run ingest route for the automation service.
func (h *Handler) RegisterAdmin(rg *gin.RouterGroup) {
	rg.POST("/runs", h.RecordRun)
}

func (h *Handler) Summary(c *gin.Context) {
	req, ok := bindRange(c, h)
	if !ok {
		return
	}

	summary, err := h.svc.Summary(c.Request.Context(), req, callerScope(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, summary)
}

func (h *Handler) TimeSeries(c *gin.Context) {
	req, ok := bindRange(c, h)
	if !ok {
		return
	}

	series, err := h.svc.TimeSeries(c.Request.Context(), req, callerScope(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, series)
}

func (h *Handler) WorkflowStats(c *gin.Context) {
	workflowID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	req, ok := bindRange(c, h)
	if !ok {
		return
	}

	stats, err := h.svc.WorkflowStats(c.Request.Context(), workflowID, req, callerScope(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, stats)
}

func (h *Handler) RecordRun(c *gin.Context) {
	var req transport.RecordRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.RecordRun(c.Request.Context(), req); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusAccepted)
}

// callerScope derives the read constraint for a request: admin-console reads
// are unrestricted, every other console only sees its own client.
func callerScope(c *gin.Context) service.Scope {
	if authgate.ConsoleFor(c) == authgate.ConsoleAdmin {
		return service.Scope{}
	}
	return service.Scope{ClientName: authgate.ClientNameFor(c), Restricted: true}
}

func bindRange(c *gin.Context, h *Handler) (transport.RangeRequest, bool) {
	var req transport.RangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return req, false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return req, false
	}
	return req, true
}
