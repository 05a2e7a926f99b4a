// Package transport defines request/response DTOs for the workflows module.
package transport

import (
	"encoding/json"
	"time"

	"workflow_portal_backend/internal/workflows/repository"
)

// CreateWorkflowRequest creates a workflow draft.
type CreateWorkflowRequest struct {
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	Description *string         `json:"description" validate:"omitempty,max=2000"`
	ClientName  string          `json:"clientName" validate:"required,min=1,max=200"`
	Data        json.RawMessage `json:"data" validate:"required"`
}

// UpdateWorkflowRequest partially updates a workflow draft.
type UpdateWorkflowRequest struct {
	Name        *string         `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string         `json:"description" validate:"omitempty,max=2000"`
	ClientName  *string         `json:"clientName" validate:"omitempty,min=1,max=200"`
	Data        json.RawMessage `json:"data" validate:"omitempty"`
}

// ListWorkflowsRequest filters the workflow listing.
type ListWorkflowsRequest struct {
	Search     string `form:"search" validate:"omitempty,max=200"`
	ClientName string `form:"client" validate:"omitempty,max=200"`
	Status     string `form:"status" validate:"omitempty,oneof=draft uploaded"`
	Page       int    `form:"page" validate:"omitempty,min=1"`
	PageSize   int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// WorkflowResponse is a workflow record as exposed over HTTP.
type WorkflowResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	ClientName  string          `json:"clientName"`
	Data        json.RawMessage `json:"data,omitempty"`
	Status      string          `json:"status"`
	ArchiveKey  *string         `json:"archiveKey,omitempty"`
	UploadedBy  *string         `json:"uploadedBy,omitempty"`
	UploadedAt  *time.Time      `json:"uploadedAt,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ListWorkflowsResponse is the paginated workflow listing. Items omit the
// workflow document to keep listings small.
type ListWorkflowsResponse struct {
	Items      []WorkflowResponse `json:"items"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"pageSize"`
	TotalPages int                `json:"totalPages"`
}

// NewWorkflowResponse maps a repository record to its HTTP shape.
func NewWorkflowResponse(w repository.Workflow) WorkflowResponse {
	resp := WorkflowResponse{
		ID:          w.ID.String(),
		Name:        w.Name,
		Description: w.Description,
		ClientName:  w.ClientName,
		Data:        w.Data,
		Status:      w.Status,
		ArchiveKey:  w.ArchiveKey,
		UploadedAt:  w.UploadedAt,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
	if w.UploadedBy != nil {
		uploadedBy := w.UploadedBy.String()
		resp.UploadedBy = &uploadedBy
	}
	return resp
}

// NewListWorkflowsResponse maps a repository listing to its HTTP shape.
func NewListWorkflowsResponse(result repository.ListResult) ListWorkflowsResponse {
	items := make([]WorkflowResponse, 0, len(result.Items))
	for _, w := range result.Items {
		item := NewWorkflowResponse(w)
		item.Data = nil
		items = append(items, item)
	}
	return ListWorkflowsResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}
}
