// Package repository provides database access for workflow records.
package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Workflow statuses. A workflow starts as a draft and becomes uploaded once
// the automation webhook has accepted it.
const (
	StatusDraft    = "draft"
	StatusUploaded = "uploaded"
)

// Workflow represents one automation workflow managed through the portal.
type Workflow struct {
	ID          uuid.UUID
	Name        string
	Description *string
	ClientName  string
	Data        json.RawMessage
	Status      string
	ArchiveKey  *string
	UploadedBy  *uuid.UUID
	UploadedAt  *time.Time
	CreatedBy   uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateParams contains data for creating a workflow draft.
type CreateParams struct {
	ID          uuid.UUID
	Name        string
	Description *string
	ClientName  string
	Data        json.RawMessage
	CreatedBy   uuid.UUID
}

// UpdateParams contains data for updating a workflow draft.
type UpdateParams struct {
	ID          uuid.UUID
	Name        *string
	Description *string
	ClientName  *string
	Data        json.RawMessage
}

// MarkUploadedParams records a successful webhook upload.
type MarkUploadedParams struct {
	ID         uuid.UUID
	UploadedBy uuid.UUID
	UploadedAt time.Time
	ArchiveKey *string
}

// ListParams defines filters for listing workflows.
type ListParams struct {
	Search     string
	ClientName string
	Status     string
	Page       int
	PageSize   int
}

// ListResult is a paginated workflow listing.
type ListResult struct {
	Items      []Workflow
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// Repository defines database operations for workflows.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (Workflow, error)
	GetByID(ctx context.Context, id uuid.UUID) (Workflow, error)
	List(ctx context.Context, params ListParams) (ListResult, error)
	Update(ctx context.Context, params UpdateParams) (Workflow, error)
	MarkUploaded(ctx context.Context, params MarkUploadedParams) (Workflow, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
