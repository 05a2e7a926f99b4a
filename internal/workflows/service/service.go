// Package service provides business logic for workflows, including the
// upload flow through the automation webhook.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"workflow_portal_backend/internal/events"
	"workflow_portal_backend/internal/storage"
	"workflow_portal_backend/internal/workflows/relay"
	"workflow_portal_backend/internal/workflows/repository"
	"workflow_portal_backend/internal/workflows/transport"
	"workflow_portal_backend/platform/apperr"
	"workflow_portal_backend/platform/logger"
	"workflow_portal_backend/platform/sanitize"

	"github.com/google/uuid"
)

// maxWorkflowBytes bounds the workflow document size.
const maxWorkflowBytes = 2 << 20

// Scope restricts reads to one client's workflows. The zero value is the
// unrestricted admin view; a restricted scope with an empty client name
// matches nothing.
type Scope struct {
	ClientName string
	Restricted bool
}

// Service provides business logic for workflows.
type Service struct {
	repo          repository.Repository
	sender        relay.Sender
	eventBus      events.Bus
	storage       storage.Service
	archiveBucket string
	log           *logger.Logger
}

// New creates a new workflows service. The storage service may be nil when
// archiving is not configured; uploads still work without archives.
func New(repo repository.Repository, sender relay.Sender, eventBus events.Bus, storageSvc storage.Service, archiveBucket string, log *logger.Logger) *Service {
	return &Service{
		repo:          repo,
		sender:        sender,
		eventBus:      eventBus,
		storage:       storageSvc,
		archiveBucket: archiveBucket,
		log:           log,
	}
}

// Create stores a new workflow draft.
func (s *Service) Create(ctx context.Context, createdBy uuid.UUID, req transport.CreateWorkflowRequest) (transport.WorkflowResponse, error) {
	if err := validateDocument(req.Data); err != nil {
		return transport.WorkflowResponse{}, err
	}

	workflow, err := s.repo.Create(ctx, repository.CreateParams{
		ID:          uuid.New(),
		Name:        sanitize.Text(req.Name),
		Description: sanitize.TextPtr(req.Description),
		ClientName:  sanitize.Text(req.ClientName),
		Data:        req.Data,
		CreatedBy:   createdBy,
	})
	if err != nil {
		return transport.WorkflowResponse{}, err
	}

	return transport.NewWorkflowResponse(workflow), nil
}

// Get returns one workflow record. A restricted scope hides records belonging
// to other clients as not found.
func (s *Service) Get(ctx context.Context, id uuid.UUID, scope Scope) (transport.WorkflowResponse, error) {
	workflow, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.WorkflowResponse{}, err
	}
	if scope.Restricted && workflow.ClientName != scope.ClientName {
		return transport.WorkflowResponse{}, apperr.NotFound("workflow not found")
	}
	return transport.NewWorkflowResponse(workflow), nil
}

// List returns the filtered, paginated workflow listing. A restricted scope
// overrides the caller-supplied client filter.
func (s *Service) List(ctx context.Context, req transport.ListWorkflowsRequest, scope Scope) (transport.ListWorkflowsResponse, error) {
	if scope.Restricted {
		if scope.ClientName == "" {
			// A granted caller with no client association owns no workflows.
			return transport.NewListWorkflowsResponse(repository.ListResult{Page: 1, PageSize: 25}), nil
		}
		req.ClientName = scope.ClientName
	}

	result, err := s.repo.List(ctx, repository.ListParams{
		Search:     req.Search,
		ClientName: req.ClientName,
		Status:     req.Status,
		Page:       req.Page,
		PageSize:   req.PageSize,
	})
	if err != nil {
		return transport.ListWorkflowsResponse{}, err
	}
	return transport.NewListWorkflowsResponse(result), nil
}

// Update applies a partial update to a workflow draft.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateWorkflowRequest) (transport.WorkflowResponse, error) {
	if len(req.Data) > 0 {
		if err := validateDocument(req.Data); err != nil {
			return transport.WorkflowResponse{}, err
		}
	}

	workflow, err := s.repo.Update(ctx, repository.UpdateParams{
		ID:          id,
		Name:        sanitize.TextPtr(req.Name),
		Description: sanitize.TextPtr(req.Description),
		ClientName:  sanitize.TextPtr(req.ClientName),
		Data:        req.Data,
	})
	if err != nil {
		return transport.WorkflowResponse{}, err
	}

	return transport.NewWorkflowResponse(workflow), nil
}

// Delete removes a workflow record.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, deletedBy uuid.UUID) error {
	workflow, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.eventBus.Publish(ctx, events.WorkflowDeleted{
		BaseEvent:    events.NewBaseEvent(),
		WorkflowID:   workflow.ID,
		WorkflowName: workflow.Name,
		DeletedBy:    deletedBy,
	})

	return nil
}

// Upload delivers a workflow to the automation webhook.
//
// Ordering is deliberate: local validation fully settles before any network
// call, and the record only transitions to uploaded after the webhook
// accepted the payload. A webhook failure leaves the record untouched so
// retrying is always safe.
func (s *Service) Upload(ctx context.Context, id uuid.UUID, uploadedBy uuid.UUID, uploaderEmail string) (transport.WorkflowResponse, error) {
	workflow, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.WorkflowResponse{}, err
	}

	if err := validateDocument(workflow.Data); err != nil {
		return transport.WorkflowResponse{}, err
	}
	if workflow.ClientName == "" {
		return transport.WorkflowResponse{}, apperr.Validation("workflow has no client")
	}

	uploadedAt := time.Now().UTC()
	payload := relay.Payload{
		Client: workflow.ClientName,
		Workflow: relay.WorkflowBody{
			Name: workflow.Name,
			Data: workflow.Data,
		},
		UploadedBy: uploaderEmail,
		UploadedAt: uploadedAt,
	}

	if err := s.sender.Send(ctx, payload); err != nil {
		return transport.WorkflowResponse{}, err
	}

	archiveKey := s.archive(ctx, workflow, uploadedAt)

	updated, err := s.repo.MarkUploaded(ctx, repository.MarkUploadedParams{
		ID:         workflow.ID,
		UploadedBy: uploadedBy,
		UploadedAt: uploadedAt,
		ArchiveKey: archiveKey,
	})
	if err != nil {
		return transport.WorkflowResponse{}, err
	}

	s.eventBus.Publish(ctx, events.WorkflowUploaded{
		BaseEvent:    events.NewBaseEvent(),
		WorkflowID:   updated.ID,
		WorkflowName: updated.Name,
		ClientName:   updated.ClientName,
		UploadedBy:   uploadedBy,
		UploaderMail: uploaderEmail,
		ArchiveKey:   stringValue(archiveKey),
	})

	return transport.NewWorkflowResponse(updated), nil
}

// archive stores the delivered document for audit. Best effort: the webhook
// already accepted the workflow, so archive failures only log.
func (s *Service) archive(ctx context.Context, workflow repository.Workflow, uploadedAt time.Time) *string {
	if s.storage == nil {
		return nil
	}

	fileName := fmt.Sprintf("%s_%s.json", workflow.Name, uploadedAt.Format("20060102T150405Z"))
	key, err := s.storage.UploadObject(ctx,
		s.archiveBucket,
		workflow.ClientName,
		fileName,
		"application/json",
		bytes.NewReader(workflow.Data),
		int64(len(workflow.Data)),
	)
	if err != nil {
		s.log.Error("failed to archive workflow document", "error", err, "workflow_id", workflow.ID.String())
		return nil
	}
	return &key
}

// validateDocument rejects anything that is not a JSON object of sane size.
func validateDocument(data json.RawMessage) error {
	if len(data) == 0 {
		return apperr.Validation("workflow document is required")
	}
	if len(data) > maxWorkflowBytes {
		return apperr.Validation("workflow document is too large")
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return apperr.Validation("workflow document must be a JSON object")
	}
	return nil
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
