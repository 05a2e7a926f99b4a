package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"workflow_portal_backend/internal/events"
	"workflow_portal_backend/internal/workflows/relay"
	"workflow_portal_backend/internal/workflows/repository"
	"workflow_portal_backend/internal/workflows/transport"
	"workflow_portal_backend/platform/apperr"
	"workflow_portal_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRepo struct {
	workflows map[uuid.UUID]repository.Workflow
	marked    []repository.MarkUploadedParams
	listed    []repository.ListParams
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{workflows: make(map[uuid.UUID]repository.Workflow)}
}

func (f *fakeRepo) Create(ctx context.Context, params repository.CreateParams) (repository.Workflow, error) {
	w := repository.Workflow{
		ID:          params.ID,
		Name:        params.Name,
		Description: params.Description,
		ClientName:  params.ClientName,
		Data:        params.Data,
		Status:      repository.StatusDraft,
		CreatedBy:   params.CreatedBy,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	f.workflows[w.ID] = w
	return w, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (repository.Workflow, error) {
	w, ok := f.workflows[id]
	if !ok {
		return repository.Workflow{}, apperr.NotFound("workflow not found")
	}
	return w, nil
}

func (f *fakeRepo) List(ctx context.Context, params repository.ListParams) (repository.ListResult, error) {
	f.listed = append(f.listed, params)
	items := make([]repository.Workflow, 0, len(f.workflows))
	for _, w := range f.workflows {
		if params.ClientName != "" && w.ClientName != params.ClientName {
			continue
		}
		items = append(items, w)
	}
	return repository.ListResult{Items: items, Total: len(items), Page: 1, PageSize: 25, TotalPages: 1}, nil
}

func (f *fakeRepo) Update(ctx context.Context, params repository.UpdateParams) (repository.Workflow, error) {
	w, ok := f.workflows[params.ID]
	if !ok {
		return repository.Workflow{}, apperr.NotFound("workflow not found")
	}
	if params.Name != nil {
		w.Name = *params.Name
	}
	if params.ClientName != nil {
		w.ClientName = *params.ClientName
	}
	if len(params.Data) > 0 {
		w.Data = params.Data
	}
	f.workflows[w.ID] = w
	return w, nil
}

func (f *fakeRepo) MarkUploaded(ctx context.Context, params repository.MarkUploadedParams) (repository.Workflow, error) {
	w, ok := f.workflows[params.ID]
	if !ok {
		return repository.Workflow{}, apperr.NotFound("workflow not found")
	}
	w.Status = repository.StatusUploaded
	w.UploadedBy = &params.UploadedBy
	w.UploadedAt = &params.UploadedAt
	w.ArchiveKey = params.ArchiveKey
	f.workflows[w.ID] = w
	f.marked = append(f.marked, params)
	return w, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.workflows[id]; !ok {
		return apperr.NotFound("workflow not found")
	}
	delete(f.workflows, id)
	return nil
}

type fakeSender struct {
	calls []relay.Payload
	err   error
}

func (f *fakeSender) Send(ctx context.Context, payload relay.Payload) error {
	f.calls = append(f.calls, payload)
	return f.err
}

func newTestService(repo repository.Repository, sender relay.Sender) *Service {
	return New(repo, sender, events.NewInMemoryBus(logger.New("test")), nil, "", logger.New("test"))
}

func seedWorkflow(t *testing.T, repo *fakeRepo, data string) repository.Workflow {
	t.Helper()
	w, err := repo.Create(context.Background(), repository.CreateParams{
		ID:         uuid.New(),
		Name:       "sync-orders",
		ClientName: "acme",
		Data:       json.RawMessage(data),
		CreatedBy:  uuid.New(),
	})
	if err != nil {
		t.Fatalf("seed workflow: %v", err)
	}
	return w
}

func transportCreate(data string) transport.CreateWorkflowRequest {
	return transport.CreateWorkflowRequest{
		Name:       "daily-sync",
		ClientName: "acme",
		Data:       json.RawMessage(data),
	}
}

func TestUploadValidatesBeforeAnyNetworkCall(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	svc := newTestService(repo, sender)

	w := seedWorkflow(t, repo, `"not an object"`)

	_, err := svc.Upload(context.Background(), w.ID, uuid.New(), "admin@example.com")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(sender.calls) != 0 {
		t.Fatal("invalid workflow must never reach the webhook")
	}
	if got := repo.workflows[w.ID].Status; got != repository.StatusDraft {
		t.Fatalf("record must stay a draft, got %q", got)
	}
}

func TestUploadWebhookFailureLeavesRecordUntouched(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{err: apperr.Unavailable("automation webhook returned 500")}
	svc := newTestService(repo, sender)

	w := seedWorkflow(t, repo, `{"nodes":[]}`)

	_, err := svc.Upload(context.Background(), w.ID, uuid.New(), "admin@example.com")
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if len(sender.calls) != 1 {
		t.Fatalf("expected exactly one webhook attempt, got %d", len(sender.calls))
	}

	stored := repo.workflows[w.ID]
	if stored.Status != repository.StatusDraft || stored.UploadedAt != nil {
		t.Fatalf("failed upload mutated the record: %+v", stored)
	}
	if len(repo.marked) != 0 {
		t.Fatal("record must not be marked uploaded when the webhook rejects")
	}
}

func TestUploadSendsExpectedPayloadAndMarksRecord(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	svc := newTestService(repo, sender)

	userID := uuid.New()
	w := seedWorkflow(t, repo, `{"nodes":[{"type":"start"}]}`)

	resp, err := svc.Upload(context.Background(), w.ID, userID, "admin@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sender.calls) != 1 {
		t.Fatalf("expected one webhook call, got %d", len(sender.calls))
	}
	payload := sender.calls[0]
	if payload.Client != "acme" {
		t.Fatalf("wrong client in payload: %q", payload.Client)
	}
	if payload.Workflow.Name != "sync-orders" {
		t.Fatalf("wrong workflow name in payload: %q", payload.Workflow.Name)
	}
	if string(payload.Workflow.Data) != `{"nodes":[{"type":"start"}]}` {
		t.Fatalf("workflow document altered in flight: %s", payload.Workflow.Data)
	}
	if payload.UploadedBy != "admin@example.com" {
		t.Fatalf("wrong uploader in payload: %q", payload.UploadedBy)
	}
	if payload.UploadedAt.IsZero() {
		t.Fatal("uploadedAt must be set")
	}

	if resp.Status != repository.StatusUploaded {
		t.Fatalf("expected uploaded status, got %q", resp.Status)
	}
	stored := repo.workflows[w.ID]
	if stored.UploadedBy == nil || *stored.UploadedBy != userID {
		t.Fatalf("uploader not recorded: %+v", stored.UploadedBy)
	}
}

func TestUploadUnknownWorkflow(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	svc := newTestService(repo, sender)

	_, err := svc.Upload(context.Background(), uuid.New(), uuid.New(), "admin@example.com")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(sender.calls) != 0 {
		t.Fatal("missing workflow must never reach the webhook")
	}
}

func TestListRestrictedScopeOverridesClientFilter(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeSender{})
	seedWorkflow(t, repo, `{"nodes":[]}`)

	req := transport.ListWorkflowsRequest{ClientName: "globex"}
	if _, err := svc.List(context.Background(), req, Scope{ClientName: "acme", Restricted: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.listed) != 1 {
		t.Fatalf("expected one listing query, got %d", len(repo.listed))
	}
	if got := repo.listed[0].ClientName; got != "acme" {
		t.Fatalf("caller-supplied filter escaped the scope: %q", got)
	}
}

func TestListRestrictedScopeWithoutClientOwnsNothing(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeSender{})
	seedWorkflow(t, repo, `{"nodes":[]}`)

	resp, err := svc.List(context.Background(), transport.ListWorkflowsRequest{}, Scope{Restricted: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Items) != 0 || resp.Total != 0 {
		t.Fatalf("unassociated caller saw workflows: %+v", resp)
	}
	if len(repo.listed) != 0 {
		t.Fatal("unassociated caller must not reach the store unfiltered")
	}
}

func TestGetRestrictedScopeHidesForeignClient(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeSender{})
	w := seedWorkflow(t, repo, `{"nodes":[]}`)

	if _, err := svc.Get(context.Background(), w.ID, Scope{ClientName: "globex", Restricted: true}); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("foreign workflow must read as not found, got %v", err)
	}

	resp, err := svc.Get(context.Background(), w.ID, Scope{ClientName: "acme", Restricted: true})
	if err != nil {
		t.Fatalf("own workflow must stay readable: %v", err)
	}
	if resp.ClientName != "acme" {
		t.Fatalf("unexpected record: %+v", resp)
	}
}

func TestCreateRejectsNonObjectDocument(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeSender{})

	_, err := svc.Create(context.Background(), uuid.New(), transportCreate(`[1,2,3]`))
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.workflows) != 0 {
		t.Fatal("invalid draft must not be stored")
	}
}

func TestCreateStripsMarkupFromNames(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeSender{})

	req := transportCreate(`{"nodes":[]}`)
	req.Name = "<script>alert(1)</script>daily-sync"

	resp, err := svc.Create(context.Background(), uuid.New(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Name != "alert(1)daily-sync" {
		t.Fatalf("markup not stripped: %q", resp.Name)
	}
}
