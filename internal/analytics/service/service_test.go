package service

import (
	"context"
	"testing"
	"time"

	"workflow_portal_backend/internal/analytics/repository"
	"workflow_portal_backend/internal/analytics/transport"
	"workflow_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeRepo struct {
	runs           []repository.Run
	summaryClients []string
	seriesClients  []string
	statsClients   []string
	deleted        []uuid.UUID
}

func (f *fakeRepo) InsertRun(ctx context.Context, run repository.Run) error {
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeRepo) Summary(ctx context.Context, from, to time.Time, client string) (repository.Summary, error) {
	f.summaryClients = append(f.summaryClients, client)
	return repository.Summary{TotalRuns: 10, Failures: 2}, nil
}

func (f *fakeRepo) TimeSeries(ctx context.Context, from, to time.Time, client string) ([]repository.DayPoint, error) {
	f.seriesClients = append(f.seriesClients, client)
	return []repository.DayPoint{{Day: from, Runs: 10}}, nil
}

func (f *fakeRepo) WorkflowStats(ctx context.Context, workflowID uuid.UUID, from, to time.Time, client string) (repository.WorkflowStats, error) {
	f.statsClients = append(f.statsClients, client)
	return repository.WorkflowStats{WorkflowID: workflowID, TotalRuns: 5}, nil
}

func (f *fakeRepo) DeleteRunsForWorkflow(ctx context.Context, workflowID uuid.UUID) error {
	f.deleted = append(f.deleted, workflowID)
	return nil
}

func (f *fakeRepo) RollupDay(ctx context.Context, day time.Time) error {
	return nil
}

func TestSummaryRestrictedScopeOverridesClientFilter(t *testing.T) {
	repo := &fakeRepo{}
	svc := New(repo)

	req := transport.RangeRequest{Client: "globex"}
	if _, err := svc.Summary(context.Background(), req, Scope{ClientName: "acme", Restricted: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.summaryClients) != 1 {
		t.Fatalf("expected one summary query, got %d", len(repo.summaryClients))
	}
	if got := repo.summaryClients[0]; got != "acme" {
		t.Fatalf("caller-supplied filter escaped the scope: %q", got)
	}
}

func TestSummaryRestrictedScopeWithoutClientSkipsStore(t *testing.T) {
	repo := &fakeRepo{}
	svc := New(repo)

	resp, err := svc.Summary(context.Background(), transport.RangeRequest{}, Scope{Restricted: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.TotalRuns != 0 || resp.Failures != 0 {
		t.Fatalf("unassociated caller saw portal-wide aggregates: %+v", resp)
	}
	if len(repo.summaryClients) != 0 {
		t.Fatal("unassociated caller must not reach the store unfiltered")
	}
}

func TestTimeSeriesAdminScopeKeepsRequestedFilter(t *testing.T) {
	repo := &fakeRepo{}
	svc := New(repo)

	req := transport.RangeRequest{Client: "globex"}
	if _, err := svc.TimeSeries(context.Background(), req, Scope{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.seriesClients) != 1 || repo.seriesClients[0] != "globex" {
		t.Fatalf("admin filter not passed through: %v", repo.seriesClients)
	}
}

func TestWorkflowStatsRestrictedScopePinsClient(t *testing.T) {
	repo := &fakeRepo{}
	svc := New(repo)
	workflowID := uuid.New()

	stats, err := svc.WorkflowStats(context.Background(), workflowID, transport.RangeRequest{}, Scope{ClientName: "acme", Restricted: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.WorkflowID != workflowID.String() {
		t.Fatalf("unexpected workflow id: %q", stats.WorkflowID)
	}
	if len(repo.statsClients) != 1 || repo.statsClients[0] != "acme" {
		t.Fatalf("stats query not scoped to the caller's client: %v", repo.statsClients)
	}
}

func TestRecordRunRejectsBadTimestamp(t *testing.T) {
	repo := &fakeRepo{}
	svc := New(repo)

	err := svc.RecordRun(context.Background(), transport.RecordRunRequest{
		WorkflowID: uuid.New().String(),
		ClientName: "acme",
		Status:     repository.RunStatusSuccess,
		RanAt:      "yesterday",
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.runs) != 0 {
		t.Fatal("invalid run must not be stored")
	}
}

func TestRemoveWorkflowRunsDeletesRawRuns(t *testing.T) {
	repo := &fakeRepo{}
	svc := New(repo)
	workflowID := uuid.New()

	if err := svc.RemoveWorkflowRuns(context.Background(), workflowID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != workflowID {
		t.Fatalf("runs not removed for %s: %v", workflowID, repo.deleted)
	}
}
