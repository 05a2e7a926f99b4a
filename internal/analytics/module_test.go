package analytics

import (
	"context"
	"testing"
	"time"

	"workflow_portal_backend/internal/analytics/repository"
	"workflow_portal_backend/internal/analytics/service"
	"workflow_portal_backend/internal/events"

	"github.com/google/uuid"
)

type runStore struct {
	deleted []uuid.UUID
}

func (s *runStore) InsertRun(ctx context.Context, run repository.Run) error { return nil }

func (s *runStore) Summary(ctx context.Context, from, to time.Time, client string) (repository.Summary, error) {
	return repository.Summary{}, nil
}

func (s *runStore) TimeSeries(ctx context.Context, from, to time.Time, client string) ([]repository.DayPoint, error) {
	return nil, nil
}

func (s *runStore) WorkflowStats(ctx context.Context, workflowID uuid.UUID, from, to time.Time, client string) (repository.WorkflowStats, error) {
	return repository.WorkflowStats{}, nil
}

func (s *runStore) DeleteRunsForWorkflow(ctx context.Context, workflowID uuid.UUID) error {
	s.deleted = append(s.deleted, workflowID)
	return nil
}

func (s *runStore) RollupDay(ctx context.Context, day time.Time) error { return nil }

func TestWorkflowDeletedRemovesRawRuns(t *testing.T) {
	store := &runStore{}
	m := &Module{service: service.New(store)}
	workflowID := uuid.New()

	err := m.Handle(context.Background(), events.WorkflowDeleted{
		BaseEvent:    events.NewBaseEvent(),
		WorkflowID:   workflowID,
		WorkflowName: "sync-orders",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != workflowID {
		t.Fatalf("runs not removed for %s: %v", workflowID, store.deleted)
	}
}

func TestUnrelatedEventIsIgnored(t *testing.T) {
	store := &runStore{}
	m := &Module{service: service.New(store)}

	err := m.Handle(context.Background(), events.SettingChanged{
		BaseEvent: events.NewBaseEvent(),
		Key:       "automation_webhook_url",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.deleted) != 0 {
		t.Fatal("unrelated event must not touch run data")
	}
}
