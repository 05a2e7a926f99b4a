// Package service provides business logic for workflow run analytics.
package service

import (
	"context"
	"time"

	"workflow_portal_backend/internal/analytics/repository"
	"workflow_portal_backend/internal/analytics/transport"
	"workflow_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

// defaultWindow is used when a range request leaves the bounds open.
const defaultWindow = 30 * 24 * time.Hour

// Scope restricts reads to one client's runs. The zero value is the
// unrestricted admin view; a restricted scope with an empty client name
// matches nothing.
type Scope struct {
	ClientName string
	Restricted bool
}

// Service provides business logic for analytics.
type Service struct {
	repo repository.Repository
}

// New creates a new analytics service.
func New(repo repository.Repository) *Service {
	return &Service{repo: repo}
}

// RecordRun stores one reported workflow execution.
func (s *Service) RecordRun(ctx context.Context, req transport.RecordRunRequest) error {
	workflowID, err := uuid.Parse(req.WorkflowID)
	if err != nil {
		return apperr.BadRequest("invalid workflow id")
	}

	ranAt := time.Now().UTC()
	if req.RanAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.RanAt)
		if err != nil {
			return apperr.Validation("ranAt must be RFC 3339")
		}
		ranAt = parsed.UTC()
	}

	return s.repo.InsertRun(ctx, repository.Run{
		ID:         uuid.New(),
		WorkflowID: workflowID,
		ClientName: req.ClientName,
		Status:     req.Status,
		DurationMs: req.DurationMs,
		RanAt:      ranAt,
	})
}

// Summary returns the aggregate run summary for a window.
func (s *Service) Summary(ctx context.Context, req transport.RangeRequest, scope Scope) (transport.SummaryResponse, error) {
	from, to, err := parseRange(req)
	if err != nil {
		return transport.SummaryResponse{}, err
	}

	client, none := effectiveClient(req.Client, scope)
	if none {
		return transport.NewSummaryResponse(repository.Summary{}, from, to), nil
	}

	summary, err := s.repo.Summary(ctx, from, to, client)
	if err != nil {
		return transport.SummaryResponse{}, err
	}
	return transport.NewSummaryResponse(summary, from, to), nil
}

// TimeSeries returns daily run buckets for a window.
func (s *Service) TimeSeries(ctx context.Context, req transport.RangeRequest, scope Scope) (transport.TimeSeriesResponse, error) {
	from, to, err := parseRange(req)
	if err != nil {
		return transport.TimeSeriesResponse{}, err
	}

	client, none := effectiveClient(req.Client, scope)
	if none {
		return transport.NewTimeSeriesResponse(nil, from, to), nil
	}

	points, err := s.repo.TimeSeries(ctx, from, to, client)
	if err != nil {
		return transport.TimeSeriesResponse{}, err
	}
	return transport.NewTimeSeriesResponse(points, from, to), nil
}

// WorkflowStats returns aggregates for one workflow over a window.
func (s *Service) WorkflowStats(ctx context.Context, workflowID uuid.UUID, req transport.RangeRequest, scope Scope) (transport.WorkflowStatsResponse, error) {
	from, to, err := parseRange(req)
	if err != nil {
		return transport.WorkflowStatsResponse{}, err
	}

	client, none := effectiveClient(req.Client, scope)
	if none {
		return transport.NewWorkflowStatsResponse(repository.WorkflowStats{WorkflowID: workflowID}), nil
	}

	stats, err := s.repo.WorkflowStats(ctx, workflowID, from, to, client)
	if err != nil {
		return transport.WorkflowStatsResponse{}, err
	}
	return transport.NewWorkflowStatsResponse(stats), nil
}

// RemoveWorkflowRuns discards the raw runs of a deleted workflow. Daily
// rollups keep the aggregated history.
func (s *Service) RemoveWorkflowRuns(ctx context.Context, workflowID uuid.UUID) error {
	return s.repo.DeleteRunsForWorkflow(ctx, workflowID)
}

// RollupDay materializes one day's aggregates. Called by the scheduler.
func (s *Service) RollupDay(ctx context.Context, day time.Time) error {
	return s.repo.RollupDay(ctx, day)
}

// effectiveClient resolves the client filter for a read. A restricted scope
// always wins over the caller-supplied filter, and a restricted caller with
// no client association matches nothing.
func effectiveClient(requested string, scope Scope) (client string, none bool) {
	if !scope.Restricted {
		return requested, false
	}
	if scope.ClientName == "" {
		return "", true
	}
	return scope.ClientName, false
}

func parseRange(req transport.RangeRequest) (time.Time, time.Time, error) {
	to := time.Now().UTC()
	if req.To != "" {
		parsed, err := time.Parse(time.RFC3339, req.To)
		if err != nil {
			return time.Time{}, time.Time{}, apperr.Validation("to must be RFC 3339")
		}
		to = parsed.UTC()
	}

	from := to.Add(-defaultWindow)
	if req.From != "" {
		parsed, err := time.Parse(time.RFC3339, req.From)
		if err != nil {
			return time.Time{}, time.Time{}, apperr.Validation("from must be RFC 3339")
		}
		from = parsed.UTC()
	}

	if !from.Before(to) {
		return time.Time{}, time.Time{}, apperr.Validation("from must be before to")
	}
	return from, to, nil
}
