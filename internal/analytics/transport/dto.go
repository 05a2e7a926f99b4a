// Package transport defines request/response DTOs for the analytics module.
package transport

import (
	"time"

	"workflow_portal_backend/internal/analytics/repository"
)

// RecordRunRequest reports one workflow execution.
type RecordRunRequest struct {
	WorkflowID string `json:"workflowId" validate:"required,uuid"`
	ClientName string `json:"clientName" validate:"required,min=1,max=200"`
	Status     string `json:"status" validate:"required,oneof=success failure"`
	DurationMs int64  `json:"durationMs" validate:"min=0"`
	RanAt      string `json:"ranAt" validate:"omitempty"`
}

// RangeRequest bounds an analytics read. Defaults to the last 30 days. The
// client filter is advisory; restricted scopes override it.
type RangeRequest struct {
	From   string `form:"from" validate:"omitempty"`
	To     string `form:"to" validate:"omitempty"`
	Client string `form:"client" validate:"omitempty,max=200"`
}

// SummaryResponse is the aggregate run summary.
type SummaryResponse struct {
	From            time.Time `json:"from"`
	To              time.Time `json:"to"`
	TotalRuns       int64     `json:"totalRuns"`
	Failures        int64     `json:"failures"`
	SuccessRate     float64   `json:"successRate"`
	AvgDurationMs   float64   `json:"avgDurationMs"`
	ActiveWorkflows int64     `json:"activeWorkflows"`
}

// DayPointResponse is one bucket of the run time series.
type DayPointResponse struct {
	Day           time.Time `json:"day"`
	Runs          int64     `json:"runs"`
	Failures      int64     `json:"failures"`
	AvgDurationMs float64   `json:"avgDurationMs"`
}

// TimeSeriesResponse is the bucketed run history.
type TimeSeriesResponse struct {
	From   time.Time          `json:"from"`
	To     time.Time          `json:"to"`
	Points []DayPointResponse `json:"points"`
}

// WorkflowStatsResponse aggregates runs for one workflow.
type WorkflowStatsResponse struct {
	WorkflowID    string     `json:"workflowId"`
	TotalRuns     int64      `json:"totalRuns"`
	Failures      int64      `json:"failures"`
	SuccessRate   float64    `json:"successRate"`
	AvgDurationMs float64    `json:"avgDurationMs"`
	LastRunAt     *time.Time `json:"lastRunAt,omitempty"`
}

// NewSummaryResponse maps a repository summary to its HTTP shape.
func NewSummaryResponse(s repository.Summary, from, to time.Time) SummaryResponse {
	return SummaryResponse{
		From:            from,
		To:              to,
		TotalRuns:       s.TotalRuns,
		Failures:        s.Failures,
		SuccessRate:     successRate(s.TotalRuns, s.Failures),
		AvgDurationMs:   s.AvgDurationMs,
		ActiveWorkflows: s.ActiveWorkflows,
	}
}

// NewTimeSeriesResponse maps repository day points to their HTTP shape.
func NewTimeSeriesResponse(points []repository.DayPoint, from, to time.Time) TimeSeriesResponse {
	out := make([]DayPointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, DayPointResponse{
			Day:           p.Day,
			Runs:          p.Runs,
			Failures:      p.Failures,
			AvgDurationMs: p.AvgDurationMs,
		})
	}
	return TimeSeriesResponse{From: from, To: to, Points: out}
}

// NewWorkflowStatsResponse maps repository workflow stats to their HTTP shape.
func NewWorkflowStatsResponse(s repository.WorkflowStats) WorkflowStatsResponse {
	return WorkflowStatsResponse{
		WorkflowID:    s.WorkflowID.String(),
		TotalRuns:     s.TotalRuns,
		Failures:      s.Failures,
		SuccessRate:   successRate(s.TotalRuns, s.Failures),
		AvgDurationMs: s.AvgDurationMs,
		LastRunAt:     s.LastRunAt,
	}
}

func successRate(total, failures int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(total-failures) / float64(total)
}
