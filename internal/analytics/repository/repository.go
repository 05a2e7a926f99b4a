// Package repository provides database access for workflow run analytics.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"workflow_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Run statuses reported by the automation service.
const (
	RunStatusSuccess = "success"
	RunStatusFailure = "failure"
)

// Repo implements Repository backed by Postgres.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new analytics repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Run is one recorded workflow execution.
type Run struct {
	ID         uuid.UUID
	WorkflowID uuid.UUID
	ClientName string
	Status     string
	DurationMs int64
	RanAt      time.Time
}

// Summary aggregates runs over a window.
type Summary struct {
	TotalRuns       int64
	Failures        int64
	AvgDurationMs   float64
	ActiveWorkflows int64
}

// DayPoint is one bucket of the run time series.
type DayPoint struct {
	Day           time.Time
	Runs          int64
	Failures      int64
	AvgDurationMs float64
}

// WorkflowStats aggregates runs for one workflow.
type WorkflowStats struct {
	WorkflowID    uuid.UUID
	TotalRuns     int64
	Failures      int64
	AvgDurationMs float64
	LastRunAt     *time.Time
}

// Repository provides database operations for analytics. Read queries take an
// optional client filter; empty means unrestricted.
type Repository interface {
	InsertRun(ctx context.Context, run Run) error
	Summary(ctx context.Context, from, to time.Time, client string) (Summary, error)
	TimeSeries(ctx context.Context, from, to time.Time, client string) ([]DayPoint, error)
	WorkflowStats(ctx context.Context, workflowID uuid.UUID, from, to time.Time, client string) (WorkflowStats, error)
	DeleteRunsForWorkflow(ctx context.Context, workflowID uuid.UUID) error
	RollupDay(ctx context.Context, day time.Time) error
}

// InsertRun records one workflow execution.
func (r *Repo) InsertRun(ctx context.Context, run Run) error {
	query := `
		INSERT INTO workflow_runs (id, workflow_id, client_name, status, duration_ms, ran_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		run.ID,
		run.WorkflowID,
		run.ClientName,
		run.Status,
		run.DurationMs,
		run.RanAt,
	)
	if err != nil {
		return fmt.Errorf("insert workflow run: %w", err)
	}
	return nil
}

// Summary aggregates runs in [from, to), optionally narrowed to one client.
func (r *Repo) Summary(ctx context.Context, from, to time.Time, client string) (Summary, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = $3),
			COALESCE(AVG(duration_ms), 0),
			COUNT(DISTINCT workflow_id)
		FROM workflow_runs
		WHERE ran_at >= $1 AND ran_at < $2
			AND ($4 = '' OR client_name = $4)
	`

	var s Summary
	err := r.pool.QueryRow(ctx, query, from, to, RunStatusFailure, client).Scan(
		&s.TotalRuns,
		&s.Failures,
		&s.AvgDurationMs,
		&s.ActiveWorkflows,
	)
	if err != nil {
		return Summary{}, fmt.Errorf("analytics summary: %w", err)
	}
	return s, nil
}

// TimeSeries buckets runs per day over [from, to), optionally narrowed to one
// client.
func (r *Repo) TimeSeries(ctx context.Context, from, to time.Time, client string) ([]DayPoint, error) {
	query := `
		SELECT
			date_trunc('day', ran_at) AS day,
			COUNT(*),
			COUNT(*) FILTER (WHERE status = $3),
			COALESCE(AVG(duration_ms), 0)
		FROM workflow_runs
		WHERE ran_at >= $1 AND ran_at < $2
			AND ($4 = '' OR client_name = $4)
		GROUP BY day
		ORDER BY day ASC
	`

	rows, err := r.pool.Query(ctx, query, from, to, RunStatusFailure, client)
	if err != nil {
		return nil, fmt.Errorf("analytics time series: %w", err)
	}
	defer rows.Close()

	points := make([]DayPoint, 0)
	for rows.Next() {
		var p DayPoint
		if err := rows.Scan(&p.Day, &p.Runs, &p.Failures, &p.AvgDurationMs); err != nil {
			return nil, fmt.Errorf("scan time series point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate time series: %w", err)
	}
	return points, nil
}

// WorkflowStats aggregates runs for one workflow over [from, to), optionally
// narrowed to one client.
func (r *Repo) WorkflowStats(ctx context.Context, workflowID uuid.UUID, from, to time.Time, client string) (WorkflowStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = $4),
			COALESCE(AVG(duration_ms), 0),
			MAX(ran_at)
		FROM workflow_runs
		WHERE workflow_id = $1 AND ran_at >= $2 AND ran_at < $3
			AND ($5 = '' OR client_name = $5)
	`

	stats := WorkflowStats{WorkflowID: workflowID}
	err := r.pool.QueryRow(ctx, query, workflowID, from, to, RunStatusFailure, client).Scan(
		&stats.TotalRuns,
		&stats.Failures,
		&stats.AvgDurationMs,
		&stats.LastRunAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return WorkflowStats{}, apperr.NotFound("workflow has no runs")
		}
		return WorkflowStats{}, fmt.Errorf("workflow stats: %w", err)
	}
	return stats, nil
}

// DeleteRunsForWorkflow discards the raw runs of a removed workflow. Daily
// rollups keep the aggregated history.
func (r *Repo) DeleteRunsForWorkflow(ctx context.Context, workflowID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM workflow_runs WHERE workflow_id = $1`, workflowID); err != nil {
		return fmt.Errorf("delete runs for workflow: %w", err)
	}
	return nil
}

// RollupDay materializes a day's runs into the daily aggregate table. Re-runs
// are idempotent; an existing row is replaced.
func (r *Repo) RollupDay(ctx context.Context, day time.Time) error {
	dayStart := day.Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	query := `
		INSERT INTO workflow_runs_daily (day, client_name, runs, failures, avg_duration_ms)
		SELECT
			date_trunc('day', ran_at),
			client_name,
			COUNT(*),
			COUNT(*) FILTER (WHERE status = $3),
			COALESCE(AVG(duration_ms), 0)
		FROM workflow_runs
		WHERE ran_at >= $1 AND ran_at < $2
		GROUP BY date_trunc('day', ran_at), client_name
		ON CONFLICT (day, client_name) DO UPDATE SET
			runs = EXCLUDED.runs,
			failures = EXCLUDED.failures,
			avg_duration_ms = EXCLUDED.avg_duration_ms
	`

	if _, err := r.pool.Exec(ctx, query, dayStart, dayEnd, RunStatusFailure); err != nil {
		return fmt.Errorf("rollup day %s: %w", dayStart.Format("2006-01-02"), err)
	}
	return nil
}

// Compile-time check that Repo implements Repository
var _ Repository = (*Repo)(nil)
