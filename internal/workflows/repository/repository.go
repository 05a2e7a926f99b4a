package repository

import (
	"context"
	"errors"
	"fmt"

	"workflow_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const workflowNotFoundMsg = "workflow not found"

// Repo implements Repository backed by Postgres.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new workflows repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const workflowColumns = `id, name, description, client_name, data, status, archive_key,
	uploaded_by, uploaded_at, created_by, created_at, updated_at`

func scanWorkflow(row pgx.Row) (Workflow, error) {
	var w Workflow
	err := row.Scan(
		&w.ID,
		&w.Name,
		&w.Description,
		&w.ClientName,
		&w.Data,
		&w.Status,
		&w.ArchiveKey,
		&w.UploadedBy,
		&w.UploadedAt,
		&w.CreatedBy,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	return w, err
}

func (r *Repo) Create(ctx context.Context, params CreateParams) (Workflow, error) {
	query := `
		INSERT INTO workflows (id, name, description, client_name, data, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING ` + workflowColumns

	workflow, err := scanWorkflow(r.pool.QueryRow(ctx, query,
		params.ID,
		params.Name,
		params.Description,
		params.ClientName,
		params.Data,
		StatusDraft,
		params.CreatedBy,
	))
	if err != nil {
		return Workflow{}, fmt.Errorf("create workflow: %w", err)
	}

	return workflow, nil
}

func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE id = $1`

	workflow, err := scanWorkflow(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Workflow{}, apperr.NotFound(workflowNotFoundMsg)
		}
		return Workflow{}, fmt.Errorf("get workflow: %w", err)
	}

	return workflow, nil
}

func (r *Repo) Update(ctx context.Context, params UpdateParams) (Workflow, error) {
	query := `
		UPDATE workflows
		SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			client_name = COALESCE($4, client_name),
			data = COALESCE($5, data),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + workflowColumns

	workflow, err := scanWorkflow(r.pool.QueryRow(ctx, query,
		params.ID,
		params.Name,
		params.Description,
		params.ClientName,
		params.Data,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Workflow{}, apperr.NotFound(workflowNotFoundMsg)
		}
		return Workflow{}, fmt.Errorf("update workflow: %w", err)
	}

	return workflow, nil
}

func (r *Repo) MarkUploaded(ctx context.Context, params MarkUploadedParams) (Workflow, error) {
	query := `
		UPDATE workflows
		SET
			status = $2,
			uploaded_by = $3,
			uploaded_at = $4,
			archive_key = COALESCE($5, archive_key),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + workflowColumns

	workflow, err := scanWorkflow(r.pool.QueryRow(ctx, query,
		params.ID,
		StatusUploaded,
		params.UploadedBy,
		params.UploadedAt,
		params.ArchiveKey,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Workflow{}, apperr.NotFound(workflowNotFoundMsg)
		}
		return Workflow{}, fmt.Errorf("mark workflow uploaded: %w", err)
	}

	return workflow, nil
}

func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete workflow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(workflowNotFoundMsg)
	}
	return nil
}

func (r *Repo) List(ctx context.Context, params ListParams) (ListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 25
	}

	where := ` WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR client_name ILIKE '%' || $1 || '%')
		AND ($2 = '' OR client_name = $2)
		AND ($3 = '' OR status = $3)`

	var total int
	countQuery := `SELECT COUNT(*) FROM workflows` + where
	if err := r.pool.QueryRow(ctx, countQuery, params.Search, params.ClientName, params.Status).Scan(&total); err != nil {
		return ListResult{}, fmt.Errorf("count workflows: %w", err)
	}

	query := `SELECT ` + workflowColumns + ` FROM workflows` + where + `
		ORDER BY updated_at DESC
		LIMIT $4 OFFSET $5`

	rows, err := r.pool.Query(ctx, query,
		params.Search,
		params.ClientName,
		params.Status,
		params.PageSize,
		(params.Page-1)*params.PageSize,
	)
	if err != nil {
		return ListResult{}, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	items := make([]Workflow, 0, params.PageSize)
	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return ListResult{}, fmt.Errorf("scan workflow: %w", err)
		}
		items = append(items, workflow)
	}
	if err := rows.Err(); err != nil {
		return ListResult{}, fmt.Errorf("iterate workflows: %w", err)
	}

	totalPages := (total + params.PageSize - 1) / params.PageSize

	return ListResult{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	}, nil
}

// Compile-time check that Repo implements Repository
var _ Repository = (*Repo)(nil)
