// Package repository provides database access for profile rows.
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

const profileNotFoundMsg = "profile not found"

// Repository provides database operations for profiles.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new profiles repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Profile is keyed by the auth service's user ID; it is the portal's source
// of truth for display data and the role.
type Profile struct {
	ID          uuid.UUID
	DisplayName string
	Email       string
	Phone       *string
	AvatarKey   *string
	Role        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ProfileUpdate struct {
	ID          uuid.UUID
	DisplayName *string
	Phone       *string
	AvatarKey   *string
}

type ListParams struct {
	Search   string
	Role     string
	Page     int
	PageSize int
}

type ListResult struct {
	Items      []Profile
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

const profileColumns = `id, display_name, email, phone, avatar_key, role, created_at, updated_at`

func scanProfile(row pgx.Row) (Profile, error) {
	var p Profile
	err := row.Scan(
		&p.ID,
		&p.DisplayName,
		&p.Email,
		&p.Phone,
		&p.AvatarKey,
		&p.Role,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func (r *Repository) Create(ctx context.Context, profile Profile) (Profile, error) {
	query := `
		INSERT INTO profiles (id, display_name, email, phone, avatar_key, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		profile.ID,
		profile.DisplayName,
		profile.Email,
		profile.Phone,
		profile.AvatarKey,
		profile.Role,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		return Profile{}, fmt.Errorf("create profile: %w", err)
	}

	return profile, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	profile, err := scanProfile(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, apperr.NotFound(profileNotFoundMsg)
		}
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}

	return profile, nil
}

func (r *Repository) Update(ctx context.Context, update ProfileUpdate) (Profile, error) {
	query := `
		UPDATE profiles
		SET
			display_name = COALESCE($2, display_name),
			phone = COALESCE($3, phone),
			avatar_key = COALESCE($4, avatar_key),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + profileColumns

	profile, err := scanProfile(r.pool.QueryRow(ctx, query,
		update.ID,
		update.DisplayName,
		update.Phone,
		update.AvatarKey,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, apperr.NotFound(profileNotFoundMsg)
		}
		return Profile{}, fmt.Errorf("update profile: %w", err)
	}

	return profile, nil
}

// ClearAvatar removes the avatar key; COALESCE-based Update cannot null a column.
func (r *Repository) ClearAvatar(ctx context.Context, id uuid.UUID) (Profile, error) {
	query := `
		UPDATE profiles
		SET avatar_key = NULL, updated_at = now()
		WHERE id = $1
		RETURNING ` + profileColumns

	profile, err := scanProfile(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, apperr.NotFound(profileNotFoundMsg)
		}
		return Profile{}, fmt.Errorf("clear profile avatar: %w", err)
	}

	return profile, nil
}

func (r *Repository) UpdateRole(ctx context.Context, id uuid.UUID, role string) (Profile, error) {
	query := `
		UPDATE profiles
		SET role = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + profileColumns

	profile, err := scanProfile(r.pool.QueryRow(ctx, query, id, role))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, apperr.NotFound(profileNotFoundMsg)
		}
		return Profile{}, fmt.Errorf("update profile role: %w", err)
	}

	return profile, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(profileNotFoundMsg)
	}
	return nil
}

func (r *Repository) List(ctx context.Context, params ListParams) (ListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 25
	}

	where := ` WHERE ($1 = '' OR display_name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')
		AND ($2 = '' OR role = $2)`

	var total int
	countQuery := `SELECT COUNT(*) FROM profiles` + where
	if err := r.pool.QueryRow(ctx, countQuery, params.Search, params.Role).Scan(&total); err != nil {
		return ListResult{}, fmt.Errorf("count profiles: %w", err)
	}

	query := `SELECT ` + profileColumns + ` FROM profiles` + where + `
		ORDER BY display_name ASC
		LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query,
		params.Search,
		params.Role,
		params.PageSize,
		(params.Page-1)*params.PageSize,
	)
	if err != nil {
		return ListResult{}, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	items := make([]Profile, 0, params.PageSize)
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return ListResult{}, fmt.Errorf("scan profile: %w", err)
		}
		items = append(items, profile)
	}
	if err := rows.Err(); err != nil {
		return ListResult{}, fmt.Errorf("iterate profiles: %w", err)
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
