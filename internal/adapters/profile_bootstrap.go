// Package adapters provides anti-corruption-layer adapters for cross-module
// communication, so each module only depends on interfaces it owns.
package adapters

import (
	"context"

	"workflow_portal_backend/internal/bootstrap"
	"workflow_portal_backend/internal/profiles/repository"
	"workflow_portal_backend/internal/profiles/service"
	"workflow_portal_backend/internal/profiles/transport"
	"workflow_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

// ProfileBootstrapAdapter exposes the profiles module through the bootstrap's
// own ProfileReader/ProfileWriter interfaces.
type ProfileBootstrapAdapter struct {
	repo *repository.Repository
	svc  *service.Service
}

// NewProfileBootstrapAdapter creates the adapter.
func NewProfileBootstrapAdapter(repo *repository.Repository, svc *service.Service) *ProfileBootstrapAdapter {
	return &ProfileBootstrapAdapter{repo: repo, svc: svc}
}

// ProfileByUserID resolves the profile row behind a user identity. A missing
// row maps to (nil, nil) so the bootstrap can distinguish "no profile" from a
// failed lookup.
func (a *ProfileBootstrapAdapter) ProfileByUserID(ctx context.Context, userID uuid.UUID) (*bootstrap.Profile, error) {
	row, err := a.repo.GetByID(ctx, userID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toBootstrapProfile(row), nil
}

// UpdateProfile applies a partial update through the profiles service so
// sanitization, phone normalization, and events all run.
func (a *ProfileBootstrapAdapter) UpdateProfile(ctx context.Context, userID uuid.UUID, update bootstrap.ProfileUpdate) (*bootstrap.Profile, error) {
	resp, err := a.svc.Update(ctx, userID, userID, transport.UpdateProfileRequest{
		DisplayName: update.DisplayName,
		Phone:       update.Phone,
		AvatarKey:   update.AvatarKey,
	})
	if err != nil {
		return nil, err
	}

	return &bootstrap.Profile{
		ID:          userID,
		DisplayName: resp.DisplayName,
		Email:       resp.Email,
		Phone:       resp.Phone,
		AvatarKey:   resp.AvatarKey,
		Role:        resp.Role,
		CreatedAt:   resp.CreatedAt,
		UpdatedAt:   resp.UpdatedAt,
	}, nil
}

func toBootstrapProfile(row repository.Profile) *bootstrap.Profile {
	return &bootstrap.Profile{
		ID:          row.ID,
		DisplayName: row.DisplayName,
		Email:       row.Email,
		Phone:       row.Phone,
		AvatarKey:   row.AvatarKey,
		Role:        row.Role,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

// Compile-time interface checks
var (
	_ bootstrap.ProfileReader = (*ProfileBootstrapAdapter)(nil)
	_ bootstrap.ProfileWriter = (*ProfileBootstrapAdapter)(nil)
)
