package adapters

import (
	"context"

	"workflow_portal_backend/internal/bootstrap"
	profileshandler "workflow_portal_backend/internal/profiles/handler"
	"workflow_portal_backend/internal/profiles/transport"

	"github.com/google/uuid"
)

// BootstrapSelfUpdater routes self-profile updates through the caller's
// bootstrap, so a successful update replaces the cached profile with the
// server row instead of leaving the cache stale.
type BootstrapSelfUpdater struct {
	registry *bootstrap.Registry
}

// NewBootstrapSelfUpdater creates the adapter.
func NewBootstrapSelfUpdater(registry *bootstrap.Registry) *BootstrapSelfUpdater {
	return &BootstrapSelfUpdater{registry: registry}
}

// UpdateOwnProfile applies the update via the user's bootstrap and maps the
// refreshed cache row back to the profiles transport shape.
func (a *BootstrapSelfUpdater) UpdateOwnProfile(ctx context.Context, userID uuid.UUID, accessToken string, req transport.UpdateProfileRequest) (transport.ProfileResponse, error) {
	b := a.registry.Acquire(userID, accessToken)
	updated, err := b.UpdateProfile(ctx, bootstrap.ProfileUpdate{
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		AvatarKey:   req.AvatarKey,
	})
	if err != nil {
		return transport.ProfileResponse{}, err
	}

	return transport.ProfileResponse{
		ID:          updated.ID.String(),
		DisplayName: updated.DisplayName,
		Email:       updated.Email,
		Phone:       updated.Phone,
		AvatarKey:   updated.AvatarKey,
		Role:        updated.Role,
		CreatedAt:   updated.CreatedAt,
		UpdatedAt:   updated.UpdatedAt,
	}, nil
}

// Compile-time interface check
var _ profileshandler.SelfUpdater = (*BootstrapSelfUpdater)(nil)
