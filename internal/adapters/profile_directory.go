package adapters

import (
	"context"

	"workflow_portal_backend/internal/notification"
	"workflow_portal_backend/internal/profiles/repository"

	"github.com/google/uuid"
)

// ProfileDirectoryAdapter exposes the profiles repository as the recipient
// directory the notification module consumes.
type ProfileDirectoryAdapter struct {
	repo *repository.Repository
}

func NewProfileDirectoryAdapter(repo *repository.Repository) *ProfileDirectoryAdapter {
	return &ProfileDirectoryAdapter{repo: repo}
}

func (a *ProfileDirectoryAdapter) GetByID(ctx context.Context, userID uuid.UUID) (notification.Recipient, error) {
	profile, err := a.repo.GetByID(ctx, userID)
	if err != nil {
		return notification.Recipient{}, err
	}
	return notification.Recipient{
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
	}, nil
}

var _ notification.ProfileDirectory = (*ProfileDirectoryAdapter)(nil)
