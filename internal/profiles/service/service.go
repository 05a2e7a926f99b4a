// Package service provides business logic for profiles.
package service

import (
	"context"
	"time"

	"workflow_portal_backend/internal/events"
	"workflow_portal_backend/internal/profiles/repository"
	"workflow_portal_backend/internal/profiles/transport"
	"workflow_portal_backend/internal/storage"
	"workflow_portal_backend/platform/apperr"
	"workflow_portal_backend/platform/phone"
	"workflow_portal_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Service provides business logic for profiles.
type Service struct {
	repo         *repository.Repository
	eventBus     events.Bus
	storage      storage.Service
	avatarBucket string
}

// New creates a new profiles service.
func New(repo *repository.Repository, eventBus events.Bus, storageSvc storage.Service, avatarBucket string) *Service {
	return &Service{repo: repo, eventBus: eventBus, storage: storageSvc, avatarBucket: avatarBucket}
}

// Get returns one profile row.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.ProfileResponse, error) {
	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.ProfileResponse{}, err
	}
	return transport.NewProfileResponse(profile), nil
}

// List returns the filtered, paginated profile listing.
func (s *Service) List(ctx context.Context, req transport.ListProfilesRequest) (transport.ListProfilesResponse, error) {
	result, err := s.repo.List(ctx, repository.ListParams{
		Search:   req.Search,
		Role:     req.Role,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return transport.ListProfilesResponse{}, err
	}
	return transport.NewListProfilesResponse(result), nil
}

// Create provisions a profile row for an auth-service user.
func (s *Service) Create(ctx context.Context, createdBy uuid.UUID, req transport.CreateProfileRequest) (transport.ProfileResponse, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return transport.ProfileResponse{}, apperr.BadRequest("invalid user id")
	}

	normalized, err := normalizePhone(req.Phone)
	if err != nil {
		return transport.ProfileResponse{}, err
	}

	now := time.Now()
	profile := repository.Profile{
		ID:          userID,
		DisplayName: sanitize.Text(req.DisplayName),
		Email:       req.Email,
		Phone:       normalized,
		Role:        req.Role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.repo.Create(ctx, profile)
	if err != nil {
		return transport.ProfileResponse{}, err
	}

	s.eventBus.Publish(ctx, events.ProfileUpdated{
		BaseEvent:   events.NewBaseEvent(),
		UserID:      created.ID,
		DisplayName: created.DisplayName,
		UpdatedBy:   createdBy,
	})

	return transport.NewProfileResponse(created), nil
}

// Update applies a partial profile update and returns the stored row.
func (s *Service) Update(ctx context.Context, id uuid.UUID, updatedBy uuid.UUID, req transport.UpdateProfileRequest) (transport.ProfileResponse, error) {
	normalized, err := normalizePhone(req.Phone)
	if err != nil {
		return transport.ProfileResponse{}, err
	}

	updated, err := s.repo.Update(ctx, repository.ProfileUpdate{
		ID:          id,
		DisplayName: sanitize.TextPtr(req.DisplayName),
		Phone:       normalized,
		AvatarKey:   req.AvatarKey,
	})
	if err != nil {
		return transport.ProfileResponse{}, err
	}

	s.eventBus.Publish(ctx, events.ProfileUpdated{
		BaseEvent:   events.NewBaseEvent(),
		UserID:      updated.ID,
		DisplayName: updated.DisplayName,
		UpdatedBy:   updatedBy,
	})

	return transport.NewProfileResponse(updated), nil
}

// SetRole changes a profile's role. The caller cannot demote themselves so a
// portal always retains at least the acting admin.
func (s *Service) SetRole(ctx context.Context, id uuid.UUID, changedBy uuid.UUID, req transport.UpdateRoleRequest) (transport.ProfileResponse, error) {
	if id == changedBy {
		return transport.ProfileResponse{}, apperr.Conflict("cannot change your own role")
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.ProfileResponse{}, err
	}
	if current.Role == req.Role {
		return transport.NewProfileResponse(current), nil
	}

	updated, err := s.repo.UpdateRole(ctx, id, req.Role)
	if err != nil {
		return transport.ProfileResponse{}, err
	}

	s.eventBus.Publish(ctx, events.ProfileRoleChanged{
		BaseEvent: events.NewBaseEvent(),
		UserID:    updated.ID,
		OldRole:   current.Role,
		NewRole:   updated.Role,
		ChangedBy: changedBy,
	})

	return transport.NewProfileResponse(updated), nil
}

// Delete removes a profile row.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, deletedBy uuid.UUID) error {
	if id == deletedBy {
		return apperr.Conflict("cannot delete your own profile")
	}
	return s.repo.Delete(ctx, id)
}

// PresignAvatar creates a presigned upload URL for a new avatar.
func (s *Service) PresignAvatar(ctx context.Context, id uuid.UUID, req transport.PresignAvatarRequest) (*storage.PresignedURL, error) {
	url, err := s.storage.GenerateUploadURL(ctx, s.avatarBucket, id.String(), req.FileName, req.ContentType, req.SizeBytes)
	if err != nil {
		return nil, apperr.BadRequest(err.Error())
	}
	return url, nil
}

// SetAvatar records a completed avatar upload, removing the previous object.
func (s *Service) SetAvatar(ctx context.Context, id uuid.UUID, req transport.SetAvatarRequest) (transport.ProfileResponse, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.ProfileResponse{}, err
	}

	updated, err := s.repo.Update(ctx, repository.ProfileUpdate{ID: id, AvatarKey: &req.FileKey})
	if err != nil {
		return transport.ProfileResponse{}, err
	}

	if current.AvatarKey != nil && *current.AvatarKey != req.FileKey {
		// Old object cleanup; the row update already committed.
		_ = s.storage.DeleteObject(ctx, s.avatarBucket, *current.AvatarKey)
	}

	return transport.NewProfileResponse(updated), nil
}

// AvatarDownloadURL creates a presigned download URL for a profile's avatar.
func (s *Service) AvatarDownloadURL(ctx context.Context, id uuid.UUID) (*storage.PresignedURL, error) {
	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if profile.AvatarKey == nil {
		return nil, apperr.NotFound("profile has no avatar")
	}
	return s.storage.GenerateDownloadURL(ctx, s.avatarBucket, *profile.AvatarKey)
}

// DeleteAvatar removes a profile's avatar object and clears the key.
func (s *Service) DeleteAvatar(ctx context.Context, id uuid.UUID) (transport.ProfileResponse, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.ProfileResponse{}, err
	}
	if current.AvatarKey == nil {
		return transport.NewProfileResponse(current), nil
	}

	updated, err := s.repo.ClearAvatar(ctx, id)
	if err != nil {
		return transport.ProfileResponse{}, err
	}

	_ = s.storage.DeleteObject(ctx, s.avatarBucket, *current.AvatarKey)

	return transport.NewProfileResponse(updated), nil
}

func normalizePhone(input *string) (*string, error) {
	if input == nil {
		return nil, nil
	}
	normalized, err := phone.NormalizeE164(*input)
	if err != nil {
		return nil, apperr.Validation("invalid phone number")
	}
	if normalized == "" {
		return nil, nil
	}
	return &normalized, nil
}
