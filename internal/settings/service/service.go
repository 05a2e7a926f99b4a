// Package service contains the business logic for portal and user settings.
package service

import (
	"context"

	"github.com/google/uuid"

	"workflow_portal_backend/internal/events"
	"workflow_portal_backend/internal/settings/store"
	"workflow_portal_backend/internal/settings/transport"
	"workflow_portal_backend/platform/apperr"
	"workflow_portal_backend/platform/sanitize"
)

// Service coordinates the settings store with sanitization and events.
type Service struct {
	store    *store.Store
	eventBus events.Bus
}

func New(settingStore *store.Store, eventBus events.Bus) *Service {
	return &Service{store: settingStore, eventBus: eventBus}
}

// SetPortal writes a portal-scoped setting. Only admins reach this path.
func (s *Service) SetPortal(ctx context.Context, req transport.SetSettingRequest, updatedBy uuid.UUID) (transport.SettingResponse, error) {
	setting := store.Setting{
		Key:       sanitize.Text(req.Key),
		Value:     req.Value,
		Secret:    req.Secret,
		UpdatedBy: updatedBy.String(),
	}
	if setting.Key == "" {
		return transport.SettingResponse{}, apperr.Validation("setting key is required")
	}
	if err := s.store.SetPortal(ctx, setting); err != nil {
		return transport.SettingResponse{}, err
	}

	stored, err := s.store.GetPortal(ctx, setting.Key)
	if err != nil {
		return transport.SettingResponse{}, err
	}

	s.eventBus.Publish(ctx, events.SettingChanged{
		BaseEvent: events.NewBaseEvent(),
		Key:       stored.Key,
		ChangedBy: updatedBy,
	})

	return transport.NewSettingResponse(stored), nil
}

// GetPortal returns one portal setting. Secret values are masked.
func (s *Service) GetPortal(ctx context.Context, key string) (transport.SettingResponse, error) {
	setting, err := s.store.GetPortal(ctx, key)
	if err != nil {
		return transport.SettingResponse{}, err
	}
	return transport.NewSettingResponse(setting), nil
}

// ListPortal returns all portal settings with secret values masked.
func (s *Service) ListPortal(ctx context.Context) (transport.ListSettingsResponse, error) {
	settings, err := s.store.ListPortal(ctx)
	if err != nil {
		return transport.ListSettingsResponse{}, err
	}
	return transport.NewListSettingsResponse(settings), nil
}

// DeletePortal removes one portal setting.
func (s *Service) DeletePortal(ctx context.Context, key string, deletedBy uuid.UUID) error {
	if err := s.store.DeletePortal(ctx, key); err != nil {
		return err
	}

	s.eventBus.Publish(ctx, events.SettingChanged{
		BaseEvent: events.NewBaseEvent(),
		Key:       key,
		Removed:   true,
		ChangedBy: deletedBy,
	})

	return nil
}

// SetUser writes a setting scoped to a single user.
func (s *Service) SetUser(ctx context.Context, userID uuid.UUID, req transport.SetSettingRequest) (transport.SettingResponse, error) {
	setting := store.Setting{
		Key:       sanitize.Text(req.Key),
		Value:     req.Value,
		Secret:    req.Secret,
		UpdatedBy: userID.String(),
	}
	if setting.Key == "" {
		return transport.SettingResponse{}, apperr.Validation("setting key is required")
	}
	if err := s.store.SetUser(ctx, userID, setting); err != nil {
		return transport.SettingResponse{}, err
	}

	stored, err := s.store.GetUser(ctx, userID, setting.Key)
	if err != nil {
		return transport.SettingResponse{}, err
	}
	return transport.NewSettingResponse(stored), nil
}

// GetUser returns one user-scoped setting.
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID, key string) (transport.SettingResponse, error) {
	setting, err := s.store.GetUser(ctx, userID, key)
	if err != nil {
		return transport.SettingResponse{}, err
	}
	return transport.NewSettingResponse(setting), nil
}

// ListUser returns all settings for one user.
func (s *Service) ListUser(ctx context.Context, userID uuid.UUID) (transport.ListSettingsResponse, error) {
	settings, err := s.store.ListUser(ctx, userID)
	if err != nil {
		return transport.ListSettingsResponse{}, err
	}
	return transport.NewListSettingsResponse(settings), nil
}

// DeleteUser removes one user-scoped setting.
func (s *Service) DeleteUser(ctx context.Context, userID uuid.UUID, key string) error {
	return s.store.DeleteUser(ctx, userID, key)
}

// PurgeUser drops every setting belonging to a user. Called after sign-out
// purges and account removal.
func (s *Service) PurgeUser(ctx context.Context, userID uuid.UUID) error {
	return s.store.PurgeUser(ctx, userID)
}
