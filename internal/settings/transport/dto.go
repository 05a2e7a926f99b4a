// Package transport defines request/response DTOs for the settings module.
package transport

import (
	"time"

	"workflow_portal_backend/internal/settings/store"
)

// maskedValue replaces secret values in responses; secrets are write-only
// over the API.
const maskedValue = "********"

// SetSettingRequest writes one setting.
type SetSettingRequest struct {
	Key    string `json:"key" validate:"required,min=1,max=120"`
	Value  string `json:"value" validate:"required,max=8192"`
	Secret bool   `json:"secret"`
}

// SettingResponse is one setting as exposed over HTTP.
type SettingResponse struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Secret    bool      `json:"secret"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ListSettingsResponse is the full listing for one scope.
type ListSettingsResponse struct {
	Items []SettingResponse `json:"items"`
}

// NewSettingResponse maps a stored setting to its HTTP shape, masking secrets.
func NewSettingResponse(s store.Setting) SettingResponse {
	value := s.Value
	if s.Secret {
		value = maskedValue
	}
	return SettingResponse{
		Key:       s.Key,
		Value:     value,
		Secret:    s.Secret,
		UpdatedBy: s.UpdatedBy,
		UpdatedAt: s.UpdatedAt,
	}
}

// NewListSettingsResponse maps stored settings to their HTTP shape.
func NewListSettingsResponse(settings []store.Setting) ListSettingsResponse {
	items := make([]SettingResponse, 0, len(settings))
	for _, s := range settings {
		items = append(items, NewSettingResponse(s))
	}
	return ListSettingsResponse{Items: items}
}
