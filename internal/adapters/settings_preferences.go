package adapters

import (
	"context"

	"workflow_portal_backend/internal/notification"
	"workflow_portal_backend/internal/settings/store"

	"github.com/google/uuid"
)

// Per-user setting keys for notification opt-outs. Absent keys mean enabled.
const (
	prefEmailKey        = "notifications.email"
	prefUploadAlertsKey = "notifications.upload_alerts"
)

// SettingsPreferenceReader serves notification preferences out of the
// per-user settings store.
type SettingsPreferenceReader struct {
	store *store.Store
}

func NewSettingsPreferenceReader(settingStore *store.Store) *SettingsPreferenceReader {
	return &SettingsPreferenceReader{store: settingStore}
}

func (r *SettingsPreferenceReader) EmailEnabled(ctx context.Context, userID uuid.UUID) bool {
	return r.enabled(ctx, userID, prefEmailKey)
}

func (r *SettingsPreferenceReader) UploadAlertsEnabled(ctx context.Context, userID uuid.UUID) bool {
	return r.enabled(ctx, userID, prefUploadAlertsKey)
}

func (r *SettingsPreferenceReader) enabled(ctx context.Context, userID uuid.UUID, key string) bool {
	setting, err := r.store.GetUser(ctx, userID, key)
	if err != nil {
		return true
	}
	return setting.Value != "false"
}

var _ notification.PreferenceReader = (*SettingsPreferenceReader)(nil)
