package adapters

import (
	"context"

	"workflow_portal_backend/internal/settings/store"
	"workflow_portal_backend/internal/workflows/relay"
)

// Portal setting key holding an operator-set automation webhook URL.
const webhookOverrideKey = "automation_webhook_url"

// SettingsWebhookResolver serves the webhook URL override out of the settings
// store. Reads go through the store, not the service, so secret values arrive
// decrypted rather than masked.
type SettingsWebhookResolver struct {
	store *store.Store
}

func NewSettingsWebhookResolver(settingStore *store.Store) *SettingsWebhookResolver {
	return &SettingsWebhookResolver{store: settingStore}
}

func (r *SettingsWebhookResolver) WebhookURL(ctx context.Context) (string, bool) {
	setting, err := r.store.GetPortal(ctx, webhookOverrideKey)
	if err != nil {
		return "", false
	}
	return setting.Value, setting.Value != ""
}

var _ relay.URLResolver = (*SettingsWebhookResolver)(nil)
