// Package relay delivers accepted workflows to the automation webhook.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"workflow_portal_backend/platform/apperr"
	"workflow_portal_backend/platform/config"
	"workflow_portal_backend/platform/logger"
)

// Sender delivers one workflow payload to the automation webhook.
type Sender interface {
	Send(ctx context.Context, payload Payload) error
}

// Payload is the wire format the automation webhook expects.
type Payload struct {
	Client     string       `json:"client"`
	Workflow   WorkflowBody `json:"workflow"`
	UploadedBy string       `json:"uploadedBy"`
	UploadedAt time.Time    `json:"uploadedAt"`
}

// WorkflowBody nests the workflow name and its definition document.
type WorkflowBody struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

// URLResolver supplies an operator-set webhook URL override. Returning
// ok=false falls back to the configured default.
type URLResolver interface {
	WebhookURL(ctx context.Context) (string, bool)
}

// Client posts workflow payloads to the configured webhook URL.
type Client struct {
	webhookURL string
	resolver   URLResolver
	http       *http.Client
	log        *logger.Logger
}

// NewClient creates the webhook relay client. Returns nil when no webhook URL
// is configured; a nil client rejects every send as unconfigured.
func NewClient(cfg config.WebhookConfig, log *logger.Logger) *Client {
	if cfg.GetAutomationWebhookURL() == "" {
		return nil
	}

	return &Client{
		webhookURL: strings.TrimRight(cfg.GetAutomationWebhookURL(), "/"),
		http:       &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// SetURLResolver wires the settings-backed webhook override.
func (c *Client) SetURLResolver(resolver URLResolver) {
	if c == nil {
		return
	}
	c.resolver = resolver
}

// Send posts the payload. Any transport failure or non-2xx response maps to
// an unavailable error so callers know nothing was accepted downstream.
func (c *Client) Send(ctx context.Context, payload Payload) error {
	if c == nil {
		return apperr.Unconfigured("automation webhook is not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	url := c.webhookURL
	if c.resolver != nil {
		if override, ok := c.resolver.WebhookURL(ctx); ok && override != "" {
			url = strings.TrimRight(override, "/")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WebhookRelay(payload.Client, payload.Workflow.Name, 0, err)
		return apperr.Wrap(apperr.KindUnavailable, "automation webhook unreachable", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		c.log.WebhookRelay(payload.Client, payload.Workflow.Name, resp.StatusCode, nil)
		return apperr.Unavailable(fmt.Sprintf("automation webhook returned %d: %s",
			resp.StatusCode, strings.TrimSpace(string(data))))
	}

	c.log.WebhookRelay(payload.Client, payload.Workflow.Name, resp.StatusCode, nil)
	return nil
}
