// Package email sends transactional portal mail over SMTP.
package email

import (
	"context"
	"fmt"

	"workflow_portal_backend/platform/config"
)

// NewSender builds the configured sender. With email disabled every send is
// a no-op.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}
	if cfg.GetSMTPHost() == "" {
		return nil, fmt.Errorf("SMTP_HOST is required when email is enabled")
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	), nil
}

// Attachment represents a file attachment for an email.
type Attachment struct {
	Content  []byte
	FileName string // e.g. "daily-sync.json"
	MIMEType string // e.g. "application/json"
}

type Sender interface {
	SendPasswordChangedEmail(ctx context.Context, toEmail, displayName string, forced bool) error
	SendWorkflowUploadedEmail(ctx context.Context, toEmail, workflowName, clientName string, attachments ...Attachment) error
	SendRoleChangedEmail(ctx context.Context, toEmail, displayName, newRole string) error
	SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error
}

// NoopSender is used when email delivery is disabled.
type NoopSender struct{}

func (NoopSender) SendPasswordChangedEmail(ctx context.Context, toEmail, displayName string, forced bool) error {
	return nil
}

func (NoopSender) SendWorkflowUploadedEmail(ctx context.Context, toEmail, workflowName, clientName string, attachments ...Attachment) error {
	return nil
}

func (NoopSender) SendRoleChangedEmail(ctx context.Context, toEmail, displayName, newRole string) error {
	return nil
}

func (NoopSender) SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	return nil
}

var _ Sender = NoopSender{}
