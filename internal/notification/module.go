// Package notification provides event handlers for sending notification
// emails in response to domain events. This module subscribes to events and
// inverts the dependency: domain modules no longer need to know about email
// providers or templates.
package notification

import (
	"context"
	"fmt"

	"workflow_portal_backend/internal/email"
	"workflow_portal_backend/internal/events"
	"workflow_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// ProfileDirectory resolves the recipient for a notification.
type ProfileDirectory interface {
	GetByID(ctx context.Context, userID uuid.UUID) (Recipient, error)
}

// Recipient is the minimal profile slice notifications need.
type Recipient struct {
	Email       string
	DisplayName string
}

// PreferenceReader reports a user's notification opt-outs. Security mail
// (password changes) bypasses preferences.
type PreferenceReader interface {
	EmailEnabled(ctx context.Context, userID uuid.UUID) bool
	UploadAlertsEnabled(ctx context.Context, userID uuid.UUID) bool
}

// Module wires domain events to outgoing email.
type Module struct {
	sender   email.Sender
	profiles ProfileDirectory
	prefs    PreferenceReader
	log      *logger.Logger
}

func NewModule(sender email.Sender, profiles ProfileDirectory, log *logger.Logger) *Module {
	return &Module{sender: sender, profiles: profiles, log: log}
}

// SetPreferenceReader wires the settings-backed notification preferences.
func (m *Module) SetPreferenceReader(prefs PreferenceReader) {
	m.prefs = prefs
}

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.PasswordChanged{}.EventName(), m)
	bus.Subscribe(events.ProfileRoleChanged{}.EventName(), m)
	bus.Subscribe(events.WorkflowUploaded{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.PasswordChanged:
		return m.handlePasswordChanged(ctx, e)
	case events.ProfileRoleChanged:
		return m.handleProfileRoleChanged(ctx, e)
	case events.WorkflowUploaded:
		return m.handleWorkflowUploaded(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handlePasswordChanged(ctx context.Context, e events.PasswordChanged) error {
	recipient, err := m.profiles.GetByID(ctx, e.UserID)
	if err != nil {
		// The auth service remains the source of truth for the address.
		recipient = Recipient{Email: e.Email}
	}
	if recipient.Email == "" {
		recipient.Email = e.Email
	}
	if recipient.Email == "" {
		m.log.Warn("password change notification skipped, no address", "userId", e.UserID)
		return nil
	}

	if err := m.sender.SendPasswordChangedEmail(ctx, recipient.Email, displayName(recipient), e.Forced); err != nil {
		return fmt.Errorf("send password changed email: %w", err)
	}
	return nil
}

func (m *Module) handleProfileRoleChanged(ctx context.Context, e events.ProfileRoleChanged) error {
	recipient, err := m.profiles.GetByID(ctx, e.UserID)
	if err != nil {
		return fmt.Errorf("resolve role change recipient: %w", err)
	}
	if recipient.Email == "" {
		m.log.Warn("role change notification skipped, no address", "userId", e.UserID)
		return nil
	}
	if m.prefs != nil && !m.prefs.EmailEnabled(ctx, e.UserID) {
		return nil
	}

	if err := m.sender.SendRoleChangedEmail(ctx, recipient.Email, displayName(recipient), e.NewRole); err != nil {
		return fmt.Errorf("send role changed email: %w", err)
	}
	return nil
}

func (m *Module) handleWorkflowUploaded(ctx context.Context, e events.WorkflowUploaded) error {
	if m.prefs != nil {
		if !m.prefs.EmailEnabled(ctx, e.UploadedBy) || !m.prefs.UploadAlertsEnabled(ctx, e.UploadedBy) {
			return nil
		}
	}

	toEmail := e.UploaderMail
	if toEmail == "" {
		recipient, err := m.profiles.GetByID(ctx, e.UploadedBy)
		if err != nil {
			return fmt.Errorf("resolve upload recipient: %w", err)
		}
		toEmail = recipient.Email
	}
	if toEmail == "" {
		m.log.Warn("upload notification skipped, no address", "workflowId", e.WorkflowID)
		return nil
	}

	if err := m.sender.SendWorkflowUploadedEmail(ctx, toEmail, e.WorkflowName, e.ClientName); err != nil {
		return fmt.Errorf("send workflow uploaded email: %w", err)
	}
	return nil
}

func displayName(r Recipient) string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	return r.Email
}
