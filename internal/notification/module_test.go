package notification

import (
	"context"
	"errors"
	"testing"

	"workflow_portal_backend/internal/email"
	"workflow_portal_backend/internal/events"
	"workflow_portal_backend/platform/logger"

	"github.com/google/uuid"
)

type sentMail struct {
	kind    string
	toEmail string
	name    string
	detail  string
	forced  bool
}

type fakeSender struct {
	email.NoopSender
	sent []sentMail
	err  error
}

func (f *fakeSender) SendPasswordChangedEmail(_ context.Context, toEmail, displayName string, forced bool) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{kind: "password", toEmail: toEmail, name: displayName, forced: forced})
	return nil
}

func (f *fakeSender) SendWorkflowUploadedEmail(_ context.Context, toEmail, workflowName, clientName string, _ ...email.Attachment) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{kind: "upload", toEmail: toEmail, name: workflowName, detail: clientName})
	return nil
}

func (f *fakeSender) SendRoleChangedEmail(_ context.Context, toEmail, displayName, newRole string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{kind: "role", toEmail: toEmail, name: displayName, detail: newRole})
	return nil
}

type fakeDirectory struct {
	recipients map[uuid.UUID]Recipient
}

func (f *fakeDirectory) GetByID(_ context.Context, userID uuid.UUID) (Recipient, error) {
	r, ok := f.recipients[userID]
	if !ok {
		return Recipient{}, errors.New("not found")
	}
	return r, nil
}

func newTestModule(sender *fakeSender, dir *fakeDirectory) *Module {
	if dir == nil {
		dir = &fakeDirectory{recipients: map[uuid.UUID]Recipient{}}
	}
	return NewModule(sender, dir, logger.New("test"))
}

func TestPasswordChangedSendsToProfileAddress(t *testing.T) {
	userID := uuid.New()
	sender := &fakeSender{}
	dir := &fakeDirectory{recipients: map[uuid.UUID]Recipient{
		userID: {Email: "jan@example.com", DisplayName: "Jan"},
	}}
	m := newTestModule(sender, dir)

	err := m.Handle(context.Background(), events.PasswordChanged{
		BaseEvent: events.NewBaseEvent(),
		UserID:    userID,
		Email:     "jan@example.com",
		Forced:    true,
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.sent))
	}
	got := sender.sent[0]
	if got.kind != "password" || got.toEmail != "jan@example.com" || got.name != "Jan" || !got.forced {
		t.Fatalf("unexpected email: %+v", got)
	}
}

func TestPasswordChangedFallsBackToEventAddress(t *testing.T) {
	sender := &fakeSender{}
	m := newTestModule(sender, nil)

	err := m.Handle(context.Background(), events.PasswordChanged{
		BaseEvent: events.NewBaseEvent(),
		UserID:    uuid.New(),
		Email:     "fallback@example.com",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(sender.sent) != 1 || sender.sent[0].toEmail != "fallback@example.com" {
		t.Fatalf("expected fallback address, got %+v", sender.sent)
	}
}

func TestWorkflowUploadedUsesUploaderMail(t *testing.T) {
	sender := &fakeSender{}
	m := newTestModule(sender, nil)

	err := m.Handle(context.Background(), events.WorkflowUploaded{
		BaseEvent:    events.NewBaseEvent(),
		WorkflowID:   uuid.New(),
		WorkflowName: "daily-sync",
		ClientName:   "acme",
		UploadedBy:   uuid.New(),
		UploaderMail: "ops@example.com",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.sent))
	}
	got := sender.sent[0]
	if got.kind != "upload" || got.toEmail != "ops@example.com" || got.name != "daily-sync" || got.detail != "acme" {
		t.Fatalf("unexpected email: %+v", got)
	}
}

func TestRoleChangedRequiresResolvableProfile(t *testing.T) {
	sender := &fakeSender{}
	m := newTestModule(sender, nil)

	err := m.Handle(context.Background(), events.ProfileRoleChanged{
		BaseEvent: events.NewBaseEvent(),
		UserID:    uuid.New(),
		NewRole:   "admin",
	})
	if err == nil {
		t.Fatal("expected error for unknown recipient")
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no email, got %d", len(sender.sent))
	}
}

func TestUnknownEventIsIgnored(t *testing.T) {
	sender := &fakeSender{}
	m := newTestModule(sender, nil)

	err := m.Handle(context.Background(), events.SettingChanged{BaseEvent: events.NewBaseEvent()})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no email, got %d", len(sender.sent))
	}
}

type staticPrefs struct {
	email   bool
	uploads bool
}

func (p staticPrefs) EmailEnabled(context.Context, uuid.UUID) bool        { return p.email }
func (p staticPrefs) UploadAlertsEnabled(context.Context, uuid.UUID) bool { return p.uploads }

func TestUploadAlertOptOutSuppressesEmail(t *testing.T) {
	sender := &fakeSender{}
	m := newTestModule(sender, nil)
	m.SetPreferenceReader(staticPrefs{email: true, uploads: false})

	err := m.Handle(context.Background(), events.WorkflowUploaded{
		BaseEvent:    events.NewBaseEvent(),
		WorkflowID:   uuid.New(),
		WorkflowName: "daily-sync",
		ClientName:   "acme",
		UploadedBy:   uuid.New(),
		UploaderMail: "ops@example.com",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no email after opt-out, got %d", len(sender.sent))
	}
}

func TestPasswordChangedBypassesPreferences(t *testing.T) {
	sender := &fakeSender{}
	m := newTestModule(sender, nil)
	m.SetPreferenceReader(staticPrefs{})

	err := m.Handle(context.Background(), events.PasswordChanged{
		BaseEvent: events.NewBaseEvent(),
		UserID:    uuid.New(),
		Email:     "jan@example.com",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected security email despite opt-out, got %d", len(sender.sent))
	}
}
