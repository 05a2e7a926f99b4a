package email

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements the Sender interface using a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string, attachments ...Attachment) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	for _, att := range attachments {
		msg.AttachReader(att.FileName, bytes.NewReader(att.Content))
	}

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendPasswordChangedEmail(ctx context.Context, toEmail, displayName string, forced bool) error {
	content, err := renderEmailTemplate("password_changed.html", passwordChangedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Your password was changed",
			Heading: "Your password was changed",
		},
		DisplayName: displayName,
		Forced:      forced,
		ChangedAt:   time.Now().UTC().Format("2 January 2006 15:04 UTC"),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectPasswordChanged, content)
}

func (s *SMTPSender) SendWorkflowUploadedEmail(ctx context.Context, toEmail, workflowName, clientName string, attachments ...Attachment) error {
	subject := fmt.Sprintf(subjectWorkflowUploadedFmt, workflowName)
	content, err := renderEmailTemplate("workflow_uploaded.html", workflowUploadedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Workflow delivered",
			Heading: "Workflow delivered",
		},
		WorkflowName:   workflowName,
		ClientName:     clientName,
		HasAttachments: len(attachments) > 0,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content, attachments...)
}

func (s *SMTPSender) SendRoleChangedEmail(ctx context.Context, toEmail, displayName, newRole string) error {
	content, err := renderEmailTemplate("role_changed.html", roleChangedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Your portal access changed",
			Heading: "Your portal access changed",
		},
		DisplayName: displayName,
		NewRole:     newRole,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectRoleChanged, content)
}

func (s *SMTPSender) SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	return s.send(ctx, toEmail, subject, htmlContent)
}

var _ Sender = (*SMTPSender)(nil)
