package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/rivohq/rivo/pkg/logging"
)

// SendFailure describes an auto-reply that WhatsApp did not accept.
type SendFailure struct {
	WorkspaceID   string
	WorkspaceName string
	LeadID        string
	LeadName      string
	Phone         string
	Notification  string
	Cause         string
	OccurredAt    time.Time
}

// Service emails garage staff about events they need to act on.
type Service struct {
	email      EmailSender
	recipients []string
	logger     *logging.Logger
}

// NewService creates a notification service. With no sender or no
// recipients every call is a no-op.
func NewService(email EmailSender, recipients []string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	cleaned := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if r = strings.TrimSpace(r); r != "" {
			cleaned = append(cleaned, r)
		}
	}
	return &Service{email: email, recipients: cleaned, logger: logger}
}

// Enabled reports whether alerts will actually be sent.
func (s *Service) Enabled() bool {
	return s != nil && s.email != nil && len(s.recipients) > 0
}

// NotifySendFailure emails every recipient. Errors from individual
// recipients are collected; delivery to the others continues.
func (s *Service) NotifySendFailure(ctx context.Context, f SendFailure) error {
	if !s.Enabled() {
		return nil
	}

	who := strings.TrimSpace(f.LeadName)
	if who == "" {
		who = f.Phone
	}
	when := f.OccurredAt
	if when.IsZero() {
		when = time.Now().UTC()
	}
	workspace := f.WorkspaceName
	if workspace == "" {
		workspace = f.WorkspaceID
	}

	subject := fmt.Sprintf("WhatsApp reply not delivered - %s", who)
	body := fmt.Sprintf(`%s

Workspace: %s
Customer: %s
Phone: %s
Failed at: %s
Reason: %s

Open Rivo and reply to this customer manually.

- Rivo`, f.Notification, workspace, who, f.Phone, when.Format(time.RFC1123), f.Cause)

	htmlBody := fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<h2 style="color: #dc2626;">WhatsApp reply not delivered</h2>
<p>%s</p>
<table style="border-collapse: collapse; margin: 20px 0;">
  <tr><td style="padding: 8px;"><strong>Workspace:</strong></td><td style="padding: 8px;">%s</td></tr>
  <tr><td style="padding: 8px;"><strong>Customer:</strong></td><td style="padding: 8px;">%s</td></tr>
  <tr><td style="padding: 8px;"><strong>Phone:</strong></td><td style="padding: 8px;"><a href="https://wa.me/%s">%s</a></td></tr>
  <tr><td style="padding: 8px;"><strong>Reason:</strong></td><td style="padding: 8px;">%s</td></tr>
</table>
<p style="color: #6b7280; font-size: 12px;">- Rivo</p>
</div>`,
		html.EscapeString(f.Notification), html.EscapeString(workspace), html.EscapeString(who),
		html.EscapeString(f.Phone), html.EscapeString(f.Phone), html.EscapeString(f.Cause))

	var errs []error
	for _, recipient := range s.recipients {
		msg := EmailMessage{To: recipient, Subject: subject, Body: body, HTML: htmlBody}
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("notify: failed to send email", "error", err, "to", recipient, "lead_id", f.LeadID)
			errs = append(errs, err)
			continue
		}
		s.logger.Info("notify: send-failure email sent", "to", recipient, "lead_id", f.LeadID, "workspace_id", f.WorkspaceID)
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %d of %d email(s) failed: %w", len(errs), len(s.recipients), errors.Join(errs...))
	}
	return nil
}
