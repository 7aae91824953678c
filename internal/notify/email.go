package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/rivohq/rivo/pkg/logging"
)

// DefaultFromName signs alert emails when no sender name is configured.
const DefaultFromName = "Rivo"

// EmailSender delivers one alert email.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is a single alert addressed to one staff member. HTML is
// optional; Body is always sent as the plain-text part.
type EmailMessage struct {
	To      string
	Subject string
	Body    string
	HTML    string
}

// identity is the From line of every alert.
type identity struct {
	email string
	name  string
}

func newIdentity(email, name string) identity {
	if name = strings.TrimSpace(name); name == "" {
		name = DefaultFromName
	}
	return identity{email: strings.TrimSpace(email), name: name}
}

func (id identity) String() string {
	return fmt.Sprintf("%s <%s>", id.name, id.email)
}

// SendGridConfig configures SendGridSender.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	// APIHost overrides https://api.sendgrid.com.
	APIHost string
}

// SendGridSender posts alerts to the SendGrid v3 mail API.
type SendGridSender struct {
	client *sendgrid.Client
	from   identity
	logger *logging.Logger
}

// NewSendGridSender returns nil without an API key.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	client := sendgrid.NewSendClient(cfg.APIKey)
	if host := strings.TrimRight(cfg.APIHost, "/"); host != "" {
		client.BaseURL = host + "/v3/mail/send"
	}
	return &SendGridSender{client: client, from: newIdentity(cfg.FromEmail, cfg.FromName), logger: logger}
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(s.from.name, s.from.email))
	m.Subject = msg.Subject
	to := mail.NewPersonalization()
	to.AddTos(mail.NewEmail("", msg.To))
	m.AddPersonalizations(to)
	m.AddContent(mail.NewContent("text/plain", msg.Body))
	if msg.HTML != "" {
		m.AddContent(mail.NewContent("text/html", msg.HTML))
	}

	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("notify: sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify: sendgrid status %d: %s", resp.StatusCode, resp.Body)
	}
	s.logger.Debug("alert email accepted", "provider", "sendgrid", "to", msg.To)
	return nil
}

// LogOnlySender writes alerts to the log instead of mailing them. It is used
// when no provider is configured.
type LogOnlySender struct {
	logger *logging.Logger
}

func NewLogOnlySender(logger *logging.Logger) *LogOnlySender {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogOnlySender{logger: logger}
}

func (s *LogOnlySender) Send(_ context.Context, msg EmailMessage) error {
	s.logger.Warn("alert email not sent: no provider configured", "to", msg.To, "subject", msg.Subject)
	return nil
}
