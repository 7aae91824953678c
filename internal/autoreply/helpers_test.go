package autoreply

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rivohq/rivo/internal/channels/whatsapp"
	"github.com/rivohq/rivo/internal/conversation"
	"github.com/rivohq/rivo/internal/leads"
	"github.com/rivohq/rivo/internal/notifications"
	"github.com/rivohq/rivo/internal/notify"
	"github.com/rivohq/rivo/internal/workspace"
	"github.com/rivohq/rivo/pkg/logging"
)

// fixedNow is Thursday 16 Oct 2025, 09:00 UTC (13:00 in Dubai).
var fixedNow = time.Date(2025, 10, 16, 9, 0, 0, 0, time.UTC)

func textPayload(waID, name, messageID, body string) []byte {
	return []byte(fmt.Sprintf(`{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "WABA_ID",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "metadata": {"display_phone_number": "971400000000", "phone_number_id": "PNID"},
        "contacts": [{"profile": {"name": %q}, "wa_id": %q}],
        "messages": [{"from": %q, "id": %q, "timestamp": "1760594400", "type": "text", "text": {"body": %q}}]
      }
    }]
  }]
}`, name, waID, waID, messageID, body))
}

type stubSender struct {
	mu   sync.Mutex
	sent []whatsapp.OutboundText
	err  error
}

func (s *stubSender) SendText(ctx context.Context, msg whatsapp.OutboundText) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("wamid.out.%d", len(s.sent)), nil
}

type recordingAlerter struct {
	failures []notify.SendFailure
	err      error
}

func (a *recordingAlerter) NotifySendFailure(ctx context.Context, f notify.SendFailure) error {
	a.failures = append(a.failures, f)
	return a.err
}

type failingNotifications struct{}

func (failingNotifications) Create(ctx context.Context, req notifications.CreateRequest) (*notifications.Notification, error) {
	return nil, errors.New("db down")
}

type harness struct {
	workspaces    *workspace.InMemoryRepository
	leads         *leads.InMemoryRepository
	conversations *conversation.InMemoryRepository
	notifications *notifications.InMemoryRepository
	sender        *stubSender
	processor     *Processor
}

func newHarness(mutate func(*Config)) (*harness, error) {
	h := &harness{
		workspaces:    workspace.NewInMemoryRepository(),
		leads:         leads.NewInMemoryRepository(),
		conversations: conversation.NewInMemoryRepository(),
		notifications: notifications.NewInMemoryRepository(),
		sender:        &stubSender{},
	}
	h.workspaces.Put(&workspace.Workspace{ID: "ws-1", Name: "Shine Garage", Timezone: "Asia/Dubai"})

	cfg := Config{
		Workspaces:    h.workspaces,
		Leads:         h.leads,
		Conversations: h.conversations,
		Notifications: h.notifications,
		Sender:        h.sender,
		Policy:        DefaultDeliveryPolicy(),
		Logger:        logging.New("error"),
		Now:           func() time.Time { return fixedNow },
	}
	if mutate != nil {
		mutate(&cfg)
	}
	p, err := NewProcessor(cfg)
	if err != nil {
		return nil, err
	}
	h.processor = p
	return h, nil
}

func inbound(waID, name, messageID, text string) whatsapp.Inbound {
	return whatsapp.Inbound{
		WorkspaceID: "ws-1",
		Message: whatsapp.InboundMessage{
			From:          waID,
			Name:          name,
			Text:          text,
			MessageID:     messageID,
			PhoneNumberID: "PNID",
			Timestamp:     fixedNow,
		},
		RawPayload: textPayload(waID, name, messageID, text),
	}
}
