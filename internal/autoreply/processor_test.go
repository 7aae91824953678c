package autoreply

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivohq/rivo/internal/channels/whatsapp"
	"github.com/rivohq/rivo/internal/conversation"
	"github.com/rivohq/rivo/internal/events"
	"github.com/rivohq/rivo/internal/i18n"
	"github.com/rivohq/rivo/internal/leads"
	"github.com/rivohq/rivo/internal/notifications"
	"github.com/rivohq/rivo/internal/observability/metrics"
	"github.com/rivohq/rivo/internal/orchestrator"
	"github.com/rivohq/rivo/pkg/logging"
)

func postWebhook(t *testing.T, h *harness, body []byte) map[string]string {
	t.Helper()
	handler := whatsapp.NewWebhookHandler(whatsapp.WebhookConfig{
		VerifyToken: "verify-me",
		Resolver:    whatsapp.NewStaticResolver(nil, "ws-1"),
		Processor:   h.processor,
		Logger:      logging.New("error"),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/whatsapp/webhook", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.HandleInbound(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func onlyConversationMessages(t *testing.T, h *harness, waID string) (*conversation.Conversation, []*conversation.Message) {
	t.Helper()
	conv, err := h.conversations.FindOrCreate(context.Background(),
		conversation.Key{WorkspaceID: "ws-1", Channel: conversation.ChannelWhatsApp, ExternalID: waID}, "")
	require.NoError(t, err)
	msgs, err := h.conversations.ListMessages(context.Background(), conv.ID)
	require.NoError(t, err)
	return conv, msgs
}

func TestWebhook_FrenchBrakeScenario(t *testing.T) {
	h, err := newHarness(nil)
	require.NoError(t, err)

	resp := postWebhook(t, h, textPayload("971500000001", "Karim Ben Ali", "wamid.in.1", "Bonjour, j'ai un problème de frein"))
	assert.Equal(t, whatsapp.StatusProcessed, resp["status"])

	require.Equal(t, 1, h.leads.Count())
	lead, _, err := h.leads.FindOrCreateByPhone(context.Background(), "ws-1", leads.Contact{Phone: "971500000001"})
	require.NoError(t, err)
	assert.Equal(t, leads.SourceWhatsApp, lead.Source)
	require.NotNil(t, lead.FirstName)
	require.NotNil(t, lead.LastName)
	assert.Equal(t, "Karim", *lead.FirstName)
	assert.Equal(t, "Ben Ali", *lead.LastName)

	require.Equal(t, 1, h.conversations.Count())
	conv, msgs := onlyConversationMessages(t, h, "971500000001")
	require.NotNil(t, conv.LeadID)
	assert.Equal(t, lead.ID, *conv.LeadID)
	require.NotNil(t, conv.Language)
	assert.Equal(t, "fr", *conv.Language)
	require.NotNil(t, conv.LastInboundAt)
	assert.True(t, conv.LastInboundAt.Equal(fixedNow))

	require.Len(t, msgs, 2)
	assert.Equal(t, conversation.DirectionInbound, msgs[0].Direction)
	assert.Equal(t, "Bonjour, j'ai un problème de frein", *msgs[0].Text)
	assert.Equal(t, "wamid.in.1", *msgs[0].ExternalMessageID)
	assert.NotEmpty(t, msgs[0].RawPayload)

	assert.Equal(t, conversation.DirectionOutbound, msgs[1].Direction)
	reply := *msgs[1].Text
	assert.Contains(t, reply, orchestrator.Reply(i18n.French, orchestrator.FlowMechanical))
	assert.Contains(t, reply, "\n\nVoici 3 créneaux proposés")
	require.NotNil(t, msgs[1].ExternalMessageID)
	assert.Equal(t, "wamid.out.1", *msgs[1].ExternalMessageID)

	require.Len(t, h.sender.sent, 1)
	assert.Equal(t, "971500000001", h.sender.sent[0].To)
	assert.Equal(t, "PNID", h.sender.sent[0].PhoneNumberID)
	assert.Equal(t, reply, h.sender.sent[0].Body)
	assert.Empty(t, h.notifications.All())
}

func TestWebhook_SendFailureRecordsNotification(t *testing.T) {
	alerts := &recordingAlerter{err: errors.New("smtp down")}
	reg := prometheus.NewRegistry()
	h, err := newHarness(func(c *Config) {
		c.Alerter = alerts
		c.Metrics = metrics.NewWebhookMetrics(reg)
	})
	require.NoError(t, err)
	h.sender.err = &whatsapp.DeliveryFailedError{StatusCode: 401, Body: `{"error":{"message":"token expired"}}`}

	resp := postWebhook(t, h, textPayload("971500000001", "Karim Ben Ali", "wamid.in.1", "Bonjour, j'ai un problème de frein"))
	assert.Equal(t, whatsapp.StatusProcessed, resp["status"])

	lead, _, err := h.leads.FindOrCreateByPhone(context.Background(), "ws-1", leads.Contact{Phone: "971500000001"})
	require.NoError(t, err)

	notes := h.notifications.All()
	require.Len(t, notes, 1)
	assert.Equal(t, notifications.TypeWhatsAppSendFailed, notes[0].Type)
	assert.Equal(t, notifications.StatusNew, notes[0].Status)
	assert.Equal(t, "ws-1", notes[0].WorkspaceID)
	require.NotNil(t, notes[0].LeadID)
	assert.Equal(t, lead.ID, *notes[0].LeadID)
	assert.Equal(t, "WhatsApp send failed for lead Karim Ben Ali (971500000001).", notes[0].Message)

	_, msgs := onlyConversationMessages(t, h, "971500000001")
	require.Len(t, msgs, 2)
	assert.Equal(t, conversation.DirectionOutbound, msgs[1].Direction)
	assert.Nil(t, msgs[1].ExternalMessageID)
	assert.NotEmpty(t, *msgs[1].Text)

	require.Len(t, alerts.failures, 1)
	assert.Equal(t, "Shine Garage", alerts.failures[0].WorkspaceName)
	assert.Contains(t, alerts.failures[0].Cause, "status 401")

	count, err := testutil.GatherAndCount(reg, "rivo_notifications_created_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestProcess_SendFailureWithoutNotifyPolicy(t *testing.T) {
	h, err := newHarness(func(c *Config) { c.Policy = DeliveryPolicy{NotifyOnFailure: false} })
	require.NoError(t, err)
	h.sender.err = errors.New("connection reset")

	status, err := h.processor.Process(context.Background(), inbound("971500000001", "", "wamid.1", "hello"))
	require.NoError(t, err)
	assert.Equal(t, whatsapp.StatusProcessed, status)
	assert.Empty(t, h.notifications.All())
}

func TestProcess_NotificationStoreFailureIsError(t *testing.T) {
	h, err := newHarness(func(c *Config) { c.Notifications = failingNotifications{} })
	require.NoError(t, err)
	h.sender.err = errors.New("connection reset")

	status, err := h.processor.Process(context.Background(), inbound("971500000001", "", "wamid.1", "hello"))
	require.Error(t, err)
	assert.Equal(t, whatsapp.StatusError, status)
}

func TestProcess_RedeliveryReusesLeadAndConversation(t *testing.T) {
	h, err := newHarness(nil)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		status, err := h.processor.Process(context.Background(), inbound("971500000001", "Karim", "wamid.1", "I need brakes checked"))
		require.NoError(t, err)
		assert.Equal(t, whatsapp.StatusProcessed, status)
	}

	assert.Equal(t, 1, h.leads.Count())
	assert.Equal(t, 1, h.conversations.Count())
	_, msgs := onlyConversationMessages(t, h, "971500000001")
	assert.Len(t, msgs, 4)
	assert.Len(t, h.sender.sent, 2)
}

func TestProcess_ConcurrentDeliveriesCreateOneThread(t *testing.T) {
	h, err := newHarness(nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.processor.Process(context.Background(), inbound("971500000001", "Karim", "wamid.1", "hello"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, h.leads.Count())
	assert.Equal(t, 1, h.conversations.Count())
}

func TestProcess_DedupeSkipsSeenMessageID(t *testing.T) {
	h, err := newHarness(func(c *Config) { c.Deduper = events.NewMemoryStore() })
	require.NoError(t, err)

	status, err := h.processor.Process(context.Background(), inbound("971500000001", "Karim", "wamid.1", "hello"))
	require.NoError(t, err)
	assert.Equal(t, whatsapp.StatusProcessed, status)

	status, err = h.processor.Process(context.Background(), inbound("971500000001", "Karim", "wamid.1", "hello"))
	require.NoError(t, err)
	assert.Equal(t, whatsapp.StatusDuplicate, status)
	assert.Len(t, h.sender.sent, 1)

	status, err = h.processor.Process(context.Background(), inbound("971500000001", "Karim", "wamid.2", "hello again"))
	require.NoError(t, err)
	assert.Equal(t, whatsapp.StatusProcessed, status)
}

func TestProcess_ExistingConversationWithoutLeadIsBackfilled(t *testing.T) {
	h, err := newHarness(nil)
	require.NoError(t, err)
	key := conversation.Key{WorkspaceID: "ws-1", Channel: conversation.ChannelWhatsApp, ExternalID: "971500000009"}
	pre, err := h.conversations.FindOrCreate(context.Background(), key, "")
	require.NoError(t, err)
	require.Nil(t, pre.LeadID)

	_, err = h.processor.Process(context.Background(), inbound("971500000009", "", "wamid.9", "ppf quote"))
	require.NoError(t, err)

	conv, ok := h.conversations.Get(pre.ID)
	require.True(t, ok)
	require.NotNil(t, conv.LeadID)
	assert.Equal(t, 1, h.conversations.Count())
}

func TestProcess_UnknownWorkspaceUsesDefaultZone(t *testing.T) {
	h, err := newHarness(nil)
	require.NoError(t, err)

	in := inbound("971500000001", "", "wamid.1", "book please")
	in.WorkspaceID = "ws-unknown"
	status, err := h.processor.Process(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, whatsapp.StatusProcessed, status)
	require.Len(t, h.sender.sent, 1)
	// 10:00 Dubai on Friday 17/10, rendered 12h for English
	assert.Contains(t, h.sender.sent[0].Body, "10/17, 10:00 AM")
}

func TestProcess_InvalidWorkspaceZoneStillReplies(t *testing.T) {
	h, err := newHarness(nil)
	require.NoError(t, err)
	ws, _ := h.workspaces.Get(context.Background(), "ws-1")
	ws.Timezone = "Mars/Olympus"
	h.workspaces.Put(ws)

	status, err := h.processor.Process(context.Background(), inbound("971500000001", "", "wamid.1", "book please"))
	require.NoError(t, err)
	assert.Equal(t, whatsapp.StatusProcessed, status)
	require.Len(t, h.sender.sent, 1)
	assert.Equal(t, orchestrator.Reply(i18n.English, orchestrator.FlowDirectBooking), h.sender.sent[0].Body)
}

type blockingSender struct{}

func (blockingSender) SendText(ctx context.Context, msg whatsapp.OutboundText) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestProcess_SendIsBoundedByTimeout(t *testing.T) {
	h, err := newHarness(func(c *Config) {
		c.Sender = blockingSender{}
		c.SendTimeout = 20 * time.Millisecond
	})
	require.NoError(t, err)

	start := time.Now()
	status, err := h.processor.Process(context.Background(), inbound("971500000001", "", "wamid.1", "hello"))
	require.NoError(t, err)
	assert.Equal(t, whatsapp.StatusProcessed, status)
	assert.Less(t, time.Since(start), 2*time.Second)
	require.Len(t, h.notifications.All(), 1)
}

func TestProcess_WithCloudAPIClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/PNID/messages") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Recipient not in allowed list","code":131030}}`))
	}))
	defer srv.Close()

	client := whatsapp.NewClient("token", "DEFAULT")
	client.SetGraphAPIBase(srv.URL)
	h, err := newHarness(func(c *Config) { c.Sender = client })
	require.NoError(t, err)

	status, err := h.processor.Process(context.Background(), inbound("971500000001", "Karim", "wamid.1", "hello"))
	require.NoError(t, err)
	assert.Equal(t, whatsapp.StatusProcessed, status)
	require.Len(t, h.notifications.All(), 1)
}

func TestNewProcessor_RequiresDependencies(t *testing.T) {
	_, err := NewProcessor(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workspaces, leads, conversations, notifications, sender")
}
