package autoreply

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/rivohq/rivo/internal/channels/whatsapp"
	"github.com/rivohq/rivo/internal/conversation"
	"github.com/rivohq/rivo/internal/events"
	"github.com/rivohq/rivo/internal/leads"
	"github.com/rivohq/rivo/internal/locking"
	"github.com/rivohq/rivo/internal/notifications"
	"github.com/rivohq/rivo/internal/notify"
	"github.com/rivohq/rivo/internal/observability/metrics"
	"github.com/rivohq/rivo/internal/scheduling"
	"github.com/rivohq/rivo/internal/workspace"
	"github.com/rivohq/rivo/pkg/logging"
)

var tracer = otel.Tracer("rivo.internal.autoreply")

// DefaultSendTimeout bounds a single outbound WhatsApp send.
const DefaultSendTimeout = 10 * time.Second

// WorkspaceStore loads the receiving workspace.
type WorkspaceStore interface {
	Get(ctx context.Context, id string) (*workspace.Workspace, error)
}

// NotificationStore records in-app alerts.
type NotificationStore interface {
	Create(ctx context.Context, req notifications.CreateRequest) (*notifications.Notification, error)
}

// Sender delivers a text reply and returns the provider message id.
type Sender interface {
	SendText(ctx context.Context, msg whatsapp.OutboundText) (string, error)
}

// Alerter is told about failed sends after the notification is stored.
type Alerter interface {
	NotifySendFailure(ctx context.Context, f notify.SendFailure) error
}

// DeliveryPolicy decides what a failed send leaves behind. Sends are never
// retried.
type DeliveryPolicy struct {
	NotifyOnFailure bool
}

// DefaultDeliveryPolicy records every failed send as a notification.
func DefaultDeliveryPolicy() DeliveryPolicy {
	return DeliveryPolicy{NotifyOnFailure: true}
}

// Config wires a Processor. Workspaces, Leads, Conversations, Notifications
// and Sender are required.
type Config struct {
	Workspaces    WorkspaceStore
	Leads         leads.Repository
	Conversations conversation.Repository
	Notifications NotificationStore
	Sender        Sender
	// Locker serializes upserts per sender; defaults to an in-process locker.
	Locker locking.Locker
	// Deduper drops redelivered message ids when set.
	Deduper     events.Deduper
	Alerter     Alerter
	Metrics     *metrics.WebhookMetrics
	Policy      DeliveryPolicy
	SendTimeout time.Duration
	Logger      *logging.Logger
	Now         func() time.Time
}

// Processor runs the WhatsApp auto-reply pipeline.
type Processor struct {
	workspaces    WorkspaceStore
	leads         leads.Repository
	conversations conversation.Repository
	notifications NotificationStore
	sender        Sender
	locker        locking.Locker
	deduper       events.Deduper
	alerter       Alerter
	metrics       *metrics.WebhookMetrics
	policy        DeliveryPolicy
	sendTimeout   time.Duration
	logger        *logging.Logger
	now           func() time.Time
}

// NewProcessor validates cfg and fills defaults.
func NewProcessor(cfg Config) (*Processor, error) {
	var missing []string
	if cfg.Workspaces == nil {
		missing = append(missing, "workspaces")
	}
	if cfg.Leads == nil {
		missing = append(missing, "leads")
	}
	if cfg.Conversations == nil {
		missing = append(missing, "conversations")
	}
	if cfg.Notifications == nil {
		missing = append(missing, "notifications")
	}
	if cfg.Sender == nil {
		missing = append(missing, "sender")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("autoreply: missing %s", strings.Join(missing, ", "))
	}

	p := &Processor{
		workspaces:    cfg.Workspaces,
		leads:         cfg.Leads,
		conversations: cfg.Conversations,
		notifications: cfg.Notifications,
		sender:        cfg.Sender,
		locker:        cfg.Locker,
		deduper:       cfg.Deduper,
		alerter:       cfg.Alerter,
		metrics:       cfg.Metrics,
		policy:        cfg.Policy,
		sendTimeout:   cfg.SendTimeout,
		logger:        cfg.Logger,
		now:           cfg.Now,
	}
	if p.locker == nil {
		p.locker = locking.NewLocalLocker()
	}
	if p.sendTimeout <= 0 {
		p.sendTimeout = DefaultSendTimeout
	}
	if p.logger == nil {
		p.logger = logging.Default()
	}
	if p.now == nil {
		p.now = func() time.Time { return time.Now().UTC() }
	}
	return p, nil
}

// Process implements whatsapp.InboundProcessor.
func (p *Processor) Process(ctx context.Context, in whatsapp.Inbound) (string, error) {
	ctx, span := tracer.Start(ctx, "autoreply.process")
	defer span.End()
	span.SetAttributes(
		attribute.String("workspace.id", in.WorkspaceID),
		attribute.String("whatsapp.message_id", in.Message.MessageID),
	)

	status, err := p.process(ctx, in)
	span.SetAttributes(attribute.String("autoreply.status", status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "auto-reply failed")
	}
	return status, err
}

func (p *Processor) process(ctx context.Context, in whatsapp.Inbound) (string, error) {
	msg := in.Message
	log := p.logger.With("workspace_id", in.WorkspaceID, "wa_message_id", msg.MessageID)

	if p.deduper != nil && msg.MessageID != "" {
		fresh, err := p.deduper.MarkProcessed(ctx, events.ProviderWhatsApp, msg.MessageID)
		if err != nil {
			return whatsapp.StatusError, fmt.Errorf("autoreply: dedupe: %w", err)
		}
		if !fresh {
			log.Info("autoreply: duplicate delivery skipped")
			return whatsapp.StatusDuplicate, nil
		}
	}

	ws, timeZone, err := p.loadWorkspace(ctx, in.WorkspaceID)
	if err != nil {
		return whatsapp.StatusError, err
	}

	lead, conv, err := p.upsertThread(ctx, in.WorkspaceID, msg)
	if err != nil {
		return whatsapp.StatusError, err
	}
	log = log.With("lead_id", lead.ID, "conversation_id", conv.ID)

	now := p.now()
	reply := Compose(msg.Text, timeZone, now)
	if reply.SlotsErr != nil {
		log.Warn("autoreply: slots omitted", "timezone", timeZone, "error", reply.SlotsErr)
	}

	if err := p.conversations.RecordInbound(ctx, conv.ID, string(reply.Language), now); err != nil {
		return whatsapp.StatusError, fmt.Errorf("autoreply: record inbound: %w", err)
	}

	inboundText := msg.Text
	inbound := &conversation.Message{
		ConversationID: conv.ID,
		Direction:      conversation.DirectionInbound,
		Text:           &inboundText,
		RawPayload:     in.RawPayload,
	}
	if msg.MessageID != "" {
		id := msg.MessageID
		inbound.ExternalMessageID = &id
	}
	if _, err := p.conversations.AppendMessage(ctx, inbound); err != nil {
		return whatsapp.StatusError, fmt.Errorf("autoreply: store inbound message: %w", err)
	}

	externalID, sendErr := p.send(ctx, msg, reply.Text)
	if sendErr != nil {
		log.Error("autoreply: whatsapp send failed", "error", sendErr)
		p.metrics.ObserveOutbound("failed")
		if err := p.recordFailure(ctx, ws, lead, sendErr); err != nil {
			return whatsapp.StatusError, err
		}
	} else {
		p.metrics.ObserveOutbound("sent")
	}

	replyText := reply.Text
	outbound := &conversation.Message{
		ConversationID: conv.ID,
		Direction:      conversation.DirectionOutbound,
		Text:           &replyText,
	}
	if externalID != "" {
		outbound.ExternalMessageID = &externalID
	}
	if _, err := p.conversations.AppendMessage(ctx, outbound); err != nil {
		return whatsapp.StatusError, fmt.Errorf("autoreply: store outbound message: %w", err)
	}

	log.Info("autoreply: processed", "language", reply.Language, "flow", reply.Flow, "delivered", sendErr == nil)
	return whatsapp.StatusProcessed, nil
}

// loadWorkspace returns the workspace and its zone. A missing workspace
// falls back to the default zone; the lead insert decides whether the id is
// usable.
func (p *Processor) loadWorkspace(ctx context.Context, workspaceID string) (*workspace.Workspace, string, error) {
	ws, err := p.workspaces.Get(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, workspace.ErrNotFound) {
			p.logger.Warn("autoreply: workspace not found, using default time zone", "workspace_id", workspaceID)
			return nil, scheduling.DefaultTimeZone, nil
		}
		return nil, "", fmt.Errorf("autoreply: load workspace: %w", err)
	}
	return ws, ws.TimeZone(), nil
}

// upsertThread finds or creates the lead and conversation for the sender
// while holding the sender's lock.
func (p *Processor) upsertThread(ctx context.Context, workspaceID string, msg whatsapp.InboundMessage) (*leads.Lead, *conversation.Conversation, error) {
	key := conversation.Key{WorkspaceID: workspaceID, Channel: conversation.ChannelWhatsApp, ExternalID: msg.From}
	unlock, err := p.locker.Lock(ctx, fmt.Sprintf("%s:%s:%s", key.WorkspaceID, key.Channel, key.ExternalID))
	if err != nil {
		return nil, nil, fmt.Errorf("autoreply: lock sender: %w", err)
	}
	defer unlock()

	first, last := whatsapp.SplitName(msg.Name)
	lead, created, err := p.leads.FindOrCreateByPhone(ctx, workspaceID, leads.Contact{
		Phone:     msg.From,
		FirstName: first,
		LastName:  last,
		Source:    leads.SourceWhatsApp,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("autoreply: upsert lead: %w", err)
	}
	if created {
		p.logger.Info("autoreply: lead created", "workspace_id", workspaceID, "lead_id", lead.ID)
	}

	conv, err := p.conversations.FindOrCreate(ctx, key, lead.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("autoreply: upsert conversation: %w", err)
	}
	return lead, conv, nil
}

func (p *Processor) send(ctx context.Context, msg whatsapp.InboundMessage, body string) (string, error) {
	sendCtx, cancel := context.WithTimeout(ctx, p.sendTimeout)
	defer cancel()
	ctx, span := tracer.Start(sendCtx, "autoreply.send")
	defer span.End()

	id, err := p.sender.SendText(ctx, whatsapp.OutboundText{
		PhoneNumberID: msg.PhoneNumberID,
		To:            msg.From,
		Body:          body,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		return "", err
	}
	return id, nil
}

func (p *Processor) recordFailure(ctx context.Context, ws *workspace.Workspace, lead *leads.Lead, cause error) error {
	if !p.policy.NotifyOnFailure {
		return nil
	}
	first, last := deref(lead.FirstName), deref(lead.LastName)
	phone := deref(lead.Phone)
	message := SendFailedMessage(first, last, phone)

	leadID := lead.ID
	if _, err := p.notifications.Create(ctx, notifications.CreateRequest{
		WorkspaceID: lead.WorkspaceID,
		Type:        notifications.TypeWhatsAppSendFailed,
		Message:     message,
		LeadID:      &leadID,
	}); err != nil {
		return fmt.Errorf("autoreply: create notification: %w", err)
	}
	p.metrics.ObserveNotification(string(notifications.TypeWhatsAppSendFailed))

	if p.alerter != nil {
		failure := notify.SendFailure{
			WorkspaceID:  lead.WorkspaceID,
			LeadID:       lead.ID,
			LeadName:     strings.TrimSpace(first + " " + last),
			Phone:        phone,
			Notification: message,
			Cause:        cause.Error(),
			OccurredAt:   p.now(),
		}
		if ws != nil {
			failure.WorkspaceName = ws.Name
		}
		if err := p.alerter.NotifySendFailure(ctx, failure); err != nil {
			p.logger.Warn("autoreply: failure alert not delivered", "lead_id", lead.ID, "error", err)
		}
	}
	return nil
}

// SendFailedMessage is the notification text for an undelivered reply.
func SendFailedMessage(firstName, lastName, phone string) string {
	return "WhatsApp send failed for lead " + firstName + " " + lastName + " (" + phone + ")."
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
