package conversation

import (
	"encoding/json"
	"errors"
	"time"
)

// Channel is the messaging channel a conversation runs on.
type Channel string

const (
	ChannelWhatsApp Channel = "WHATSAPP"
	// ChannelInternal is the staff-only simulator thread.
	ChannelInternal Channel = "INTERNAL"
)

// Direction tells whether a message came from the customer or from us.
type Direction string

const (
	DirectionInbound  Direction = "INBOUND"
	DirectionOutbound Direction = "OUTBOUND"
)

var (
	// ErrNotFound is returned when a conversation does not exist.
	ErrNotFound = errors.New("conversation not found")
	// ErrInvalidKey is returned when workspace, channel or external id is blank.
	ErrInvalidKey = errors.New("conversation: workspace, channel and external id are required")
)

// Key identifies a thread: one per workspace, channel and external id.
type Key struct {
	WorkspaceID string
	Channel     Channel
	ExternalID  string
}

func (k Key) valid() bool {
	return k.WorkspaceID != "" && k.Channel != "" && k.ExternalID != ""
}

// Conversation is one messaging thread with a customer.
type Conversation struct {
	ID            string     `json:"id"`
	WorkspaceID   string     `json:"workspaceId"`
	LeadID        *string    `json:"leadId"`
	Channel       Channel    `json:"channel"`
	ExternalID    string     `json:"externalId"`
	Language      *string    `json:"language"`
	LastInboundAt *time.Time `json:"lastInboundAt"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Message is one immutable chat line.
type Message struct {
	ID                string          `json:"id"`
	ConversationID    string          `json:"conversationId"`
	Direction         Direction       `json:"direction"`
	Text              *string         `json:"text"`
	ExternalMessageID *string         `json:"externalMessageId"`
	RawPayload        json.RawMessage `json:"rawPayload,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}
