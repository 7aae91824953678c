package whatsapp

import (
	"encoding/json"
	"time"
)

// ObjectBusinessAccount is the only webhook object type carrying messages.
const ObjectBusinessAccount = "whatsapp_business_account"

// WebhookPayload is the top-level structure Meta posts to the webhook.
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry represents one business account entry.
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change wraps a single change notification.
type Change struct {
	Field string       `json:"field"`
	Value *ChangeValue `json:"value"`
}

// ChangeValue holds the message data.
type ChangeValue struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         Metadata  `json:"metadata"`
	Contacts         []Contact `json:"contacts,omitempty"`
	Messages         []Message `json:"messages,omitempty"`
	Statuses         []Status  `json:"statuses,omitempty"`
}

// Metadata describes the receiving business phone number.
type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

// Contact is the customer who wrote in.
type Contact struct {
	Profile ContactProfile `json:"profile"`
	WaID    string         `json:"wa_id"`
}

// ContactProfile has the display name.
type ContactProfile struct {
	Name string `json:"name"`
}

// Message is an incoming WhatsApp message.
type Message struct {
	From      string       `json:"from"`
	ID        string       `json:"id"`
	Timestamp UnixTime     `json:"timestamp"`
	Type      string       `json:"type"`
	Text      *TextContent `json:"text,omitempty"`
}

// UnixTime is a timestamp in epoch seconds. Meta sends it as a string; a
// bare number is accepted too, and any other shape decodes to empty instead
// of failing the whole payload.
type UnixTime string

func (u *UnixTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*u = UnixTime(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*u = UnixTime(n.String())
		return nil
	}
	*u = ""
	return nil
}

// Time converts u to UTC, or the zero time when it is not a positive integer.
func (u UnixTime) Time() time.Time {
	return parseUnix(string(u))
}

// TextContent holds a text message body.
type TextContent struct {
	Body string `json:"body"`
}

// Status is a delivery status update for a message we sent.
type Status struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   UnixTime `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
}

// InboundMessage is the normalized form of an accepted text message.
type InboundMessage struct {
	// From is the sender's WhatsApp id, used as the lead phone.
	From string
	// Name is the sender's profile name, empty when absent.
	Name          string
	Text          string
	MessageID     string
	PhoneNumberID string
	Timestamp     time.Time
}

// SendMessageRequest is the Cloud API payload for a text message.
type SendMessageRequest struct {
	MessagingProduct string      `json:"messaging_product"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Text             TextContent `json:"text"`
}

// SendMessageResponse is the Cloud API reply to a send.
type SendMessageResponse struct {
	MessagingProduct string `json:"messaging_product"`
	Contacts         []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *APIError `json:"error,omitempty"`
}

// APIError is the Graph API error object.
type APIError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	FBTraceID string `json:"fbtrace_id"`
}

// OutboundText is a text reply to send.
type OutboundText struct {
	// PhoneNumberID is the sending business number; empty uses the client default.
	PhoneNumberID string
	To            string
	Body          string
}
