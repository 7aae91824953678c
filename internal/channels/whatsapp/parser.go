package whatsapp

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ParseInbound decodes a raw webhook body and extracts the first text
// message. It reports false for anything that is not a usable text message,
// including malformed JSON; it never returns an error.
func ParseInbound(body []byte) (InboundMessage, bool) {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return InboundMessage{}, false
	}
	return ParsePayload(payload)
}

// ParsePayload extracts the first text message from a decoded payload.
// Only entry[0].changes[0] is considered.
func ParsePayload(payload WebhookPayload) (InboundMessage, bool) {
	if payload.Object != ObjectBusinessAccount {
		return InboundMessage{}, false
	}
	if len(payload.Entry) == 0 || len(payload.Entry[0].Changes) == 0 {
		return InboundMessage{}, false
	}
	value := payload.Entry[0].Changes[0].Value
	if value == nil || len(value.Contacts) == 0 || len(value.Messages) == 0 {
		return InboundMessage{}, false
	}

	contact := value.Contacts[0]
	msg := value.Messages[0]
	if msg.Type != "text" || msg.Text == nil || msg.Text.Body == "" {
		return InboundMessage{}, false
	}

	from := strings.TrimSpace(contact.WaID)
	if from == "" {
		return InboundMessage{}, false
	}

	return InboundMessage{
		From:          from,
		Name:          strings.TrimSpace(contact.Profile.Name),
		Text:          msg.Text.Body,
		MessageID:     msg.ID,
		PhoneNumberID: value.Metadata.PhoneNumberID,
		Timestamp:     msg.Timestamp.Time(),
	}, true
}

func parseUnix(raw string) time.Time {
	secs, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}

// SplitName splits a profile name into a first name and the remainder.
// Both are empty for a blank name; last is empty for a single word.
func SplitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
