package whatsapp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInboundTextMessage(t *testing.T) {
	body := textPayload("971500000001", "Karim Ben Ali", "PNID_1", "wamid.1", "Bonjour, j'ai un problème de frein")

	msg, ok := ParseInbound(body)
	require.True(t, ok)
	assert.Equal(t, "971500000001", msg.From)
	assert.Equal(t, "Karim Ben Ali", msg.Name)
	assert.Equal(t, "Bonjour, j'ai un problème de frein", msg.Text)
	assert.Equal(t, "wamid.1", msg.MessageID)
	assert.Equal(t, "PNID_1", msg.PhoneNumberID)
	assert.Equal(t, time.Unix(1760594400, 0).UTC(), msg.Timestamp)
}

func TestParseInboundRejects(t *testing.T) {
	cases := map[string]string{
		"malformed json":  `{"object":`,
		"null":            `null`,
		"wrong object":    `{"object":"page","entry":[]}`,
		"no entry":        `{"object":"whatsapp_business_account","entry":[]}`,
		"entry not array": `{"object":"whatsapp_business_account","entry":{}}`,
		"no changes":      `{"object":"whatsapp_business_account","entry":[{"changes":[]}]}`,
		"no value":        `{"object":"whatsapp_business_account","entry":[{"changes":[{"field":"messages"}]}]}`,
		"status update": `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{
			"statuses":[{"id":"wamid.x","status":"delivered"}]}}]}]}`,
		"no contacts": `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{
			"messages":[{"from":"1","id":"m","type":"text","text":{"body":"hi"}}]}}]}]}`,
		"image message": `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{
			"contacts":[{"wa_id":"1"}],
			"messages":[{"from":"1","id":"m","type":"image"}]}}]}]}`,
		"empty text": `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{
			"contacts":[{"wa_id":"1"}],
			"messages":[{"from":"1","id":"m","type":"text","text":{"body":""}}]}}]}]}`,
		"missing wa_id": `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{
			"contacts":[{"profile":{"name":"A"}}],
			"messages":[{"from":"1","id":"m","type":"text","text":{"body":"hi"}}]}}]}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := ParseInbound([]byte(body))
			assert.False(t, ok)
		})
	}
}

func TestParseInboundMissingNameIsAllowed(t *testing.T) {
	body := `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{
		"contacts":[{"wa_id":"971500000002"}],
		"messages":[{"from":"971500000002","id":"m","type":"text","text":{"body":"book"}}]}}]}]}`
	msg, ok := ParseInbound([]byte(body))
	require.True(t, ok)
	assert.Empty(t, msg.Name)
	assert.True(t, msg.Timestamp.IsZero())
}

func TestParseInboundToleratesTimestampShapes(t *testing.T) {
	payload := func(ts string) []byte {
		return []byte(`{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{
			"contacts":[{"profile":{"name":"Karim"},"wa_id":"971500000003"}],
			"messages":[{"from":"971500000003","id":"m","timestamp":` + ts + `,"type":"text","text":{"body":"book"}}]}}]}]}`)
	}

	msg, ok := ParseInbound(payload(`1700000000`))
	require.True(t, ok, "numeric timestamp")
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), msg.Timestamp)

	msg, ok = ParseInbound(payload(`{"seconds":1}`))
	require.True(t, ok, "object timestamp")
	assert.True(t, msg.Timestamp.IsZero())

	msg, ok = ParseInbound(payload(`"soon"`))
	require.True(t, ok, "non-numeric string")
	assert.True(t, msg.Timestamp.IsZero())
}

func TestSplitName(t *testing.T) {
	cases := []struct {
		in, first, last string
	}{
		{"Karim Ben Ali", "Karim", "Ben Ali"},
		{"Sara", "Sara", ""},
		{"  ", "", ""},
		{" Jean   Dupont ", "Jean", "Dupont"},
	}
	for _, tc := range cases {
		first, last := SplitName(tc.in)
		assert.Equal(t, tc.first, first, tc.in)
		assert.Equal(t, tc.last, last, tc.in)
	}
}
