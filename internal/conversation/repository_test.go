package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waKey(externalID string) Key {
	return Key{WorkspaceID: "ws-1", Channel: ChannelWhatsApp, ExternalID: externalID}
}

func TestInMemoryFindOrCreateConcurrent(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = map[string]bool{}
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conv, err := repo.FindOrCreate(ctx, waKey("971500000001"), "lead-1")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			ids[conv.ID] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, ids, 1)
	assert.Equal(t, 1, repo.Count())
}

func TestInMemoryFindOrCreateBackfillsLead(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	conv, err := repo.FindOrCreate(ctx, waKey("1"), "")
	require.NoError(t, err)
	assert.Nil(t, conv.LeadID)

	conv, err = repo.FindOrCreate(ctx, waKey("1"), "lead-1")
	require.NoError(t, err)
	require.NotNil(t, conv.LeadID)
	assert.Equal(t, "lead-1", *conv.LeadID)

	// An existing link is never overwritten.
	conv, err = repo.FindOrCreate(ctx, waKey("1"), "lead-2")
	require.NoError(t, err)
	assert.Equal(t, "lead-1", *conv.LeadID)
}

func TestInMemoryFindOrCreateInvalidKey(t *testing.T) {
	repo := NewInMemoryRepository()
	_, err := repo.FindOrCreate(context.Background(), Key{WorkspaceID: "ws-1"}, "")
	assert.True(t, errors.Is(err, ErrInvalidKey))
}

func TestInMemoryRecordInboundAndMessages(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	conv, err := repo.FindOrCreate(ctx, waKey("1"), "lead-1")
	require.NoError(t, err)

	at := time.Date(2025, 10, 16, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.RecordInbound(ctx, conv.ID, "fr", at))
	stored, ok := repo.Get(conv.ID)
	require.True(t, ok)
	assert.Equal(t, "fr", *stored.Language)
	assert.True(t, stored.LastInboundAt.Equal(at))

	text := "Bonjour"
	_, err = repo.AppendMessage(ctx, &Message{
		ConversationID: conv.ID,
		Direction:      DirectionInbound,
		Text:           &text,
		RawPayload:     json.RawMessage(`{"object":"whatsapp_business_account"}`),
		CreatedAt:      at,
	})
	require.NoError(t, err)
	_, err = repo.AppendMessage(ctx, &Message{ConversationID: conv.ID, Direction: DirectionOutbound, Text: &text, CreatedAt: at.Add(time.Second)})
	require.NoError(t, err)

	msgs, err := repo.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, DirectionInbound, msgs[0].Direction)
	assert.NotEmpty(t, msgs[0].RawPayload)
	assert.Equal(t, DirectionOutbound, msgs[1].Direction)

	assert.ErrorIs(t, repo.RecordInbound(ctx, "missing", "en", at), ErrNotFound)
	_, err = repo.AppendMessage(ctx, &Message{ConversationID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}
