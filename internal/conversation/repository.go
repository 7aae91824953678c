package conversation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository persists conversations and their messages.
type Repository interface {
	// FindOrCreate returns the thread for key, creating it linked to leadID
	// when absent. An existing thread without a lead is backfilled with leadID.
	FindOrCreate(ctx context.Context, key Key, leadID string) (*Conversation, error)
	// RecordInbound stores the detected language and last inbound time.
	RecordInbound(ctx context.Context, conversationID, language string, at time.Time) error
	AppendMessage(ctx context.Context, msg *Message) (*Message, error)
	ListMessages(ctx context.Context, conversationID string) ([]*Message, error)
}

// InMemoryRepository is a Repository for tests and local runs.
type InMemoryRepository struct {
	mu            sync.Mutex
	conversations map[string]*Conversation
	byKey         map[Key]string
	messages      map[string][]*Message
	now           func() time.Time
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		conversations: make(map[string]*Conversation),
		byKey:         make(map[Key]string),
		messages:      make(map[string][]*Message),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (r *InMemoryRepository) FindOrCreate(ctx context.Context, key Key, leadID string) (*Conversation, error) {
	if !key.valid() {
		return nil, ErrInvalidKey
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byKey[key]; ok {
		conv := r.conversations[id]
		if conv.LeadID == nil && leadID != "" {
			lead := leadID
			conv.LeadID = &lead
		}
		cp := *conv
		return &cp, nil
	}

	conv := &Conversation{
		ID:          uuid.New().String(),
		WorkspaceID: key.WorkspaceID,
		Channel:     key.Channel,
		ExternalID:  key.ExternalID,
		CreatedAt:   r.now(),
	}
	if leadID != "" {
		lead := leadID
		conv.LeadID = &lead
	}
	r.conversations[conv.ID] = conv
	r.byKey[key] = conv.ID
	cp := *conv
	return &cp, nil
}

func (r *InMemoryRepository) RecordInbound(ctx context.Context, conversationID, language string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[conversationID]
	if !ok {
		return ErrNotFound
	}
	lang := language
	ts := at
	conv.Language = &lang
	conv.LastInboundAt = &ts
	return nil
}

func (r *InMemoryRepository) AppendMessage(ctx context.Context, msg *Message) (*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conversations[msg.ConversationID]; !ok {
		return nil, ErrNotFound
	}
	stored := *msg
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.now()
	}
	r.messages[msg.ConversationID] = append(r.messages[msg.ConversationID], &stored)
	out := stored
	return &out, nil
}

func (r *InMemoryRepository) ListMessages(ctx context.Context, conversationID string) ([]*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs := r.messages[conversationID]
	out := make([]*Message, 0, len(msgs))
	for _, m := range msgs {
		cp := *m
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Get returns a copy of a stored conversation.
func (r *InMemoryRepository) Get(conversationID string) (*Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[conversationID]
	if !ok {
		return nil, false
	}
	cp := *conv
	return &cp, true
}

// Count returns the number of stored conversations.
func (r *InMemoryRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conversations)
}
