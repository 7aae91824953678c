package autoreply

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rivohq/rivo/internal/conversation"
	"github.com/rivohq/rivo/internal/httpx"
	"github.com/rivohq/rivo/internal/scheduling"
	"github.com/rivohq/rivo/internal/tenancy"
	"github.com/rivohq/rivo/internal/workspace"
	"github.com/rivohq/rivo/pkg/logging"
)

// internalExternalID names the single simulator thread of a workspace.
const internalExternalID = "internal"

// ChatRequest is the body of POST /api/internal-chat.
type ChatRequest struct {
	Message string `json:"message" validate:"required,max=4096"`
}

// ChatResponse is returned by POST /api/internal-chat.
type ChatResponse struct {
	Composition
	Messages []*conversation.Message `json:"messages"`
}

// ChatHandler lets staff try the auto-reply without WhatsApp.
type ChatHandler struct {
	workspaces    WorkspaceStore
	conversations conversation.Repository
	logger        *logging.Logger
	now           func() time.Time
}

func NewChatHandler(workspaces WorkspaceStore, conversations conversation.Repository, logger *logging.Logger) *ChatHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ChatHandler{
		workspaces:    workspaces,
		conversations: conversations,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// List handles GET /api/internal-chat
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := tenancy.WorkspaceIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "workspaceId is required")
		return
	}
	conv, err := h.thread(r.Context(), workspaceID)
	if err != nil {
		h.logger.Error("internal chat: load thread failed", "error", err, "workspace_id", workspaceID)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to load internal chat")
		return
	}
	msgs, err := h.conversations.ListMessages(r.Context(), conv.ID)
	if err != nil {
		h.logger.Error("internal chat: list messages failed", "error", err, "workspace_id", workspaceID)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to load internal chat")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

// Send handles POST /api/internal-chat
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := tenancy.WorkspaceIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "workspaceId is required")
		return
	}
	var req ChatRequest
	if !httpx.DecodeAndValidate(w, r, &req) {
		return
	}
	text := strings.TrimSpace(req.Message)
	if text == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
			Error:   "invalid data",
			Details: map[string]string{"message": "required"},
		})
		return
	}

	resp, err := h.exchange(r.Context(), workspaceID, text)
	if err != nil {
		h.logger.Error("internal chat: exchange failed", "error", err, "workspace_id", workspaceID)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to send message")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *ChatHandler) exchange(ctx context.Context, workspaceID, text string) (*ChatResponse, error) {
	timeZone := scheduling.DefaultTimeZone
	ws, err := h.workspaces.Get(ctx, workspaceID)
	switch {
	case err == nil:
		timeZone = ws.TimeZone()
	case !errors.Is(err, workspace.ErrNotFound):
		return nil, fmt.Errorf("load workspace: %w", err)
	}

	conv, err := h.thread(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	now := h.now()
	reply := Compose(text, timeZone, now)
	if reply.SlotsErr != nil {
		h.logger.Warn("internal chat: slots omitted", "timezone", timeZone, "error", reply.SlotsErr)
	}
	if err := h.conversations.RecordInbound(ctx, conv.ID, string(reply.Language), now); err != nil {
		return nil, fmt.Errorf("record inbound: %w", err)
	}

	inbound, outbound := text, reply.Text
	if _, err := h.conversations.AppendMessage(ctx, &conversation.Message{
		ConversationID: conv.ID, Direction: conversation.DirectionInbound, Text: &inbound,
	}); err != nil {
		return nil, fmt.Errorf("store inbound: %w", err)
	}
	if _, err := h.conversations.AppendMessage(ctx, &conversation.Message{
		ConversationID: conv.ID, Direction: conversation.DirectionOutbound, Text: &outbound,
	}); err != nil {
		return nil, fmt.Errorf("store outbound: %w", err)
	}

	msgs, err := h.conversations.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return &ChatResponse{Composition: reply, Messages: msgs}, nil
}

func (h *ChatHandler) thread(ctx context.Context, workspaceID string) (*conversation.Conversation, error) {
	return h.conversations.FindOrCreate(ctx, conversation.Key{
		WorkspaceID: workspaceID,
		Channel:     conversation.ChannelInternal,
		ExternalID:  internalExternalID,
	}, "")
}
