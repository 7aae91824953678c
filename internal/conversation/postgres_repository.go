package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rivohq/rivo/internal/database"
)

const conversationColumns = `id, workspace_id, lead_id, channel, external_id, language, last_inbound_at, created_at`

// PostgresRepository stores conversations and messages in Postgres.
type PostgresRepository struct {
	db database.Querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(db database.Querier) *PostgresRepository {
	if db == nil {
		panic("conversation: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

// FindOrCreate relies on the (workspace_id, channel, external_id) unique
// constraint: the insert is a no-op on conflict and the row is re-read.
func (r *PostgresRepository) FindOrCreate(ctx context.Context, key Key, leadID string) (*Conversation, error) {
	if !key.valid() {
		return nil, ErrInvalidKey
	}
	var lead *string
	if leadID != "" {
		lead = &leadID
	}

	insert := `
		INSERT INTO conversations (id, workspace_id, lead_id, channel, external_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (workspace_id, channel, external_id) DO NOTHING
		RETURNING ` + conversationColumns
	conv, err := scanConversation(r.db.QueryRow(ctx, insert,
		uuid.New().String(), key.WorkspaceID, lead, string(key.Channel), key.ExternalID))
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("conversation: upsert failed: %w", err)
	}

	existing := `SELECT ` + conversationColumns + ` FROM conversations
		WHERE workspace_id = $1 AND channel = $2 AND external_id = $3`
	conv, err = scanConversation(r.db.QueryRow(ctx, existing, key.WorkspaceID, string(key.Channel), key.ExternalID))
	if err != nil {
		return nil, fmt.Errorf("conversation: select failed: %w", err)
	}

	if conv.LeadID == nil && lead != nil {
		backfill := `UPDATE conversations SET lead_id = $2 WHERE id = $1 AND lead_id IS NULL`
		if _, err := r.db.Exec(ctx, backfill, conv.ID, leadID); err != nil {
			return nil, fmt.Errorf("conversation: backfill lead failed: %w", err)
		}
		conv.LeadID = lead
	}
	return conv, nil
}

func (r *PostgresRepository) RecordInbound(ctx context.Context, conversationID, language string, at time.Time) error {
	query := `UPDATE conversations SET language = $2, last_inbound_at = $3 WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, conversationID, language, at)
	if err != nil {
		return fmt.Errorf("conversation: update inbound failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) AppendMessage(ctx context.Context, msg *Message) (*Message, error) {
	id := msg.ID
	if id == "" {
		id = uuid.New().String()
	}
	var raw any
	if len(msg.RawPayload) > 0 {
		raw = []byte(msg.RawPayload)
	}

	query := `
		INSERT INTO messages (id, conversation_id, direction, text, external_message_id, raw_payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		msg.ConversationID,
		string(msg.Direction),
		msg.Text,
		msg.ExternalMessageID,
		raw,
	).Scan(&createdAt); err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("conversation: insert message failed: %w", err)
	}

	stored := *msg
	stored.ID = id
	stored.CreatedAt = createdAt
	return &stored, nil
}

func (r *PostgresRepository) ListMessages(ctx context.Context, conversationID string) ([]*Message, error) {
	query := `
		SELECT id, conversation_id, direction, text, external_message_id, raw_payload, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("conversation: list messages failed: %w", err)
	}
	defer rows.Close()

	out := make([]*Message, 0)
	for rows.Next() {
		var (
			m         Message
			direction string
			raw       []byte
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &direction, &m.Text, &m.ExternalMessageID, &raw, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("conversation: scan message failed: %w", err)
		}
		m.Direction = Direction(direction)
		if len(raw) > 0 {
			m.RawPayload = raw
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conversation: list messages failed: %w", err)
	}
	return out, nil
}

func scanConversation(row pgx.Row) (*Conversation, error) {
	var (
		conv    Conversation
		channel string
	)
	if err := row.Scan(
		&conv.ID,
		&conv.WorkspaceID,
		&conv.LeadID,
		&channel,
		&conv.ExternalID,
		&conv.Language,
		&conv.LastInboundAt,
		&conv.CreatedAt,
	); err != nil {
		return nil, err
	}
	conv.Channel = Channel(channel)
	return &conv, nil
}
