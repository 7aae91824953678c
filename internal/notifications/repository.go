package notifications

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rivohq/rivo/internal/database"
)

// Repository persists notifications.
type Repository interface {
	Create(ctx context.Context, req CreateRequest) (*Notification, error)
	List(ctx context.Context, workspaceID string, filter ListFilter) ([]*Notification, error)
	MarkRead(ctx context.Context, workspaceID, id string) (*Notification, error)
}

// InMemoryRepository is used by tests and local runs. Listings carry no lead
// summary.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items []*Notification
	now   func() time.Time
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{now: func() time.Time { return time.Now().UTC() }}
}

func (r *InMemoryRepository) Create(ctx context.Context, req CreateRequest) (*Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := &Notification{
		ID:          uuid.New().String(),
		WorkspaceID: req.WorkspaceID,
		LeadID:      req.LeadID,
		Type:        req.Type,
		Message:     req.Message,
		Status:      StatusNew,
		CreatedAt:   r.now(),
	}
	r.items = append(r.items, n)
	cp := *n
	return &cp, nil
}

func (r *InMemoryRepository) List(ctx context.Context, workspaceID string, filter ListFilter) ([]*Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Notification, 0)
	for _, n := range r.items {
		if n.WorkspaceID != workspaceID {
			continue
		}
		if filter.Status != "" && n.Status != filter.Status {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *InMemoryRepository) MarkRead(ctx context.Context, workspaceID, id string) (*Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.items {
		if n.ID == id && n.WorkspaceID == workspaceID {
			n.Status = StatusRead
			cp := *n
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// All returns every stored notification in insertion order.
func (r *InMemoryRepository) All() []*Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Notification, len(r.items))
	for i, n := range r.items {
		cp := *n
		out[i] = &cp
	}
	return out
}

const notificationColumns = `n.id, n.workspace_id, n.lead_id, n.type, n.message, n.status, n.created_at`

// PostgresRepository stores notifications in Postgres.
type PostgresRepository struct {
	db database.Querier
}

func NewPostgresRepository(db database.Querier) *PostgresRepository {
	if db == nil {
		panic("notifications: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, req CreateRequest) (*Notification, error) {
	query := `
		INSERT INTO notifications AS n (id, workspace_id, lead_id, type, message, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + notificationColumns
	n, err := scanNotification(r.db.QueryRow(ctx, query,
		uuid.New().String(), req.WorkspaceID, req.LeadID, string(req.Type), req.Message, string(StatusNew)))
	if err != nil {
		return nil, fmt.Errorf("notifications: insert failed: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) List(ctx context.Context, workspaceID string, filter ListFilter) ([]*Notification, error) {
	query := `
		SELECT ` + notificationColumns + `, l.first_name, l.last_name, l.phone
		FROM notifications n
		LEFT JOIN leads l ON l.id = n.lead_id
		WHERE n.workspace_id = $1 AND ($2 = '' OR n.status = $2)
		ORDER BY n.created_at DESC`
	rows, err := r.db.Query(ctx, query, workspaceID, string(filter.Status))
	if err != nil {
		return nil, fmt.Errorf("notifications: list failed: %w", err)
	}
	defer rows.Close()

	out := make([]*Notification, 0)
	for rows.Next() {
		var (
			n                  Notification
			typ, status        string
			first, last, phone *string
		)
		if err := rows.Scan(&n.ID, &n.WorkspaceID, &n.LeadID, &typ, &n.Message, &status, &n.CreatedAt,
			&first, &last, &phone); err != nil {
			return nil, fmt.Errorf("notifications: scan failed: %w", err)
		}
		n.Type = Type(typ)
		n.Status = Status(status)
		if n.LeadID != nil {
			n.Lead = &LeadSummary{ID: *n.LeadID, FirstName: first, LastName: last, Phone: phone}
		}
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("notifications: rows: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) MarkRead(ctx context.Context, workspaceID, id string) (*Notification, error) {
	query := `
		UPDATE notifications AS n SET status = $3
		WHERE n.id = $1 AND n.workspace_id = $2
		RETURNING ` + notificationColumns
	n, err := scanNotification(r.db.QueryRow(ctx, query, id, workspaceID, string(StatusRead)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("notifications: update failed: %w", err)
	}
	return n, nil
}

func scanNotification(row pgx.Row) (*Notification, error) {
	var (
		n           Notification
		typ, status string
	)
	if err := row.Scan(&n.ID, &n.WorkspaceID, &n.LeadID, &typ, &n.Message, &status, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.Type = Type(typ)
	n.Status = Status(status)
	return &n, nil
}
