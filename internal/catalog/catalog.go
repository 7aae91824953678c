// Package catalog stores the services a garage offers.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rivohq/rivo/internal/database"
)

// Service is one catalog entry, e.g. "Ceramic coating".
type Service struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspaceId"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreateRequest is the body of POST /api/services.
type CreateRequest struct {
	WorkspaceID string  `json:"-"`
	Name        string  `json:"name" validate:"required,min=2,max=120"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

func (r *CreateRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	if r.Description != nil {
		d := strings.TrimSpace(*r.Description)
		if d == "" {
			r.Description = nil
		} else {
			r.Description = &d
		}
	}
}

// Repository persists services; List is oldest first.
type Repository interface {
	Create(ctx context.Context, req CreateRequest) (*Service, error)
	List(ctx context.Context, workspaceID string) ([]*Service, error)
}

type InMemoryRepository struct {
	mu    sync.RWMutex
	items []*Service
	now   func() time.Time
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{now: func() time.Time { return time.Now().UTC() }}
}

func (r *InMemoryRepository) Create(ctx context.Context, req CreateRequest) (*Service, error) {
	req.normalize()
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &Service{
		ID:          uuid.New().String(),
		WorkspaceID: req.WorkspaceID,
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   r.now(),
	}
	r.items = append(r.items, s)
	cp := *s
	return &cp, nil
}

func (r *InMemoryRepository) List(ctx context.Context, workspaceID string) ([]*Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Service, 0)
	for _, s := range r.items {
		if s.WorkspaceID == workspaceID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

type PostgresRepository struct {
	db database.Querier
}

func NewPostgresRepository(db database.Querier) *PostgresRepository {
	if db == nil {
		panic("catalog: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, req CreateRequest) (*Service, error) {
	req.normalize()
	var s Service
	err := r.db.QueryRow(ctx, `
		INSERT INTO services (id, workspace_id, name, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, workspace_id, name, description, created_at`,
		uuid.New().String(), req.WorkspaceID, req.Name, req.Description,
	).Scan(&s.ID, &s.WorkspaceID, &s.Name, &s.Description, &s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("catalog: insert failed: %w", err)
	}
	return &s, nil
}

func (r *PostgresRepository) List(ctx context.Context, workspaceID string) ([]*Service, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, workspace_id, name, description, created_at
		FROM services WHERE workspace_id = $1
		ORDER BY created_at ASC`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list failed: %w", err)
	}
	defer rows.Close()

	out := make([]*Service, 0)
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.WorkspaceID, &s.Name, &s.Description, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("catalog: scan failed: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
