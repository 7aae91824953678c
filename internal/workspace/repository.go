package workspace

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rivohq/rivo/internal/scheduling"
)

// Repository persists workspaces.
type Repository interface {
	Get(ctx context.Context, id string) (*Workspace, error)
	Create(ctx context.Context, req CreateRequest) (*Workspace, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Workspace, error)
	Delete(ctx context.Context, id string) error
}

// InMemoryRepository is a Repository for tests and local runs.
type InMemoryRepository struct {
	mu         sync.RWMutex
	workspaces map[string]*Workspace
	now        func() time.Time
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		workspaces: make(map[string]*Workspace),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Put stores ws as is, replacing any workspace with the same id.
func (r *InMemoryRepository) Put(ws *Workspace) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *ws
	r.workspaces[ws.ID] = &cp
}

func (r *InMemoryRepository) Get(ctx context.Context, id string) (*Workspace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ws, ok := r.workspaces[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *ws
	return &cp, nil
}

func (r *InMemoryRepository) Create(ctx context.Context, req CreateRequest) (*Workspace, error) {
	tz := strings.TrimSpace(req.Timezone)
	if tz == "" {
		tz = scheduling.DefaultTimeZone
	}
	now := r.now()
	ws := &Workspace{
		ID:         uuid.New().String(),
		Name:       strings.TrimSpace(req.Name),
		Timezone:   tz,
		Plan:       PlanTrial,
		PlanStatus: PlanStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.Put(ws)
	cp := *ws
	return &cp, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, id string, req UpdateRequest) (*Workspace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.workspaces[id]
	if !ok {
		return nil, ErrNotFound
	}
	ws.Name = req.Name
	ws.Timezone = req.Timezone
	ws.BrandTone = req.BrandTone
	if req.OpeningHours != nil {
		ws.OpeningHours = req.OpeningHours
	}
	ws.UpdatedAt = r.now()
	cp := *ws
	return &cp, nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.workspaces[id]; !ok {
		return ErrNotFound
	}
	delete(r.workspaces, id)
	return nil
}

// Count returns the number of stored workspaces.
func (r *InMemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workspaces)
}
