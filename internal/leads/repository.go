package leads

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for lead storage
type Repository interface {
	Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error)
	GetByID(ctx context.Context, workspaceID, id string) (*Lead, error)
	ListByWorkspace(ctx context.Context, workspaceID string, filter ListFilter) ([]*Lead, error)
	// FindOrCreateByPhone returns the workspace lead for phone, creating it
	// from contact when none exists. created reports which happened.
	FindOrCreateByPhone(ctx context.Context, workspaceID string, contact Contact) (lead *Lead, created bool, err error)
}

// InMemoryRepository is a Repository backed by a map, used in tests and
// local runs without Postgres.
type InMemoryRepository struct {
	mu      sync.RWMutex
	leads   map[string]*Lead
	byPhone map[string]string
	now     func() time.Time
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads:   make(map[string]*Lead),
		byPhone: make(map[string]string),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func phoneKey(workspaceID, phone string) string {
	return workspaceID + "|" + phone
}

// Create creates a new lead in memory
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if req.Phone != nil {
		if _, exists := r.byPhone[phoneKey(req.WorkspaceID, *req.Phone)]; exists {
			return nil, ErrDuplicatePhone
		}
	}

	lead := &Lead{
		ID:              uuid.New().String(),
		WorkspaceID:     req.WorkspaceID,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Phone:           req.Phone,
		City:            req.City,
		Source:          req.Source,
		DesiredService:  req.DesiredService,
		ProblemSummary:  req.ProblemSummary,
		ConsentWhatsApp: req.consent(),
		Status:          StatusNew,
		CreatedAt:       r.now(),
	}
	r.store(lead)
	return clone(lead), nil
}

// GetByID retrieves a lead by ID within the workspace
func (r *InMemoryRepository) GetByID(ctx context.Context, workspaceID, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok || lead.WorkspaceID != workspaceID {
		return nil, ErrLeadNotFound
	}
	return clone(lead), nil
}

// ListByWorkspace returns leads newest first.
func (r *InMemoryRepository) ListByWorkspace(ctx context.Context, workspaceID string, filter ListFilter) ([]*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Lead, 0)
	for _, lead := range r.leads {
		if lead.WorkspaceID != workspaceID {
			continue
		}
		if filter.Status != "" && lead.Status != filter.Status {
			continue
		}
		out = append(out, clone(lead))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*Lead{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// FindOrCreateByPhone is atomic under the repository lock.
func (r *InMemoryRepository) FindOrCreateByPhone(ctx context.Context, workspaceID string, contact Contact) (*Lead, bool, error) {
	phone := strings.TrimSpace(contact.Phone)
	if strings.TrimSpace(workspaceID) == "" {
		return nil, false, ErrMissingWorkspace
	}
	if phone == "" {
		return nil, false, ErrMissingPhone
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byPhone[phoneKey(workspaceID, phone)]; ok {
		return clone(r.leads[id]), false, nil
	}

	source := contact.Source
	if source == "" {
		source = SourceWhatsApp
	}
	lead := &Lead{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		FirstName:   optional(contact.FirstName),
		LastName:    optional(contact.LastName),
		Phone:       &phone,
		Source:      source,
		Status:      StatusNew,
		CreatedAt:   r.now(),
	}
	r.store(lead)
	return clone(lead), true, nil
}

// Count returns the number of stored leads.
func (r *InMemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.leads)
}

func (r *InMemoryRepository) store(lead *Lead) {
	r.leads[lead.ID] = lead
	if lead.Phone != nil {
		r.byPhone[phoneKey(lead.WorkspaceID, *lead.Phone)] = lead.ID
	}
}

func clone(l *Lead) *Lead {
	cp := *l
	return &cp
}
