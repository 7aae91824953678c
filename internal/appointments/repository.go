package appointments

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

// Repository persists appointments.
type Repository interface {
	Create(ctx context.Context, appt NewAppointment) (*Appointment, error)
	List(ctx context.Context, workspaceID string) ([]*Appointment, error)
}

// InMemoryRepository is used by tests and local runs.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items []*Appointment
	now   func() time.Time
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{now: func() time.Time { return time.Now().UTC() }}
}

func (r *InMemoryRepository) Create(ctx context.Context, appt NewAppointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := &Appointment{
		ID:              uuid.New().String(),
		WorkspaceID:     appt.WorkspaceID,
		LeadID:          appt.LeadID,
		Status:          StatusConfirmed,
		StartsAt:        appt.StartsAt,
		EndsAt:          appt.EndsAt,
		DurationMinutes: appt.DurationMinutes,
		CreatedAt:       r.now(),
	}
	r.items = append(r.items, a)
	cp := *a
	return &cp, nil
}

func (r *InMemoryRepository) List(ctx context.Context, workspaceID string) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Appointment, 0)
	for _, a := range r.items {
		if a.WorkspaceID == workspaceID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

const appointmentColumns = `a.id, a.workspace_id, a.lead_id, a.status, a.starts_at, a.ends_at, a.duration_minutes, a.created_at`

// PostgresRepository stores appointments in Postgres.
type PostgresRepository struct {
	db database.Querier
}

func NewPostgresRepository(db database.Querier) *PostgresRepository {
	if db == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, appt NewAppointment) (*Appointment, error) {
	query := `
		INSERT INTO appointments AS a (id, workspace_id, lead_id, status, starts_at, ends_at, duration_minutes)
		SELECT $1, $2, l.id, $4, $5, $6, $7 FROM leads l WHERE l.id = $3 AND l.workspace_id = $2
		RETURNING ` + appointmentColumns
	var (
		a      Appointment
		status string
	)
	err := r.db.QueryRow(ctx, query,
		uuid.New().String(), appt.WorkspaceID, appt.LeadID, string(StatusConfirmed),
		appt.StartsAt, appt.EndsAt, appt.DurationMinutes,
	).Scan(&a.ID, &a.WorkspaceID, &a.LeadID, &status, &a.StartsAt, &a.EndsAt, &a.DurationMinutes, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || database.IsForeignKeyViolation(err) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("appointments: insert failed: %w", err)
	}
	a.Status = Status(status)
	return &a, nil
}

func (r *PostgresRepository) List(ctx context.Context, workspaceID string) ([]*Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `, l.first_name, l.last_name, l.phone
		FROM appointments a
		JOIN leads l ON l.id = a.lead_id
		WHERE a.workspace_id = $1
		ORDER BY a.starts_at ASC`
	rows, err := r.db.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("appointments: list failed: %w", err)
	}
	defer rows.Close()

	out := make([]*Appointment, 0)
	for rows.Next() {
		var (
			a                  Appointment
			status             string
			first, last, phone *string
		)
		if err := rows.Scan(&a.ID, &a.WorkspaceID, &a.LeadID, &status, &a.StartsAt, &a.EndsAt,
			&a.DurationMinutes, &a.CreatedAt, &first, &last, &phone); err != nil {
			return nil, fmt.Errorf("appointments: scan failed: %w", err)
		}
		a.Status = Status(status)
		a.Lead = &LeadSummary{ID: a.LeadID, FirstName: first, LastName: last, Phone: phone}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: rows: %w", err)
	}
	return out, nil
}
