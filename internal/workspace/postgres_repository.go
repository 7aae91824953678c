package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rivohq/rivo/internal/database"
	"github.com/rivohq/rivo/internal/scheduling"
)

const workspaceColumns = `id, name, timezone, plan, plan_status, brand_tone, opening_hours, created_at, updated_at`

// PostgresRepository stores workspaces in Postgres.
type PostgresRepository struct {
	db database.Querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(db database.Querier) *PostgresRepository {
	if db == nil {
		panic("workspace: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*Workspace, error) {
	query := `SELECT ` + workspaceColumns + ` FROM workspaces WHERE id = $1`
	ws, err := scanWorkspace(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("workspace: select failed: %w", err)
	}
	return ws, nil
}

func (r *PostgresRepository) Create(ctx context.Context, req CreateRequest) (*Workspace, error) {
	tz := strings.TrimSpace(req.Timezone)
	if tz == "" {
		tz = scheduling.DefaultTimeZone
	}
	query := `
		INSERT INTO workspaces (id, name, timezone, plan, plan_status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + workspaceColumns
	ws, err := scanWorkspace(r.db.QueryRow(ctx, query,
		uuid.New().String(), strings.TrimSpace(req.Name), tz, PlanTrial, PlanStatusActive))
	if err != nil {
		return nil, fmt.Errorf("workspace: insert failed: %w", err)
	}
	return ws, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, req UpdateRequest) (*Workspace, error) {
	var hours any
	if req.OpeningHours != nil {
		raw, err := json.Marshal(req.OpeningHours)
		if err != nil {
			return nil, fmt.Errorf("workspace: marshal opening hours: %w", err)
		}
		hours = raw
	}
	query := `
		UPDATE workspaces
		SET name = $2, timezone = $3, brand_tone = $4,
			opening_hours = COALESCE($5::jsonb, opening_hours), updated_at = NOW()
		WHERE id = $1
		RETURNING ` + workspaceColumns
	ws, err := scanWorkspace(r.db.QueryRow(ctx, query, id, req.Name, req.Timezone, req.BrandTone, hours))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("workspace: update failed: %w", err)
	}
	return ws, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM workspaces WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("workspace: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanWorkspace(row pgx.Row) (*Workspace, error) {
	var (
		ws    Workspace
		hours []byte
	)
	if err := row.Scan(
		&ws.ID,
		&ws.Name,
		&ws.Timezone,
		&ws.Plan,
		&ws.PlanStatus,
		&ws.BrandTone,
		&hours,
		&ws.CreatedAt,
		&ws.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(hours) > 0 {
		var oh OpeningHours
		if err := json.Unmarshal(hours, &oh); err != nil {
			return nil, fmt.Errorf("workspace: decode opening hours: %w", err)
		}
		ws.OpeningHours = &oh
	}
	return &ws, nil
}
