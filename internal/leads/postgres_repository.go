package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rivohq/rivo/internal/database"
)

const leadColumns = `id, workspace_id, first_name, last_name, phone, city, source, ` +
	`desired_service, problem_summary, consent_whatsapp, status, created_at`

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	db database.Querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(db database.Querier) *PostgresRepository {
	if db == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO leads (id, workspace_id, first_name, last_name, phone, city, source,
			desired_service, problem_summary, consent_whatsapp, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + leadColumns
	lead, err := scanLead(r.db.QueryRow(ctx, query,
		uuid.New().String(),
		req.WorkspaceID,
		req.FirstName,
		req.LastName,
		req.Phone,
		req.City,
		string(req.Source),
		req.DesiredService,
		req.ProblemSummary,
		req.consent(),
		string(StatusNew),
	))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicatePhone
		}
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}
	return lead, nil
}

// GetByID fetches a lead scoped to the workspace.
func (r *PostgresRepository) GetByID(ctx context.Context, workspaceID, id string) (*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1 AND workspace_id = $2`
	lead, err := scanLead(r.db.QueryRow(ctx, query, id, workspaceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return lead, nil
}

// ListByWorkspace returns leads newest first.
func (r *PostgresRepository) ListByWorkspace(ctx context.Context, workspaceID string, filter ListFilter) ([]*Lead, error) {
	var (
		where = []string{"workspace_id = $1"}
		args  = []any{workspaceID}
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + leadColumns + ` FROM leads WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	out := make([]*Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		out = append(out, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	return out, nil
}

// FindOrCreateByPhone inserts with ON CONFLICT DO NOTHING and re-reads on
// conflict, so concurrent deliveries for one sender converge on one row.
func (r *PostgresRepository) FindOrCreateByPhone(ctx context.Context, workspaceID string, contact Contact) (*Lead, bool, error) {
	phone := strings.TrimSpace(contact.Phone)
	if strings.TrimSpace(workspaceID) == "" {
		return nil, false, ErrMissingWorkspace
	}
	if phone == "" {
		return nil, false, ErrMissingPhone
	}
	source := contact.Source
	if source == "" {
		source = SourceWhatsApp
	}

	insert := `
		INSERT INTO leads (id, workspace_id, first_name, last_name, phone, source, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (workspace_id, phone) WHERE phone IS NOT NULL DO NOTHING
		RETURNING ` + leadColumns
	lead, err := scanLead(r.db.QueryRow(ctx, insert,
		uuid.New().String(),
		workspaceID,
		optional(contact.FirstName),
		optional(contact.LastName),
		phone,
		string(source),
		string(StatusNew),
	))
	if err == nil {
		return lead, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("leads: upsert failed: %w", err)
	}

	existing := `SELECT ` + leadColumns + ` FROM leads WHERE workspace_id = $1 AND phone = $2`
	lead, err = scanLead(r.db.QueryRow(ctx, existing, workspaceID, phone))
	if err != nil {
		return nil, false, fmt.Errorf("leads: select by phone failed: %w", err)
	}
	return lead, false, nil
}

func scanLead(row pgx.Row) (*Lead, error) {
	var (
		lead   Lead
		source string
		status string
	)
	if err := row.Scan(
		&lead.ID,
		&lead.WorkspaceID,
		&lead.FirstName,
		&lead.LastName,
		&lead.Phone,
		&lead.City,
		&source,
		&lead.DesiredService,
		&lead.ProblemSummary,
		&lead.ConsentWhatsApp,
		&status,
		&lead.CreatedAt,
	); err != nil {
		return nil, err
	}
	lead.Source = Source(source)
	lead.Status = Status(status)
	return &lead, nil
}
