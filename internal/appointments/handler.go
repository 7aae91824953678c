package appointments

import (
	"context"
	"errors"
	"net/http"

	"github.com/rivohq/rivo/internal/httpx"
	"github.com/rivohq/rivo/internal/leads"
	"github.com/rivohq/rivo/internal/tenancy"
	"github.com/rivohq/rivo/pkg/logging"
)

// LeadFinder looks up a lead within a workspace.
type LeadFinder interface {
	GetByID(ctx context.Context, workspaceID, id string) (*leads.Lead, error)
}

// Handler serves /api/appointments.
type Handler struct {
	repo   Repository
	leads  LeadFinder
	logger *logging.Logger
}

// NewHandler wires the handler. When finder is set, appointments are only
// created for leads it knows and listings carry the lead summary.
func NewHandler(repo Repository, finder LeadFinder, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, leads: finder, logger: logger}
}

// List handles GET /api/appointments
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := tenancy.WorkspaceIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "workspaceId is required")
		return
	}
	items, err := h.repo.List(r.Context(), workspaceID)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err, "workspace_id", workspaceID)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}
	if h.leads != nil {
		for _, a := range items {
			if a.Lead != nil {
				continue
			}
			if lead, err := h.leads.GetByID(r.Context(), workspaceID, a.LeadID); err == nil {
				a.Lead = &LeadSummary{ID: lead.ID, FirstName: lead.FirstName, LastName: lead.LastName, Phone: lead.Phone}
			}
		}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"appointments": items})
}

// Create handles POST /api/appointments
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := tenancy.WorkspaceIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "workspaceId is required")
		return
	}

	var req CreateRequest
	if !httpx.DecodeAndValidate(w, r, &req) {
		return
	}
	req.WorkspaceID = workspaceID

	appt, err := req.Parse()
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.leads != nil {
		if _, err := h.leads.GetByID(r.Context(), workspaceID, appt.LeadID); err != nil {
			if errors.Is(err, leads.ErrLeadNotFound) {
				httpx.WriteError(w, http.StatusBadRequest, ErrLeadNotFound.Error())
				return
			}
			h.logger.Error("failed to load lead", "error", err, "workspace_id", workspaceID, "lead_id", appt.LeadID)
			httpx.WriteError(w, http.StatusInternalServerError, "failed to create appointment")
			return
		}
	}

	created, err := h.repo.Create(r.Context(), appt)
	if err != nil {
		if errors.Is(err, ErrLeadNotFound) {
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to create appointment", "error", err, "workspace_id", workspaceID)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to create appointment")
		return
	}
	h.logger.Info("appointment created", "appointment_id", created.ID, "lead_id", created.LeadID, "workspace_id", workspaceID)
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"appointment": created})
}
