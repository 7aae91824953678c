package leads

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rivohq/rivo/internal/httpx"
	"github.com/rivohq/rivo/internal/tenancy"
	"github.com/rivohq/rivo/pkg/logging"
)

// Handler handles HTTP requests for leads
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new leads handler
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// CreateLead handles POST /api/leads
func (h *Handler) CreateLead(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := tenancy.WorkspaceIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "workspaceId is required")
		return
	}

	var req CreateLeadRequest
	if !httpx.DecodeAndValidate(w, r, &req) {
		return
	}
	req.WorkspaceID = workspaceID

	lead, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicatePhone):
			httpx.WriteError(w, http.StatusConflict, err.Error())
		case errors.Is(err, ErrMissingWorkspace):
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("failed to create lead", "error", err, "workspace_id", workspaceID)
			httpx.WriteError(w, http.StatusInternalServerError, "failed to create lead")
		}
		return
	}

	h.logger.Info("lead created", "lead_id", lead.ID, "workspace_id", workspaceID)
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"lead": lead})
}

// ListLeadsResponse is the response for listing leads
type ListLeadsResponse struct {
	Leads  []*Lead `json:"leads"`
	Count  int     `json:"count"`
	Offset int     `json:"offset"`
	Limit  int     `json:"limit"`
}

// ListLeads handles GET /api/leads
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := tenancy.WorkspaceIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "workspaceId is required")
		return
	}

	filter := ListFilter{
		Limit:  100,
		Offset: 0,
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 500 {
			filter.Limit = limit
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}

	if status := Status(r.URL.Query().Get("status")); status != "" {
		filter.Status = status
	}

	leads, err := h.repo.ListByWorkspace(r.Context(), workspaceID, filter)
	if err != nil {
		h.logger.Error("failed to list leads", "error", err, "workspace_id", workspaceID)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to list leads")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, ListLeadsResponse{
		Leads:  leads,
		Count:  len(leads),
		Offset: filter.Offset,
		Limit:  filter.Limit,
	})
}
