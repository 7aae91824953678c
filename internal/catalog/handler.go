package catalog

import (
	"net/http"

	"github.com/rivohq/rivo/internal/httpx"
	"github.com/rivohq/rivo/internal/tenancy"
	"github.com/rivohq/rivo/pkg/logging"
)

type Handler struct {
	repo   Repository
	logger *logging.Logger
}

func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /api/services
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := tenancy.WorkspaceIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "workspaceId is required")
		return
	}
	items, err := h.repo.List(r.Context(), workspaceID)
	if err != nil {
		h.logger.Error("failed to list services", "error", err, "workspace_id", workspaceID)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to list services")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"services": items})
}

// Create handles POST /api/services
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

	s, err := h.repo.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to create service", "error", err, "workspace_id", workspaceID)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to create service")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"service": s})
}
