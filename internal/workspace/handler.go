package workspace

import (
	"errors"
	"net/http"

	"github.com/rivohq/rivo/internal/httpx"
	"github.com/rivohq/rivo/internal/tenancy"
	"github.com/rivohq/rivo/pkg/logging"
)

// Handler serves the workspace settings endpoints.
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

// GetWorkspace handles GET /api/workspace
func (h *Handler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := tenancy.WorkspaceIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "workspaceId is required")
		return
	}
	ws, err := h.repo.Get(r.Context(), workspaceID)
	if err != nil {
		h.writeRepoError(w, err, workspaceID, "failed to load workspace")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"workspace": ws})
}

// UpdateWorkspace handles PUT /api/workspace
func (h *Handler) UpdateWorkspace(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := tenancy.WorkspaceIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "workspaceId is required")
		return
	}

	var req UpdateRequest
	if !httpx.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
			Error:   "invalid data",
			Details: map[string]string{"timezone": "timezone"},
		})
		return
	}

	ws, err := h.repo.Update(r.Context(), workspaceID, req)
	if err != nil {
		h.writeRepoError(w, err, workspaceID, "failed to update workspace")
		return
	}
	h.logger.Info("workspace updated", "workspace_id", workspaceID)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"workspace": ws})
}

func (h *Handler) writeRepoError(w http.ResponseWriter, err error, workspaceID, message string) {
	if errors.Is(err, ErrNotFound) {
		httpx.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	h.logger.Error(message, "error", err, "workspace_id", workspaceID)
	httpx.WriteError(w, http.StatusInternalServerError, message)
}
