package notifications

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rivohq/rivo/internal/httpx"
	"github.com/rivohq/rivo/internal/observability/metrics"
	"github.com/rivohq/rivo/internal/tenancy"
	"github.com/rivohq/rivo/pkg/logging"
)

// Handler serves /api/notifications.
type Handler struct {
	repo    Repository
	metrics *metrics.WebhookMetrics
	logger  *logging.Logger
}

func NewHandler(repo Repository, m *metrics.WebhookMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, metrics: m, logger: logger}
}

// List handles GET /api/notifications?status=NEW|READ
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := tenancy.WorkspaceIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "workspaceId is required")
		return
	}

	var filter ListFilter
	if raw := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status"))); raw != "" {
		switch Status(raw) {
		case StatusNew, StatusRead:
			filter.Status = Status(raw)
		default:
			httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
				Error:   "invalid data",
				Details: map[string]string{"status": "oneof=NEW READ"},
			})
			return
		}
	}

	items, err := h.repo.List(r.Context(), workspaceID, filter)
	if err != nil {
		h.logger.Error("failed to list notifications", "error", err, "workspace_id", workspaceID)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"notifications": items})
}

// Create handles POST /api/notifications
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

	n, err := h.repo.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to create notification", "error", err, "workspace_id", workspaceID)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to create notification")
		return
	}
	h.metrics.ObserveNotification(string(n.Type))
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"notification": n})
}

// MarkRead handles PATCH /api/notifications
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := tenancy.WorkspaceIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "workspaceId is required")
		return
	}

	var req MarkReadRequest
	if !httpx.DecodeAndValidate(w, r, &req) {
		return
	}

	n, err := h.repo.MarkRead(r.Context(), workspaceID, req.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("failed to update notification", "error", err, "workspace_id", workspaceID)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to update notification")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"notification": n})
}
