package router

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/rivohq/rivo/internal/httpx"
	"github.com/rivohq/rivo/internal/tenancy"
)

// requireWorkspace resolves the workspace from the X-Workspace-Id header,
// the workspaceId query parameter or fallback, in that order. Ids that are
// not UUIDs are rejected before they reach the uuid columns in Postgres.
func requireWorkspace(fallback string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			workspaceID := tenancy.WorkspaceIDFromRequest(r, fallback)
			if workspaceID == "" {
				httpx.WriteError(w, http.StatusBadRequest, "workspaceId is required")
				return
			}
			if _, err := uuid.Parse(workspaceID); err != nil {
				httpx.WriteError(w, http.StatusBadRequest, "workspaceId must be a uuid")
				return
			}
			ctx := tenancy.WithWorkspaceID(r.Context(), workspaceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
