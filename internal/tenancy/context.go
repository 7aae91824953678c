package tenancy

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey string

const workspaceKey ctxKey = "rivo.workspace_id"

// HeaderWorkspaceID carries the active workspace on admin API calls.
const HeaderWorkspaceID = "X-Workspace-Id"

// WithWorkspaceID stores the workspace id in context.
func WithWorkspaceID(ctx context.Context, workspaceID string) context.Context {
	return context.WithValue(ctx, workspaceKey, workspaceID)
}

// WorkspaceIDFromContext extracts the workspace id if present.
func WorkspaceIDFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(workspaceKey)
	if val == nil {
		return "", false
	}
	workspaceID, ok := val.(string)
	return workspaceID, ok && workspaceID != ""
}

// WorkspaceIDFromRequest picks the workspace for a request: header first,
// then the workspaceId query parameter, then the configured fallback.
func WorkspaceIDFromRequest(r *http.Request, fallback string) string {
	if id := strings.TrimSpace(r.Header.Get(HeaderWorkspaceID)); id != "" {
		return id
	}
	if id := strings.TrimSpace(r.URL.Query().Get("workspaceId")); id != "" {
		return id
	}
	return strings.TrimSpace(fallback)
}
