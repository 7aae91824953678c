package tenancy

import (
	"context"
	"net/http/httptest"
	"testing"
)

func TestWithWorkspaceIDAndWorkspaceIDFromContext(t *testing.T) {
	ctx := WithWorkspaceID(context.Background(), "ws-123")

	got, ok := WorkspaceIDFromContext(ctx)
	if !ok {
		t.Fatalf("expected workspace id to be present")
	}
	if got != "ws-123" {
		t.Fatalf("expected ws-123, got %s", got)
	}
}

func TestWorkspaceIDFromContext_EmptyOrMissing(t *testing.T) {
	ctx := context.Background()
	if _, ok := WorkspaceIDFromContext(ctx); ok {
		t.Fatalf("expected missing workspace id to return false")
	}

	ctx = context.WithValue(ctx, workspaceKey, 42)
	if _, ok := WorkspaceIDFromContext(ctx); ok {
		t.Fatalf("expected non-string workspace id to return false")
	}

	ctx = WithWorkspaceID(context.Background(), "")
	if _, ok := WorkspaceIDFromContext(ctx); ok {
		t.Fatalf("expected empty workspace id to return false")
	}
}

func TestWorkspaceIDFromRequestPrecedence(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/leads?workspaceId=from-query", nil)
	req.Header.Set(HeaderWorkspaceID, "from-header")
	if got := WorkspaceIDFromRequest(req, "fallback"); got != "from-header" {
		t.Fatalf("expected header to win, got %s", got)
	}

	req = httptest.NewRequest("GET", "/api/leads?workspaceId=from-query", nil)
	if got := WorkspaceIDFromRequest(req, "fallback"); got != "from-query" {
		t.Fatalf("expected query value, got %s", got)
	}

	req = httptest.NewRequest("GET", "/api/leads", nil)
	if got := WorkspaceIDFromRequest(req, " fallback "); got != "fallback" {
		t.Fatalf("expected fallback, got %s", got)
	}

	if got := WorkspaceIDFromRequest(req, ""); got != "" {
		t.Fatalf("expected empty, got %s", got)
	}
}
