package whatsapp

import (
	"context"
	"errors"
	"testing"
)

func TestStaticResolver(t *testing.T) {
	r, err := NewStaticResolverFromJSON(`{"PNID_1":"ws-1"," ":"ws-x"}`, "ws-default")
	if err != nil {
		t.Fatal(err)
	}

	got, err := r.Resolve(context.Background(), "PNID_1")
	if err != nil || got != "ws-1" {
		t.Fatalf("expected ws-1, got %q %v", got, err)
	}
	got, err = r.Resolve(context.Background(), "PNID_UNKNOWN")
	if err != nil || got != "ws-default" {
		t.Fatalf("expected fallback, got %q %v", got, err)
	}
}

func TestStaticResolverNoFallback(t *testing.T) {
	r := NewStaticResolver(nil, "")
	if _, err := r.Resolve(context.Background(), "PNID"); !errors.Is(err, ErrWorkspaceNotFound) {
		t.Fatalf("expected ErrWorkspaceNotFound, got %v", err)
	}
}

func TestStaticResolverInvalidJSON(t *testing.T) {
	if _, err := NewStaticResolverFromJSON(`{not json`, ""); err == nil {
		t.Fatal("expected error")
	}
}
