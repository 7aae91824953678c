package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrWorkspaceNotFound is returned when no workspace owns a business number.
var ErrWorkspaceNotFound = errors.New("whatsapp: no workspace for phone number id")

// WorkspaceResolver maps the receiving business number to a workspace.
type WorkspaceResolver interface {
	Resolve(ctx context.Context, phoneNumberID string) (string, error)
}

// StaticResolver resolves from a fixed phone_number_id map with a fallback
// workspace for unmapped numbers.
type StaticResolver struct {
	byPhoneNumberID map[string]string
	fallback        string
}

// NewStaticResolver builds a resolver. Either argument may be empty.
func NewStaticResolver(mapping map[string]string, fallback string) *StaticResolver {
	clean := make(map[string]string, len(mapping))
	for phoneNumberID, workspaceID := range mapping {
		phoneNumberID = strings.TrimSpace(phoneNumberID)
		workspaceID = strings.TrimSpace(workspaceID)
		if phoneNumberID == "" || workspaceID == "" {
			continue
		}
		clean[phoneNumberID] = workspaceID
	}
	return &StaticResolver{byPhoneNumberID: clean, fallback: strings.TrimSpace(fallback)}
}

// NewStaticResolverFromJSON parses a {"phone_number_id":"workspace_id"} map.
func NewStaticResolverFromJSON(raw, fallback string) (*StaticResolver, error) {
	mapping := map[string]string{}
	if strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
			return nil, fmt.Errorf("whatsapp: parse phone map: %w", err)
		}
	}
	return NewStaticResolver(mapping, fallback), nil
}

// Resolve returns the mapped workspace, else the fallback.
func (r *StaticResolver) Resolve(_ context.Context, phoneNumberID string) (string, error) {
	if workspaceID, ok := r.byPhoneNumberID[strings.TrimSpace(phoneNumberID)]; ok {
		return workspaceID, nil
	}
	if r.fallback != "" {
		return r.fallback, nil
	}
	return "", fmt.Errorf("%w: %q", ErrWorkspaceNotFound, phoneNumberID)
}
