package leads

import "errors"

var (
	// ErrLeadNotFound is returned when a lead is not found in the workspace
	ErrLeadNotFound = errors.New("lead not found")

	// ErrMissingWorkspace is returned when a request carries no workspace
	ErrMissingWorkspace = errors.New("workspace id is required")

	// ErrMissingPhone is returned when find-or-create is called without a phone
	ErrMissingPhone = errors.New("phone is required")

	// ErrDuplicatePhone is returned when a manual lead reuses a phone in the workspace
	ErrDuplicatePhone = errors.New("a lead with this phone already exists")
)
