package leads

import (
	"strings"
	"time"
)

// Status is the pipeline stage of a lead.
type Status string

const (
	StatusNew       Status = "NEW"
	StatusContacted Status = "CONTACTED"
	StatusBooked    Status = "BOOKED"
	StatusLost      Status = "LOST"
)

// Source is the channel a lead came from.
type Source string

const (
	SourceWhatsApp Source = "WHATSAPP"
	SourceManual   Source = "MANUAL"
)

// Lead is a prospective customer of a garage.
type Lead struct {
	ID              string    `json:"id"`
	WorkspaceID     string    `json:"workspaceId"`
	FirstName       *string   `json:"firstName"`
	LastName        *string   `json:"lastName"`
	Phone           *string   `json:"phone"`
	City            *string   `json:"city"`
	Source          Source    `json:"source"`
	DesiredService  *string   `json:"desiredService"`
	ProblemSummary  *string   `json:"problemSummary"`
	ConsentWhatsApp bool      `json:"consentWhatsapp"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
}

// CreateLeadRequest represents the request body for creating a lead
type CreateLeadRequest struct {
	WorkspaceID     string  `json:"-"`
	FirstName       *string `json:"firstName" validate:"omitempty,max=100"`
	LastName        *string `json:"lastName" validate:"omitempty,max=100"`
	Phone           *string `json:"phone" validate:"omitempty,max=32"`
	City            *string `json:"city" validate:"omitempty,max=100"`
	Source          Source  `json:"source" validate:"omitempty,oneof=WHATSAPP MANUAL"`
	DesiredService  *string `json:"desiredService" validate:"omitempty,max=200"`
	ProblemSummary  *string `json:"problemSummary" validate:"omitempty,max=2000"`
	ConsentWhatsApp *bool   `json:"consentWhatsapp"`
}

// Validate checks the invariants the validator tags cannot express and
// normalizes blank optional strings to nil.
func (r *CreateLeadRequest) Validate() error {
	if strings.TrimSpace(r.WorkspaceID) == "" {
		return ErrMissingWorkspace
	}
	r.FirstName = trimmedOrNil(r.FirstName)
	r.LastName = trimmedOrNil(r.LastName)
	r.Phone = trimmedOrNil(r.Phone)
	r.City = trimmedOrNil(r.City)
	r.DesiredService = trimmedOrNil(r.DesiredService)
	r.ProblemSummary = trimmedOrNil(r.ProblemSummary)
	if r.Source == "" {
		r.Source = SourceManual
	}
	return nil
}

func (r *CreateLeadRequest) consent() bool {
	return r.ConsentWhatsApp != nil && *r.ConsentWhatsApp
}

// Contact is what a channel knows about an unseen sender.
type Contact struct {
	Phone     string
	FirstName string
	LastName  string
	Source    Source
}

// ListFilter narrows a workspace lead listing.
type ListFilter struct {
	Status Status
	Limit  int
	Offset int
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}
