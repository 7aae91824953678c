package notifications

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a notification does not exist in the workspace.
var ErrNotFound = errors.New("notification not found")

type Type string

const (
	TypeWhatsAppSendFailed  Type = "WHATSAPP_SEND_FAILED"
	TypeReminderOutOfWindow Type = "REMINDER_OUT_OF_WINDOW"
	TypeSystem              Type = "SYSTEM"
)

type Status string

const (
	StatusNew  Status = "NEW"
	StatusRead Status = "READ"
)

// LeadSummary is the lead as shown next to a notification.
type LeadSummary struct {
	ID        string  `json:"id"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
}

// Notification is an in-app alert for garage staff.
type Notification struct {
	ID          string       `json:"id"`
	WorkspaceID string       `json:"workspaceId"`
	LeadID      *string      `json:"leadId"`
	Type        Type         `json:"type"`
	Message     string       `json:"message"`
	Status      Status       `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	Lead        *LeadSummary `json:"lead,omitempty"`
}

// CreateRequest is the body of POST /api/notifications.
type CreateRequest struct {
	WorkspaceID string  `json:"-"`
	Type        Type    `json:"type" validate:"required,oneof=WHATSAPP_SEND_FAILED REMINDER_OUT_OF_WINDOW SYSTEM"`
	Message     string  `json:"message" validate:"required,min=1,max=2000"`
	LeadID      *string `json:"leadId" validate:"omitempty,uuid"`
}

// MarkReadRequest is the body of PATCH /api/notifications.
type MarkReadRequest struct {
	ID string `json:"id" validate:"required,uuid"`
}

// ListFilter narrows a listing; a blank Status lists everything.
type ListFilter struct {
	Status Status
}
