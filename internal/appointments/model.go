package appointments

import (
	"errors"
	"math"
	"strings"
	"time"
)

var (
	ErrInvalidDates = errors.New("invalid dates")
	ErrInvalidRange = errors.New("endsAt must be after startsAt")
	ErrLeadNotFound = errors.New("lead not found")
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// LeadSummary is the lead as shown in the agenda.
type LeadSummary struct {
	ID        string  `json:"id"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
}

// Appointment is a booked slot for a lead.
type Appointment struct {
	ID              string       `json:"id"`
	WorkspaceID     string       `json:"workspaceId"`
	LeadID          string       `json:"leadId"`
	Status          Status       `json:"status"`
	StartsAt        time.Time    `json:"startsAt"`
	EndsAt          time.Time    `json:"endsAt"`
	DurationMinutes int          `json:"durationMinutes"`
	CreatedAt       time.Time    `json:"createdAt"`
	Lead            *LeadSummary `json:"lead,omitempty"`
}

// CreateRequest is the body of POST /api/appointments.
type CreateRequest struct {
	WorkspaceID string `json:"-"`
	LeadID      string `json:"leadId" validate:"required,uuid"`
	StartsAt    string `json:"startsAt" validate:"required"`
	EndsAt      string `json:"endsAt" validate:"required"`
}

// NewAppointment is a validated CreateRequest.
type NewAppointment struct {
	WorkspaceID     string
	LeadID          string
	StartsAt        time.Time
	EndsAt          time.Time
	DurationMinutes int
}

// Parse checks the dates and computes the rounded duration.
func (r CreateRequest) Parse() (NewAppointment, error) {
	starts, err := parseTime(r.StartsAt)
	if err != nil {
		return NewAppointment{}, ErrInvalidDates
	}
	ends, err := parseTime(r.EndsAt)
	if err != nil {
		return NewAppointment{}, ErrInvalidDates
	}
	if !ends.After(starts) {
		return NewAppointment{}, ErrInvalidRange
	}
	return NewAppointment{
		WorkspaceID:     r.WorkspaceID,
		LeadID:          strings.TrimSpace(r.LeadID),
		StartsAt:        starts.UTC(),
		EndsAt:          ends.UTC(),
		DurationMinutes: int(math.Round(ends.Sub(starts).Minutes())),
	}, nil
}

func parseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04", value)
}
