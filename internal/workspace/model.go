package workspace

import (
	"errors"
	"strings"
	"time"

	"github.com/rivohq/rivo/internal/scheduling"
)

var (
	// ErrNotFound is returned when a workspace does not exist.
	ErrNotFound = errors.New("workspace not found")
	// ErrInvalidTimeZone is returned for zone names missing from the tz database.
	ErrInvalidTimeZone = errors.New("workspace: invalid time zone")
)

const (
	PlanTrial        = "TRIAL"
	PlanStatusActive = "ACTIVE"
)

// OpeningHours holds free-form hours per weekday, e.g. {"mon": "09:00-18:00"}.
type OpeningHours struct {
	Mon *string `json:"mon,omitempty" validate:"omitempty,max=64"`
	Tue *string `json:"tue,omitempty" validate:"omitempty,max=64"`
	Wed *string `json:"wed,omitempty" validate:"omitempty,max=64"`
	Thu *string `json:"thu,omitempty" validate:"omitempty,max=64"`
	Fri *string `json:"fri,omitempty" validate:"omitempty,max=64"`
	Sat *string `json:"sat,omitempty" validate:"omitempty,max=64"`
	Sun *string `json:"sun,omitempty" validate:"omitempty,max=64"`
}

// Workspace is a tenant: one garage.
type Workspace struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Timezone     string        `json:"timezone"`
	Plan         string        `json:"plan"`
	PlanStatus   string        `json:"planStatus"`
	BrandTone    *string       `json:"brandTone"`
	OpeningHours *OpeningHours `json:"openingHours"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// TimeZone returns the workspace zone, or the default when unset.
func (w *Workspace) TimeZone() string {
	if w == nil || strings.TrimSpace(w.Timezone) == "" {
		return scheduling.DefaultTimeZone
	}
	return w.Timezone
}

// CreateRequest describes a new workspace.
type CreateRequest struct {
	Name     string
	Timezone string
}

// UpdateRequest is the body of PUT /api/workspace.
type UpdateRequest struct {
	Name         string        `json:"name" validate:"required,min=2,max=120"`
	Timezone     string        `json:"timezone" validate:"required,min=2"`
	BrandTone    *string       `json:"brandTone" validate:"omitempty,max=500"`
	OpeningHours *OpeningHours `json:"openingHours"`
}

// Validate checks the time zone against the tz database.
func (r *UpdateRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Timezone = strings.TrimSpace(r.Timezone)
	if _, err := scheduling.LoadLocation(r.Timezone); err != nil {
		return ErrInvalidTimeZone
	}
	return nil
}
