// Package scheduling proposes canned appointment slots to customers.
package scheduling

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// DefaultTimeZone applies when a workspace has no time zone configured.
const DefaultTimeZone = "Asia/Dubai"

// SlotDuration is the length of every proposed slot.
const SlotDuration = 30 * time.Minute

// slotPlan pairs the day offset from today with the local start hour.
var slotPlan = []struct {
	dayOffset int
	hour      int
}{
	{1, 10},
	{2, 14},
	{3, 17},
}

// ErrInvalidTimeZone is returned for zone names missing from the tz database.
var ErrInvalidTimeZone = errors.New("scheduling: invalid time zone")

// Slot is a proposed appointment window. Slots are never persisted.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
}

// LoadLocation resolves name, treating blank as DefaultTimeZone.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultTimeZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimeZone, name)
	}
	return loc, nil
}

// GenerateSlots returns three slots: tomorrow at 10:00, the day after at
// 14:00 and three days out at 17:00, all in the given zone's local time.
// The result depends only on now and the zone.
func GenerateSlots(now time.Time, timeZone string) ([]Slot, error) {
	loc, err := LoadLocation(timeZone)
	if err != nil {
		return nil, err
	}

	y, m, d := now.In(loc).Date()
	slots := make([]Slot, 0, len(slotPlan))
	for _, p := range slotPlan {
		start := time.Date(y, m, d+p.dayOffset, p.hour, 0, 0, 0, loc)
		slots = append(slots, Slot{
			Start: start,
			End:   start.Add(SlotDuration),
			Label: label(start),
		})
	}
	return slots, nil
}

// label renders en-GB short style, e.g. "Fri 17/10, 10:00".
func label(t time.Time) string {
	return t.Format("Mon 02/01, 15:04")
}
