// Package autoreply turns an inbound customer message into the garage's
// canned reply and records the exchange.
package autoreply

import (
	"strings"
	"time"

	"github.com/rivohq/rivo/internal/i18n"
	"github.com/rivohq/rivo/internal/orchestrator"
	"github.com/rivohq/rivo/internal/scheduling"
)

// Composition is the reply built for one inbound text.
type Composition struct {
	Language i18n.Language    `json:"language"`
	Flow     orchestrator.Flow `json:"flow"`
	// Classified is the template reply alone; Slots the formatted proposals.
	Classified string `json:"-"`
	Slots      string `json:"-"`
	// Text is what gets sent: Classified and Slots separated by a blank line.
	Text string `json:"reply"`
	// SlotsErr is set when the time zone could not be used; Slots is then empty.
	SlotsErr error `json:"-"`
}

// Compose classifies text and appends three slot proposals for timeZone.
func Compose(text, timeZone string, now time.Time) Composition {
	result := orchestrator.Classify(text)
	c := Composition{
		Language:   result.Language,
		Flow:       result.Flow,
		Classified: result.Reply,
	}
	c.Slots, c.SlotsErr = scheduling.FormatAt(result.Language, now, timeZone)
	c.Text = joinSections(c.Classified, c.Slots)
	return c
}

func joinSections(sections ...string) string {
	kept := make([]string, 0, len(sections))
	for _, s := range sections {
		if strings.TrimSpace(s) != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, "\n\n")
}
