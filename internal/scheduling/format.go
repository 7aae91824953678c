package scheduling

import (
	"strings"
	"time"

	"github.com/rivohq/rivo/internal/i18n"
)

type slotCopy struct {
	intro   string
	closing string
}

var copies = map[i18n.Language]slotCopy{
	i18n.French: {
		intro:   "Voici 3 créneaux proposés sur les prochains jours (heure locale) :",
		closing: "Si aucun de ces créneaux ne vous convient, je peux demander une option prioritaire à notre équipe.",
	},
	i18n.Arabic: {
		intro:   "هذه 3 أوقات متاحة في الأيام القادمة (حسب توقيت المركز):",
		closing: "إذا لم تناسبك أي من هذه الأوقات، يمكنني طلب خيار أولوية من فريقنا.",
	},
	i18n.English: {
		intro:   "Here are 3 suggested slots over the next days (local time):",
		closing: "If none of these slots work for you, I can ask our team for a priority option.",
	},
}

// FormatSlots renders slots as a customer-facing block in lang: an intro
// line, one "- " bullet per slot and a closing line offering a priority
// option. Times are shown in timeZone; an unknown zone falls back to each
// slot's own location. An empty slot list renders as "".
func FormatSlots(lang i18n.Language, slots []Slot, timeZone string) string {
	if len(slots) == 0 {
		return ""
	}
	text, ok := copies[lang]
	if !ok {
		lang = i18n.English
		text = copies[i18n.English]
	}

	loc, err := LoadLocation(timeZone)
	if err != nil {
		loc = nil
	}

	lines := make([]string, 0, len(slots)+2)
	lines = append(lines, text.intro)
	for _, s := range slots {
		start := s.Start
		if loc != nil {
			start = start.In(loc)
		}
		lines = append(lines, "- "+lang.FormatDateTime(start))
	}
	lines = append(lines, text.closing)
	return strings.Join(lines, "\n")
}

// FormatAt is a convenience for callers holding a clock and a zone name.
func FormatAt(lang i18n.Language, now time.Time, timeZone string) (string, error) {
	slots, err := GenerateSlots(now, timeZone)
	if err != nil {
		return "", err
	}
	return FormatSlots(lang, slots, timeZone), nil
}
