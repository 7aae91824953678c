// Package orchestrator classifies inbound customer text into a language and
// a conversation flow, and picks the canned reply for that pair.
package orchestrator

import (
	"strings"

	"github.com/rivohq/rivo/internal/i18n"
)

// Flow is the intent bucket a message falls into.
type Flow string

const (
	FlowDirectBooking Flow = "A_RDV_DIRECT"
	FlowDetailingPPF  Flow = "B_DETAILING_PPF"
	FlowMechanical    Flow = "C_MECHANICAL"
)

// Flows lists every flow Classify can return.
func Flows() []Flow {
	return []Flow{FlowDirectBooking, FlowDetailingPPF, FlowMechanical}
}

// Result is the outcome of classifying one message.
type Result struct {
	Language i18n.Language `json:"language"`
	Flow     Flow          `json:"flow"`
	Reply    string        `json:"reply"`
}

var frenchHints = []string{
	"bonjour",
	"salut",
	"voiture",
	"rdv",
	"rendez-vous",
	"nettoyage",
	"intérieur",
	"interieur",
	"extérieur",
	"exterieur",
	"problème",
	"probleme",
	"moteur",
	"frein",
	"freins",
	"vibration",
	"vibrations",
	"accélération",
	"acceleration",
	"j'ai",
	"j ai",
}

var (
	mechanicalKeywords = []string{
		"noise",
		"vibration",
		"engine",
		"brakes",
		"brake",
		"check engine",
		"probleme moteur",
		"problème moteur",
		"bruit",
		"moteur",
		"frein",
	}
	detailingKeywords = []string{
		"detail",
		"detailing",
		"ppf",
		"polish",
		"ceramic",
		"ceramique",
		"céramique",
		"lustrage",
		"polissage",
		"film",
	}
	bookingKeywords = []string{"rdv", "appointment", "book"}
)

// Classify detects the language and flow of text and returns the matching
// reply. It never fails: unknown text is English direct booking.
func Classify(text string) Result {
	lang := DetectLanguage(text)
	flow := DetectFlow(text)
	return Result{
		Language: lang,
		Flow:     flow,
		Reply:    Reply(lang, flow),
	}
}

// DetectLanguage returns Arabic when any Arabic letter is present, French
// when a French hint word appears, and English otherwise.
func DetectLanguage(text string) i18n.Language {
	for _, r := range text {
		if r >= 'ء' && r <= 'ي' {
			return i18n.Arabic
		}
	}
	if containsAny(strings.ToLower(text), frenchHints) {
		return i18n.French
	}
	return i18n.English
}

// DetectFlow checks mechanical, then detailing, then booking keywords.
func DetectFlow(text string) Flow {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, mechanicalKeywords):
		return FlowMechanical
	case containsAny(lower, detailingKeywords):
		return FlowDetailingPPF
	case containsAny(lower, bookingKeywords):
		return FlowDirectBooking
	default:
		return FlowDirectBooking
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
