// Package i18n knows the three customer languages the garage replies in and
// how dates and times are written in each of them.
package i18n

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// Language is a detected customer language.
type Language string

const (
	English Language = "en"
	French  Language = "fr"
	Arabic  Language = "ar"
)

// Languages lists every supported language.
func Languages() []Language {
	return []Language{French, English, Arabic}
}

// Valid reports whether l is supported.
func (l Language) Valid() bool {
	switch l {
	case English, French, Arabic:
		return true
	}
	return false
}

// Parse maps a stored or user supplied value to a Language. Region
// subtags are ignored; unsupported values fall back to English.
func Parse(value string) Language {
	tag, err := language.Parse(value)
	if err != nil {
		return English
	}
	base, _ := tag.Base()
	switch l := Language(base.String()); l {
	case French, Arabic:
		return l
	}
	return English
}

var locales = map[Language]language.Tag{
	English: language.AmericanEnglish,
	French:  language.MustParse("fr-FR"),
	Arabic:  language.MustParse("ar-AE"),
}

// Locale returns the BCP 47 locale used to render dates for l.
func (l Language) Locale() language.Tag {
	if tag, ok := locales[l]; ok {
		return tag
	}
	return locales[English]
}

// Uses12Hour reports whether times are rendered on a 12 hour clock.
func (l Language) Uses12Hour() bool {
	return l != French
}

type dateStyle struct {
	weekdays [7]string
	am, pm   string
	sep      string
}

var styles = map[Language]dateStyle{
	English: {
		weekdays: [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
		am:       "AM",
		pm:       "PM",
		sep:      ", ",
	},
	French: {
		weekdays: [7]string{"dim.", "lun.", "mar.", "mer.", "jeu.", "ven.", "sam."},
		sep:      " ",
	},
	Arabic: {
		weekdays: [7]string{"الأحد", "الاثنين", "الثلاثاء", "الأربعاء", "الخميس", "الجمعة", "السبت"},
		am:       "ص",
		pm:       "م",
		sep:      "، ",
	},
}

// FormatDateTime renders t (already in the target zone) as a short weekday,
// two digit day and month, and two digit hour and minute in l's conventions:
//
//	en: Fri, 10/17, 02:00 PM
//	fr: ven. 17/10 14:00
//	ar: الجمعة، 17\u200f/10، 02:00 م
//
// Arabic dates carry a right-to-left mark after the day so the day/month
// pair keeps its order inside right-to-left text.
func (l Language) FormatDateTime(t time.Time) string {
	style, ok := styles[l]
	if !ok {
		style = styles[English]
	}
	weekday := style.weekdays[t.Weekday()]

	date := fmt.Sprintf("%02d/%02d", t.Day(), int(t.Month()))
	if l == Arabic {
		date = fmt.Sprintf("%02d\u200f/%02d", t.Day(), int(t.Month()))
	}
	if l == English || !l.Valid() {
		date = fmt.Sprintf("%02d/%02d", int(t.Month()), t.Day())
	}

	clock := fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
	if l.Uses12Hour() || !l.Valid() {
		hour := t.Hour() % 12
		if hour == 0 {
			hour = 12
		}
		marker := style.am
		if t.Hour() >= 12 {
			marker = style.pm
		}
		clock = fmt.Sprintf("%02d:%02d %s", hour, t.Minute(), marker)
	}

	return weekday + style.sep + date + style.sep + clock
}
