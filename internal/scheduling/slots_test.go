package scheduling

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivohq/rivo/internal/i18n"
)

func TestGenerateSlotsDubai(t *testing.T) {
	// 2025-10-16 09:00 in Dubai (UTC+4).
	now := time.Date(2025, 10, 16, 5, 0, 0, 0, time.UTC)

	slots, err := GenerateSlots(now, "Asia/Dubai")
	require.NoError(t, err)
	require.Len(t, slots, 3)

	wantStarts := []string{
		"2025-10-17T10:00:00+04:00",
		"2025-10-18T14:00:00+04:00",
		"2025-10-19T17:00:00+04:00",
	}
	wantLabels := []string{"Fri 17/10, 10:00", "Sat 18/10, 14:00", "Sun 19/10, 17:00"}
	for i, s := range slots {
		assert.Equal(t, wantStarts[i], s.Start.Format(time.RFC3339))
		assert.Equal(t, SlotDuration, s.End.Sub(s.Start))
		assert.Equal(t, wantLabels[i], s.Label)
	}
	assert.True(t, slots[0].Start.Before(slots[1].Start))
	assert.True(t, slots[1].Start.Before(slots[2].Start))
}

func TestGenerateSlotsUsesLocalDate(t *testing.T) {
	// 22:30 UTC on the 16th is already the 17th in Dubai.
	now := time.Date(2025, 10, 16, 22, 30, 0, 0, time.UTC)
	slots, err := GenerateSlots(now, "Asia/Dubai")
	require.NoError(t, err)
	assert.Equal(t, "Sat 18/10, 10:00", slots[0].Label)
}

func TestGenerateSlotsBlankZoneDefaultsToDubai(t *testing.T) {
	now := time.Date(2025, 10, 16, 5, 0, 0, 0, time.UTC)
	blank, err := GenerateSlots(now, "  ")
	require.NoError(t, err)
	dubai, err := GenerateSlots(now, DefaultTimeZone)
	require.NoError(t, err)
	for i := range blank {
		assert.True(t, blank[i].Start.Equal(dubai[i].Start))
	}
}

func TestGenerateSlotsIsDeterministic(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	a, err := GenerateSlots(now, "Europe/Paris")
	require.NoError(t, err)
	b, err := GenerateSlots(now, "Europe/Paris")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerateSlotsAcrossDSTKeepsLocalHour(t *testing.T) {
	// Paris switches to summer time on 2025-03-30.
	now := time.Date(2025, 3, 28, 12, 0, 0, 0, time.UTC)
	slots, err := GenerateSlots(now, "Europe/Paris")
	require.NoError(t, err)
	for i, hour := range []int{10, 14, 17} {
		assert.Equal(t, hour, slots[i].Start.Hour())
		assert.Equal(t, 0, slots[i].Start.Minute())
	}
	_, offset := slots[2].Start.Zone()
	assert.Equal(t, 2*3600, offset)
}

func TestGenerateSlotsInvalidZone(t *testing.T) {
	_, err := GenerateSlots(time.Now(), "Mars/Olympus")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTimeZone))
}

func TestFormatSlotsFrench(t *testing.T) {
	now := time.Date(2025, 10, 16, 5, 0, 0, 0, time.UTC)
	slots, err := GenerateSlots(now, "Asia/Dubai")
	require.NoError(t, err)

	got := FormatSlots(i18n.French, slots, "Asia/Dubai")
	want := strings.Join([]string{
		"Voici 3 créneaux proposés sur les prochains jours (heure locale) :",
		"- ven. 17/10 10:00",
		"- sam. 18/10 14:00",
		"- dim. 19/10 17:00",
		"Si aucun de ces créneaux ne vous convient, je peux demander une option prioritaire à notre équipe.",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestFormatSlotsEnglishUses12Hour(t *testing.T) {
	now := time.Date(2025, 10, 16, 5, 0, 0, 0, time.UTC)
	slots, err := GenerateSlots(now, "Asia/Dubai")
	require.NoError(t, err)

	lines := strings.Split(FormatSlots(i18n.English, slots, "Asia/Dubai"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Here are 3 suggested slots over the next days (local time):", lines[0])
	assert.Equal(t, "- Fri, 10/17, 10:00 AM", lines[1])
	assert.Equal(t, "- Sat, 10/18, 02:00 PM", lines[2])
	assert.Equal(t, "- Sun, 10/19, 05:00 PM", lines[3])
	assert.Equal(t, "If none of these slots work for you, I can ask our team for a priority option.", lines[4])
}

func TestFormatSlotsArabic(t *testing.T) {
	now := time.Date(2025, 10, 16, 5, 0, 0, 0, time.UTC)
	slots, err := GenerateSlots(now, "Asia/Dubai")
	require.NoError(t, err)

	lines := strings.Split(FormatSlots(i18n.Arabic, slots, "Asia/Dubai"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "هذه 3 أوقات متاحة في الأيام القادمة (حسب توقيت المركز):", lines[0])
	assert.Equal(t, "- السبت، 18\u200f/10، 02:00 م", lines[2])
}

func TestFormatSlotsEmpty(t *testing.T) {
	assert.Equal(t, "", FormatSlots(i18n.English, nil, "Asia/Dubai"))
}

func TestFormatSlotsDoesNotShiftInstants(t *testing.T) {
	now := time.Date(2025, 10, 16, 5, 0, 0, 0, time.UTC)
	slots, err := GenerateSlots(now, "Asia/Dubai")
	require.NoError(t, err)

	before := slots[0].Start
	FormatSlots(i18n.English, slots, "UTC")
	assert.True(t, before.Equal(slots[0].Start))

	// Rendering in UTC moves the wall clock, not the instant.
	lines := strings.Split(FormatSlots(i18n.French, slots, "UTC"), "\n")
	assert.Equal(t, "- ven. 17/10 06:00", lines[1])
}

func TestFormatAt(t *testing.T) {
	now := time.Date(2025, 10, 16, 5, 0, 0, 0, time.UTC)
	text, err := FormatAt(i18n.French, now, "")
	require.NoError(t, err)
	assert.Contains(t, text, "- ven. 17/10 10:00")

	_, err = FormatAt(i18n.French, now, "Nowhere/Land")
	assert.ErrorIs(t, err, ErrInvalidTimeZone)
}
