package reminder

import (
	"fmt"
	"time"

	"quiethours/internal/sessions"
)

// FormatClock renders an HH:MM wall-clock string on a 12-hour clock,
// e.g. "14:05" → "2:05 PM", "00:30" → "12:30 AM".
func FormatClock(hhmm string) string {
	minutes, err := sessions.ClockMinutes(hhmm)
	if err != nil {
		return hhmm
	}

	hour := minutes / 60
	ampm := "AM"
	if hour >= 12 {
		ampm = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d %s", display, minutes%60, ampm)
}

// FormatDate renders an ISO date as a long human-readable date,
// e.g. "2026-08-30" → "Sunday, August 30, 2026".
func FormatDate(date string) string {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return d.Format("Monday, January 2, 2006")
}
