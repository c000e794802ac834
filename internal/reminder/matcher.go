package reminder

import (
	"fmt"
	"time"

	"quiethours/internal/sessions"
)

// DefaultTolerance is the slack allowed between the ideal reminder instant
// and the scan tick that catches it. A 30s cadence always lands inside a
// ±60s window.
const DefaultTolerance = 60 * time.Second

// Eligibility is the matcher's verdict for one session at one instant.
type Eligibility int

const (
	// Eligible means now is inside the session's reminder window.
	Eligible Eligibility = iota
	// NotYetDue means the reminder window has not opened yet.
	NotYetDue
	// WindowMissed means the window has already closed. The session is
	// skipped, never retried: no backfill of stale reminders.
	WindowMissed
	// WrongDay means the session is not dated today in the configured
	// timezone. Sessions on other days are never eligible.
	WrongDay
)

func (e Eligibility) String() string {
	switch e {
	case Eligible:
		return "eligible"
	case NotYetDue:
		return "not-yet-due"
	case WindowMissed:
		return "window-missed"
	case WrongDay:
		return "wrong-day"
	default:
		return "unknown"
	}
}

// Matcher computes whether an instant falls inside a session's reminder
// window. It is pure: no stores, no clocks, no side effects.
//
// All wall-clock interpretation uses one fixed installation-wide timezone.
// Users in other timezones can see "today" flip at this zone's midnight
// rather than their own; that is a documented limitation carried over from
// the original product.
type Matcher struct {
	loc       *time.Location
	tolerance time.Duration
}

// NewMatcher creates a matcher for the given timezone with the default
// ±60 second tolerance.
func NewMatcher(loc *time.Location) *Matcher {
	return NewMatcherWithTolerance(loc, DefaultTolerance)
}

// NewMatcherWithTolerance creates a matcher with an explicit tolerance.
func NewMatcherWithTolerance(loc *time.Location, tolerance time.Duration) *Matcher {
	return &Matcher{loc: loc, tolerance: tolerance}
}

// Evaluate decides the eligibility of a session dated date (YYYY-MM-DD) with
// wall-clock start startTime (HH:MM), for a user whose reminder fires
// leadMinutes before the start. The reminder instant is start − lead;
// eligibility holds iff |now − reminderTime| ≤ tolerance and the session is
// dated today.
func (m *Matcher) Evaluate(now time.Time, date, startTime string, leadMinutes int) (Eligibility, error) {
	now = now.In(m.loc)

	if date != now.Format("2006-01-02") {
		return WrongDay, nil
	}

	reminderTime, err := m.ReminderTime(now, startTime, leadMinutes)
	if err != nil {
		return WrongDay, err
	}

	diff := now.Sub(reminderTime)
	switch {
	case diff < -m.tolerance:
		return NotYetDue, nil
	case diff > m.tolerance:
		return WindowMissed, nil
	default:
		return Eligible, nil
	}
}

// ReminderTime returns the instant the reminder for the given session start
// should ideally fire on the given day.
func (m *Matcher) ReminderTime(day time.Time, startTime string, leadMinutes int) (time.Time, error) {
	startMinutes, err := sessions.ClockMinutes(startTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid session start time: %w", err)
	}
	day = day.In(m.loc)
	start := time.Date(day.Year(), day.Month(), day.Day(),
		startMinutes/60, startMinutes%60, 0, 0, m.loc)
	return start.Add(-time.Duration(leadMinutes) * time.Minute), nil
}
