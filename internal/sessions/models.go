package sessions

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session represents a scheduled focus session owned by a user.
// Date is an ISO calendar date (YYYY-MM-DD) with no timezone; StartTime and
// EndTime are local wall-clock times (HH:MM) interpreted in the engine's
// configured timezone.
type Session struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Date        string    `json:"date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	Description *string   `json:"description,omitempty"`

	// Delivery-tracking fields. The dispatch engine is their only writer;
	// ReminderSentAt and ReminderSentTo are set and cleared together with
	// ReminderSent, never independently.
	ReminderSent   bool       `json:"reminder_sent"`
	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`
	ReminderSentTo *string    `json:"reminder_sent_to,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Status is the derived lifecycle state of a session. It is computed at read
// time from the current date and time and is never stored.
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusCompleted Status = "completed"
)

// StatusOf computes the lifecycle status of a session at the given instant.
// now must already be in the engine's configured timezone.
func StatusOf(s Session, now time.Time) Status {
	today := now.Format("2006-01-02")

	switch {
	case s.Date < today:
		return StatusCompleted
	case s.Date > today:
		return StatusUpcoming
	}

	endMinutes, err := ClockMinutes(s.EndTime)
	if err != nil {
		// Unparseable end time; treat the session as still upcoming.
		return StatusUpcoming
	}
	if now.Hour()*60+now.Minute() > endMinutes {
		return StatusCompleted
	}
	return StatusUpcoming
}

// ClockMinutes parses an HH:MM wall-clock string into minutes since midnight.
func ClockMinutes(hhmm string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(hhmm), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid wall-clock time %q", hhmm)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid wall-clock time %q: %w", hhmm, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid wall-clock time %q: %w", hhmm, err)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("wall-clock time %q out of range", hhmm)
	}
	return hours*60 + minutes, nil
}

// CreateSessionRequest represents the request body for scheduling a session
type CreateSessionRequest struct {
	UserID      string  `json:"user_id" binding:"required"`
	Title       string  `json:"title" binding:"required,max=200"`
	Date        string  `json:"date" binding:"required,datetime=2006-01-02"`
	StartTime   string  `json:"start_time" binding:"required,datetime=15:04"`
	EndTime     string  `json:"end_time" binding:"required,datetime=15:04"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=2000"`
}

// UpdateSessionRequest represents the request body for rescheduling a session.
// Delivery-tracking fields are deliberately absent: only the dispatch engine
// writes them.
type UpdateSessionRequest struct {
	Title       *string `json:"title,omitempty" binding:"omitempty,max=200"`
	Date        *string `json:"date,omitempty" binding:"omitempty,datetime=2006-01-02"`
	StartTime   *string `json:"start_time,omitempty" binding:"omitempty,datetime=15:04"`
	EndTime     *string `json:"end_time,omitempty" binding:"omitempty,datetime=15:04"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=2000"`
}

// SessionView is a session plus its derived status, as returned by the API.
type SessionView struct {
	Session
	Status Status `json:"status"`
}

// SessionResponse is a standard response wrapper
type SessionResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    *Session `json:"data,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
