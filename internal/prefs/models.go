package prefs

import "time"

// DefaultLeadMinutes is how many minutes before a session's start the
// reminder fires when the user has never changed the setting.
const DefaultLeadMinutes = 10

// UserPreference holds a user's notification settings. One row per user.
type UserPreference struct {
	UserID             string    `json:"user_id"`
	Email              string    `json:"email"`
	EmailNotifications bool      `json:"email_notifications"`
	ReminderLeadMins   int       `json:"reminder_lead_minutes"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// UpsertPreferenceRequest represents the request body for setting preferences
type UpsertPreferenceRequest struct {
	Email              string `json:"email" binding:"required,email"`
	EmailNotifications *bool  `json:"email_notifications,omitempty"`
	ReminderLeadMins   *int   `json:"reminder_lead_minutes,omitempty" binding:"omitempty,gte=0"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
