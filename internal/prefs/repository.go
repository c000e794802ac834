package prefs

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"quiethours/internal/database"
)

var ErrPreferenceNotFound = errors.New("preference not found")

// Repository handles all database operations for user preferences. The
// dispatch engine only ever reads from this store.
type Repository struct {
	db database.Service
}

// NewRepository creates a new preferences repository
func NewRepository(db database.Service) *Repository {
	return &Repository{db: db}
}

// GetByUserID fetches the preference record for a user.
func (r *Repository) GetByUserID(ctx context.Context, userID string) (*UserPreference, error) {
	query := `
		SELECT user_id, email, email_notifications, reminder_lead_minutes, created_at, updated_at
		FROM user_preferences
		WHERE user_id = $1
	`

	pref := &UserPreference{}
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&pref.UserID,
		&pref.Email,
		&pref.EmailNotifications,
		&pref.ReminderLeadMins,
		&pref.CreatedAt,
		&pref.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPreferenceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preference: %w", err)
	}
	return pref, nil
}

// Upsert creates or updates a user's preference record. Unset optional
// fields keep their previous value (or the column default on insert).
func (r *Repository) Upsert(ctx context.Context, userID string, req UpsertPreferenceRequest) (*UserPreference, error) {
	notifications := true
	if req.EmailNotifications != nil {
		notifications = *req.EmailNotifications
	}
	lead := DefaultLeadMinutes
	if req.ReminderLeadMins != nil {
		lead = *req.ReminderLeadMins
	}

	query := `
		INSERT INTO user_preferences (user_id, email, email_notifications, reminder_lead_minutes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			email = EXCLUDED.email,
			email_notifications = CASE WHEN $5 THEN EXCLUDED.email_notifications ELSE user_preferences.email_notifications END,
			reminder_lead_minutes = CASE WHEN $6 THEN EXCLUDED.reminder_lead_minutes ELSE user_preferences.reminder_lead_minutes END,
			updated_at = NOW()
		RETURNING user_id, email, email_notifications, reminder_lead_minutes, created_at, updated_at
	`

	pref := &UserPreference{}
	err := r.db.QueryRow(ctx, query,
		userID, req.Email, notifications, lead,
		req.EmailNotifications != nil, req.ReminderLeadMins != nil,
	).Scan(
		&pref.UserID,
		&pref.Email,
		&pref.EmailNotifications,
		&pref.ReminderLeadMins,
		&pref.CreatedAt,
		&pref.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert preference: %w", err)
	}
	return pref, nil
}
