package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"quiethours/internal/database"
)

var ErrSessionNotFound = errors.New("session not found")

const sessionColumns = `id, user_id, title, date::text, start_time, end_time, description,
		reminder_sent, reminder_sent_at, reminder_sent_to, created_at, updated_at`

// Repository handles all database operations for sessions
type Repository struct {
	db database.Service
}

// NewRepository creates a new sessions repository
func NewRepository(db database.Service) *Repository {
	return &Repository{db: db}
}

// Create inserts a new session. New sessions always start undelivered.
func (r *Repository) Create(ctx context.Context, req CreateSessionRequest) (*Session, error) {
	query := `
		INSERT INTO sessions (user_id, title, date, start_time, end_time, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + sessionColumns

	session, err := r.scanRow(r.db.QueryRow(ctx, query,
		req.UserID, req.Title, req.Date, req.StartTime, req.EndTime, req.Description))
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// GetByID retrieves a single session by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

	session, err := r.scanRow(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// ListByUser retrieves all sessions belonging to a user, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE user_id = $1
		ORDER BY date DESC, start_time DESC
	`
	return r.queryRows(ctx, query, userID)
}

// Update reschedules a session. Delivery-tracking fields are never touched
// here; the dispatch engine owns them.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, req UpdateSessionRequest) (*Session, error) {
	updates := map[string]any{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Date != nil {
		updates["date"] = *req.Date
	}
	if req.StartTime != nil {
		updates["start_time"] = *req.StartTime
	}
	if req.EndTime != nil {
		updates["end_time"] = *req.EndTime
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if len(updates) == 0 {
		return r.GetByID(ctx, id)
	}

	query := `UPDATE sessions SET `
	args := []any{}
	argPos := 1

	for field, value := range updates {
		if argPos > 1 {
			query += ", "
		}
		query += fmt.Sprintf("%s = $%d", field, argPos)
		args = append(args, value)
		argPos++
	}

	query += fmt.Sprintf(`, updated_at = NOW() WHERE id = $%d RETURNING `+sessionColumns, argPos)
	args = append(args, id)

	session, err := r.scanRow(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	return session, nil
}

// Delete removes a session
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DueToday returns the sessions on the given calendar date (YYYY-MM-DD) whose
// reminder has not been delivered yet. The database does the filtering; no
// client-side table scan.
func (r *Repository) DueToday(ctx context.Context, date string) ([]Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE date = $1 AND reminder_sent = FALSE
	`
	return r.queryRows(ctx, query, date)
}

// ClaimReminder atomically marks a session's reminder as delivered. The
// WHERE clause makes this a compare-and-set: of any number of concurrent
// callers, exactly one observes claimed=true, so at most one email is ever
// sent per session.
func (r *Repository) ClaimReminder(ctx context.Context, id uuid.UUID, at time.Time, to string) (bool, error) {
	query := `
		UPDATE sessions
		SET reminder_sent = TRUE, reminder_sent_at = $2, reminder_sent_to = $3
		WHERE id = $1 AND reminder_sent = FALSE
	`
	tag, err := r.db.Exec(ctx, query, id, at, to)
	if err != nil {
		return false, fmt.Errorf("failed to claim reminder: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ReleaseReminder clears all three delivery-tracking fields, returning the
// session to an undelivered state. Used as the compensating rollback when a
// claimed send fails, and by the operational reset route.
func (r *Repository) ReleaseReminder(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE sessions
		SET reminder_sent = FALSE, reminder_sent_at = NULL, reminder_sent_to = NULL
		WHERE id = $1
	`
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to release reminder: %w", err)
	}
	return nil
}

func (r *Repository) scanRow(row pgx.Row) (*Session, error) {
	session := &Session{}
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Title,
		&session.Date,
		&session.StartTime,
		&session.EndTime,
		&session.Description,
		&session.ReminderSent,
		&session.ReminderSentAt,
		&session.ReminderSentTo,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (r *Repository) queryRows(ctx context.Context, query string, args ...any) ([]Session, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	list := []Session{}
	for rows.Next() {
		var session Session
		err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.Title,
			&session.Date,
			&session.StartTime,
			&session.EndTime,
			&session.Description,
			&session.ReminderSent,
			&session.ReminderSentAt,
			&session.ReminderSentTo,
			&session.CreatedAt,
			&session.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		list = append(list, session)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	return list, nil
}
