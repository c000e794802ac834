package reminder

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"quiethours/internal/email"
	"quiethours/internal/prefs"
	"quiethours/internal/sessions"
)

// SessionStore is the slice of the session store the dispatch engine needs.
// ClaimReminder must be atomic at the store level (compare-and-set): that
// atomicity, not anything in this process, is what makes concurrent engine
// instances safe against double-sending.
type SessionStore interface {
	DueToday(ctx context.Context, date string) ([]sessions.Session, error)
	ClaimReminder(ctx context.Context, id uuid.UUID, at time.Time, to string) (bool, error)
	ReleaseReminder(ctx context.Context, id uuid.UUID) error
}

// PreferenceStore resolves a session owner's notification settings.
// Read-only from the engine's perspective.
type PreferenceStore interface {
	GetByUserID(ctx context.Context, userID string) (*prefs.UserPreference, error)
}

// Outcome is the per-session result of one dispatch attempt.
type Outcome string

const (
	OutcomeDelivered        Outcome = "delivered"
	OutcomeAlreadyDelivered Outcome = "already-delivered"
	OutcomeSkipped          Outcome = "skipped"
	OutcomeNotYetDue        Outcome = "not-yet-due"
	OutcomeMissed           Outcome = "missed"
	OutcomeFailed           Outcome = "failed"
)

// Coordinator delivers at most one reminder per session. It claims the
// session with the store's conditional update before sending, and rolls the
// claim back if the send fails.
//
// Claim-before-send is deliberate: send-then-mark double-sends under
// concurrent scans, whereas here the brief window where a session is marked
// sent without a confirmed email is bounded by the compensating rollback.
type Coordinator struct {
	store   SessionStore
	prefs   PreferenceStore
	matcher *Matcher
	sender  email.Sender
	journal *Journal
	logger  *slog.Logger
}

// NewCoordinator creates a delivery coordinator. journal may be nil.
func NewCoordinator(
	store SessionStore,
	prefStore PreferenceStore,
	matcher *Matcher,
	sender email.Sender,
	journal *Journal,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		store:   store,
		prefs:   prefStore,
		matcher: matcher,
		sender:  sender,
		journal: journal,
		logger:  logger,
	}
}

// Dispatch evaluates and, when eligible, delivers the reminder for a single
// session. It never returns an error: every failure is contained here so one
// bad session cannot abort the scan of its siblings.
func (c *Coordinator) Dispatch(ctx context.Context, now time.Time, s sessions.Session) Outcome {
	outcome := c.dispatch(ctx, now, s)
	c.journal.Record(ctx, s.ID, outcome)
	return outcome
}

func (c *Coordinator) dispatch(ctx context.Context, now time.Time, s sessions.Session) Outcome {
	pref, err := c.prefs.GetByUserID(ctx, s.UserID)
	if err != nil {
		if errors.Is(err, prefs.ErrPreferenceNotFound) {
			c.logger.Debug("No preference record for session owner, skipping",
				"session_id", s.ID, "user_id", s.UserID)
			return OutcomeSkipped
		}
		c.logger.Error("Failed to resolve preferences",
			"session_id", s.ID, "user_id", s.UserID, "error", err)
		return OutcomeFailed
	}

	if !pref.EmailNotifications {
		c.logger.Debug("Email notifications disabled, skipping",
			"session_id", s.ID, "user_id", s.UserID)
		return OutcomeSkipped
	}

	eligibility, err := c.matcher.Evaluate(now, s.Date, s.StartTime, pref.ReminderLeadMins)
	if err != nil {
		c.logger.Error("Failed to evaluate reminder window",
			"session_id", s.ID, "start_time", s.StartTime, "error", err)
		return OutcomeFailed
	}

	switch eligibility {
	case NotYetDue:
		return OutcomeNotYetDue
	case WindowMissed:
		return OutcomeMissed
	case WrongDay:
		return OutcomeSkipped
	}

	// Claim first. Of any number of concurrent scans, exactly one gets
	// claimed=true here; the rest abort silently with nothing sent.
	claimed, err := c.store.ClaimReminder(ctx, s.ID, now, pref.Email)
	if err != nil {
		c.logger.Error("Failed to claim reminder",
			"session_id", s.ID, "error", err)
		return OutcomeFailed
	}
	if !claimed {
		c.logger.Debug("Reminder already claimed by another execution",
			"session_id", s.ID)
		return OutcomeAlreadyDelivered
	}

	description := ""
	if s.Description != nil {
		description = *s.Description
	}

	err = c.sender.SendSessionReminder(ctx, email.Reminder{
		To:          pref.Email,
		Title:       s.Title,
		Date:        FormatDate(s.Date),
		StartTime:   FormatClock(s.StartTime),
		EndTime:     FormatClock(s.EndTime),
		Description: description,
		LeadMinutes: pref.ReminderLeadMins,
	})
	if err != nil {
		c.logger.Warn("Reminder email failed, releasing claim",
			"session_id", s.ID, "to", pref.Email, "error", err)

		// Best-effort rollback so the next cycle can retry the send. Runs on
		// a detached context: if the send failed because the cycle deadline
		// expired, the same expiry must not doom the rollback too.
		if rbErr := c.store.ReleaseReminder(context.WithoutCancel(ctx), s.ID); rbErr != nil {
			// The session now claims a delivery that never happened and no
			// further remediation runs. Surfaced via logs only.
			c.logger.Error("Rollback failed; session marked delivered without a sent email",
				"session_id", s.ID, "error", rbErr)
		}
		return OutcomeFailed
	}

	c.logger.Info("Reminder delivered",
		"session_id", s.ID, "title", s.Title, "to", pref.Email)
	return OutcomeDelivered
}
