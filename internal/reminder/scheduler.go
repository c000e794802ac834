package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// CycleStats tallies per-session outcomes for one scan-and-dispatch cycle.
type CycleStats struct {
	Scanned          int `json:"scanned"`
	Delivered        int `json:"delivered"`
	AlreadyDelivered int `json:"already_delivered"`
	Skipped          int `json:"skipped"`
	NotYetDue        int `json:"not_yet_due"`
	Missed           int `json:"missed"`
	Failed           int `json:"failed"`
}

// Status is the scheduler's liveness snapshot.
type Status struct {
	IsRunning   bool       `json:"is_running"`
	Cadence     string     `json:"cadence"`
	Description string     `json:"description"`
	LastCycleAt *time.Time `json:"last_cycle_at,omitempty"`
}

// Scheduler drives periodic scan-and-dispatch cycles. The timer and the
// manual trigger both go through RunCycle, so they behave identically.
type Scheduler struct {
	coordinator  *Coordinator
	store        SessionStore
	loc          *time.Location
	interval     time.Duration
	startupDelay time.Duration
	logger       *slog.Logger

	// now is the clock seam for tests; defaults to time.Now.
	now func() time.Time

	mu          sync.Mutex
	running     bool
	lastCycleAt time.Time
}

// NewScheduler creates a scheduler firing a cycle every interval, beginning
// startupDelay after Start is called (so the store connection can warm up
// before the first scan).
func NewScheduler(
	coordinator *Coordinator,
	store SessionStore,
	loc *time.Location,
	interval, startupDelay time.Duration,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		coordinator:  coordinator,
		store:        store,
		loc:          loc,
		interval:     interval,
		startupDelay: startupDelay,
		logger:       logger,
		now:          time.Now,
	}
}

// Start runs the periodic loop until ctx is cancelled. Cancellation stops
// new cycles; a cycle already underway finishes first because cycles run
// synchronously inside the loop.
func (s *Scheduler) Start(ctx context.Context) {
	select {
	case <-time.After(s.startupDelay):
	case <-ctx.Done():
		return
	}

	s.setRunning(true)
	defer s.setRunning(false)

	s.logger.Info("Reminder scheduler started", "interval", s.interval.String())

	// Initial check right after the warm-up delay, matching a fresh
	// deployment's expectation of a prompt first scan.
	s.runAndLog()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Reminder scheduler stopped")
			return
		case <-ticker.C:
			s.runAndLog()
		}
	}
}

func (s *Scheduler) runAndLog() {
	// Detached from the loop's context so a shutdown mid-cycle lets the
	// cycle complete instead of tearing down half-dispatched sessions.
	if _, err := s.RunCycle(context.Background()); err != nil {
		s.logger.Error("Scan cycle aborted", "error", err)
	}
}

// RunCycle executes one scan-and-dispatch cycle: fetch today's undelivered
// sessions, then run each through the delivery coordinator. A store failure
// on the initial query aborts the whole cycle (retried on the next tick);
// anything after that is isolated per session.
//
// The cycle is bounded by a soft timeout of one interval so a stuck notifier
// or store cannot stall the wall-clock cadence indefinitely.
func (s *Scheduler) RunCycle(ctx context.Context) (CycleStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	now := s.now().In(s.loc)
	today := now.Format("2006-01-02")

	stats := CycleStats{}

	due, err := s.store.DueToday(ctx, today)
	if err != nil {
		return stats, fmt.Errorf("fetching undelivered sessions for %s: %w", today, err)
	}

	s.logger.Debug("Scan cycle started", "date", today, "candidates", len(due))

	for _, session := range due {
		stats.Scanned++

		outcome := s.coordinator.Dispatch(ctx, now, session)
		switch outcome {
		case OutcomeDelivered:
			stats.Delivered++
		case OutcomeAlreadyDelivered:
			stats.AlreadyDelivered++
		case OutcomeSkipped:
			stats.Skipped++
		case OutcomeNotYetDue:
			stats.NotYetDue++
		case OutcomeMissed:
			stats.Missed++
		case OutcomeFailed:
			stats.Failed++
		}

		s.logger.Debug("Session evaluated",
			"session_id", session.ID,
			"title", session.Title,
			"start_time", session.StartTime,
			"outcome", string(outcome))
	}

	s.mu.Lock()
	s.lastCycleAt = s.now()
	s.mu.Unlock()

	if stats.Delivered > 0 || stats.Failed > 0 {
		s.logger.Info("Scan cycle finished",
			"scanned", stats.Scanned,
			"delivered", stats.Delivered,
			"failed", stats.Failed)
	}

	return stats, nil
}

// Status returns the scheduler's liveness snapshot.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		IsRunning:   s.running,
		Cadence:     fmt.Sprintf("every %s", s.interval),
		Description: "Checks for sessions that need email reminders before their start time",
	}
	if !s.lastCycleAt.IsZero() {
		t := s.lastCycleAt
		status.LastCycleAt = &t
	}
	return status
}

func (s *Scheduler) setRunning(v bool) {
	s.mu.Lock()
	s.running = v
	s.mu.Unlock()
}
