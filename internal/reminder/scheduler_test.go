package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"quiethours/internal/email"
	"quiethours/internal/prefs"
	"quiethours/internal/sessions"
)

// enabledPrefsForUser returns preferences only for the named user; everyone
// else resolves to not-found.
func enabledPrefsForUser(userID string, leadMinutes int) *mockPrefStore {
	enabled := enabledPrefs(leadMinutes)
	return &mockPrefStore{
		getFunc: func(ctx context.Context, id string) (*prefs.UserPreference, error) {
			if id != userID {
				return nil, prefs.ErrPreferenceNotFound
			}
			return enabled.getFunc(ctx, id)
		},
	}
}

func newTestScheduler(store *mockSessionStore, prefStore PreferenceStore, sender *mockSender, now time.Time) *Scheduler {
	c := NewCoordinator(store, prefStore, NewMatcher(time.UTC), sender, nil, testLogger())
	s := NewScheduler(c, store, time.UTC, 30*time.Second, 0, testLogger())
	s.now = func() time.Time { return now }
	return s
}

func TestScheduler_RunCycleTalliesOutcomes(t *testing.T) {
	now := time.Date(2026, 3, 10, 13, 50, 30, 0, time.UTC)

	due := []sessions.Session{
		{ID: uuid.New(), UserID: "user-1", Title: "Due now", Date: "2026-03-10", StartTime: "14:00", EndTime: "15:00"},
		{ID: uuid.New(), UserID: "user-1", Title: "Later today", Date: "2026-03-10", StartTime: "18:00", EndTime: "19:00"},
		{ID: uuid.New(), UserID: "nobody", Title: "Orphan", Date: "2026-03-10", StartTime: "14:00", EndTime: "15:00"},
	}

	var queriedDate string
	store := &mockSessionStore{
		dueFunc: func(ctx context.Context, date string) ([]sessions.Session, error) {
			queriedDate = date
			return due, nil
		},
	}
	sender := &mockSender{}

	s := newTestScheduler(store, enabledPrefsForUser("user-1", 10), sender, now)

	stats, err := s.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle returned error: %v", err)
	}

	if queriedDate != "2026-03-10" {
		t.Errorf("queried date %q, want 2026-03-10", queriedDate)
	}
	if stats.Scanned != 3 {
		t.Errorf("scanned = %d, want 3", stats.Scanned)
	}
	if stats.Delivered != 1 {
		t.Errorf("delivered = %d, want 1", stats.Delivered)
	}
	if stats.NotYetDue != 1 {
		t.Errorf("not yet due = %d, want 1", stats.NotYetDue)
	}
	if stats.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", stats.Skipped)
	}
	if sender.sentCount() != 1 {
		t.Errorf("sender called %d times, want 1", sender.sentCount())
	}
}

func TestScheduler_StoreErrorAbortsCycle(t *testing.T) {
	store := &mockSessionStore{
		dueFunc: func(ctx context.Context, date string) ([]sessions.Session, error) {
			return nil, errors.New("connection refused")
		},
	}
	s := newTestScheduler(store, &mockPrefStore{}, &mockSender{}, time.Now())

	if _, err := s.RunCycle(context.Background()); err == nil {
		t.Fatal("expected error when the store is unavailable")
	}
}

func TestScheduler_OneFailureDoesNotAbortSiblings(t *testing.T) {
	now := time.Date(2026, 3, 10, 13, 50, 0, 0, time.UTC)

	due := []sessions.Session{
		{ID: uuid.New(), UserID: "user-1", Title: "Bad clock", Date: "2026-03-10", StartTime: "9x:00", EndTime: "15:00"},
		{ID: uuid.New(), UserID: "user-1", Title: "Fine", Date: "2026-03-10", StartTime: "14:00", EndTime: "15:00"},
	}
	store := &mockSessionStore{
		dueFunc: func(ctx context.Context, date string) ([]sessions.Session, error) {
			return due, nil
		},
	}
	sender := &mockSender{}
	s := newTestScheduler(store, enabledPrefsForUser("user-1", 10), sender, now)

	stats, err := s.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle returned error: %v", err)
	}
	if stats.Failed != 1 {
		t.Errorf("failed = %d, want 1", stats.Failed)
	}
	if stats.Delivered != 1 {
		t.Errorf("delivered = %d, want 1: the healthy sibling must still dispatch", stats.Delivered)
	}
}

// A notifier that hangs must not stall the scan cadence: the cycle's soft
// timeout cuts the send off after one period and the claim is released so
// the next cycle can retry.
func TestScheduler_StuckSenderBoundedByCycleTimeout(t *testing.T) {
	now := time.Date(2026, 3, 10, 13, 50, 30, 0, time.UTC)

	store := &mockSessionStore{
		dueFunc: func(ctx context.Context, date string) ([]sessions.Session, error) {
			return []sessions.Session{
				{ID: uuid.New(), UserID: "user-1", Title: "Deep work", Date: "2026-03-10", StartTime: "14:00", EndTime: "15:00"},
			}, nil
		},
	}
	sender := &mockSender{
		sendFunc: func(ctx context.Context, r email.Reminder) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}

	s := newTestScheduler(store, enabledPrefsForUser("user-1", 10), sender, now)
	s.interval = 50 * time.Millisecond

	started := time.Now()
	stats, err := s.RunCycle(context.Background())
	elapsed := time.Since(started)

	if err != nil {
		t.Fatalf("RunCycle returned error: %v", err)
	}
	if elapsed > 2*time.Second {
		t.Fatalf("cycle took %v with a hung sender, want return within roughly one period", elapsed)
	}
	if stats.Failed != 1 {
		t.Errorf("failed = %d, want 1", stats.Failed)
	}
	if store.releaseCalls.Load() != 1 {
		t.Errorf("release called %d times, want 1: the aborted send must free the claim", store.releaseCalls.Load())
	}
}

func TestScheduler_Status(t *testing.T) {
	store := &mockSessionStore{}
	s := newTestScheduler(store, &mockPrefStore{}, &mockSender{}, time.Now())

	status := s.Status()
	if status.IsRunning {
		t.Error("scheduler reports running before Start")
	}
	if status.Cadence != "every 30s" {
		t.Errorf("cadence = %q, want %q", status.Cadence, "every 30s")
	}
	if status.LastCycleAt != nil {
		t.Error("last cycle timestamp set before any cycle ran")
	}

	if _, err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle returned error: %v", err)
	}

	if s.Status().LastCycleAt == nil {
		t.Error("last cycle timestamp missing after a cycle")
	}
}

func TestScheduler_StartStopsOnCancel(t *testing.T) {
	store := &mockSessionStore{}
	s := newTestScheduler(store, &mockPrefStore{}, &mockSender{}, time.Now())
	s.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	// Let it pass the startup delay and fire at least once.
	deadline := time.After(2 * time.Second)
	for !s.Status().IsRunning {
		select {
		case <-deadline:
			t.Fatal("scheduler never started")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}

	if s.Status().IsRunning {
		t.Error("scheduler still reports running after Start returned")
	}
}
