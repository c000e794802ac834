package reminder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"quiethours/internal/sessions"
)

func newOpsRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/cycles/status", h.CycleStatus)
	r.POST("/cycles", h.RunCycle)
	r.POST("/sessions/:id/reset-reminder", h.ResetReminder)
	r.GET("/sessions/:id/outcome", h.DeliveryOutcome)
	r.GET("/stats", h.Stats)
	return r
}

func TestHandler_CycleStatus(t *testing.T) {
	store := &mockSessionStore{}
	s := newTestScheduler(store, &mockPrefStore{}, &mockSender{}, time.Now())
	h := NewHandler(s, store, nil, nil, "", testLogger())
	r := newOpsRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cycles/status", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", w.Code)
	}

	var resp struct {
		Success bool   `json:"success"`
		Cycle   Status `json:"cycle"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Error("success = false")
	}
	if resp.Cycle.Cadence != "every 30s" {
		t.Errorf("cadence = %q", resp.Cycle.Cadence)
	}
	if resp.Cycle.IsRunning {
		t.Error("is_running = true for a scheduler that was never started")
	}
}

func TestHandler_RunCycleRequiresToken(t *testing.T) {
	store := &mockSessionStore{}
	s := newTestScheduler(store, &mockPrefStore{}, &mockSender{}, time.Now())
	h := NewHandler(s, store, nil, nil, "secret", testLogger())
	r := newOpsRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/cycles", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status code without token = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/cycles", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status code with token = %d, want 200", w.Code)
	}
}

func TestHandler_RunCycleDispatches(t *testing.T) {
	now := time.Date(2026, 3, 10, 13, 50, 0, 0, time.UTC)
	store := &mockSessionStore{
		dueFunc: func(ctx context.Context, date string) ([]sessions.Session, error) {
			return []sessions.Session{
				{ID: uuid.New(), UserID: "user-1", Title: "Due", Date: "2026-03-10", StartTime: "14:00", EndTime: "15:00"},
			}, nil
		},
	}
	sender := &mockSender{}
	s := newTestScheduler(store, enabledPrefsForUser("user-1", 10), sender, now)
	h := NewHandler(s, store, nil, nil, "", testLogger())
	r := newOpsRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/cycles", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", w.Code)
	}

	var resp struct {
		Success bool       `json:"success"`
		Stats   CycleStats `json:"stats"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Stats.Delivered != 1 {
		t.Errorf("delivered = %d, want 1", resp.Stats.Delivered)
	}
	if sender.sentCount() != 1 {
		t.Errorf("sender called %d times, want 1", sender.sentCount())
	}
}

func TestHandler_ResetReminder(t *testing.T) {
	store := &mockSessionStore{}
	s := newTestScheduler(store, &mockPrefStore{}, &mockSender{}, time.Now())
	h := NewHandler(s, store, nil, nil, "", testLogger())
	r := newOpsRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/sessions/not-a-uuid/reset-reminder", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status code for bad id = %d, want 400", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/sessions/"+uuid.NewString()+"/reset-reminder", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", w.Code)
	}
	if store.releaseCalls.Load() != 1 {
		t.Errorf("release called %d times, want 1", store.releaseCalls.Load())
	}
}

func TestHandler_DeliveryOutcome(t *testing.T) {
	store := &mockSessionStore{}
	s := newTestScheduler(store, &mockPrefStore{}, &mockSender{}, time.Now())
	h := NewHandler(s, store, nil, nil, "", testLogger())
	r := newOpsRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sessions/not-a-uuid/outcome", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status code for bad id = %d, want 400", w.Code)
	}

	// No journal configured: every lookup is a miss, never a crash.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sessions/"+uuid.NewString()+"/outcome", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status code = %d, want 404", w.Code)
	}
}

func TestHandler_StatsWithoutJournal(t *testing.T) {
	store := &mockSessionStore{}
	s := newTestScheduler(store, &mockPrefStore{}, &mockSender{}, time.Now())
	h := NewHandler(s, store, nil, nil, "", testLogger())
	r := newOpsRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", w.Code)
	}

	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if enabled, _ := resp["journal_enabled"].(bool); enabled {
		t.Error("journal_enabled = true with no journal configured")
	}
}
