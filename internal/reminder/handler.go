package reminder

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"quiethours/internal/database"
)

// Handler exposes the engine's operational surface: health, cycle status,
// manual trigger, delivery-field reset and journal stats. None of these are
// part of the dispatch correctness contract.
type Handler struct {
	scheduler    *Scheduler
	store        SessionStore
	db           database.Service
	journal      *Journal
	triggerToken string
	logger       *slog.Logger
}

// NewHandler creates the operational handler. triggerToken guards the manual
// trigger when non-empty; journal may be nil.
func NewHandler(
	scheduler *Scheduler,
	store SessionStore,
	db database.Service,
	journal *Journal,
	triggerToken string,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		scheduler:    scheduler,
		store:        store,
		db:           db,
		journal:      journal,
		triggerToken: triggerToken,
		logger:       logger,
	}
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	dbStatus := "connected"
	if err := h.db.Health(ctx); err != nil {
		dbStatus = "disconnected"
		h.logger.Error("Database health check failed", "error", err)
	}

	journalStatus := "disabled"
	if h.journal != nil {
		journalStatus = "connected"
		if err := h.journal.Ping(ctx); err != nil {
			journalStatus = "disconnected"
		}
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if dbStatus != "connected" {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"service":   "reminder-engine",
		"database":  dbStatus,
		"journal":   journalStatus,
		"timestamp": time.Now().UTC(),
	})
}

// CycleStatus handles GET /cycles/status
func (h *Handler) CycleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"cycle":     h.scheduler.Status(),
		"timestamp": time.Now().UTC(),
	})
}

// RunCycle handles POST /cycles: one synchronous scan-and-dispatch cycle
// outside the timer, through the exact same code path the timer uses.
func (h *Handler) RunCycle(c *gin.Context) {
	if h.triggerToken != "" {
		if c.GetHeader("Authorization") != "Bearer "+h.triggerToken {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Unauthorized",
			})
			return
		}
	}

	h.logger.Info("Manual reminder cycle triggered")

	stats, err := h.scheduler.RunCycle(c.Request.Context())
	if err != nil {
		h.logger.Error("Manual cycle failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Reminder check failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Reminder check completed",
		"stats":     stats,
		"timestamp": time.Now().UTC(),
	})
}

// ResetReminder handles POST /sessions/:id/reset-reminder: clears the
// delivery-tracking fields on one session so the next cycle re-evaluates it.
// Operational/testing route only.
func (h *Handler) ResetReminder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid session ID",
		})
		return
	}

	if err := h.store.ReleaseReminder(c.Request.Context(), id); err != nil {
		h.logger.Error("Failed to reset reminder", "session_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to reset reminder",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Reminder flags cleared",
	})
}

// DeliveryOutcome handles GET /sessions/:id/outcome: the last journaled
// dispatch outcome for one session, while the record is still within its TTL.
func (h *Handler) DeliveryOutcome(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid session ID",
		})
		return
	}

	entry, err := h.journal.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrOutcomeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   "No dispatch outcome recorded for this session",
			})
			return
		}
		h.logger.Error("Failed to read journaled outcome", "session_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to retrieve outcome",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"session_id":  id,
		"outcome":     entry.Outcome,
		"recorded_at": entry.RecordedAt,
	})
}

// Stats handles GET /stats
func (h *Handler) Stats(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusOK, gin.H{
			"success":         true,
			"journal_enabled": false,
		})
		return
	}

	count, err := h.journal.Count(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to read journal stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to retrieve stats",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"journal_enabled": true,
		"journal_records": count,
		"ttl_hours":       int(h.journal.TTL().Hours()),
	})
}
