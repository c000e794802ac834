package sessions

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Store is the record-management slice of the session repository.
type Store interface {
	Create(ctx context.Context, req CreateSessionRequest) (*Session, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)
	ListByUser(ctx context.Context, userID string) ([]Session, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateSessionRequest) (*Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Handler handles HTTP requests for sessions
type Handler struct {
	repo   Store
	loc    *time.Location
	logger *slog.Logger
}

// NewHandler creates a new sessions handler
func NewHandler(repo Store, loc *time.Location, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, loc: loc, logger: logger}
}

// CreateSession handles POST /sessions
func (h *Handler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request body: " + err.Error(),
		})
		return
	}

	session, err := h.repo.Create(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("Failed to create session", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Success: false,
			Error:   "Failed to create session",
		})
		return
	}

	c.JSON(http.StatusCreated, SessionResponse{
		Success: true,
		Message: "Session created successfully",
		Data:    session,
	})
}

// GetSessions handles GET /sessions?user_id=
func (h *Handler) GetSessions(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "user_id is required",
		})
		return
	}

	list, err := h.repo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list sessions", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Success: false,
			Error:   "Failed to retrieve sessions",
		})
		return
	}

	now := time.Now().In(h.loc)
	views := make([]SessionView, 0, len(list))
	for _, s := range list {
		views = append(views, SessionView{Session: s, Status: StatusOf(s, now)})
	}
	sortViews(views)

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"sessions": views,
	})
}

// GetSession handles GET /sessions/:id
func (h *Handler) GetSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid session ID",
		})
		return
	}

	session, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Success: false,
				Error:   "Session not found",
			})
			return
		}
		h.logger.Error("Failed to get session", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Success: false,
			Error:   "Failed to retrieve session",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    SessionView{Session: *session, Status: StatusOf(*session, time.Now().In(h.loc))},
	})
}

// UpdateSession handles PUT /sessions/:id
func (h *Handler) UpdateSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid session ID",
		})
		return
	}

	var req UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request body: " + err.Error(),
		})
		return
	}

	session, err := h.repo.Update(c.Request.Context(), id, req)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Success: false,
				Error:   "Session not found",
			})
			return
		}
		h.logger.Error("Failed to update session", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Success: false,
			Error:   "Failed to update session",
		})
		return
	}

	c.JSON(http.StatusOK, SessionResponse{
		Success: true,
		Message: "Session updated successfully",
		Data:    session,
	})
}

// DeleteSession handles DELETE /sessions/:id
func (h *Handler) DeleteSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid session ID",
		})
		return
	}

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Success: false,
				Error:   "Session not found",
			})
			return
		}
		h.logger.Error("Failed to delete session", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Success: false,
			Error:   "Failed to delete session",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Session deleted successfully",
	})
}

// sortViews orders upcoming sessions first (soonest first), then completed
// sessions (most recent first).
func sortViews(views []SessionView) {
	priority := func(s Status) int {
		if s == StatusUpcoming {
			return 0
		}
		return 1
	}

	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i], views[j]
		if priority(a.Status) != priority(b.Status) {
			return priority(a.Status) < priority(b.Status)
		}
		if a.Status == StatusUpcoming {
			if a.Date != b.Date {
				return a.Date < b.Date
			}
			return a.StartTime < b.StartTime
		}
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		return a.StartTime > b.StartTime
	})
}
