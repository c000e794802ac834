package prefs

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Store is the preference access surface the handler needs.
type Store interface {
	GetByUserID(ctx context.Context, userID string) (*UserPreference, error)
	Upsert(ctx context.Context, userID string, req UpsertPreferenceRequest) (*UserPreference, error)
}

// Handler handles HTTP requests for user preferences
type Handler struct {
	repo   Store
	logger *slog.Logger
}

// NewHandler creates a new preferences handler
func NewHandler(repo Store, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// GetPreference handles GET /preferences/:user_id
func (h *Handler) GetPreference(c *gin.Context) {
	userID := c.Param("user_id")

	pref, err := h.repo.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrPreferenceNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Success: false,
				Error:   "Preference not found",
			})
			return
		}
		h.logger.Error("Failed to get preference", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Success: false,
			Error:   "Failed to retrieve preference",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    pref,
	})
}

// UpsertPreference handles PUT /preferences/:user_id
func (h *Handler) UpsertPreference(c *gin.Context) {
	userID := c.Param("user_id")

	var req UpsertPreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request body: " + err.Error(),
		})
		return
	}

	pref, err := h.repo.Upsert(c.Request.Context(), userID, req)
	if err != nil {
		h.logger.Error("Failed to upsert preference", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Success: false,
			Error:   "Failed to save preference",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    pref,
	})
}
