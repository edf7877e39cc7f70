package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mcutler/reeldeck/internal/library"
	"github.com/mcutler/reeldeck/internal/models"
)

// SetRatingRequest sets the personal rating on a classified item
type SetRatingRequest struct {
	Rating int `json:"rating" binding:"required,min=1,max=5"`
}

// LibraryListResponse is one page of a library view
type LibraryListResponse struct {
	Items []*models.ClassifiedItem `json:"items"`
}

// LibraryHandler handles classified library API requests
type LibraryHandler struct {
	library *library.Service
}

// NewLibraryHandler creates a new library handler instance
func NewLibraryHandler(libraryService *library.Service) *LibraryHandler {
	return &LibraryHandler{library: libraryService}
}

// List returns one library view (seen, watchlisted, or skipped), newest first
func (h *LibraryHandler) List(c *gin.Context) {
	direction := models.Direction(c.DefaultQuery("direction", string(models.DirectionWatchlisted)))

	limit, offset := 0, 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}
	if raw := c.Query("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
			return
		}
		offset = parsed
	}

	items, err := h.library.ListByDirection(c.Request.Context(), direction, limit, offset)
	if err != nil {
		if !direction.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid direction"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list library"})
		return
	}

	c.JSON(http.StatusOK, LibraryListResponse{Items: items})
}

// Get returns a single classified item
func (h *LibraryHandler) Get(c *gin.Context) {
	item, err := h.library.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if library.IsNotClassified(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get item"})
		return
	}
	c.JSON(http.StatusOK, item)
}

// SetRating sets the personal rating on a classified item
func (h *LibraryHandler) SetRating(c *gin.Context) {
	var req SetRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.library.SetPersonalRating(c.Request.Context(), c.Param("id"), req.Rating); err != nil {
		switch {
		case library.IsNotClassified(err):
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		case library.IsInvalidRating(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": "rating must be between 1 and 5"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to set rating"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// Remove deletes a classified item and all of its list memberships
func (h *LibraryHandler) Remove(c *gin.Context) {
	if err := h.library.Remove(c.Request.Context(), c.Param("id")); err != nil {
		if library.IsNotClassified(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove item"})
		return
	}

	c.Status(http.StatusNoContent)
}

// SetupLibraryRoutes registers classified library routes
func SetupLibraryRoutes(apiGroup *gin.RouterGroup, libraryService *library.Service) {
	handler := NewLibraryHandler(libraryService)
	apiGroup.GET("/library", handler.List)
	apiGroup.GET("/library/:id", handler.Get)
	apiGroup.PUT("/library/:id/rating", handler.SetRating)
	apiGroup.DELETE("/library/:id", handler.Remove)
}
