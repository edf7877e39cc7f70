package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mcutler/reeldeck/internal/models"
	"github.com/mcutler/reeldeck/internal/provider"
)

// SearchResponse is one page of free-text search results
type SearchResponse struct {
	Items []*models.MediaItem `json:"items"`
	Page  int                 `json:"page"`
}

// SearchHandler handles free-text media search requests
type SearchHandler struct {
	provider *provider.Client
}

// NewSearchHandler creates a new search handler instance
func NewSearchHandler(providerClient *provider.Client) *SearchHandler {
	return &SearchHandler{provider: providerClient}
}

// Search searches movies and shows by free-text query
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}

	page := 1
	if raw := c.Query("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
			return
		}
		page = parsed
	}

	items, err := h.provider.SearchMulti(c.Request.Context(), query, page)
	if err != nil {
		respondProviderError(c, err)
		return
	}

	c.JSON(http.StatusOK, SearchResponse{Items: items, Page: page})
}

// SetupSearchRoutes registers media search routes
func SetupSearchRoutes(apiGroup *gin.RouterGroup, providerClient *provider.Client) {
	handler := NewSearchHandler(providerClient)
	apiGroup.GET("/search", handler.Search)
}
