package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mcutler/reeldeck/internal/library"
	"github.com/mcutler/reeldeck/internal/models"
	"github.com/mcutler/reeldeck/internal/provider"
	"github.com/mcutler/reeldeck/internal/queue"
)

// Request/Response DTOs

// SwipeRequest classifies the candidate currently at the top of the deck
type SwipeRequest struct {
	Item           MediaItemRequest `json:"item" binding:"required"`
	Direction      string           `json:"direction" binding:"required"`
	SourcePlatform *string          `json:"source_platform,omitempty"`
}

// MediaItemRequest carries the provider candidate being classified
type MediaItemRequest struct {
	ExternalID  int64    `json:"external_id" binding:"required"`
	MediaKind   string   `json:"media_kind" binding:"required,oneof=movie show"`
	Title       string   `json:"title" binding:"required"`
	Overview    string   `json:"overview"`
	PosterPath  *string  `json:"poster_path,omitempty"`
	ReleaseDate *string  `json:"release_date,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	GenreIDs    []int64  `json:"genre_ids,omitempty"`
}

// FiltersRequest switches the deck's browsing context (debounced)
type FiltersRequest struct {
	Method            string  `json:"method" binding:"required"`
	ContentType       string  `json:"content_type" binding:"required,oneof=movie show"`
	GenreID           *int64  `json:"genre_id,omitempty"`
	Sort              string  `json:"sort,omitempty"`
	YearMin           *int    `json:"year_min,omitempty"`
	YearMax           *int    `json:"year_max,omitempty"`
	IncludeClassified bool    `json:"include_classified"`
}

// DeckResponse is a snapshot of the candidate queue
type DeckResponse struct {
	Items        []*models.MediaItem `json:"items"`
	QueueSize    int                 `json:"queue_size"`
	EndOfContent bool                `json:"end_of_content"`
}

// UndoResponse returns the item restored to the front of the deck
type UndoResponse struct {
	Item *models.MediaItem `json:"item"`
}

func (r MediaItemRequest) toModel() *models.MediaItem {
	return &models.MediaItem{
		ExternalID:  r.ExternalID,
		MediaKind:   models.MediaKind(r.MediaKind),
		Title:       r.Title,
		Overview:    r.Overview,
		PosterPath:  r.PosterPath,
		ReleaseDate: r.ReleaseDate,
		Rating:      r.Rating,
		GenreIDs:    r.GenreIDs,
	}
}

// DeckHandler handles swipe deck API requests
type DeckHandler struct {
	engine  *queue.Engine
	library *library.Service
}

// NewDeckHandler creates a new deck handler instance
func NewDeckHandler(engine *queue.Engine, libraryService *library.Service) *DeckHandler {
	return &DeckHandler{
		engine:  engine,
		library: libraryService,
	}
}

// GetDeck returns the current candidate queue, triggering a refill when the
// queue is empty and content remains
func (h *DeckHandler) GetDeck(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	if h.engine.Size() == 0 && !h.engine.EndOfContent() {
		if err := h.engine.Refill(c.Request.Context()); err != nil {
			respondProviderError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, DeckResponse{
		Items:        h.engine.Items(limit),
		QueueSize:    h.engine.Size(),
		EndOfContent: h.engine.EndOfContent(),
	})
}

// Swipe classifies a candidate and removes it from the deck
func (h *DeckHandler) Swipe(c *gin.Context) {
	var req SwipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	direction := models.Direction(req.Direction)
	if !direction.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid direction"})
		return
	}

	item := req.Item.toModel()
	record, err := h.library.Classify(c.Request.Context(), item, direction, req.SourcePlatform)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to classify item"})
		return
	}

	if err := h.engine.RemoveAndRefill(c.Request.Context(), item.UniqueID()); err != nil {
		// Classification is durable; a failed refill only means a shorter deck
		respondProviderError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// Undo reverses the most recent classification and re-inserts the item at
// the front of the deck
func (h *DeckHandler) Undo(c *gin.Context) {
	item, err := h.library.UndoLast(c.Request.Context())
	if err != nil {
		if library.IsNothingToUndo(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "nothing to undo"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to undo"})
		return
	}

	h.engine.PushFront(item)
	c.JSON(http.StatusOK, UndoResponse{Item: item})
}

// SetFilters schedules a debounced browsing-context switch
func (h *DeckHandler) SetFilters(c *gin.Context) {
	var req FiltersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.engine.SetFilters(queue.Filters{
		Method:            req.Method,
		ContentType:       models.MediaKind(req.ContentType),
		GenreID:           req.GenreID,
		Sort:              req.Sort,
		YearMin:           req.YearMin,
		YearMax:           req.YearMax,
		IncludeClassified: req.IncludeClassified,
	})

	c.Status(http.StatusAccepted)
}

// Refresh clears the deck and refills immediately, bypassing the debounce
func (h *DeckHandler) Refresh(c *gin.Context) {
	if err := h.engine.ResetAndRefill(c.Request.Context()); err != nil {
		respondProviderError(c, err)
		return
	}

	c.JSON(http.StatusOK, DeckResponse{
		Items:        h.engine.Items(0),
		QueueSize:    h.engine.Size(),
		EndOfContent: h.engine.EndOfContent(),
	})
}

// respondProviderError maps provider failures onto HTTP statuses; an offline
// state is distinguishable from a provider-side failure
func respondProviderError(c *gin.Context, err error) {
	switch {
	case provider.IsConnectivity(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no network connection"})
	case provider.IsProvider(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": "content provider unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// SetupDeckRoutes registers swipe deck routes
func SetupDeckRoutes(apiGroup *gin.RouterGroup, engine *queue.Engine, libraryService *library.Service) {
	handler := NewDeckHandler(engine, libraryService)
	apiGroup.GET("/deck", handler.GetDeck)
	apiGroup.POST("/deck/swipe", handler.Swipe)
	apiGroup.POST("/deck/undo", handler.Undo)
	apiGroup.PUT("/deck/filters", handler.SetFilters)
	apiGroup.POST("/deck/refresh", handler.Refresh)
}
