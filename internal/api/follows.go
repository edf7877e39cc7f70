package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mcutler/reeldeck/internal/sync"
)

// FollowRequest starts following a published remote list
type FollowRequest struct {
	RemoteDocID string `json:"remote_doc_id" binding:"required"`
}

// FollowsHandler handles followed-list API requests
type FollowsHandler struct {
	syncEngine *sync.Engine
}

// NewFollowsHandler creates a new follows handler instance
func NewFollowsHandler(syncEngine *sync.Engine) *FollowsHandler {
	return &FollowsHandler{syncEngine: syncEngine}
}

// List returns every followed list mirror
func (h *FollowsHandler) List(c *gin.Context) {
	followed, err := h.syncEngine.FollowedLists(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list followed lists"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"followed": followed})
}

// Follow starts following a remote list and attaches its push subscription
func (h *FollowsHandler) Follow(c *gin.Context) {
	var req FollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	followed, err := h.syncEngine.Follow(c.Request.Context(), req.RemoteDocID)
	if err != nil {
		switch {
		case sync.IsAlreadyFollowing(err):
			c.JSON(http.StatusConflict, gin.H{"error": "already following this list"})
		case sync.IsDocumentGone(err):
			c.JSON(http.StatusNotFound, gin.H{"error": "list no longer available"})
		case sync.IsRemoteSync(err):
			c.JSON(http.StatusBadGateway, gin.H{"error": "remote list store unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to follow list"})
		}
		return
	}
	c.JSON(http.StatusCreated, followed)
}

// Unfollow stops following a remote list
func (h *FollowsHandler) Unfollow(c *gin.Context) {
	if err := h.syncEngine.Unfollow(c.Request.Context(), c.Param("docID")); err != nil {
		if sync.IsNotFollowing(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not following this list"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unfollow list"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Items returns a followed list's mirrored items in snapshot order
func (h *FollowsHandler) Items(c *gin.Context) {
	items, err := h.syncEngine.FollowedItems(c.Request.Context(), c.Param("docID"))
	if err != nil {
		if sync.IsNotFollowing(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not following this list"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get followed list items"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Refresh pulls and reconciles every followed list immediately
func (h *FollowsHandler) Refresh(c *gin.Context) {
	if err := h.syncEngine.RefreshFollowed(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to refresh followed lists"})
		return
	}
	c.Status(http.StatusNoContent)
}

// SetupFollowRoutes registers followed-list routes
func SetupFollowRoutes(apiGroup *gin.RouterGroup, syncEngine *sync.Engine) {
	handler := NewFollowsHandler(syncEngine)
	apiGroup.GET("/follows", handler.List)
	apiGroup.POST("/follows", handler.Follow)
	apiGroup.DELETE("/follows/:docID", handler.Unfollow)
	apiGroup.GET("/follows/:docID/items", handler.Items)
	apiGroup.POST("/follows/refresh", handler.Refresh)
}
