package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mcutler/reeldeck/internal/lists"
	"github.com/mcutler/reeldeck/internal/models"
	"github.com/mcutler/reeldeck/internal/sync"
)

// CreateListRequest creates a new user list
type CreateListRequest struct {
	Name string `json:"name" binding:"required,min=1,max=255"`
}

// RenameListRequest renames an existing user list
type RenameListRequest struct {
	Name string `json:"name" binding:"required,min=1,max=255"`
}

// AddListItemRequest adds a classified item to a list
type AddListItemRequest struct {
	ItemID string `json:"item_id" binding:"required"`
}

// ListDetailResponse is a list with its resolved membership
type ListDetailResponse struct {
	List  *models.UserList         `json:"list"`
	Items []*models.ClassifiedItem `json:"items"`
}

// ListsHandler handles user list API requests
type ListsHandler struct {
	lists      *lists.Service
	syncEngine *sync.Engine
}

// NewListsHandler creates a new lists handler instance
func NewListsHandler(listsService *lists.Service, syncEngine *sync.Engine) *ListsHandler {
	return &ListsHandler{
		lists:      listsService,
		syncEngine: syncEngine,
	}
}

// Create creates a new user list
func (h *ListsHandler) Create(c *gin.Context) {
	var req CreateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	list, err := h.lists.CreateList(c.Request.Context(), req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create list"})
		return
	}
	c.JSON(http.StatusCreated, list)
}

// List returns all user lists in sort order
func (h *ListsHandler) List(c *gin.Context) {
	userLists, err := h.lists.Lists(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list lists"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lists": userLists})
}

// Get returns one list with its resolved membership
func (h *ListsHandler) Get(c *gin.Context) {
	listID, ok := parseListID(c)
	if !ok {
		return
	}

	list, err := h.lists.GetList(c.Request.Context(), listID)
	if err != nil {
		respondListError(c, err)
		return
	}

	items, err := h.lists.ListItems(c.Request.Context(), listID)
	if err != nil {
		respondListError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListDetailResponse{List: list, Items: items})
}

// Rename renames a list
func (h *ListsHandler) Rename(c *gin.Context) {
	listID, ok := parseListID(c)
	if !ok {
		return
	}

	var req RenameListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	list, err := h.lists.RenameList(c.Request.Context(), listID, req.Name)
	if err != nil {
		respondListError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Delete removes a list, unpublishing it first when published
func (h *ListsHandler) Delete(c *gin.Context) {
	listID, ok := parseListID(c)
	if !ok {
		return
	}

	list, err := h.lists.GetList(c.Request.Context(), listID)
	if err != nil {
		respondListError(c, err)
		return
	}

	if list.IsPublished {
		if _, err := h.syncEngine.Unpublish(c.Request.Context(), list); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to unpublish before delete"})
			return
		}
	}

	if err := h.lists.DeleteList(c.Request.Context(), listID); err != nil {
		respondListError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddItem adds a classified item to a list (idempotent)
func (h *ListsHandler) AddItem(c *gin.Context) {
	listID, ok := parseListID(c)
	if !ok {
		return
	}

	var req AddListItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.lists.AddItem(c.Request.Context(), listID, req.ItemID); err != nil {
		if lists.IsItemNotClassified(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "item has no classified record"})
			return
		}
		respondListError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveItem removes a classified item from a list (idempotent)
func (h *ListsHandler) RemoveItem(c *gin.Context) {
	listID, ok := parseListID(c)
	if !ok {
		return
	}

	if err := h.lists.RemoveItem(c.Request.Context(), listID, c.Param("itemID")); err != nil {
		respondListError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Publish mirrors the list to a new remote document
func (h *ListsHandler) Publish(c *gin.Context) {
	listID, ok := parseListID(c)
	if !ok {
		return
	}

	list, err := h.lists.GetList(c.Request.Context(), listID)
	if err != nil {
		respondListError(c, err)
		return
	}

	published, err := h.syncEngine.Publish(c.Request.Context(), list)
	if err != nil {
		if sync.IsRemoteSync(err) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "remote list store unavailable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to publish list"})
		return
	}
	c.JSON(http.StatusOK, published)
}

// Unpublish soft-deactivates the remote document and clears publish state
func (h *ListsHandler) Unpublish(c *gin.Context) {
	listID, ok := parseListID(c)
	if !ok {
		return
	}

	list, err := h.lists.GetList(c.Request.Context(), listID)
	if err != nil {
		respondListError(c, err)
		return
	}

	unpublished, err := h.syncEngine.Unpublish(c.Request.Context(), list)
	if err != nil {
		if sync.IsRemoteSync(err) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "remote list store unavailable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unpublish list"})
		return
	}
	c.JSON(http.StatusOK, unpublished)
}

func parseListID(c *gin.Context) (uuid.UUID, bool) {
	listID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid list ID"})
		return uuid.Nil, false
	}
	return listID, true
}

func respondListError(c *gin.Context, err error) {
	if lists.IsListNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "list not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// SetupListRoutes registers user list routes
func SetupListRoutes(apiGroup *gin.RouterGroup, listsService *lists.Service, syncEngine *sync.Engine) {
	handler := NewListsHandler(listsService, syncEngine)
	apiGroup.POST("/lists", handler.Create)
	apiGroup.GET("/lists", handler.List)
	apiGroup.GET("/lists/:id", handler.Get)
	apiGroup.PUT("/lists/:id", handler.Rename)
	apiGroup.DELETE("/lists/:id", handler.Delete)
	apiGroup.POST("/lists/:id/items", handler.AddItem)
	apiGroup.DELETE("/lists/:id/items/:itemID", handler.RemoveItem)
	apiGroup.POST("/lists/:id/publish", handler.Publish)
	apiGroup.POST("/lists/:id/unpublish", handler.Unpublish)
}
