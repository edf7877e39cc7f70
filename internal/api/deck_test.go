package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcutler/reeldeck/internal/config"
	"github.com/mcutler/reeldeck/internal/db"
	"github.com/mcutler/reeldeck/internal/library"
	"github.com/mcutler/reeldeck/internal/models"
	"github.com/mcutler/reeldeck/internal/provider"
	"github.com/mcutler/reeldeck/internal/queue"
)

// stubProvider serves one fixed page of candidates
type stubProvider struct {
	items []*models.MediaItem
	err   error
}

func (s *stubProvider) FetchContent(ctx context.Context, req provider.FetchRequest) ([]*models.MediaItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	if req.Page > 1 {
		return nil, nil
	}
	return s.items, nil
}

func (s *stubProvider) SearchMulti(ctx context.Context, query string, page int) ([]*models.MediaItem, error) {
	return nil, nil
}

func setupDeckRouter(t *testing.T, p queue.Provider) (*gin.Engine, *library.Service, func()) {
	tmpFile := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(tmpFile)
	require.NoError(t, err)

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(sqlDB, "file://../../migrations"))

	repos := db.NewRepositories(database)
	lib, err := library.NewService(context.Background(), repos, 10)
	require.NoError(t, err)

	engine := queue.NewEngine(p, lib, config.QueueConfig{
		MaxAutoPages:     5,
		LowWaterMark:     2,
		RefillTarget:     5,
		DebounceInterval: 10 * time.Millisecond,
		UndoCapacity:     10,
	})

	gin.SetMode(gin.TestMode)
	router := gin.New()
	apiGroup := router.Group("/api")
	SetupDeckRoutes(apiGroup, engine, lib)

	cleanup := func() {
		engine.Close()
		_ = database.Close()
	}
	return router, lib, cleanup
}

func deckItems(id int64, titles ...string) []*models.MediaItem {
	items := make([]*models.MediaItem, 0, len(titles))
	for i, title := range titles {
		items = append(items, &models.MediaItem{
			ExternalID: id + int64(i),
			MediaKind:  models.MediaKindMovie,
			Title:      title,
		})
	}
	return items
}

func TestGetDeck_RefillsWhenEmpty(t *testing.T) {
	p := &stubProvider{items: deckItems(1, "A", "B", "C", "D", "E")}
	router, _, cleanup := setupDeckRouter(t, p)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/api/deck", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response DeckResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response.Items, 5)
	assert.Equal(t, 5, response.QueueSize)
	assert.False(t, response.EndOfContent)
}

func TestGetDeck_ProviderOffline(t *testing.T) {
	p := &stubProvider{err: provider.ErrConnectivity}
	router, _, cleanup := setupDeckRouter(t, p)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/api/deck", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSwipe_ClassifiesAndRemoves(t *testing.T) {
	p := &stubProvider{items: deckItems(1, "A", "B", "C", "D", "E")}
	router, lib, cleanup := setupDeckRouter(t, p)
	defer cleanup()

	// Prime the deck
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/deck", nil))

	body, _ := json.Marshal(SwipeRequest{
		Item: MediaItemRequest{
			ExternalID: 1,
			MediaKind:  "movie",
			Title:      "A",
		},
		Direction: "watchlisted",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/deck/swipe", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var record models.ClassifiedItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.Equal(t, "movie_1", record.UniqueID)
	assert.Equal(t, models.DirectionWatchlisted, record.Direction)
	assert.True(t, lib.IsClassified("movie_1"))
}

func TestSwipe_InvalidDirection(t *testing.T) {
	p := &stubProvider{items: deckItems(1, "A")}
	router, _, cleanup := setupDeckRouter(t, p)
	defer cleanup()

	body, _ := json.Marshal(SwipeRequest{
		Item:      MediaItemRequest{ExternalID: 1, MediaKind: "movie", Title: "A"},
		Direction: "loved",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/deck/swipe", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUndo_RestoresItemToFront(t *testing.T) {
	p := &stubProvider{items: deckItems(1, "A", "B", "C", "D", "E")}
	router, _, cleanup := setupDeckRouter(t, p)
	defer cleanup()

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/deck", nil))

	body, _ := json.Marshal(SwipeRequest{
		Item:      MediaItemRequest{ExternalID: 1, MediaKind: "movie", Title: "A"},
		Direction: "skipped",
	})
	swipeReq := httptest.NewRequest(http.MethodPost, "/api/deck/swipe", bytes.NewBuffer(body))
	swipeReq.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(httptest.NewRecorder(), swipeReq)

	req := httptest.NewRequest(http.MethodPost, "/api/deck/undo", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response UndoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotNil(t, response.Item)
	assert.Equal(t, "movie_1", response.Item.UniqueID())

	// The undone item is back at the head of the deck
	deckW := httptest.NewRecorder()
	router.ServeHTTP(deckW, httptest.NewRequest(http.MethodGet, "/api/deck?limit=1", nil))
	var deck DeckResponse
	require.NoError(t, json.Unmarshal(deckW.Body.Bytes(), &deck))
	require.NotEmpty(t, deck.Items)
	assert.Equal(t, "movie_1", deck.Items[0].UniqueID())
}

func TestUndo_EmptyLedgerConflicts(t *testing.T) {
	p := &stubProvider{items: deckItems(1, "A")}
	router, _, cleanup := setupDeckRouter(t, p)
	defer cleanup()

	req := httptest.NewRequest(http.MethodPost, "/api/deck/undo", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSetFilters_Accepted(t *testing.T) {
	p := &stubProvider{items: deckItems(1, "A", "B", "C", "D", "E")}
	router, _, cleanup := setupDeckRouter(t, p)
	defer cleanup()

	body, _ := json.Marshal(FiltersRequest{
		Method:      "top_rated",
		ContentType: "show",
	})
	req := httptest.NewRequest(http.MethodPut, "/api/deck/filters", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestRefresh_ResetsAndRefills(t *testing.T) {
	p := &stubProvider{items: deckItems(1, "A", "B", "C", "D", "E")}
	router, _, cleanup := setupDeckRouter(t, p)
	defer cleanup()

	req := httptest.NewRequest(http.MethodPost, "/api/deck/refresh", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response DeckResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 5, response.QueueSize)
}
