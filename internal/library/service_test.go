package library

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcutler/reeldeck/internal/db"
	"github.com/mcutler/reeldeck/internal/models"
)

// setupTestService creates a library service with a test database
func setupTestService(t *testing.T, undoCapacity int) (*Service, *db.Repositories, func()) {
	tmpFile := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(tmpFile)
	require.NoError(t, err)

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err)

	migrationsPath := "file://../../migrations"
	err = db.RunMigrations(sqlDB, migrationsPath)
	require.NoError(t, err)

	repos := db.NewRepositories(database)
	service, err := NewService(context.Background(), repos, undoCapacity)
	require.NoError(t, err)

	cleanup := func() {
		_ = database.Close()
	}

	return service, repos, cleanup
}

func testItem(externalID int64, title string) *models.MediaItem {
	return &models.MediaItem{
		ExternalID: externalID,
		MediaKind:  models.MediaKindMovie,
		Title:      title,
	}
}

func TestClassify_NewItem(t *testing.T) {
	service, _, cleanup := setupTestService(t, 10)
	defer cleanup()

	ctx := context.Background()
	item := testItem(27205, "Inception")

	record, err := service.Classify(ctx, item, models.DirectionWatchlisted, nil)

	require.NoError(t, err)
	assert.Equal(t, "movie_27205", record.UniqueID)
	assert.Equal(t, models.DirectionWatchlisted, record.Direction)
	assert.False(t, record.ClassifiedAt.IsZero())
	assert.True(t, service.IsClassified("movie_27205"))
	assert.Equal(t, 1, service.UndoDepth())
}

func TestClassify_InvalidDirection(t *testing.T) {
	service, _, cleanup := setupTestService(t, 10)
	defer cleanup()

	_, err := service.Classify(context.Background(), testItem(1, "Bad"), models.Direction("loved"), nil)

	assert.True(t, IsInvalidDirection(err))
}

func TestClassify_SameExternalIDDifferentKind(t *testing.T) {
	service, _, cleanup := setupTestService(t, 10)
	defer cleanup()

	ctx := context.Background()
	movie := testItem(603, "The Matrix")
	show := &models.MediaItem{ExternalID: 603, MediaKind: models.MediaKindShow, Title: "The Matrix Series"}

	_, err := service.Classify(ctx, movie, models.DirectionSeen, nil)
	require.NoError(t, err)
	_, err = service.Classify(ctx, show, models.DirectionWatchlisted, nil)
	require.NoError(t, err)

	// Same external ID under different kinds are distinct entries
	assert.True(t, service.IsClassified("movie_603"))
	assert.True(t, service.IsClassified("show_603"))
	assert.Equal(t, 2, service.ClassifiedCount())
}

func TestClassify_PromotionUpgrades(t *testing.T) {
	service, _, cleanup := setupTestService(t, 10)
	defer cleanup()

	ctx := context.Background()
	item := testItem(550, "Fight Club")

	first, err := service.Classify(ctx, item, models.DirectionWatchlisted, nil)
	require.NoError(t, err)

	promoted, err := service.Classify(ctx, item, models.DirectionSeen, nil)
	require.NoError(t, err)

	assert.Equal(t, models.DirectionSeen, promoted.Direction)
	assert.True(t, promoted.ClassifiedAt.After(first.ClassifiedAt) || promoted.ClassifiedAt.Equal(first.ClassifiedAt))
	assert.Equal(t, 1, service.ClassifiedCount())
	assert.Equal(t, 2, service.UndoDepth())
}

func TestClassify_DemotionIgnored(t *testing.T) {
	service, _, cleanup := setupTestService(t, 10)
	defer cleanup()

	ctx := context.Background()
	item := testItem(550, "Fight Club")

	_, err := service.Classify(ctx, item, models.DirectionSeen, nil)
	require.NoError(t, err)

	record, err := service.Classify(ctx, item, models.DirectionSkipped, nil)
	require.NoError(t, err)

	// Demotion returns the existing record unchanged and pushes no undo entry
	assert.Equal(t, models.DirectionSeen, record.Direction)
	assert.Equal(t, 1, service.UndoDepth())

	stored, err := service.Get(ctx, "movie_550")
	require.NoError(t, err)
	assert.Equal(t, models.DirectionSeen, stored.Direction)
}

func TestClassify_SameRankRefreshesTimestamp(t *testing.T) {
	service, _, cleanup := setupTestService(t, 10)
	defer cleanup()

	ctx := context.Background()
	item := testItem(680, "Pulp Fiction")

	first, err := service.Classify(ctx, item, models.DirectionWatchlisted, nil)
	require.NoError(t, err)
	firstAt := first.ClassifiedAt

	again, err := service.Classify(ctx, item, models.DirectionWatchlisted, nil)
	require.NoError(t, err)

	assert.Equal(t, models.DirectionWatchlisted, again.Direction)
	assert.False(t, again.ClassifiedAt.Before(firstAt))
	// A same-rank touch is not a reversible transition
	assert.Equal(t, 1, service.UndoDepth())
}

func TestClassify_PromotionPreservesPersonalRating(t *testing.T) {
	service, _, cleanup := setupTestService(t, 10)
	defer cleanup()

	ctx := context.Background()
	item := testItem(155, "The Dark Knight")

	_, err := service.Classify(ctx, item, models.DirectionWatchlisted, nil)
	require.NoError(t, err)
	require.NoError(t, service.SetPersonalRating(ctx, "movie_155", 5))

	_, err = service.Classify(ctx, item, models.DirectionSeen, nil)
	require.NoError(t, err)

	stored, err := service.Get(ctx, "movie_155")
	require.NoError(t, err)
	require.NotNil(t, stored.PersonalRating)
	assert.Equal(t, 5, *stored.PersonalRating)
	assert.Equal(t, models.DirectionSeen, stored.Direction)
}

func TestUndoLast_CreationDeletesRecord(t *testing.T) {
	service, _, cleanup := setupTestService(t, 10)
	defer cleanup()

	ctx := context.Background()
	item := testItem(27205, "Inception")

	_, err := service.Classify(ctx, item, models.DirectionSkipped, nil)
	require.NoError(t, err)

	undone, err := service.UndoLast(ctx)
	require.NoError(t, err)

	assert.Equal(t, "movie_27205", undone.UniqueID())
	assert.False(t, service.IsClassified("movie_27205"))

	_, err = service.Get(ctx, "movie_27205")
	assert.True(t, IsNotClassified(err))
}

func TestUndoLast_PromotionRestoresPreviousDirection(t *testing.T) {
	service, _, cleanup := setupTestService(t, 10)
	defer cleanup()

	ctx := context.Background()
	item := testItem(550, "Fight Club")

	_, err := service.Classify(ctx, item, models.DirectionWatchlisted, nil)
	require.NoError(t, err)
	require.NoError(t, service.SetPersonalRating(ctx, "movie_550", 4))

	_, err = service.Classify(ctx, item, models.DirectionSeen, nil)
	require.NoError(t, err)

	undone, err := service.UndoLast(ctx)
	require.NoError(t, err)
	assert.Equal(t, "movie_550", undone.UniqueID())

	stored, err := service.Get(ctx, "movie_550")
	require.NoError(t, err)
	assert.Equal(t, models.DirectionWatchlisted, stored.Direction)
	// Undo restores the direction only; the rating survives
	require.NotNil(t, stored.PersonalRating)
	assert.Equal(t, 4, *stored.PersonalRating)
	assert.True(t, service.IsClassified("movie_550"))
}

func TestUndoLast_InceptionRoundTrip(t *testing.T) {
	service, _, cleanup := setupTestService(t, 10)
	defer cleanup()

	ctx := context.Background()
	item := testItem(27205, "Inception")

	// watchlist, promote to seen, then unwind both steps
	_, err := service.Classify(ctx, item, models.DirectionWatchlisted, nil)
	require.NoError(t, err)
	_, err = service.Classify(ctx, item, models.DirectionSeen, nil)
	require.NoError(t, err)
	require.Equal(t, 2, service.UndoDepth())

	_, err = service.UndoLast(ctx)
	require.NoError(t, err)
	stored, err := service.Get(ctx, "movie_27205")
	require.NoError(t, err)
	assert.Equal(t, models.DirectionWatchlisted, stored.Direction)

	_, err = service.UndoLast(ctx)
	require.NoError(t, err)
	assert.False(t, service.IsClassified("movie_27205"))

	_, err = service.UndoLast(ctx)
	assert.True(t, IsNothingToUndo(err))
}

func TestUndoLast_Empty(t *testing.T) {
	service, _, cleanup := setupTestService(t, 10)
	defer cleanup()

	_, err := service.UndoLast(context.Background())
	assert.True(t, IsNothingToUndo(err))
}

func TestUndoLedger_CapacityEvictsOldest(t *testing.T) {
	service, _, cleanup := setupTestService(t, 3)
	defer cleanup()

	ctx := context.Background()
	for i := int64(1); i <= 5; i++ {
		_, err := service.Classify(ctx, testItem(i, fmt.Sprintf("Movie %d", i)), models.DirectionSkipped, nil)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, service.UndoDepth())

	// Undo unwinds newest first: 5, 4, 3; the evicted 1 and 2 stay classified
	for _, want := range []string{"movie_5", "movie_4", "movie_3"} {
		undone, err := service.UndoLast(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, undone.UniqueID())
	}

	_, err := service.UndoLast(ctx)
	assert.True(t, IsNothingToUndo(err))
	assert.True(t, service.IsClassified("movie_1"))
	assert.True(t, service.IsClassified("movie_2"))
}

func TestClearUndoHistory(t *testing.T) {
	service, _, cleanup := setupTestService(t, 10)
	defer cleanup()

	ctx := context.Background()
	_, err := service.Classify(ctx, testItem(1, "One"), models.DirectionSeen, nil)
	require.NoError(t, err)
	_, err = service.Classify(ctx, testItem(2, "Two"), models.DirectionSeen, nil)
	require.NoError(t, err)

	service.ClearUndoHistory()

	assert.Equal(t, 0, service.UndoDepth())
	_, err = service.UndoLast(ctx)
	assert.True(t, IsNothingToUndo(err))
	// Clearing history never touches the durable records
	assert.Equal(t, 2, service.ClassifiedCount())
}

func TestSetPersonalRating(t *testing.T) {
	service, _, cleanup := setupTestService(t, 10)
	defer cleanup()

	ctx := context.Background()
	_, err := service.Classify(ctx, testItem(155, "The Dark Knight"), models.DirectionSeen, nil)
	require.NoError(t, err)

	require.NoError(t, service.SetPersonalRating(ctx, "movie_155", 3))
	require.NoError(t, service.SetPersonalRating(ctx, "movie_155", 5))

	stored, err := service.Get(ctx, "movie_155")
	require.NoError(t, err)
	require.NotNil(t, stored.PersonalRating)
	assert.Equal(t, 5, *stored.PersonalRating)
}

func TestSetPersonalRating_Invalid(t *testing.T) {
	service, _, cleanup := setupTestService(t, 10)
	defer cleanup()

	ctx := context.Background()
	_, err := service.Classify(ctx, testItem(155, "The Dark Knight"), models.DirectionSeen, nil)
	require.NoError(t, err)

	assert.True(t, IsInvalidRating(service.SetPersonalRating(ctx, "movie_155", 0)))
	assert.True(t, IsInvalidRating(service.SetPersonalRating(ctx, "movie_155", 6)))
}

func TestSetPersonalRating_NotClassified(t *testing.T) {
	service, _, cleanup := setupTestService(t, 10)
	defer cleanup()

	err := service.SetPersonalRating(context.Background(), "movie_999", 4)
	assert.True(t, IsNotClassified(err))
}

func TestRemove_CascadesListMemberships(t *testing.T) {
	service, repos, cleanup := setupTestService(t, 10)
	defer cleanup()

	ctx := context.Background()
	_, err := service.Classify(ctx, testItem(603, "The Matrix"), models.DirectionSeen, nil)
	require.NoError(t, err)

	list := models.NewUserList("Favorites", 0)
	require.NoError(t, repos.UserLists.Create(ctx, list))
	entry := models.NewListEntry(list.ID, "movie_603", 0)
	require.NoError(t, repos.ListEntries.Create(ctx, entry))

	require.NoError(t, service.Remove(ctx, "movie_603"))

	assert.False(t, service.IsClassified("movie_603"))
	entries, err := repos.ListEntries.GetByListID(ctx, list.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRemove_NotClassified(t *testing.T) {
	service, _, cleanup := setupTestService(t, 10)
	defer cleanup()

	err := service.Remove(context.Background(), "movie_999")
	assert.True(t, IsNotClassified(err))
}

func TestListByDirection(t *testing.T) {
	service, _, cleanup := setupTestService(t, 10)
	defer cleanup()

	ctx := context.Background()
	_, err := service.Classify(ctx, testItem(1, "One"), models.DirectionWatchlisted, nil)
	require.NoError(t, err)
	_, err = service.Classify(ctx, testItem(2, "Two"), models.DirectionSeen, nil)
	require.NoError(t, err)
	_, err = service.Classify(ctx, testItem(3, "Three"), models.DirectionWatchlisted, nil)
	require.NoError(t, err)

	watchlist, err := service.ListByDirection(ctx, models.DirectionWatchlisted, 0, 0)
	require.NoError(t, err)
	assert.Len(t, watchlist, 2)

	seen, err := service.ListByDirection(ctx, models.DirectionSeen, 0, 0)
	require.NoError(t, err)
	assert.Len(t, seen, 1)
	assert.Equal(t, "movie_2", seen[0].UniqueID)
}

func TestNewService_SeedsClassifiedIndex(t *testing.T) {
	service, repos, cleanup := setupTestService(t, 10)
	defer cleanup()

	ctx := context.Background()
	_, err := service.Classify(ctx, testItem(42, "Answer"), models.DirectionSeen, nil)
	require.NoError(t, err)

	// A fresh service over the same database sees the durable records
	reloaded, err := NewService(ctx, repos, 10)
	require.NoError(t, err)

	assert.True(t, reloaded.IsClassified("movie_42"))
	assert.Equal(t, 1, reloaded.ClassifiedCount())
	assert.Equal(t, 0, reloaded.UndoDepth())
}
