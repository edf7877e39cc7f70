package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcutler/reeldeck/internal/db"
	"github.com/mcutler/reeldeck/internal/models"
)

func createList(t *testing.T, repos *db.Repositories, name string, itemTitles ...string) *models.UserList {
	t.Helper()
	ctx := context.Background()

	list := models.NewUserList(name, 0)
	require.NoError(t, repos.UserLists.Create(ctx, list))

	for i, title := range itemTitles {
		item := &models.MediaItem{ExternalID: int64(200 + i), MediaKind: models.MediaKindMovie, Title: title}
		record := models.NewClassifiedItem(item, models.DirectionWatchlisted, nil)
		require.NoError(t, repos.ClassifiedItems.Create(ctx, record))
		require.NoError(t, repos.ListEntries.Create(ctx, models.NewListEntry(list.ID, record.UniqueID, i)))
	}
	return list
}

func TestPublish_CreatesRemoteDocument(t *testing.T) {
	engine, store, repos, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	list := createList(t, repos, "Favorites", "Alien", "Jaws")

	published, err := engine.Publish(ctx, list)
	require.NoError(t, err)

	assert.True(t, published.IsPublished)
	require.NotNil(t, published.RemoteDocID)
	assert.NotNil(t, published.LastSyncedAt)

	doc, err := store.GetDocument(ctx, *published.RemoteDocID)
	require.NoError(t, err)
	assert.Equal(t, "Favorites", doc.Name)
	assert.Equal(t, "user-1", doc.OwnerID)
	assert.Equal(t, "Morgan", doc.OwnerDisplayName)
	require.Len(t, doc.Items, 2)
	assert.Equal(t, "Alien", doc.Items[0].Title)
	assert.Equal(t, 0, doc.Items[0].SortOrder)
	assert.Equal(t, "Jaws", doc.Items[1].Title)
}

func TestPublish_AlreadyPublishedPushesInstead(t *testing.T) {
	engine, store, repos, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	list := createList(t, repos, "Favorites", "Alien")

	first, err := engine.Publish(ctx, list)
	require.NoError(t, err)
	docID := *first.RemoteDocID

	second, err := engine.Publish(ctx, list)
	require.NoError(t, err)

	// No second document; the existing one was updated in place
	require.NotNil(t, second.RemoteDocID)
	assert.Equal(t, docID, *second.RemoteDocID)
	assert.Equal(t, 1, store.updateCount(docID))
}

func TestPublish_RemoteFailure(t *testing.T) {
	engine, store, repos, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	list := createList(t, repos, "Favorites", "Alien")
	store.createDocErr = errors.New("remote down")

	_, err := engine.Publish(ctx, list)
	assert.True(t, IsRemoteSync(err))

	// Failure leaves the list unpublished
	stored, err := repos.UserLists.GetByID(ctx, list.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsPublished)
	assert.Nil(t, stored.RemoteDocID)
}

func TestUnpublish_ClearsStateAndDeactivatesRemote(t *testing.T) {
	engine, store, repos, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	list := createList(t, repos, "Favorites", "Alien")

	published, err := engine.Publish(ctx, list)
	require.NoError(t, err)
	docID := *published.RemoteDocID

	unpublished, err := engine.Unpublish(ctx, list)
	require.NoError(t, err)

	assert.False(t, unpublished.IsPublished)
	assert.Nil(t, unpublished.RemoteDocID)
	assert.Nil(t, unpublished.LastSyncedAt)

	// Followers of the old link see a terminal gone state
	_, err = store.GetDocument(ctx, docID)
	assert.True(t, IsDocumentGone(err))
}

func TestUnpublish_NotPublishedIsNoOp(t *testing.T) {
	engine, _, repos, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	list := createList(t, repos, "Favorites")

	result, err := engine.Unpublish(ctx, list)
	require.NoError(t, err)
	assert.False(t, result.IsPublished)
}

func TestRepublish_AllocatesFreshDocumentID(t *testing.T) {
	engine, _, repos, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	list := createList(t, repos, "Favorites", "Alien")

	first, err := engine.Publish(ctx, list)
	require.NoError(t, err)
	firstDocID := *first.RemoteDocID

	_, err = engine.Unpublish(ctx, list)
	require.NoError(t, err)

	second, err := engine.Publish(ctx, list)
	require.NoError(t, err)

	require.NotNil(t, second.RemoteDocID)
	assert.NotEqual(t, firstDocID, *second.RemoteDocID)
}

func TestSyncIfPublished_PushesPublishedList(t *testing.T) {
	engine, store, repos, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	list := createList(t, repos, "Favorites", "Alien")

	published, err := engine.Publish(ctx, list)
	require.NoError(t, err)
	docID := *published.RemoteDocID

	// Grow the membership, then run the post-mutation guard
	item := &models.MediaItem{ExternalID: 300, MediaKind: models.MediaKindMovie, Title: "The Thing"}
	record := models.NewClassifiedItem(item, models.DirectionSeen, nil)
	require.NoError(t, repos.ClassifiedItems.Create(ctx, record))
	require.NoError(t, repos.ListEntries.Create(ctx, models.NewListEntry(list.ID, record.UniqueID, 1)))

	engine.SyncIfPublished(ctx, list)

	doc, err := store.GetDocument(ctx, docID)
	require.NoError(t, err)
	require.Len(t, doc.Items, 2)
	assert.Equal(t, "The Thing", doc.Items[1].Title)
}

func TestSyncIfPublished_UnpublishedListIsNoOp(t *testing.T) {
	engine, store, repos, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	list := createList(t, repos, "Favorites", "Alien")

	engine.SyncIfPublished(ctx, list)

	store.mu.Lock()
	docCount := len(store.docs)
	store.mu.Unlock()
	assert.Zero(t, docCount)
}
