package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/mcutler/reeldeck/internal/db"
	"github.com/mcutler/reeldeck/internal/logger"
	"github.com/mcutler/reeldeck/internal/models"
)

// Publish mirrors a local list to a new remote document and records the
// returned document ID locally. A list republished after an unpublish always
// gets a fresh document ID; followers of the old link see a terminal
// "no longer available" state rather than silently resurrected content.
// Publishing an already-published list pushes the current state instead.
func (e *Engine) Publish(ctx context.Context, list *models.UserList) (*models.UserList, error) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	current, err := e.repos.UserLists.GetByID(ctx, list.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load list: %w", err)
	}

	snapshot, err := e.serialize(ctx, current)
	if err != nil {
		return nil, err
	}

	if current.IsPublished && current.RemoteDocID != nil {
		if err := e.pushLocked(ctx, current, snapshot); err != nil {
			return nil, err
		}
		return current, nil
	}

	docID, err := e.store.CreateDocument(ctx, snapshot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteSync, err)
	}

	now := time.Now().UTC()
	current.RemoteDocID = &docID
	current.IsPublished = true
	current.LastSyncedAt = &now
	if err := e.repos.UserLists.Update(ctx, current); err != nil {
		return nil, fmt.Errorf("published remotely but failed to record locally: %w", err)
	}

	logger.Log.Info().
		Str("list_id", current.ID.String()).
		Str("remote_doc_id", docID).
		Int("items", len(snapshot.Items)).
		Msg("List published")
	return current, nil
}

// SyncIfPublished re-serializes and pushes a list only when it is currently
// published. A cheap guard called after every local membership or rename
// mutation so the remote mirror never drifts; unpublished lists cost one
// local read and nothing else.
func (e *Engine) SyncIfPublished(ctx context.Context, list *models.UserList) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	current, err := e.repos.UserLists.GetByID(ctx, list.ID)
	if err != nil {
		if !db.IsNotFound(err) {
			logger.Log.Error().
				Err(err).
				Str("list_id", list.ID.String()).
				Msg("Failed to load list for sync guard")
		}
		return
	}

	if !current.IsPublished || current.RemoteDocID == nil {
		return
	}

	snapshot, err := e.serialize(ctx, current)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("list_id", current.ID.String()).
			Msg("Failed to serialize list for sync")
		return
	}

	if err := e.pushLocked(ctx, current, snapshot); err != nil {
		logger.Log.Error().
			Err(err).
			Str("list_id", current.ID.String()).
			Msg("Failed to push list mutation")
	}
}

// Unpublish soft-deactivates the remote document and clears local publish
// state. Idempotent on an unpublished list.
func (e *Engine) Unpublish(ctx context.Context, list *models.UserList) (*models.UserList, error) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	current, err := e.repos.UserLists.GetByID(ctx, list.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load list: %w", err)
	}

	if !current.IsPublished || current.RemoteDocID == nil {
		return current, nil
	}

	if err := e.store.SoftDeactivate(ctx, *current.RemoteDocID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteSync, err)
	}

	docID := *current.RemoteDocID
	current.RemoteDocID = nil
	current.IsPublished = false
	current.LastSyncedAt = nil
	if err := e.repos.UserLists.Update(ctx, current); err != nil {
		return nil, fmt.Errorf("deactivated remotely but failed to record locally: %w", err)
	}

	logger.Log.Info().
		Str("list_id", current.ID.String()).
		Str("remote_doc_id", docID).
		Msg("List unpublished")
	return current, nil
}

// pushLocked updates the remote document for a published list.
// Callers hold writeMu.
func (e *Engine) pushLocked(ctx context.Context, list *models.UserList, snapshot *ListSnapshot) error {
	if err := e.store.UpdateDocument(ctx, *list.RemoteDocID, snapshot); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteSync, err)
	}

	now := time.Now().UTC()
	list.LastSyncedAt = &now
	if err := e.repos.UserLists.Update(ctx, list); err != nil {
		return fmt.Errorf("pushed remotely but failed to record sync time: %w", err)
	}

	logger.Log.Debug().
		Str("list_id", list.ID.String()).
		Str("remote_doc_id", *list.RemoteDocID).
		Int("items", len(snapshot.Items)).
		Msg("Pushed list to remote")
	return nil
}

// serialize resolves a list's membership into the remote item format
func (e *Engine) serialize(ctx context.Context, list *models.UserList) (*ListSnapshot, error) {
	items, err := e.resolve(ctx, list)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve list membership: %w", err)
	}

	snapshotItems := make([]SnapshotItem, 0, len(items))
	for i, item := range items {
		snapshotItems = append(snapshotItems, SnapshotItem{
			ExternalID: item.ExternalID,
			MediaKind:  item.MediaKind,
			Title:      item.Title,
			PosterPath: item.PosterPath,
			SortOrder:  i,
		})
	}

	return &ListSnapshot{
		Name:             list.Name,
		OwnerID:          e.userID,
		OwnerDisplayName: e.displayName,
		IsActive:         true,
		Items:            snapshotItems,
	}, nil
}
