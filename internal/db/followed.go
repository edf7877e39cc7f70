package db

import (
	"context"
	"fmt"
	"time"

	"github.com/mcutler/reeldeck/internal/models"
	"gorm.io/gorm"
)

// FollowedListRepository handles database operations for followed remote lists
type FollowedListRepository struct {
	db *DB
}

// NewFollowedListRepository creates a new followed list repository
func NewFollowedListRepository(db *DB) *FollowedListRepository {
	return &FollowedListRepository{db: db}
}

// Create inserts a new followed list mirror. remote_doc_id is unique, so
// following the same remote document twice returns ErrDuplicate.
func (r *FollowedListRepository) Create(ctx context.Context, list *models.FollowedList) error {
	result := r.db.WithContext(ctx).Create(list)
	if result.Error != nil {
		return fmt.Errorf("failed to create followed list: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByRemoteDocID retrieves a followed list by its remote document ID
func (r *FollowedListRepository) GetByRemoteDocID(ctx context.Context, remoteDocID string) (*models.FollowedList, error) {
	var list models.FollowedList
	result := r.db.WithContext(ctx).Where("remote_doc_id = ?", remoteDocID).First(&list)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &list, nil
}

// List retrieves all followed lists, most recently followed first
func (r *FollowedListRepository) List(ctx context.Context) ([]*models.FollowedList, error) {
	var lists []*models.FollowedList
	result := r.db.WithContext(ctx).Order("created_at DESC").Find(&lists)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list followed lists: %w", MapGormError(result.Error))
	}
	return lists, nil
}

// SetActive flips the availability flag on a followed list.
// Mirrored item rows are intentionally left in place.
func (r *FollowedListRepository) SetActive(ctx context.Context, remoteDocID string, active bool) error {
	result := r.db.WithContext(ctx).Model(&models.FollowedList{}).
		Where("remote_doc_id = ?", remoteDocID).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update followed list active flag: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplySnapshot overwrites a followed list's scalar fields and fully replaces
// its mirrored item rows in a single transaction. Replacement is delete-all
// then insert-in-snapshot-order; a partial merge is never attempted, so a
// failed apply leaves the previous snapshot intact.
func (r *FollowedListRepository) ApplySnapshot(ctx context.Context, list *models.FollowedList, items []*models.FollowedListItem) error {
	return r.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"name":               list.Name,
			"owner_display_name": list.OwnerDisplayName,
			"item_count":         list.ItemCount,
			"is_active":          list.IsActive,
			"last_fetched_at":    list.LastFetchedAt,
			"updated_at":         time.Now().UTC(),
		}
		result := tx.Model(&models.FollowedList{}).
			Where("remote_doc_id = ?", list.RemoteDocID).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to update followed list: %w", MapGormError(result.Error))
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		if err := tx.Where("followed_list_id = ?", list.RemoteDocID).Delete(&models.FollowedListItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear followed list items: %w", MapGormError(err))
		}

		for _, item := range items {
			if err := tx.Create(item).Error; err != nil {
				return fmt.Errorf("failed to insert followed list item: %w", MapGormError(err))
			}
		}
		return nil
	})
}

// Delete removes a followed list and its mirrored items in one transaction
func (r *FollowedListRepository) Delete(ctx context.Context, remoteDocID string) error {
	return r.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("followed_list_id = ?", remoteDocID).Delete(&models.FollowedListItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete followed list items: %w", MapGormError(err))
		}

		result := tx.Where("remote_doc_id = ?", remoteDocID).Delete(&models.FollowedList{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete followed list: %w", MapGormError(result.Error))
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// FollowedListItemRepository handles database operations for mirrored list items
type FollowedListItemRepository struct {
	db *DB
}

// NewFollowedListItemRepository creates a new followed list item repository
func NewFollowedListItemRepository(db *DB) *FollowedListItemRepository {
	return &FollowedListItemRepository{db: db}
}

// GetByFollowedListID retrieves a followed list's mirrored items in snapshot order
func (r *FollowedListItemRepository) GetByFollowedListID(ctx context.Context, remoteDocID string) ([]*models.FollowedListItem, error) {
	var items []*models.FollowedListItem
	result := r.db.WithContext(ctx).
		Where("followed_list_id = ?", remoteDocID).
		Order("sort_order ASC").
		Find(&items)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get followed list items: %w", MapGormError(result.Error))
	}
	return items, nil
}
