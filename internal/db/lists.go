package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcutler/reeldeck/internal/models"
	"gorm.io/gorm"
)

// UserListRepository handles database operations for user lists
type UserListRepository struct {
	db *DB
}

// NewUserListRepository creates a new user list repository
func NewUserListRepository(db *DB) *UserListRepository {
	return &UserListRepository{db: db}
}

// Create inserts a new user list into the database
func (r *UserListRepository) Create(ctx context.Context, list *models.UserList) error {
	result := r.db.WithContext(ctx).Create(list)
	if result.Error != nil {
		return fmt.Errorf("failed to create user list: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a user list by its UUID
func (r *UserListRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UserList, error) {
	var list models.UserList
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&list)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &list, nil
}

// List retrieves all user lists ordered by sort order
func (r *UserListRepository) List(ctx context.Context) ([]*models.UserList, error) {
	var lists []*models.UserList
	result := r.db.WithContext(ctx).Order("sort_order ASC, created_at ASC").Find(&lists)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list user lists: %w", MapGormError(result.Error))
	}
	return lists, nil
}

// Update overwrites a user list's mutable fields.
// Uses map-based updates so publish state can be cleared back to NULL/false.
func (r *UserListRepository) Update(ctx context.Context, list *models.UserList) error {
	updates := map[string]interface{}{
		"name":           list.Name,
		"sort_order":     list.SortOrder,
		"remote_doc_id":  list.RemoteDocID,
		"is_published":   list.IsPublished,
		"last_synced_at": list.LastSyncedAt,
		"updated_at":     time.Now().UTC(),
	}

	result := r.db.WithContext(ctx).Model(&models.UserList{}).Where("id = ?", list.ID.String()).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update user list: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a user list and all of its entries in one transaction
func (r *UserListRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("list_id = ?", id.String()).Delete(&models.ListEntry{}).Error; err != nil {
			return fmt.Errorf("failed to delete list entries: %w", MapGormError(err))
		}

		result := tx.Where("id = ?", id.String()).Delete(&models.UserList{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete user list: %w", MapGormError(result.Error))
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ListEntryRepository handles database operations for list membership entries
type ListEntryRepository struct {
	db *DB
}

// NewListEntryRepository creates a new list entry repository
func NewListEntryRepository(db *DB) *ListEntryRepository {
	return &ListEntryRepository{db: db}
}

// Create inserts a new list entry. The (list_id, item_id) pair carries a
// storage-level UNIQUE constraint, so a duplicate insert returns ErrDuplicate
// rather than silently creating a second membership row.
func (r *ListEntryRepository) Create(ctx context.Context, entry *models.ListEntry) error {
	result := r.db.WithContext(ctx).Create(entry)
	if result.Error != nil {
		return fmt.Errorf("failed to create list entry: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByListID retrieves all entries for a list ordered by sort order
func (r *ListEntryRepository) GetByListID(ctx context.Context, listID uuid.UUID) ([]*models.ListEntry, error) {
	var entries []*models.ListEntry
	result := r.db.WithContext(ctx).
		Where("list_id = ?", listID.String()).
		Order("sort_order ASC").
		Find(&entries)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get list entries: %w", MapGormError(result.Error))
	}
	return entries, nil
}

// MaxSortOrder returns the highest sort order in a list, or -1 for an empty list
func (r *ListEntryRepository) MaxSortOrder(ctx context.Context, listID uuid.UUID) (int, error) {
	var max *int
	result := r.db.WithContext(ctx).Model(&models.ListEntry{}).
		Where("list_id = ?", listID.String()).
		Select("MAX(sort_order)").
		Scan(&max)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to get max sort order: %w", MapGormError(result.Error))
	}
	if max == nil {
		return -1, nil
	}
	return *max, nil
}

// DeleteByListAndItem removes the membership of an item in a list.
// Returns the number of rows removed so the caller can treat an absent
// membership as an idempotent no-op.
func (r *ListEntryRepository) DeleteByListAndItem(ctx context.Context, listID uuid.UUID, itemID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("list_id = ? AND item_id = ?", listID.String(), itemID).
		Delete(&models.ListEntry{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete list entry: %w", MapGormError(result.Error))
	}
	return result.RowsAffected, nil
}

// DeleteByItemID removes every membership row referencing an item
func (r *ListEntryRepository) DeleteByItemID(ctx context.Context, itemID string) error {
	result := r.db.WithContext(ctx).Where("item_id = ?", itemID).Delete(&models.ListEntry{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete list entries by item: %w", MapGormError(result.Error))
	}
	return nil
}
