package db

import (
	"context"
	"fmt"

	"github.com/mcutler/reeldeck/internal/models"
	"gorm.io/gorm"
)

// ClassifiedItemRepository handles database operations for classified items
type ClassifiedItemRepository struct {
	db *DB
}

// NewClassifiedItemRepository creates a new classified item repository
func NewClassifiedItemRepository(db *DB) *ClassifiedItemRepository {
	return &ClassifiedItemRepository{db: db}
}

// Create inserts a new classified item into the database
func (r *ClassifiedItemRepository) Create(ctx context.Context, item *models.ClassifiedItem) error {
	result := r.db.WithContext(ctx).Create(item)
	if result.Error != nil {
		return fmt.Errorf("failed to create classified item: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByUniqueID retrieves a classified item by its composite unique ID
func (r *ClassifiedItemRepository) GetByUniqueID(ctx context.Context, uniqueID string) (*models.ClassifiedItem, error) {
	var item models.ClassifiedItem
	result := r.db.WithContext(ctx).Where("unique_id = ?", uniqueID).First(&item)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &item, nil
}

// GetByUniqueIDs retrieves classified items for a set of unique IDs.
// IDs with no matching record are simply absent from the result.
func (r *ClassifiedItemRepository) GetByUniqueIDs(ctx context.Context, uniqueIDs []string) (map[string]*models.ClassifiedItem, error) {
	byID := make(map[string]*models.ClassifiedItem, len(uniqueIDs))
	if len(uniqueIDs) == 0 {
		return byID, nil
	}

	var items []*models.ClassifiedItem
	result := r.db.WithContext(ctx).Where("unique_id IN ?", uniqueIDs).Find(&items)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get classified items: %w", MapGormError(result.Error))
	}
	for _, item := range items {
		byID[item.UniqueID] = item
	}
	return byID, nil
}

// AllUniqueIDs returns the unique IDs of every classified item.
// Used to seed the in-memory classified index at startup.
func (r *ClassifiedItemRepository) AllUniqueIDs(ctx context.Context) ([]string, error) {
	var ids []string
	result := r.db.WithContext(ctx).Model(&models.ClassifiedItem{}).Pluck("unique_id", &ids)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list classified unique IDs: %w", MapGormError(result.Error))
	}
	return ids, nil
}

// ListByDirection retrieves classified items with the given direction,
// newest classification first, with pagination
func (r *ClassifiedItemRepository) ListByDirection(ctx context.Context, direction models.Direction, limit, offset int) ([]*models.ClassifiedItem, error) {
	var items []*models.ClassifiedItem
	query := r.db.WithContext(ctx).
		Where("direction = ?", direction).
		Order("classified_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	result := query.Find(&items)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list classified items: %w", MapGormError(result.Error))
	}
	return items, nil
}

// Update overwrites an existing classified item.
// Uses map-based updates so optional fields can be set back to NULL.
func (r *ClassifiedItemRepository) Update(ctx context.Context, item *models.ClassifiedItem) error {
	updates := map[string]interface{}{
		"direction":       item.Direction,
		"classified_at":   item.ClassifiedAt,
		"title":           item.Title,
		"overview":        item.Overview,
		"poster_path":     item.PosterPath,
		"release_date":    item.ReleaseDate,
		"rating":          item.Rating,
		"personal_rating": item.PersonalRating,
		"source_platform": item.SourcePlatform,
	}

	result := r.db.WithContext(ctx).Model(&models.ClassifiedItem{}).Where("unique_id = ?", item.UniqueID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update classified item: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateDirection changes only the direction of an existing record.
// Every other column, including the personal rating, is left untouched.
func (r *ClassifiedItemRepository) UpdateDirection(ctx context.Context, uniqueID string, direction models.Direction) error {
	result := r.db.WithContext(ctx).Model(&models.ClassifiedItem{}).
		Where("unique_id = ?", uniqueID).
		Update("direction", direction)
	if result.Error != nil {
		return fmt.Errorf("failed to update direction: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePersonalRating sets the personal rating on an existing record
func (r *ClassifiedItemRepository) UpdatePersonalRating(ctx context.Context, uniqueID string, rating int) error {
	result := r.db.WithContext(ctx).Model(&models.ClassifiedItem{}).
		Where("unique_id = ?", uniqueID).
		Update("personal_rating", rating)
	if result.Error != nil {
		return fmt.Errorf("failed to update personal rating: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteWithMemberships deletes a classified item and every list entry
// referencing it in a single transaction. Nothing structural enforces the
// cascade, so it is done manually to prevent orphaned memberships.
func (r *ClassifiedItemRepository) DeleteWithMemberships(ctx context.Context, uniqueID string) error {
	return r.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("item_id = ?", uniqueID).Delete(&models.ListEntry{}).Error; err != nil {
			return fmt.Errorf("failed to delete list entries for item: %w", MapGormError(err))
		}

		result := tx.Where("unique_id = ?", uniqueID).Delete(&models.ClassifiedItem{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete classified item: %w", MapGormError(result.Error))
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Count returns the total number of classified items
func (r *ClassifiedItemRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.ClassifiedItem{}).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count classified items: %w", MapGormError(result.Error))
	}
	return count, nil
}
