// Package lists implements the list membership store: an ordered join between
// user-defined lists and classified items.
package lists

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcutler/reeldeck/internal/db"
	"github.com/mcutler/reeldeck/internal/logger"
	"github.com/mcutler/reeldeck/internal/models"
)

// SyncHook is invoked after every membership or rename mutation so the remote
// mirror of a published list never drifts. Wired to the sync engine at startup.
type SyncHook func(ctx context.Context, list *models.UserList)

// Service handles business logic for user lists and their membership
type Service struct {
	repos    *db.Repositories
	syncHook SyncHook
}

// NewService creates a new list membership service
func NewService(repos *db.Repositories) *Service {
	return &Service{repos: repos}
}

// SetSyncHook installs the post-mutation publish hook.
// A hook set once at wiring time; not safe to swap while serving.
func (s *Service) SetSyncHook(hook SyncHook) {
	s.syncHook = hook
}

// CreateList creates a new user list appended after existing lists
func (s *Service) CreateList(ctx context.Context, name string) (*models.UserList, error) {
	existing, err := s.repos.UserLists.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	list := models.NewUserList(name, len(existing))
	if err := s.repos.UserLists.Create(ctx, list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	logger.Log.Info().
		Str("list_id", list.ID.String()).
		Str("name", name).
		Msg("List created")
	return list, nil
}

// GetList retrieves a user list by ID
func (s *Service) GetList(ctx context.Context, id uuid.UUID) (*models.UserList, error) {
	list, err := s.repos.UserLists.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrListNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return list, nil
}

// Lists retrieves all user lists in sort order
func (s *Service) Lists(ctx context.Context) ([]*models.UserList, error) {
	lists, err := s.repos.UserLists.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return lists, nil
}

// RenameList changes a list's name and pushes the rename to the remote
// mirror when the list is published
func (s *Service) RenameList(ctx context.Context, id uuid.UUID, name string) (*models.UserList, error) {
	list, err := s.GetList(ctx, id)
	if err != nil {
		return nil, err
	}

	list.Name = name
	if err := s.repos.UserLists.Update(ctx, list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.notifySync(ctx, list)
	return list, nil
}

// DeleteList removes a list and all of its entries
func (s *Service) DeleteList(ctx context.Context, id uuid.UUID) error {
	if err := s.repos.UserLists.Delete(ctx, id); err != nil {
		if db.IsNotFound(err) {
			return ErrListNotFound
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	logger.Log.Info().
		Str("list_id", id.String()).
		Msg("List deleted")
	return nil
}

// ListItems resolves a list's membership into classified items ordered by
// sort order. Entries whose item no longer has a classified record are
// silently skipped, not treated as an error.
func (s *Service) ListItems(ctx context.Context, listID uuid.UUID) ([]*models.ClassifiedItem, error) {
	if _, err := s.GetList(ctx, listID); err != nil {
		return nil, err
	}

	entries, err := s.repos.ListEntries.GetByListID(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	itemIDs := make([]string, 0, len(entries))
	for _, entry := range entries {
		itemIDs = append(itemIDs, entry.ItemID)
	}

	byID, err := s.repos.ClassifiedItems.GetByUniqueIDs(ctx, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	items := make([]*models.ClassifiedItem, 0, len(entries))
	for _, entry := range entries {
		if item, ok := byID[entry.ItemID]; ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// AddItem adds a classified item to a list. Adding an already-present pair is
// an idempotent no-op; uniqueness is enforced by the storage-level constraint
// on (list_id, item_id), not by a racy fetch-then-check guard.
func (s *Service) AddItem(ctx context.Context, listID uuid.UUID, itemID string) error {
	list, err := s.GetList(ctx, listID)
	if err != nil {
		return err
	}

	if _, err := s.repos.ClassifiedItems.GetByUniqueID(ctx, itemID); err != nil {
		if db.IsNotFound(err) {
			return fmt.Errorf("%w: %s", ErrItemNotClassified, itemID)
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	maxSort, err := s.repos.ListEntries.MaxSortOrder(ctx, listID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	entry := models.NewListEntry(listID, itemID, maxSort+1)
	if err := s.repos.ListEntries.Create(ctx, entry); err != nil {
		if db.IsDuplicate(err) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	logger.Log.Debug().
		Str("list_id", listID.String()).
		Str("item_id", itemID).
		Msg("Added list membership")

	s.notifySync(ctx, list)
	return nil
}

// RemoveItem removes a classified item from a list.
// Removing an absent membership is an idempotent no-op.
func (s *Service) RemoveItem(ctx context.Context, listID uuid.UUID, itemID string) error {
	list, err := s.GetList(ctx, listID)
	if err != nil {
		return err
	}

	removed, err := s.repos.ListEntries.DeleteByListAndItem(ctx, listID, itemID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if removed == 0 {
		return nil
	}

	logger.Log.Debug().
		Str("list_id", listID.String()).
		Str("item_id", itemID).
		Msg("Removed list membership")

	s.notifySync(ctx, list)
	return nil
}

func (s *Service) notifySync(ctx context.Context, list *models.UserList) {
	if s.syncHook != nil {
		s.syncHook(ctx, list)
	}
}
