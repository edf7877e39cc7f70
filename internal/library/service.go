// Package library implements the durable item store and the undo ledger.
// All mutations are serialized behind one mutex; the in-memory classified
// index is only updated after the corresponding durable write succeeds.
package library

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mcutler/reeldeck/internal/db"
	"github.com/mcutler/reeldeck/internal/logger"
	"github.com/mcutler/reeldeck/internal/models"
)

// Service handles classification of media items and their exact reversal
type Service struct {
	repos *db.Repositories

	mu         sync.Mutex
	classified map[string]struct{}
	ledger     *undoLedger
}

// NewService creates a library service and seeds the classified index from
// the database so the queue engine can exclude already-swiped items.
func NewService(ctx context.Context, repos *db.Repositories, undoCapacity int) (*Service, error) {
	ids, err := repos.ClassifiedItems.AllUniqueIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to seed classified index: %w", err)
	}

	classified := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		classified[id] = struct{}{}
	}

	logger.Log.Info().
		Int("classified_count", len(classified)).
		Int("undo_capacity", undoCapacity).
		Msg("Library service initialized")

	return &Service{
		repos:      repos,
		classified: classified,
		ledger:     newUndoLedger(undoCapacity),
	}, nil
}

// Classify records a swipe on a candidate. A first encounter creates the
// record at the requested direction. A re-encounter applies the promotion-only
// policy: equal rank refreshes the classification timestamp, higher rank
// promotes, lower rank leaves the record untouched. Creations and promotions
// are pushed onto the undo ledger; no-ops are not.
func (s *Service) Classify(ctx context.Context, item *models.MediaItem, direction models.Direction, sourcePlatform *string) (*models.ClassifiedItem, error) {
	if !direction.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, direction)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	uniqueID := item.UniqueID()

	existing, err := s.repos.ClassifiedItems.GetByUniqueID(ctx, uniqueID)
	if err != nil && !db.IsNotFound(err) {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if existing == nil {
		record := models.NewClassifiedItem(item, direction, sourcePlatform)
		if err := s.repos.ClassifiedItems.Create(ctx, record); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}

		// Index and ledger only after the durable write succeeded
		s.classified[uniqueID] = struct{}{}
		s.ledger.push(UndoEntry{Item: item, NewDirection: direction})

		logger.Log.Info().
			Str("unique_id", uniqueID).
			Str("direction", string(direction)).
			Msg("Classified new item")
		return record, nil
	}

	newRank, oldRank := direction.Rank(), existing.Direction.Rank()

	// Demotions never take effect: a library item cannot silently drop to
	// "skipped" because of an accidental later encounter.
	if newRank < oldRank {
		logger.Log.Debug().
			Str("unique_id", uniqueID).
			Str("kept", string(existing.Direction)).
			Str("rejected", string(direction)).
			Msg("Ignored lower-rank re-classification")
		return existing, nil
	}

	previous := existing.Direction
	existing.Direction = direction
	existing.ClassifiedAt = time.Now().UTC()
	if sourcePlatform != nil {
		existing.SourcePlatform = sourcePlatform
	}

	if err := s.repos.ClassifiedItems.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if newRank > oldRank {
		prev := previous
		s.ledger.push(UndoEntry{Item: item, NewDirection: direction, PreviousDirection: &prev})
		logger.Log.Info().
			Str("unique_id", uniqueID).
			Str("from", string(previous)).
			Str("to", string(direction)).
			Msg("Promoted classified item")
	}

	return existing, nil
}

// UndoLast pops the most recent ledger entry and exactly reverses it.
// Undoing a creation deletes the record and drops it from the classified
// index; undoing a promotion restores the prior direction and leaves every
// other field, including the personal rating, untouched. The popped entry is
// discarded even when restoration fails; undo is best effort and not retried.
func (s *Service) UndoLast(ctx context.Context) (*models.MediaItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.ledger.pop()
	if !ok {
		return nil, ErrNothingToUndo
	}

	uniqueID := entry.Item.UniqueID()

	if entry.PreviousDirection == nil {
		if err := s.repos.ClassifiedItems.DeleteWithMemberships(ctx, uniqueID); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		delete(s.classified, uniqueID)

		logger.Log.Info().
			Str("unique_id", uniqueID).
			Msg("Undid item creation")
		return entry.Item, nil
	}

	if err := s.repos.ClassifiedItems.UpdateDirection(ctx, uniqueID, *entry.PreviousDirection); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// The item was classified before the undone action, so it stays in the index
	logger.Log.Info().
		Str("unique_id", uniqueID).
		Str("restored", string(*entry.PreviousDirection)).
		Msg("Undid item promotion")
	return entry.Item, nil
}

// SetPersonalRating overwrites the rating on an existing classified record
func (s *Service) SetPersonalRating(ctx context.Context, uniqueID string, rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: %d", ErrInvalidRating, rating)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repos.ClassifiedItems.UpdatePersonalRating(ctx, uniqueID, rating); err != nil {
		if db.IsNotFound(err) {
			return fmt.Errorf("%w: %s", ErrNotClassified, uniqueID)
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// Remove deletes a classified record and cascades deletion of every list
// entry referencing it, preventing orphaned memberships
func (s *Service) Remove(ctx context.Context, uniqueID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repos.ClassifiedItems.DeleteWithMemberships(ctx, uniqueID); err != nil {
		if db.IsNotFound(err) {
			return fmt.Errorf("%w: %s", ErrNotClassified, uniqueID)
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	delete(s.classified, uniqueID)

	logger.Log.Info().
		Str("unique_id", uniqueID).
		Msg("Removed classified item")
	return nil
}

// Get retrieves a single classified record
func (s *Service) Get(ctx context.Context, uniqueID string) (*models.ClassifiedItem, error) {
	item, err := s.repos.ClassifiedItems.GetByUniqueID(ctx, uniqueID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotClassified, uniqueID)
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return item, nil
}

// ListByDirection retrieves classified items for one library view
// (watchlist, seen, skipped), newest first
func (s *Service) ListByDirection(ctx context.Context, direction models.Direction, limit, offset int) ([]*models.ClassifiedItem, error) {
	if !direction.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, direction)
	}
	items, err := s.repos.ClassifiedItems.ListByDirection(ctx, direction, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return items, nil
}

// IsClassified reports whether a unique ID has a durable classified record
func (s *Service) IsClassified(uniqueID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.classified[uniqueID]
	return ok
}

// ClassifiedCount returns the size of the classified index
func (s *Service) ClassifiedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.classified)
}

// UndoDepth returns the number of reversible operations currently held
func (s *Service) UndoDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.len()
}

// ClearUndoHistory drops all undo entries. Called when the discovery filter
// set changes, since undo history is semantically stale across a different
// browsing context.
func (s *Service) ClearUndoHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.clear()
}
