// Package sync implements the remote list synchronization engine: one push
// subscription per followed list, transactional full-replace reconciliation
// of inbound snapshots, and outward pushes of local mutations on published
// lists.
package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mcutler/reeldeck/internal/db"
	"github.com/mcutler/reeldeck/internal/logger"
	"github.com/mcutler/reeldeck/internal/models"
)

const listenerBuffer = 16

// listener owns the push subscription and serialized event loop for one
// remote document. Events are processed one at a time in receipt order.
type listener struct {
	sub    Subscription
	events chan ListEvent
	done   chan struct{}
}

// Engine reconciles followed remote lists into the local cache and pushes
// local list mutations outward. All local writes it performs are serialized
// on one mutex shared with the publish side, so an inbound snapshot can never
// tear a concurrent publish for the same document.
type Engine struct {
	store       RemoteStore
	repos       *db.Repositories
	userID      string
	displayName string

	// writeMu serializes reconciliation with publish/unpublish writes
	writeMu sync.Mutex

	mu        sync.Mutex
	listeners map[string]*listener
	detached  map[string]struct{}
	resolve   MembershipResolver
}

// MembershipResolver resolves a list's current ordered membership for
// serialization into the remote item format
type MembershipResolver func(ctx context.Context, list *models.UserList) ([]*models.ClassifiedItem, error)

// NewEngine creates a remote sync engine
func NewEngine(store RemoteStore, repos *db.Repositories, userID, displayName string, resolve MembershipResolver) *Engine {
	return &Engine{
		store:       store,
		repos:       repos,
		userID:      userID,
		displayName: displayName,
		listeners:   make(map[string]*listener),
		detached:    make(map[string]struct{}),
		resolve:     resolve,
	}
}

// State reports the listen state for a remote document
func (e *Engine) State(remoteDocID string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.listeners[remoteDocID]; ok {
		return StateListening
	}
	if _, ok := e.detached[remoteDocID]; ok {
		return StateDetached
	}
	return StateNone
}

// Attach opens a push subscription to a remote list document. Attaching an
// already-listening document is a no-op. Each inbound event runs through the
// reconciliation routine, strictly in receipt order.
func (e *Engine) Attach(remoteDocID string) error {
	e.mu.Lock()
	if _, ok := e.listeners[remoteDocID]; ok {
		e.mu.Unlock()
		return nil
	}

	l := &listener{
		events: make(chan ListEvent, listenerBuffer),
		done:   make(chan struct{}),
	}
	e.listeners[remoteDocID] = l
	delete(e.detached, remoteDocID)
	e.mu.Unlock()

	sub, err := e.store.Subscribe(remoteDocID, func(event ListEvent) {
		select {
		case l.events <- event:
		case <-l.done:
		}
	})
	if err != nil {
		e.mu.Lock()
		delete(e.listeners, remoteDocID)
		e.mu.Unlock()
		return fmt.Errorf("%w: subscribe %s: %v", ErrRemoteSync, remoteDocID, err)
	}
	l.sub = sub

	go e.runListener(remoteDocID, l)

	logger.Log.Info().
		Str("remote_doc_id", remoteDocID).
		Msg("Attached to remote list")
	return nil
}

// runListener drains one document's event channel serially
func (e *Engine) runListener(remoteDocID string, l *listener) {
	for {
		select {
		case event := <-l.events:
			e.Reconcile(context.Background(), remoteDocID, event)
		case <-l.done:
			return
		}
	}
}

// Detach closes the subscription for a remote document.
// Idempotent when not listening.
func (e *Engine) Detach(remoteDocID string) {
	e.mu.Lock()
	l, ok := e.listeners[remoteDocID]
	if !ok {
		e.mu.Unlock()
		return
	}
	delete(e.listeners, remoteDocID)
	e.detached[remoteDocID] = struct{}{}
	e.mu.Unlock()

	close(l.done)
	if l.sub != nil {
		_ = l.sub.Close()
	}

	logger.Log.Info().
		Str("remote_doc_id", remoteDocID).
		Msg("Detached from remote list")
}

// Activate attaches to every currently-followed list. Called on sign-in and
// foreground; re-activating leaves existing subscriptions untouched.
func (e *Engine) Activate(ctx context.Context) error {
	followed, err := e.repos.FollowedLists.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load followed lists: %w", err)
	}

	for _, list := range followed {
		if err := e.Attach(list.RemoteDocID); err != nil {
			logger.Log.Error().
				Err(err).
				Str("remote_doc_id", list.RemoteDocID).
				Msg("Failed to attach followed list")
		}
	}

	logger.Log.Info().
		Int("count", len(followed)).
		Msg("Sync engine activated")
	return nil
}

// Deactivate detaches every open subscription. Called on sign-out and background.
func (e *Engine) Deactivate() {
	e.mu.Lock()
	docIDs := make([]string, 0, len(e.listeners))
	for docID := range e.listeners {
		docIDs = append(docIDs, docID)
	}
	e.mu.Unlock()

	for _, docID := range docIDs {
		e.Detach(docID)
	}

	logger.Log.Info().
		Int("count", len(docIDs)).
		Msg("Sync engine deactivated")
}

// Reconcile applies one inbound event for a remote document. A gone or
// errored document flags the local mirror unavailable without deleting its
// rows; otherwise the mirror's scalar fields are overwritten and its item
// rows fully replaced in one transaction. Failures are logged and leave the
// previous snapshot intact; there is no synchronous caller to raise to.
func (e *Engine) Reconcile(ctx context.Context, remoteDocID string, event ListEvent) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	if event.Err != nil || event.Gone || event.Snapshot == nil {
		if event.Err != nil {
			logger.Log.Warn().
				Err(event.Err).
				Str("remote_doc_id", remoteDocID).
				Msg("Remote list errored, flagging unavailable")
		}
		if err := e.repos.FollowedLists.SetActive(ctx, remoteDocID, false); err != nil && !db.IsNotFound(err) {
			logger.Log.Error().
				Err(err).
				Str("remote_doc_id", remoteDocID).
				Msg("Failed to flag followed list unavailable")
		}
		return
	}

	local, err := e.repos.FollowedLists.GetByRemoteDocID(ctx, remoteDocID)
	if err != nil {
		if !db.IsNotFound(err) {
			logger.Log.Error().
				Err(err).
				Str("remote_doc_id", remoteDocID).
				Msg("Failed to load followed list for reconciliation")
		}
		return
	}

	snapshot := event.Snapshot
	now := time.Now().UTC()
	local.Name = snapshot.Name
	local.OwnerDisplayName = snapshot.OwnerDisplayName
	local.ItemCount = len(snapshot.Items)
	local.IsActive = snapshot.IsActive
	local.LastFetchedAt = &now

	items := make([]*models.FollowedListItem, 0, len(snapshot.Items))
	for i, si := range snapshot.Items {
		items = append(items, models.NewFollowedListItem(remoteDocID, si.ExternalID, si.MediaKind, si.Title, si.PosterPath, i))
	}

	if err := e.repos.FollowedLists.ApplySnapshot(ctx, local, items); err != nil {
		logger.Log.Error().
			Err(err).
			Str("remote_doc_id", remoteDocID).
			Msg("Reconciliation failed, keeping previous snapshot")
		return
	}

	logger.Log.Debug().
		Str("remote_doc_id", remoteDocID).
		Int("items", len(items)).
		Msg("Reconciled remote list snapshot")
}

// Follow starts following a published remote list: registers the follow
// relationship, mirrors the current document locally, and attaches the push
// subscription
func (e *Engine) Follow(ctx context.Context, remoteDocID string) (*models.FollowedList, error) {
	exists, err := e.store.FollowExists(ctx, e.userID, remoteDocID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteSync, err)
	}
	if exists {
		return nil, ErrAlreadyFollowing
	}

	snapshot, err := e.store.GetDocument(ctx, remoteDocID)
	if err != nil {
		if IsDocumentGone(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRemoteSync, err)
	}

	local := models.NewFollowedList(remoteDocID, snapshot.Name, snapshot.OwnerDisplayName, snapshot.OwnerID)
	if err := e.repos.FollowedLists.Create(ctx, local); err != nil {
		if db.IsDuplicate(err) {
			return nil, ErrAlreadyFollowing
		}
		return nil, fmt.Errorf("failed to create followed list: %w", err)
	}

	if err := e.store.CreateFollow(ctx, e.userID, remoteDocID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteSync, err)
	}

	e.Reconcile(ctx, remoteDocID, ListEvent{Snapshot: snapshot})

	if err := e.Attach(remoteDocID); err != nil {
		logger.Log.Error().
			Err(err).
			Str("remote_doc_id", remoteDocID).
			Msg("Followed list but failed to attach subscription")
	}

	return e.repos.FollowedLists.GetByRemoteDocID(ctx, remoteDocID)
}

// Unfollow stops following a remote list: detaches the subscription, removes
// the follow relationship, and deletes the local mirror
func (e *Engine) Unfollow(ctx context.Context, remoteDocID string) error {
	if _, err := e.repos.FollowedLists.GetByRemoteDocID(ctx, remoteDocID); err != nil {
		if db.IsNotFound(err) {
			return ErrNotFollowing
		}
		return fmt.Errorf("failed to load followed list: %w", err)
	}

	e.Detach(remoteDocID)

	if err := e.store.DeleteFollow(ctx, e.userID, remoteDocID); err != nil {
		logger.Log.Error().
			Err(err).
			Str("remote_doc_id", remoteDocID).
			Msg("Failed to delete remote follow record")
	}

	if err := e.repos.FollowedLists.Delete(ctx, remoteDocID); err != nil {
		return fmt.Errorf("failed to delete followed list: %w", err)
	}
	return nil
}

// FollowedLists returns every locally mirrored followed list
func (e *Engine) FollowedLists(ctx context.Context) ([]*models.FollowedList, error) {
	return e.repos.FollowedLists.List(ctx)
}

// FollowedItems returns a followed list's mirrored items in snapshot order
func (e *Engine) FollowedItems(ctx context.Context, remoteDocID string) ([]*models.FollowedListItem, error) {
	if _, err := e.repos.FollowedLists.GetByRemoteDocID(ctx, remoteDocID); err != nil {
		if db.IsNotFound(err) {
			return nil, ErrNotFollowing
		}
		return nil, err
	}
	return e.repos.FollowedListItems.GetByFollowedListID(ctx, remoteDocID)
}

// RefreshFollowed pulls the current document for every followed list and
// reconciles it. A pull fallback alongside the push channel, used by the
// scheduler and on demand.
func (e *Engine) RefreshFollowed(ctx context.Context) error {
	followed, err := e.repos.FollowedLists.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load followed lists: %w", err)
	}

	for _, list := range followed {
		snapshot, err := e.store.GetDocument(ctx, list.RemoteDocID)
		if err != nil {
			if IsDocumentGone(err) {
				e.Reconcile(ctx, list.RemoteDocID, ListEvent{Gone: true})
				continue
			}
			logger.Log.Warn().
				Err(err).
				Str("remote_doc_id", list.RemoteDocID).
				Msg("Refresh fetch failed")
			continue
		}
		e.Reconcile(ctx, list.RemoteDocID, ListEvent{Snapshot: snapshot})
	}
	return nil
}
