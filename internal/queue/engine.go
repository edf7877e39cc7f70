// Package queue implements the content queue engine: a paginated,
// de-duplicating, auto-refilling FIFO of discovery candidates.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/mcutler/reeldeck/internal/config"
	"github.com/mcutler/reeldeck/internal/library"
	"github.com/mcutler/reeldeck/internal/logger"
	"github.com/mcutler/reeldeck/internal/models"
	"github.com/mcutler/reeldeck/internal/provider"
)

// Provider fetches discovery pages for the current filter set.
// Implementations must be idempotent per (method, page); an empty result is a
// valid response signaling end-of-content for that page.
type Provider interface {
	FetchContent(ctx context.Context, req provider.FetchRequest) ([]*models.MediaItem, error)
	SearchMulti(ctx context.Context, query string, page int) ([]*models.MediaItem, error)
}

// Engine maintains the swipe queue. All state is guarded by one mutex;
// overlapping refills are dropped, and filter changes are debounced so a
// burst of rapid changes costs one network round-trip, not one per value.
type Engine struct {
	provider Provider
	library  *library.Service

	mu             sync.Mutex
	cfg            config.QueueConfig
	filters        Filters
	pendingFilters Filters
	items          []*models.MediaItem
	queued         map[string]struct{}
	page           int
	endOfContent   bool
	refilling      bool
	gen            uint64
	debounce       *time.Timer
	closed         bool
}

// NewEngine creates a content queue engine for the default browsing context
func NewEngine(p Provider, lib *library.Service, cfg config.QueueConfig) *Engine {
	return &Engine{
		provider: p,
		library:  lib,
		cfg:      cfg,
		filters:  DefaultFilters(),
		queued:   make(map[string]struct{}),
		page:     1,
	}
}

// UpdateConfig replaces the engine tuning. Explicit entry point instead of
// ambient reads of process-wide settings.
func (e *Engine) UpdateConfig(cfg config.QueueConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg
}

// Filters returns the active filter set
func (e *Engine) Filters() Filters {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filters
}

// Refill fetches up to MaxAutoPages consecutive provider pages while the
// queue remains under-filled. A refill already in progress makes overlapping
// calls no-ops. Per page, candidates pass the classified-exclusion filter,
// the attribute filters, and queue de-duplication before being appended.
//
// Termination, checked in order after each page: an empty raw page marks
// end-of-content; reaching the refill target stops the call; two consecutive
// pages whose surviving candidates were all already queued mark
// end-of-content (provider pagination has looped). Hitting the page cap
// without filling the queue is not an error.
func (e *Engine) Refill(ctx context.Context) error {
	e.mu.Lock()
	if e.closed || e.refilling || e.endOfContent {
		e.mu.Unlock()
		return nil
	}
	e.refilling = true
	gen := e.gen
	filters := e.filters
	cfg := e.cfg
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.refilling = false
		e.mu.Unlock()
	}()

	appended := 0
	dupPageStreak := 0

	for auto := 0; auto < cfg.MaxAutoPages; auto++ {
		e.mu.Lock()
		if e.gen != gen {
			// Filter reset happened mid-refill; stale pages must not land
			e.mu.Unlock()
			return nil
		}
		page := e.page
		e.mu.Unlock()

		raw, err := e.provider.FetchContent(ctx, filters.request(page))
		if err != nil {
			logger.Log.Warn().
				Err(err).
				Int("page", page).
				Msg("Refill halted by provider failure")
			return err
		}

		if len(raw) == 0 {
			e.markEndOfContent(gen)
			logger.Log.Info().
				Int("page", page).
				Msg("Provider exhausted, marking end of content")
			return nil
		}

		survived := make([]*models.MediaItem, 0, len(raw))
		passedFilters := 0

		e.mu.Lock()
		if e.gen != gen {
			e.mu.Unlock()
			return nil
		}
		for _, item := range raw {
			uniqueID := item.UniqueID()
			if !filters.IncludeClassified && e.library.IsClassified(uniqueID) {
				continue
			}
			if !filters.admits(item) {
				continue
			}
			passedFilters++
			if _, dup := e.queued[uniqueID]; dup {
				// Upstream pagination repeats items across pages
				continue
			}
			e.queued[uniqueID] = struct{}{}
			survived = append(survived, item)
		}
		e.items = append(e.items, survived...)
		e.page++
		e.mu.Unlock()

		appended += len(survived)

		logger.Log.Debug().
			Int("page", page).
			Int("raw", len(raw)).
			Int("appended", len(survived)).
			Msg("Processed provider page")

		if appended >= cfg.RefillTarget {
			return nil
		}

		if passedFilters > 0 && len(survived) == 0 {
			dupPageStreak++
			if dupPageStreak >= 2 {
				e.markEndOfContent(gen)
				logger.Log.Info().
					Int("page", page).
					Msg("Provider pagination looped, marking end of content")
				return nil
			}
		} else {
			dupPageStreak = 0
		}
	}

	// Page cap reached without filling the queue; the next trigger retries
	return nil
}

// RemoveAndRefill removes a classified item from the queue and refills when
// the queue has fallen under the low-water mark
func (e *Engine) RemoveAndRefill(ctx context.Context, uniqueID string) error {
	e.mu.Lock()
	if _, ok := e.queued[uniqueID]; ok {
		delete(e.queued, uniqueID)
		for i, item := range e.items {
			if item.UniqueID() == uniqueID {
				e.items = append(e.items[:i], e.items[i+1:]...)
				break
			}
		}
	}
	needRefill := len(e.items) < e.cfg.LowWaterMark && !e.endOfContent
	e.mu.Unlock()

	if needRefill {
		return e.Refill(ctx)
	}
	return nil
}

// PushFront re-inserts an undone item at the head of the queue
func (e *Engine) PushFront(item *models.MediaItem) {
	e.mu.Lock()
	defer e.mu.Unlock()

	uniqueID := item.UniqueID()
	if _, ok := e.queued[uniqueID]; ok {
		return
	}
	e.queued[uniqueID] = struct{}{}
	e.items = append([]*models.MediaItem{item}, e.items...)
}

// SetFilters schedules a debounced switch to a new browsing context. Each
// call replaces any pending timer wholesale; only after the interval elapses
// uninterrupted does the engine clear the queue, reset pagination, clear
// end-of-content, drop undo history, and refill.
func (e *Engine) SetFilters(filters Filters) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}

	e.pendingFilters = filters
	if e.debounce != nil {
		e.debounce.Stop()
	}
	e.debounce = time.AfterFunc(e.cfg.DebounceInterval, e.applyPendingFilters)
}

// applyPendingFilters runs on the debounce timer goroutine
func (e *Engine) applyPendingFilters() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.filters = e.pendingFilters
	e.resetLocked()
	e.mu.Unlock()

	// Undo history is semantically stale across a different browsing context
	e.library.ClearUndoHistory()

	if err := e.Refill(context.Background()); err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Refill after filter change failed")
	}
}

// ResetAndRefill clears the queue and refills immediately, bypassing the
// debounce. Used for explicit user retry.
func (e *Engine) ResetAndRefill(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	if e.debounce != nil {
		e.debounce.Stop()
		e.debounce = nil
	}
	e.resetLocked()
	e.mu.Unlock()

	return e.Refill(ctx)
}

// resetLocked clears queue state for a fresh browsing context. Callers hold e.mu.
func (e *Engine) resetLocked() {
	e.items = nil
	e.queued = make(map[string]struct{})
	e.page = 1
	e.endOfContent = false
	e.gen++
}

// markEndOfContent flags the terminal state unless a reset intervened
func (e *Engine) markEndOfContent(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen == gen {
		e.endOfContent = true
	}
}

// Items returns a snapshot of up to limit queued candidates in order.
// limit <= 0 returns the whole queue.
func (e *Engine) Items(limit int) []*models.MediaItem {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.items)
	if limit > 0 && limit < n {
		n = limit
	}
	snapshot := make([]*models.MediaItem, n)
	copy(snapshot, e.items[:n])
	return snapshot
}

// Size returns the number of queued candidates
func (e *Engine) Size() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.items)
}

// EndOfContent reports whether the current filter set is exhausted
func (e *Engine) EndOfContent() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.endOfContent
}

// Close cancels any pending debounce timer and stops the engine.
// No stale filter change lands after Close returns.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	if e.debounce != nil {
		e.debounce.Stop()
		e.debounce = nil
	}
}
