package library

import "github.com/mcutler/reeldeck/internal/models"

// UndoEntry captures enough information to exactly reverse one classification.
// A nil PreviousDirection means the classification created a new record, so
// undo deletes it; otherwise undo restores exactly the previous direction.
type UndoEntry struct {
	Item              *models.MediaItem
	NewDirection      models.Direction
	PreviousDirection *models.Direction
}

// undoLedger is a bounded LIFO stack of reversible classification operations.
// Pushing beyond capacity silently evicts the oldest entry; the oldest undo
// opportunity is lost, not the data. Owned by the library service and only
// touched under its mutex.
type undoLedger struct {
	entries  []UndoEntry
	capacity int
}

func newUndoLedger(capacity int) *undoLedger {
	if capacity < 1 {
		capacity = 1
	}
	return &undoLedger{
		entries:  make([]UndoEntry, 0, capacity),
		capacity: capacity,
	}
}

func (l *undoLedger) push(entry UndoEntry) {
	if len(l.entries) >= l.capacity {
		l.entries = l.entries[1:]
	}
	l.entries = append(l.entries, entry)
}

func (l *undoLedger) pop() (UndoEntry, bool) {
	if len(l.entries) == 0 {
		return UndoEntry{}, false
	}
	entry := l.entries[len(l.entries)-1]
	l.entries = l.entries[:len(l.entries)-1]
	return entry, true
}

func (l *undoLedger) clear() {
	l.entries = l.entries[:0]
}

func (l *undoLedger) len() int {
	return len(l.entries)
}
