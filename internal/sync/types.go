package sync

import (
	"context"

	"github.com/mcutler/reeldeck/internal/models"
)

// SnapshotItem is one entry of a remote published list document
type SnapshotItem struct {
	ExternalID int64            `json:"external_id"`
	MediaKind  models.MediaKind `json:"media_kind"`
	Title      string           `json:"title"`
	PosterPath *string          `json:"poster_path,omitempty"`
	SortOrder  int              `json:"sort_order"`
}

// ListSnapshot is the authoritative remote state of a published list.
// Items always carry the complete membership in order; the local mirror is
// fully replaced on every reconciliation, never partially merged.
type ListSnapshot struct {
	Name             string         `json:"name"`
	OwnerID          string         `json:"owner_id"`
	OwnerDisplayName string         `json:"owner_display_name"`
	IsActive         bool           `json:"is_active"`
	Items            []SnapshotItem `json:"items"`
}

// ListEvent is one inbound push event for a subscribed remote document.
// Gone (or a delivery error) means the document is no longer available.
type ListEvent struct {
	Snapshot *ListSnapshot
	Gone     bool
	Err      error
}

// Subscription is a handle to one open push subscription
type Subscription interface {
	Close() error
}

// RemoteStore is the remote list store contract consumed by the sync engine.
// Implementations deliver subscription events for a single document strictly
// in receipt order.
type RemoteStore interface {
	CreateDocument(ctx context.Context, snapshot *ListSnapshot) (string, error)
	UpdateDocument(ctx context.Context, docID string, snapshot *ListSnapshot) error
	SoftDeactivate(ctx context.Context, docID string) error
	GetDocument(ctx context.Context, docID string) (*ListSnapshot, error)
	Subscribe(docID string, onEvent func(ListEvent)) (Subscription, error)

	CreateFollow(ctx context.Context, userID, docID string) error
	DeleteFollow(ctx context.Context, userID, docID string) error
	FollowExists(ctx context.Context, userID, docID string) (bool, error)
}

// Listen states for a followed document
const (
	StateNone      = "none"
	StateListening = "listening"
	StateDetached  = "detached"
)
