package models

import (
	"time"

	"github.com/google/uuid"
)

// FollowedList is the local mirror of a remote published list the user follows
type FollowedList struct {
	LocalID          uuid.UUID  `json:"local_id" gorm:"type:text;primaryKey;column:local_id"`
	RemoteDocID      string     `json:"remote_doc_id" gorm:"type:text;not null;uniqueIndex;column:remote_doc_id" validate:"required"`
	Name             string     `json:"name" gorm:"type:text;not null;column:name"`
	OwnerDisplayName string     `json:"owner_display_name" gorm:"type:text;column:owner_display_name"`
	OwnerID          string     `json:"owner_id" gorm:"type:text;column:owner_id"`
	ItemCount        int        `json:"item_count" gorm:"type:integer;not null;default:0;column:item_count"`
	IsActive         bool       `json:"is_active" gorm:"type:integer;not null;default:1;column:is_active"`
	LastFetchedAt    *time.Time `json:"last_fetched_at,omitempty" gorm:"type:datetime;column:last_fetched_at"`
	CreatedAt        time.Time  `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt        time.Time  `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// NewFollowedList creates a new FollowedList mirror with generated UUID and timestamps
func NewFollowedList(remoteDocID, name, ownerDisplayName, ownerID string) *FollowedList {
	now := time.Now().UTC()
	return &FollowedList{
		LocalID:          uuid.New(),
		RemoteDocID:      remoteDocID,
		Name:             name,
		OwnerDisplayName: ownerDisplayName,
		OwnerID:          ownerID,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// FollowedListItem is one row of a followed list's mirrored snapshot.
// Rows for a given followed list are always a complete ordered replacement
// of the last received remote snapshot, never a partial merge.
type FollowedListItem struct {
	LocalID        uuid.UUID `json:"local_id" gorm:"type:text;primaryKey;column:local_id"`
	FollowedListID string    `json:"followed_list_id" gorm:"type:text;not null;index;column:followed_list_id"` // remote doc ID
	ExternalID     int64     `json:"external_id" gorm:"type:integer;not null;column:external_id"`
	MediaKind      MediaKind `json:"media_kind" gorm:"type:text;not null;column:media_kind"`
	Title          string    `json:"title" gorm:"type:text;not null;column:title"`
	PosterPath     *string   `json:"poster_path,omitempty" gorm:"type:text;column:poster_path"`
	SortOrder      int       `json:"sort_order" gorm:"type:integer;not null;column:sort_order"`
}

// NewFollowedListItem creates a mirrored snapshot row with generated UUID
func NewFollowedListItem(followedListID string, externalID int64, kind MediaKind, title string, posterPath *string, sortOrder int) *FollowedListItem {
	return &FollowedListItem{
		LocalID:        uuid.New(),
		FollowedListID: followedListID,
		ExternalID:     externalID,
		MediaKind:      kind,
		Title:          title,
		PosterPath:     posterPath,
		SortOrder:      sortOrder,
	}
}
