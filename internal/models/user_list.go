package models

import (
	"time"

	"github.com/google/uuid"
)

// UserList is a user-defined, orderable collection of classified items
type UserList struct {
	ID           uuid.UUID  `json:"id" gorm:"type:text;primaryKey;column:id"`
	Name         string     `json:"name" gorm:"type:text;not null;column:name" validate:"required,min=1,max=255"`
	SortOrder    int        `json:"sort_order" gorm:"type:integer;not null;default:0;column:sort_order"`
	RemoteDocID  *string    `json:"remote_doc_id,omitempty" gorm:"type:text;column:remote_doc_id"`
	IsPublished  bool       `json:"is_published" gorm:"type:integer;not null;default:0;column:is_published"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty" gorm:"type:datetime;column:last_synced_at"`
	CreatedAt    time.Time  `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// NewUserList creates a new UserList with generated UUID and timestamps
func NewUserList(name string, sortOrder int) *UserList {
	now := time.Now().UTC()
	return &UserList{
		ID:        uuid.New(),
		Name:      name,
		SortOrder: sortOrder,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ListEntry is a pure join record between a list and a classified item.
// Membership is addressed by opaque identifiers so it survives independently
// of how the classified item itself is stored.
type ListEntry struct {
	ID        uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	ListID    uuid.UUID `json:"list_id" gorm:"type:text;not null;column:list_id" validate:"required"`
	ItemID    string    `json:"item_id" gorm:"type:text;not null;column:item_id" validate:"required"` // ClassifiedItem UniqueID
	SortOrder int       `json:"sort_order" gorm:"type:integer;not null;column:sort_order" validate:"gte=0"`
	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
}

// NewListEntry creates a new ListEntry with generated UUID and timestamp
func NewListEntry(listID uuid.UUID, itemID string, sortOrder int) *ListEntry {
	return &ListEntry{
		ID:        uuid.New(),
		ListID:    listID,
		ItemID:    itemID,
		SortOrder: sortOrder,
		CreatedAt: time.Now().UTC(),
	}
}
