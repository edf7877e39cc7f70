package models

import "time"

// ClassifiedItem is the durable record of a swiped media item.
// At most one record exists per UniqueID; re-classification mutates the
// record in place under the promotion-only policy.
type ClassifiedItem struct {
	UniqueID       string    `json:"unique_id" gorm:"type:text;primaryKey;column:unique_id"`
	ExternalID     int64     `json:"external_id" gorm:"type:integer;not null;column:external_id"`
	MediaKind      MediaKind `json:"media_kind" gorm:"type:text;not null;column:media_kind"`
	Direction      Direction `json:"direction" gorm:"type:text;not null;column:direction"`
	ClassifiedAt   time.Time `json:"classified_at" gorm:"type:datetime;not null;column:classified_at"`
	Title          string    `json:"title" gorm:"type:text;not null;column:title"`
	Overview       string    `json:"overview" gorm:"type:text;column:overview"`
	PosterPath     *string   `json:"poster_path,omitempty" gorm:"type:text;column:poster_path"`
	ReleaseDate    *string   `json:"release_date,omitempty" gorm:"type:text;column:release_date"`
	Rating         *float64  `json:"rating,omitempty" gorm:"type:real;column:rating"`
	PersonalRating *int      `json:"personal_rating,omitempty" gorm:"type:integer;column:personal_rating"`
	GenreIDs       []int64   `json:"genre_ids,omitempty" gorm:"serializer:json;type:text;column:genre_ids"`
	SourcePlatform *string   `json:"source_platform,omitempty" gorm:"type:text;column:source_platform"`
	CreatedAt      time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
}

// NewClassifiedItem builds a classified record from a provider candidate
func NewClassifiedItem(item *MediaItem, direction Direction, sourcePlatform *string) *ClassifiedItem {
	return &ClassifiedItem{
		UniqueID:       item.UniqueID(),
		ExternalID:     item.ExternalID,
		MediaKind:      item.MediaKind,
		Direction:      direction,
		ClassifiedAt:   time.Now().UTC(),
		Title:          item.Title,
		Overview:       item.Overview,
		PosterPath:     item.PosterPath,
		ReleaseDate:    item.ReleaseDate,
		Rating:         item.Rating,
		GenreIDs:       item.GenreIDs,
		SourcePlatform: sourcePlatform,
		CreatedAt:      time.Now().UTC(),
	}
}

// MediaItem rebuilds the ephemeral candidate form of this record,
// used when undo re-inserts an item at the front of the queue.
func (c *ClassifiedItem) MediaItem() *MediaItem {
	return &MediaItem{
		ExternalID:  c.ExternalID,
		MediaKind:   c.MediaKind,
		Title:       c.Title,
		Overview:    c.Overview,
		PosterPath:  c.PosterPath,
		ReleaseDate: c.ReleaseDate,
		Rating:      c.Rating,
		GenreIDs:    c.GenreIDs,
	}
}
