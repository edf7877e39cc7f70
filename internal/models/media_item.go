package models

// MediaItem is an ephemeral candidate sourced from the content provider.
// It is never persisted directly; classification consumes it to build a
// ClassifiedItem keyed by its UniqueID.
type MediaItem struct {
	ExternalID  int64     `json:"external_id"`
	MediaKind   MediaKind `json:"media_kind"`
	Title       string    `json:"title"`
	Overview    string    `json:"overview"`
	PosterPath  *string   `json:"poster_path,omitempty"`
	ReleaseDate *string   `json:"release_date,omitempty"` // YYYY-MM-DD
	Rating      *float64  `json:"rating,omitempty"`
	GenreIDs    []int64   `json:"genre_ids,omitempty"`
}

// UniqueID returns the composite identity key for this item
func (m *MediaItem) UniqueID() string {
	return UniqueID(m.MediaKind, m.ExternalID)
}
