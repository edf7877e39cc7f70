package models

import "fmt"

// MediaKind distinguishes movies from shows in provider data and composite keys
type MediaKind string

const (
	MediaKindMovie MediaKind = "movie"
	MediaKindShow  MediaKind = "show"
)

// Direction is the classification state of a library item
type Direction string

const (
	DirectionSkipped     Direction = "skipped"
	DirectionWatchlisted Direction = "watchlisted"
	DirectionSeen        Direction = "seen"
)

// Rank returns the total order used by the promotion-only policy:
// seen(2) > watchlisted(1) > skipped(0)
func (d Direction) Rank() int {
	switch d {
	case DirectionSeen:
		return 2
	case DirectionWatchlisted:
		return 1
	default:
		return 0
	}
}

// Valid reports whether d is one of the known directions
func (d Direction) Valid() bool {
	switch d {
	case DirectionSkipped, DirectionWatchlisted, DirectionSeen:
		return true
	}
	return false
}

// UniqueID builds the composite identity key for a piece of media.
// The same external ID surfaced as a movie and as a show are distinct entries.
func UniqueID(kind MediaKind, externalID int64) string {
	return fmt.Sprintf("%s_%d", kind, externalID)
}
