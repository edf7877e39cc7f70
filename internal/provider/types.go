package provider

import (
	"fmt"

	"github.com/mcutler/reeldeck/internal/models"
)

// Fetch methods supported by the discovery endpoint
const (
	MethodPopular    = "popular"
	MethodTopRated   = "top_rated"
	MethodTrending   = "trending"
	MethodNowPlaying = "now_playing"
)

// FetchRequest describes one page of discovery content.
// Fetches are idempotent per (method, page) and an empty result is a valid
// response signaling end-of-content for that page.
type FetchRequest struct {
	Method      string
	ContentType models.MediaKind
	GenreID     *int64
	Page        int
	Sort        string
	YearMin     *int
	YearMax     *int
}

// CacheKey returns a stable key covering every request parameter
func (r FetchRequest) CacheKey() string {
	genre := int64(-1)
	if r.GenreID != nil {
		genre = *r.GenreID
	}
	yearMin, yearMax := -1, -1
	if r.YearMin != nil {
		yearMin = *r.YearMin
	}
	if r.YearMax != nil {
		yearMax = *r.YearMax
	}
	return fmt.Sprintf("discover|%s|%s|%d|%d|%s|%d|%d", r.Method, r.ContentType, genre, r.Page, r.Sort, yearMin, yearMax)
}

// providerItem is the provider's wire shape for one result row.
// Movies carry title/release_date, shows carry name/first_air_date.
type providerItem struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	PosterPath   *string `json:"poster_path"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
	GenreIDs     []int64 `json:"genre_ids"`
	MediaType    string  `json:"media_type"`
}

// providerPage is the provider's wire shape for one page of results
type providerPage struct {
	Page         int            `json:"page"`
	Results      []providerItem `json:"results"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

// toMediaItem converts a wire row into the core candidate model.
// kind overrides the row's own media_type for kind-specific endpoints.
func (p providerItem) toMediaItem(kind models.MediaKind) *models.MediaItem {
	title := p.Title
	if title == "" {
		title = p.Name
	}

	date := p.ReleaseDate
	if date == "" {
		date = p.FirstAirDate
	}
	var releaseDate *string
	if date != "" {
		releaseDate = &date
	}

	var rating *float64
	if p.VoteAverage > 0 {
		rating = &p.VoteAverage
	}

	return &models.MediaItem{
		ExternalID:  p.ID,
		MediaKind:   kind,
		Title:       title,
		Overview:    p.Overview,
		PosterPath:  p.PosterPath,
		ReleaseDate: releaseDate,
		Rating:      rating,
		GenreIDs:    p.GenreIDs,
	}
}
