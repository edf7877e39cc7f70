package queue

import (
	"strconv"

	"github.com/mcutler/reeldeck/internal/models"
	"github.com/mcutler/reeldeck/internal/provider"
)

// Filters is the discovery filter set the queue is built from. Changing any
// field is a browsing-context switch: the queue is rebuilt from page 1 and
// undo history is cleared.
type Filters struct {
	Method            string           `json:"method"`
	ContentType       models.MediaKind `json:"content_type"`
	GenreID           *int64           `json:"genre_id,omitempty"`
	Sort              string           `json:"sort,omitempty"`
	YearMin           *int             `json:"year_min,omitempty"`
	YearMax           *int             `json:"year_max,omitempty"`
	IncludeClassified bool             `json:"include_classified"`
}

// DefaultFilters returns the initial browsing context
func DefaultFilters() Filters {
	return Filters{
		Method:      provider.MethodPopular,
		ContentType: models.MediaKindMovie,
	}
}

// request maps the filter set and a page number onto a provider fetch
func (f Filters) request(page int) provider.FetchRequest {
	return provider.FetchRequest{
		Method:      f.Method,
		ContentType: f.ContentType,
		GenreID:     f.GenreID,
		Page:        page,
		Sort:        f.Sort,
		YearMin:     f.YearMin,
		YearMax:     f.YearMax,
	}
}

// admits applies the attribute filters to one candidate. An item whose
// release year is unparseable is excluded whenever a year bound is set.
func (f Filters) admits(item *models.MediaItem) bool {
	if f.YearMin == nil && f.YearMax == nil {
		return true
	}

	year, ok := releaseYear(item)
	if !ok {
		return false
	}
	if f.YearMin != nil && year < *f.YearMin {
		return false
	}
	if f.YearMax != nil && year > *f.YearMax {
		return false
	}
	return true
}

// releaseYear extracts the year from a YYYY-MM-DD release date
func releaseYear(item *models.MediaItem) (int, bool) {
	if item.ReleaseDate == nil || len(*item.ReleaseDate) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi((*item.ReleaseDate)[:4])
	if err != nil || year <= 0 {
		return 0, false
	}
	return year, true
}
