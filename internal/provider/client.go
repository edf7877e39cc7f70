// Package provider implements the content provider client used by the queue
// engine to fetch discovery pages and search results.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mcutler/reeldeck/internal/config"
	"github.com/mcutler/reeldeck/internal/logger"
	"github.com/mcutler/reeldeck/internal/models"
	cache "github.com/patrickmn/go-cache"
)

// Client handles communication with the content provider API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	pageCache  *cache.Cache
}

// NewClient creates a new content provider client
func NewClient(cfg *config.ProviderConfig) *Client {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		pageCache:  cache.New(ttl, 2*ttl),
	}
}

// FetchContent fetches one discovery page for the given filter set.
// Responses are cached briefly keyed by the full request, so repeat fetches
// for the same (method, page) within the TTL do not hit the network.
func (c *Client) FetchContent(ctx context.Context, req FetchRequest) ([]*models.MediaItem, error) {
	key := req.CacheKey()
	if cached, ok := c.pageCache.Get(key); ok {
		return cached.([]*models.MediaItem), nil
	}

	path, query := c.buildDiscoverRequest(req)

	var page providerPage
	if err := c.doRequest(ctx, path, query, &page); err != nil {
		return nil, err
	}

	items := make([]*models.MediaItem, 0, len(page.Results))
	for _, row := range page.Results {
		items = append(items, row.toMediaItem(req.ContentType))
	}

	logger.Log.Debug().
		Str("method", req.Method).
		Int("page", req.Page).
		Int("count", len(items)).
		Msg("Fetched provider page")

	c.pageCache.Set(key, items, cache.DefaultExpiration)
	return items, nil
}

// SearchMulti searches movies and shows by free-text query.
// Rows with media types other than movie/tv (people, collections) are dropped.
func (c *Client) SearchMulti(ctx context.Context, searchQuery string, page int) ([]*models.MediaItem, error) {
	query := url.Values{}
	query.Set("query", searchQuery)
	query.Set("page", strconv.Itoa(page))

	var result providerPage
	if err := c.doRequest(ctx, "/search/multi", query, &result); err != nil {
		return nil, err
	}

	items := make([]*models.MediaItem, 0, len(result.Results))
	for _, row := range result.Results {
		switch row.MediaType {
		case "movie":
			items = append(items, row.toMediaItem(models.MediaKindMovie))
		case "tv":
			items = append(items, row.toMediaItem(models.MediaKindShow))
		}
	}
	return items, nil
}

// buildDiscoverRequest maps a FetchRequest onto the provider's URL scheme
func (c *Client) buildDiscoverRequest(req FetchRequest) (string, url.Values) {
	kindPath := "movie"
	dateField := "primary_release_date"
	if req.ContentType == models.MediaKindShow {
		kindPath = "tv"
		dateField = "first_air_date"
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(req.Page))

	var path string
	switch req.Method {
	case MethodTrending:
		path = fmt.Sprintf("/trending/%s/week", kindPath)
	case MethodPopular, MethodTopRated, MethodNowPlaying:
		path = fmt.Sprintf("/%s/%s", kindPath, req.Method)
	default:
		path = fmt.Sprintf("/discover/%s", kindPath)
		if req.Sort != "" {
			query.Set("sort_by", req.Sort)
		}
		if req.GenreID != nil {
			query.Set("with_genres", strconv.FormatInt(*req.GenreID, 10))
		}
		if req.YearMin != nil {
			query.Set(dateField+".gte", fmt.Sprintf("%d-01-01", *req.YearMin))
		}
		if req.YearMax != nil {
			query.Set(dateField+".lte", fmt.Sprintf("%d-12-31", *req.YearMax))
		}
	}

	return path, query
}

// doRequest performs a GET against the provider API and decodes the response
func (c *Client) doRequest(ctx context.Context, path string, query url.Values, result interface{}) error {
	query.Set("api_key", c.apiKey)
	fullURL := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrProvider, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrProvider, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrProvider, err)
	}

	return nil
}

// classifyTransportError separates no-network-path failures from the rest so
// the caller can show an offline state rather than a generic error
func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	return fmt.Errorf("%w: %v", ErrProvider, err)
}
