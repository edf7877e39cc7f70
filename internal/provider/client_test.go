package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcutler/reeldeck/internal/config"
	"github.com/mcutler/reeldeck/internal/models"
)

func newTestClient(serverURL string) *Client {
	return NewClient(&config.ProviderConfig{
		BaseURL:  serverURL,
		APIKey:   "test-key",
		Timeout:  2 * time.Second,
		CacheTTL: time.Minute,
	})
}

func TestFetchContent_PopularMovies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/popular", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"page": 1,
			"results": [
				{"id": 27205, "title": "Inception", "overview": "A thief...", "release_date": "2010-07-16", "vote_average": 8.4, "genre_ids": [28, 878]},
				{"id": 550, "title": "Fight Club", "vote_average": 8.8}
			],
			"total_pages": 500,
			"total_results": 10000
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	items, err := client.FetchContent(context.Background(), FetchRequest{
		Method:      MethodPopular,
		ContentType: models.MediaKindMovie,
		Page:        1,
	})

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "movie_27205", items[0].UniqueID())
	assert.Equal(t, "Inception", items[0].Title)
	require.NotNil(t, items[0].ReleaseDate)
	assert.Equal(t, "2010-07-16", *items[0].ReleaseDate)
	require.NotNil(t, items[0].Rating)
	assert.Equal(t, 8.4, *items[0].Rating)
	assert.Equal(t, []int64{28, 878}, items[0].GenreIDs)
	assert.Nil(t, items[1].ReleaseDate)
}

func TestFetchContent_ShowsUseNameAndFirstAirDate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tv/top_rated", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"page": 1,
			"results": [{"id": 1396, "name": "Breaking Bad", "first_air_date": "2008-01-20", "vote_average": 8.9}]
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	items, err := client.FetchContent(context.Background(), FetchRequest{
		Method:      MethodTopRated,
		ContentType: models.MediaKindShow,
		Page:        1,
	})

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "show_1396", items[0].UniqueID())
	assert.Equal(t, "Breaking Bad", items[0].Title)
	require.NotNil(t, items[0].ReleaseDate)
	assert.Equal(t, "2008-01-20", *items[0].ReleaseDate)
}

func TestFetchContent_DiscoverQueryParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/discover/movie", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "27", q.Get("with_genres"))
		assert.Equal(t, "vote_average.desc", q.Get("sort_by"))
		assert.Equal(t, "1980-01-01", q.Get("primary_release_date.gte"))
		assert.Equal(t, "1989-12-31", q.Get("primary_release_date.lte"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page": 1, "results": []}`))
	}))
	defer server.Close()

	genre := int64(27)
	yearMin, yearMax := 1980, 1989
	client := newTestClient(server.URL)
	items, err := client.FetchContent(context.Background(), FetchRequest{
		Method:      "discover",
		ContentType: models.MediaKindMovie,
		GenreID:     &genre,
		Page:        1,
		Sort:        "vote_average.desc",
		YearMin:     &yearMin,
		YearMax:     &yearMax,
	})

	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFetchContent_CachesPages(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page": 1, "results": [{"id": 1, "title": "A"}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	req := FetchRequest{Method: MethodPopular, ContentType: models.MediaKindMovie, Page: 1}

	_, err := client.FetchContent(context.Background(), req)
	require.NoError(t, err)
	_, err = client.FetchContent(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	// A different page is a different cache key
	req.Page = 2
	_, err = client.FetchContent(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestFetchContent_ServerErrorIsProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.FetchContent(context.Background(), FetchRequest{
		Method:      MethodPopular,
		ContentType: models.MediaKindMovie,
		Page:        1,
	})

	assert.True(t, IsProvider(err))
	assert.False(t, IsConnectivity(err))
}

func TestFetchContent_TimeoutIsConnectivityError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(&config.ProviderConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Timeout: 20 * time.Millisecond,
	})

	_, err := client.FetchContent(context.Background(), FetchRequest{
		Method:      MethodPopular,
		ContentType: models.MediaKindMovie,
		Page:        1,
	})

	assert.True(t, IsConnectivity(err))
}

func TestSearchMulti_DropsNonMediaRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/multi", r.URL.Path)
		assert.Equal(t, "alien", r.URL.Query().Get("query"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"page": 1,
			"results": [
				{"id": 348, "title": "Alien", "media_type": "movie"},
				{"id": 4935, "name": "Sigourney Weaver", "media_type": "person"},
				{"id": 110316, "name": "Alien: Earth", "media_type": "tv"}
			]
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	items, err := client.SearchMulti(context.Background(), "alien", 1)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "movie_348", items[0].UniqueID())
	assert.Equal(t, "show_110316", items[1].UniqueID())
}
