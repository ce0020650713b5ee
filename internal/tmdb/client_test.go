package tmdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/reqarr/internal/clock"
)

func TestClient_GetMovie(t *testing.T) {
	// Mock TMDB API
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/movie/550", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "release_dates", r.URL.Query().Get("append_to_response"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": 550,
			"title": "Fight Club",
			"release_date": "1999-10-15",
			"poster_path": "/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg",
			"vote_average": 8.4,
			"popularity": 61.4,
			"runtime": 139,
			"genres": [{"id": 18, "name": "Drama"}, {"id": 53, "name": "Thriller"}],
			"release_dates": {"results": [
				{"iso_3166_1": "DE", "release_dates": [{"certification": "18", "type": 3}]},
				{"iso_3166_1": "US", "release_dates": [{"certification": "", "type": 1}, {"certification": "R", "type": 3}]}
			]}
		}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	movie, err := client.GetMovie(context.Background(), 550)
	require.NoError(t, err)
	assert.Equal(t, int64(550), movie.ID)
	assert.Equal(t, "Fight Club", movie.Title)
	assert.Equal(t, 1999, movie.Year())
	assert.Equal(t, 139, movie.Runtime)
	assert.InDelta(t, 61.4, movie.Popularity, 0.001)
	assert.Equal(t, []int{18, 53}, movie.GenreIDs())
	assert.Equal(t, "R", movie.Certification("US"))
	assert.Equal(t, "18", movie.Certification("de"))
	assert.Empty(t, movie.Certification("GB"))
}

func TestClient_GetMovie_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status_code":34,"status_message":"The resource you requested could not be found."}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	movie, err := client.GetMovie(context.Background(), 99999999)
	assert.Nil(t, movie)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_GetMovie_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewClient("test-key", WithBaseURL(server.URL)).GetMovie(context.Background(), 550)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestClient_Cache(t *testing.T) {
	callCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		resp := Movie{ID: 550, Title: "Fight Club"}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	clk := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	client := NewClient("test-key", WithBaseURL(server.URL), WithCacheTTL(time.Hour), WithClock(clk))

	// First call hits API
	_, err := client.GetMovie(context.Background(), 550)
	require.NoError(t, err)
	assert.Equal(t, 1, callCount)

	// Second call uses cache
	movie, err := client.GetMovie(context.Background(), 550)
	require.NoError(t, err)
	assert.Equal(t, "Fight Club", movie.Title)
	assert.Equal(t, 1, callCount, "should use cache, not call API again")

	// Expired entries are refetched
	clk.Advance(time.Hour)
	_, err = client.GetMovie(context.Background(), 550)
	require.NoError(t, err)
	assert.Equal(t, 2, callCount)
}

func TestClient_GetTV(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/tv/1396", r.URL.Path)
		assert.Equal(t, "external_ids,content_ratings", r.URL.Query().Get("append_to_response"))

		_, _ = w.Write([]byte(`{
			"id": 1396,
			"name": "Breaking Bad",
			"first_air_date": "2008-01-20",
			"vote_average": 8.9,
			"genres": [{"id": 18, "name": "Drama"}],
			"seasons": [
				{"season_number": 0, "name": "Specials", "episode_count": 9},
				{"season_number": 1, "name": "Season 1", "episode_count": 7},
				{"season_number": 2, "name": "Season 2", "episode_count": 13}
			],
			"external_ids": {"tvdb_id": 81189, "imdb_id": "tt0903747"},
			"content_ratings": {"results": [{"iso_3166_1": "US", "rating": "TV-MA"}]}
		}`))
	}))
	defer server.Close()

	tv, err := NewClient("test-key", WithBaseURL(server.URL)).GetTV(context.Background(), 1396)
	require.NoError(t, err)
	assert.Equal(t, "Breaking Bad", tv.Name)
	assert.Equal(t, 2008, tv.Year())
	assert.Equal(t, []int{1, 2}, tv.RegularSeasons())
	require.NotNil(t, tv.TVDBID())
	assert.Equal(t, int64(81189), *tv.TVDBID())
	assert.Equal(t, "TV-MA", tv.Certification("US"))
}

func TestTV_TVDBIDMissing(t *testing.T) {
	assert.Nil(t, (&TV{}).TVDBID())

	var zero int64
	assert.Nil(t, (&TV{ExternalIDs: &ExternalIDs{TVDBID: &zero}}).TVDBID())
}

func TestClient_GetTVSeason(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/tv/1396/season/2", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": 3573, "season_number": 2, "episodes": [
			{"episode_number": 1, "name": "Seven Thirty-Seven"},
			{"episode_number": 2, "name": "Grilled"}
		]}`))
	}))
	defer server.Close()

	s, err := NewClient("test-key", WithBaseURL(server.URL)).GetTVSeason(context.Background(), 1396, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, s.SeasonNumber)
	assert.Len(t, s.Episodes, 2)
}

func TestClient_GetCollection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/collection/2344", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": 2344, "name": "The Matrix Collection", "parts": [
			{"id": 603, "title": "The Matrix", "release_date": "1999-03-30"},
			{"id": 604, "title": "The Matrix Reloaded", "release_date": "2003-05-15"}
		]}`))
	}))
	defer server.Close()

	coll, err := NewClient("test-key", WithBaseURL(server.URL)).GetCollection(context.Background(), 2344)
	require.NoError(t, err)
	assert.Equal(t, "The Matrix Collection", coll.Name)
	require.Len(t, coll.Parts, 2)
	assert.Equal(t, int64(604), coll.Parts[1].ID)
}

func TestMovie_PosterURL(t *testing.T) {
	m := &Movie{PosterPath: "/abc.jpg"}
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/abc.jpg", m.PosterURL("w500"))
	assert.Empty(t, (&Movie{}).PosterURL("w500"))
}
