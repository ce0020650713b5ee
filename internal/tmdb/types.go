// Package tmdb provides a client for The Movie Database API.
package tmdb

import (
	"strconv"
	"strings"
)

// Movie represents TMDB movie metadata.
type Movie struct {
	ID           int64          `json:"id"`
	IMDBID       string         `json:"imdb_id,omitempty"` // e.g., "tt0133093"
	Title        string         `json:"title"`
	Overview     string         `json:"overview"`
	ReleaseDate  string         `json:"release_date"` // "2024-03-01"
	PosterPath   string         `json:"poster_path"`  // "/abc123.jpg"
	BackdropPath string         `json:"backdrop_path"`
	VoteAverage  float64        `json:"vote_average"`
	VoteCount    int            `json:"vote_count"`
	Popularity   float64        `json:"popularity"`
	Runtime      int            `json:"runtime"` // minutes
	Genres       []Genre        `json:"genres"`
	Collection   *CollectionRef `json:"belongs_to_collection,omitempty"`
	ReleaseDates *ReleaseDates  `json:"release_dates,omitempty"` // via append_to_response
}

// Genre represents a movie or TV genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CollectionRef is the collection a movie belongs to.
type CollectionRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ReleaseDates groups a movie's releases by country.
type ReleaseDates struct {
	Results []CountryReleases `json:"results"`
}

// CountryReleases are one country's releases.
type CountryReleases struct {
	Country  string    `json:"iso_3166_1"`
	Releases []Release `json:"release_dates"`
}

// Release is a single dated release with its certification.
type Release struct {
	Certification string `json:"certification"`
	Type          int    `json:"type"`
}

// Year extracts the year from ReleaseDate.
func (m *Movie) Year() int {
	return yearOf(m.ReleaseDate)
}

// GenreIDs returns the movie's genre IDs.
func (m *Movie) GenreIDs() []int {
	return genreIDs(m.Genres)
}

// Certification returns the first non-empty certification for country
// (e.g. "US"), or "" if none is known.
func (m *Movie) Certification(country string) string {
	if m.ReleaseDates == nil {
		return ""
	}
	for _, cr := range m.ReleaseDates.Results {
		if !strings.EqualFold(cr.Country, country) {
			continue
		}
		for _, r := range cr.Releases {
			if c := strings.TrimSpace(r.Certification); c != "" {
				return c
			}
		}
	}
	return ""
}

// PosterURL returns the full poster image URL.
// Size can be: w92, w154, w185, w342, w500, w780, original
func (m *Movie) PosterURL(size string) string {
	return imageURL(size, m.PosterPath)
}

// TV represents TMDB series metadata.
type TV struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Overview       string          `json:"overview"`
	FirstAirDate   string          `json:"first_air_date"`
	PosterPath     string          `json:"poster_path"`
	BackdropPath   string          `json:"backdrop_path"`
	VoteAverage    float64         `json:"vote_average"`
	Popularity     float64         `json:"popularity"`
	Genres         []Genre         `json:"genres"`
	Seasons        []SeasonSummary `json:"seasons"`
	ExternalIDs    *ExternalIDs    `json:"external_ids,omitempty"`    // via append_to_response
	ContentRatings *ContentRatings `json:"content_ratings,omitempty"` // via append_to_response
}

// SeasonSummary is a season as listed on the series.
type SeasonSummary struct {
	SeasonNumber int    `json:"season_number"`
	Name         string `json:"name"`
	EpisodeCount int    `json:"episode_count"`
	AirDate      string `json:"air_date"`
}

// ExternalIDs are a series' IDs in other catalogues.
type ExternalIDs struct {
	TVDBID *int64 `json:"tvdb_id"`
	IMDBID string `json:"imdb_id"`
}

// ContentRatings lists a series' ratings by country.
type ContentRatings struct {
	Results []ContentRating `json:"results"`
}

// ContentRating is one country's rating.
type ContentRating struct {
	Country string `json:"iso_3166_1"`
	Rating  string `json:"rating"`
}

// Year extracts the year from FirstAirDate.
func (t *TV) Year() int {
	return yearOf(t.FirstAirDate)
}

// GenreIDs returns the series' genre IDs.
func (t *TV) GenreIDs() []int {
	return genreIDs(t.Genres)
}

// TVDBID returns the series' TVDB ID, or nil if TMDB doesn't know it.
func (t *TV) TVDBID() *int64 {
	if t.ExternalIDs == nil || t.ExternalIDs.TVDBID == nil || *t.ExternalIDs.TVDBID <= 0 {
		return nil
	}
	return t.ExternalIDs.TVDBID
}

// Certification returns the series' rating for country, or "".
func (t *TV) Certification(country string) string {
	if t.ContentRatings == nil {
		return ""
	}
	for _, r := range t.ContentRatings.Results {
		if strings.EqualFold(r.Country, country) {
			return strings.TrimSpace(r.Rating)
		}
	}
	return ""
}

// RegularSeasons returns season numbers ≥ 1 in ascending order. Season 0
// holds specials and is never requested implicitly.
func (t *TV) RegularSeasons() []int {
	var out []int
	for _, s := range t.Seasons {
		if s.SeasonNumber >= 1 {
			out = append(out, s.SeasonNumber)
		}
	}
	return out
}

// Season is a single season with its episodes.
type Season struct {
	ID           int64     `json:"id"`
	SeasonNumber int       `json:"season_number"`
	Name         string    `json:"name"`
	AirDate      string    `json:"air_date"`
	Episodes     []Episode `json:"episodes"`
}

// Episode is one episode of a season.
type Episode struct {
	EpisodeNumber int    `json:"episode_number"`
	Name          string `json:"name"`
	AirDate       string `json:"air_date"`
}

// Collection is a TMDB movie collection such as a film series.
type Collection struct {
	ID    int64            `json:"id"`
	Name  string           `json:"name"`
	Parts []CollectionPart `json:"parts"`
}

// CollectionPart is a movie within a collection.
type CollectionPart struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  string  `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
	Popularity  float64 `json:"popularity"`
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

func genreIDs(genres []Genre) []int {
	ids := make([]int, 0, len(genres))
	for _, g := range genres {
		ids = append(ids, g.ID)
	}
	return ids
}

func imageURL(size, path string) string {
	if path == "" {
		return ""
	}
	return "https://image.tmdb.org/t/p/" + size + path
}
