package arr

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
)

// Radarr is a Radarr v3 API client.
type Radarr struct {
	*client
}

// NewRadarr creates a Radarr client.
func NewRadarr(baseURL, apiKey string, logger *slog.Logger, opts ...Option) *Radarr {
	return &Radarr{client: newClient("radarr", baseURL, apiKey, logger, opts)}
}

// MovieByTMDBID returns the library movie with the given TMDB ID.
// Returns ErrNotFound if Radarr doesn't track it.
func (r *Radarr) MovieByTMDBID(ctx context.Context, tmdbID int64) (*Movie, error) {
	var movies []Movie
	q := url.Values{"tmdbId": {strconv.FormatInt(tmdbID, 10)}}
	if err := r.do(ctx, http.MethodGet, "/movie", q, nil, &movies); err != nil {
		return nil, err
	}
	// Older Radarr builds ignore the filter and return the whole library.
	for i := range movies {
		if movies[i].TMDBID == tmdbID {
			return &movies[i], nil
		}
	}
	return nil, ErrNotFound
}

// LookupMovie resolves a TMDB ID to the payload Radarr expects on add.
func (r *Radarr) LookupMovie(ctx context.Context, tmdbID int64) (*Movie, error) {
	var m Movie
	q := url.Values{"tmdbId": {strconv.FormatInt(tmdbID, 10)}}
	if err := r.do(ctx, http.MethodGet, "/movie/lookup/tmdb", q, nil, &m); err != nil {
		return nil, err
	}
	if m.TMDBID == 0 {
		return nil, ErrNotFound
	}
	return &m, nil
}

// AddMovie adds a movie to the library and returns it with its Radarr ID.
func (r *Radarr) AddMovie(ctx context.Context, m *Movie) (*Movie, error) {
	r.log.Debug("adding movie", "tmdb_id", m.TMDBID, "title", m.Title)

	var added Movie
	if err := r.do(ctx, http.MethodPost, "/movie", nil, m, &added); err != nil {
		return nil, fmt.Errorf("add movie %d: %w", m.TMDBID, err)
	}
	return &added, nil
}

// QualityProfiles lists the configured quality profiles.
func (r *Radarr) QualityProfiles(ctx context.Context) ([]QualityProfile, error) {
	var profiles []QualityProfile
	if err := r.do(ctx, http.MethodGet, "/qualityprofile", nil, nil, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// SystemStatus reports the Radarr version.
func (r *Radarr) SystemStatus(ctx context.Context) (*SystemStatus, error) {
	var s SystemStatus
	if err := r.do(ctx, http.MethodGet, "/system/status", nil, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
