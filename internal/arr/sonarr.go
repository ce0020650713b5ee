package arr

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
)

// Sonarr is a Sonarr v3 API client.
type Sonarr struct {
	*client
}

// NewSonarr creates a Sonarr client.
func NewSonarr(baseURL, apiKey string, logger *slog.Logger, opts ...Option) *Sonarr {
	return &Sonarr{client: newClient("sonarr", baseURL, apiKey, logger, opts)}
}

// SeriesByTVDBID returns the library series with the given TVDB ID.
// Returns ErrNotFound if Sonarr doesn't track it.
func (s *Sonarr) SeriesByTVDBID(ctx context.Context, tvdbID int64) (*Series, error) {
	var series []Series
	q := url.Values{"tvdbId": {strconv.FormatInt(tvdbID, 10)}}
	if err := s.do(ctx, http.MethodGet, "/series", q, nil, &series); err != nil {
		return nil, err
	}
	for i := range series {
		if series[i].TVDBID == tvdbID {
			return &series[i], nil
		}
	}
	return nil, ErrNotFound
}

// ListSeries returns every series in the library.
func (s *Sonarr) ListSeries(ctx context.Context) ([]Series, error) {
	var series []Series
	if err := s.do(ctx, http.MethodGet, "/series", nil, nil, &series); err != nil {
		return nil, err
	}
	return series, nil
}

// Lookup searches Sonarr's metadata source. term may be a title or "tvdb:<id>".
// Results already in the library carry a non-zero ID.
func (s *Sonarr) Lookup(ctx context.Context, term string) ([]Series, error) {
	var series []Series
	q := url.Values{"term": {term}}
	if err := s.do(ctx, http.MethodGet, "/series/lookup", q, nil, &series); err != nil {
		return nil, err
	}
	return series, nil
}

// AddSeries adds a series to the library and returns it with its Sonarr ID.
func (s *Sonarr) AddSeries(ctx context.Context, series *Series) (*Series, error) {
	s.log.Debug("adding series", "tvdb_id", series.TVDBID, "title", series.Title)

	var added Series
	if err := s.do(ctx, http.MethodPost, "/series", nil, series, &added); err != nil {
		return nil, fmt.Errorf("add series %d: %w", series.TVDBID, err)
	}
	return &added, nil
}

// UpdateSeries saves changes to an existing series, such as season monitoring.
func (s *Sonarr) UpdateSeries(ctx context.Context, series *Series) (*Series, error) {
	var updated Series
	path := "/series/" + strconv.FormatInt(series.ID, 10)
	if err := s.do(ctx, http.MethodPut, path, nil, series, &updated); err != nil {
		return nil, fmt.Errorf("update series %d: %w", series.ID, err)
	}
	return &updated, nil
}

// SearchSeason asks Sonarr to search indexers for one season.
func (s *Sonarr) SearchSeason(ctx context.Context, seriesID int64, season int) error {
	cmd := command{Name: "SeasonSearch", SeriesID: seriesID, SeasonNumber: season}
	if err := s.do(ctx, http.MethodPost, "/command", nil, cmd, nil); err != nil {
		return fmt.Errorf("search season %d of series %d: %w", season, seriesID, err)
	}
	return nil
}

// QualityProfiles lists the configured quality profiles.
func (s *Sonarr) QualityProfiles(ctx context.Context) ([]QualityProfile, error) {
	var profiles []QualityProfile
	if err := s.do(ctx, http.MethodGet, "/qualityprofile", nil, nil, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// SystemStatus reports the Sonarr version.
func (s *Sonarr) SystemStatus(ctx context.Context) (*SystemStatus, error) {
	var st SystemStatus
	if err := s.do(ctx, http.MethodGet, "/system/status", nil, nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
