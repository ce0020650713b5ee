package resolver

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/vmunix/reqarr/internal/arr"
	"github.com/vmunix/reqarr/internal/request"
)

// SubmitSpec describes what a request needs from the download manager.
type SubmitSpec struct {
	Type             request.Type
	TMDBID           int64
	TVDBID           *int64
	Title            string
	Year             int
	QualityProfileID *int64 // nil uses the configured default
	Seasons          []int  // TV only
}

// Ensure makes the download manager track the title: movies are added if
// missing; series are added or have the requested seasons monitored and
// searched. Cached lookups for the title are dropped afterwards.
func (r *Resolver) Ensure(ctx context.Context, spec SubmitSpec) (*ExternalRef, error) {
	defer r.Invalidate(spec.Type, spec.TMDBID, spec.TVDBID)

	switch spec.Type {
	case request.TypeMovie:
		return r.ensureMovie(ctx, spec)
	case request.TypeEpisode:
		return r.ensureSeries(ctx, spec)
	default:
		return nil, fmt.Errorf("unsupported media type %q", spec.Type)
	}
}

func (r *Resolver) ensureMovie(ctx context.Context, spec SubmitSpec) (*ExternalRef, error) {
	if r.radarr == nil {
		return nil, fmt.Errorf("%s: %w", ServiceRadarr, ErrNotConfigured)
	}

	existing, err := r.radarr.MovieByTMDBID(ctx, spec.TMDBID)
	if err == nil {
		r.log.Debug("movie already tracked", "tmdb_id", spec.TMDBID, "radarr_id", existing.ID)
		return movieRef(existing), nil
	}
	if !errors.Is(err, arr.ErrNotFound) {
		r.upstreamError(ServiceRadarr, err)
		return nil, fmt.Errorf("check radarr: %w", err)
	}

	m, err := r.radarr.LookupMovie(ctx, spec.TMDBID)
	if err != nil {
		if !errors.Is(err, arr.ErrNotFound) {
			r.upstreamError(ServiceRadarr, err)
		}
		return nil, fmt.Errorf("radarr lookup: %w", err)
	}

	m.QualityProfileID = r.cfg.Radarr.QualityProfileID
	if spec.QualityProfileID != nil {
		m.QualityProfileID = *spec.QualityProfileID
	}
	m.RootFolderPath = r.cfg.Radarr.RootFolder
	m.MinimumAvailability = r.cfg.Radarr.MinimumAvailability
	m.Monitored = true
	m.AddOptions = &arr.MovieAddOptions{SearchForMovie: true}

	added, err := r.radarr.AddMovie(ctx, m)
	if err != nil {
		if errors.Is(err, arr.ErrUnavailable) {
			r.upstreamError(ServiceRadarr, err)
		}
		return nil, err
	}
	r.log.Info("movie added", "tmdb_id", spec.TMDBID, "radarr_id", added.ID, "title", added.Title)
	return movieRef(added), nil
}

func (r *Resolver) ensureSeries(ctx context.Context, spec SubmitSpec) (*ExternalRef, error) {
	if r.sonarr == nil {
		return nil, fmt.Errorf("%s: %w", ServiceSonarr, ErrNotConfigured)
	}

	l := r.Find(ctx, Query{Type: spec.Type, TMDBID: spec.TMDBID, TVDBID: spec.TVDBID, Title: spec.Title, Year: spec.Year}, -1)
	switch l.Status {
	case StatusUnavailable:
		return nil, fmt.Errorf("%w: %s", arr.ErrUnavailable, l.Err)
	case StatusFound:
		return r.monitorSeasons(ctx, l.Ref.ExternalID, spec.TMDBID, spec.Seasons)
	}

	if spec.TVDBID == nil || *spec.TVDBID <= 0 {
		return nil, ErrMissingTVDBID
	}
	results, err := r.sonarr.Lookup(ctx, "tvdb:"+strconv.FormatInt(*spec.TVDBID, 10))
	if err != nil {
		if !errors.Is(err, arr.ErrNotFound) {
			r.upstreamError(ServiceSonarr, err)
		}
		return nil, fmt.Errorf("sonarr lookup: %w", err)
	}
	var series *arr.Series
	for i := range results {
		if results[i].TVDBID == *spec.TVDBID {
			series = &results[i]
			break
		}
	}
	if series == nil {
		return nil, fmt.Errorf("sonarr lookup tvdb %d: %w", *spec.TVDBID, arr.ErrNotFound)
	}

	series.QualityProfileID = r.cfg.Sonarr.QualityProfileID
	if spec.QualityProfileID != nil {
		series.QualityProfileID = *spec.QualityProfileID
	}
	series.RootFolderPath = r.cfg.Sonarr.RootFolder
	series.SeasonFolder = r.cfg.Sonarr.SeasonFolder
	series.Monitored = true
	if series.TMDBID == 0 {
		series.TMDBID = spec.TMDBID
	}
	for i := range series.Seasons {
		series.Seasons[i].Monitored = slices.Contains(spec.Seasons, series.Seasons[i].SeasonNumber)
	}
	series.AddOptions = &arr.SeriesAddOptions{SearchForMissingEpisodes: true}

	added, err := r.sonarr.AddSeries(ctx, series)
	if err != nil {
		if errors.Is(err, arr.ErrUnavailable) {
			r.upstreamError(ServiceSonarr, err)
		}
		return nil, err
	}
	r.log.Info("series added", "tmdb_id", spec.TMDBID, "sonarr_id", added.ID, "title", added.Title,
		"seasons", spec.Seasons)
	return seriesRef(added, spec.TMDBID), nil
}

// monitorSeasons turns on monitoring for the requested seasons of a tracked
// series and searches for each one that was not monitored before.
func (r *Resolver) monitorSeasons(ctx context.Context, seriesID, tmdbID int64, seasons []int) (*ExternalRef, error) {
	library, err := r.sonarr.ListSeries(ctx)
	if err != nil {
		r.upstreamError(ServiceSonarr, err)
		return nil, fmt.Errorf("list series: %w", err)
	}
	idx := slices.IndexFunc(library, func(s arr.Series) bool { return s.ID == seriesID })
	if idx < 0 {
		return nil, fmt.Errorf("series %d: %w", seriesID, arr.ErrNotFound)
	}
	series := library[idx]

	var newlyMonitored []int
	for _, n := range seasons {
		s := series.Season(n)
		if s == nil {
			series.Seasons = append(series.Seasons, arr.Season{SeasonNumber: n, Monitored: true})
			newlyMonitored = append(newlyMonitored, n)
			continue
		}
		if !s.Monitored {
			s.Monitored = true
			newlyMonitored = append(newlyMonitored, n)
		}
	}
	if len(newlyMonitored) == 0 && series.Monitored {
		return seriesRef(&series, tmdbID), nil
	}
	series.Monitored = true

	updated, err := r.sonarr.UpdateSeries(ctx, &series)
	if err != nil {
		if errors.Is(err, arr.ErrUnavailable) {
			r.upstreamError(ServiceSonarr, err)
		}
		return nil, err
	}
	for _, n := range newlyMonitored {
		if err := r.sonarr.SearchSeason(ctx, seriesID, n); err != nil {
			// The season is monitored; Sonarr's RSS sync will still pick it up.
			r.log.Warn("season search failed", "series_id", seriesID, "season", n, "error", err)
		}
	}
	r.log.Info("seasons monitored", "series_id", seriesID, "seasons", newlyMonitored)
	return seriesRef(updated, tmdbID), nil
}
