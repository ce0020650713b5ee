// Package resolver maps TMDB/TVDB identities onto Radarr and Sonarr entries.
//
// Results are cached briefly so a page that checks many titles does not hammer
// the download managers. Unreachable services are reported as StatusUnavailable,
// which callers must treat as "unknown", not "missing".
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/vmunix/reqarr/internal/arr"
	"github.com/vmunix/reqarr/internal/cache"
	"github.com/vmunix/reqarr/internal/clock"
	"github.com/vmunix/reqarr/internal/request"
	"github.com/vmunix/reqarr/pkg/titlematch"
)

//go:generate mockgen -destination=mocks/mock_arr.go -package=mocks . RadarrAPI,SonarrAPI

// Service names.
const (
	ServiceRadarr = "radarr"
	ServiceSonarr = "sonarr"
)

// Default cache settings.
const (
	DefaultCacheTTL  = 30 * time.Second
	DefaultCacheSize = 1024
)

var (
	// ErrNotConfigured is returned when the service needed for a media type has no client.
	ErrNotConfigured = errors.New("service not configured")

	// ErrUnknownService is returned for a service name other than radarr or sonarr.
	ErrUnknownService = errors.New("unknown service")

	// ErrMissingTVDBID is returned when a series must be added but has no TVDB ID.
	ErrMissingTVDBID = errors.New("series has no tvdb id")
)

// RadarrAPI is the subset of the Radarr client the resolver uses.
type RadarrAPI interface {
	MovieByTMDBID(ctx context.Context, tmdbID int64) (*arr.Movie, error)
	LookupMovie(ctx context.Context, tmdbID int64) (*arr.Movie, error)
	AddMovie(ctx context.Context, m *arr.Movie) (*arr.Movie, error)
	QualityProfiles(ctx context.Context) ([]arr.QualityProfile, error)
}

// SonarrAPI is the subset of the Sonarr client the resolver uses.
type SonarrAPI interface {
	SeriesByTVDBID(ctx context.Context, tvdbID int64) (*arr.Series, error)
	ListSeries(ctx context.Context) ([]arr.Series, error)
	Lookup(ctx context.Context, term string) ([]arr.Series, error)
	AddSeries(ctx context.Context, s *arr.Series) (*arr.Series, error)
	UpdateSeries(ctx context.Context, s *arr.Series) (*arr.Series, error)
	SearchSeason(ctx context.Context, seriesID int64, season int) error
	QualityProfiles(ctx context.Context) ([]arr.QualityProfile, error)
}

// Status classifies a lookup.
type Status string

const (
	StatusFound       Status = "found"
	StatusNotFound    Status = "not_found"
	StatusUnavailable Status = "unavailable"
)

// SeasonStats is one season as the download manager sees it.
type SeasonStats struct {
	Number           int   `json:"number"`
	Monitored        bool  `json:"monitored"`
	EpisodeFileCount int   `json:"episodeFileCount"`
	EpisodeCount     int   `json:"episodeCount"`
	SizeOnDisk       int64 `json:"sizeOnDisk"`
}

// HasFiles reports whether any file for the season is on disk. Either signal
// suffices; Sonarr versions disagree on which one they populate.
func (s SeasonStats) HasFiles() bool {
	return s.EpisodeFileCount > 0 || s.SizeOnDisk > 0
}

// ExternalRef points at a movie or series inside Radarr or Sonarr.
type ExternalRef struct {
	Service    string        `json:"service"`
	ExternalID int64         `json:"externalId"`
	TMDBID     int64         `json:"tmdbId"`
	TVDBID     int64         `json:"tvdbId,omitempty"`
	Title      string        `json:"title"`
	Year       int           `json:"year,omitempty"`
	Monitored  bool          `json:"monitored"`
	HasFile    bool          `json:"hasFile"`
	Seasons    []SeasonStats `json:"seasons,omitempty"`
}

// Lookup is the result of resolving one title.
type Lookup struct {
	Status Status
	Ref    *ExternalRef  // set when Status is StatusFound
	Err    string        // set when Status is StatusUnavailable
	Age    time.Duration // how old the cached answer is; zero when fresh
}

// Found reports whether the title exists in the download manager.
func (l Lookup) Found() bool {
	return l.Status == StatusFound && l.Ref != nil
}

// Query identifies the title to resolve. Title and Year are optional hints
// that enable fuzzy matching against Sonarr when IDs don't match.
type Query struct {
	Type   request.Type
	TMDBID int64
	TVDBID *int64
	Title  string
	Year   int
}

func (q Query) key() string {
	var tvdb int64
	if q.TVDBID != nil {
		tvdb = *q.TVDBID
	}
	return string(q.Type) + ":" + strconv.FormatInt(q.TMDBID, 10) + ":" + strconv.FormatInt(tvdb, 10)
}

// RadarrDefaults are applied to movies added through Ensure.
type RadarrDefaults struct {
	RootFolder          string
	QualityProfileID    int64
	MinimumAvailability string
}

// SonarrDefaults are applied to series added through Ensure.
type SonarrDefaults struct {
	RootFolder       string
	QualityProfileID int64
	SeasonFolder     bool
}

// Config holds resolver settings.
type Config struct {
	Radarr    RadarrDefaults
	Sonarr    SonarrDefaults
	CacheTTL  time.Duration
	CacheSize int
}

// Resolver resolves and submits titles against Radarr and Sonarr.
type Resolver struct {
	radarr RadarrAPI
	sonarr SonarrAPI
	cfg    Config
	clock  clock.Clock
	log    *slog.Logger

	lookups  *cache.TTL[string, Lookup]
	profiles *cache.TTL[string, []arr.QualityProfile]

	onUpstreamError func(service string)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock sets the clock used for cache expiry.
func WithClock(c clock.Clock) Option {
	return func(r *Resolver) {
		r.clock = c
	}
}

// WithLogger sets the resolver's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.log = logger
		}
	}
}

// WithUpstreamErrorHook is called with the service name whenever a call to
// Radarr or Sonarr fails for reasons other than "not found".
func WithUpstreamErrorHook(fn func(service string)) Option {
	return func(r *Resolver) {
		r.onUpstreamError = fn
	}
}

// New creates a Resolver. Either client may be nil if the service isn't configured.
func New(radarr RadarrAPI, sonarr SonarrAPI, cfg Config, opts ...Option) *Resolver {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	r := &Resolver{
		radarr: radarr,
		sonarr: sonarr,
		cfg:    cfg,
		clock:  clock.Real{},
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With("component", "resolver")
	r.lookups = cache.New[string, Lookup](cfg.CacheTTL, cache.WithSize(cfg.CacheSize), cache.WithClock(r.clock))
	r.profiles = cache.New[string, []arr.QualityProfile](cfg.CacheTTL, cache.WithSize(8), cache.WithClock(r.clock))
	return r
}

// Configured reports whether a client exists for service.
func (r *Resolver) Configured(service string) bool {
	switch service {
	case ServiceRadarr:
		return r.radarr != nil
	case ServiceSonarr:
		return r.sonarr != nil
	}
	return false
}

// ServiceFor returns the service that manages media of type t.
func ServiceFor(t request.Type) string {
	if t == request.TypeMovie {
		return ServiceRadarr
	}
	return ServiceSonarr
}

// Resolve looks up a title, serving cached answers within the cache TTL.
func (r *Resolver) Resolve(ctx context.Context, t request.Type, tmdbID int64, tvdbID *int64) Lookup {
	return r.Find(ctx, Query{Type: t, TMDBID: tmdbID, TVDBID: tvdbID}, 0)
}

// Find resolves q. A cached answer is used if it is younger than maxAge;
// maxAge 0 accepts anything within the cache TTL and a negative maxAge always
// asks the service. Unavailable results are never cached.
func (r *Resolver) Find(ctx context.Context, q Query, maxAge time.Duration) Lookup {
	key := q.key()
	if maxAge >= 0 {
		if l, age, ok := r.lookups.GetWithAge(key); ok && (maxAge == 0 || age < maxAge) {
			l.Age = age
			return l
		}
	}

	var l Lookup
	switch q.Type {
	case request.TypeMovie:
		l = r.resolveMovie(ctx, q)
	case request.TypeEpisode:
		l = r.resolveSeries(ctx, q)
	default:
		return unavailable(fmt.Errorf("unsupported media type %q", q.Type))
	}

	if l.Status != StatusUnavailable {
		r.lookups.Set(key, l)
	}
	return l
}

// Invalidate drops cached lookups for a title, with and without its TVDB ID.
func (r *Resolver) Invalidate(t request.Type, tmdbID int64, tvdbID *int64) {
	r.lookups.Delete(Query{Type: t, TMDBID: tmdbID}.key())
	if tvdbID != nil {
		r.lookups.Delete(Query{Type: t, TMDBID: tmdbID, TVDBID: tvdbID}.key())
	}
}

func unavailable(err error) Lookup {
	return Lookup{Status: StatusUnavailable, Err: err.Error()}
}

func (r *Resolver) upstreamError(service string, err error) {
	r.log.Warn("upstream call failed", "service", service, "error", err)
	if r.onUpstreamError != nil {
		r.onUpstreamError(service)
	}
}

func (r *Resolver) resolveMovie(ctx context.Context, q Query) Lookup {
	if r.radarr == nil {
		return unavailable(fmt.Errorf("%s: %w", ServiceRadarr, ErrNotConfigured))
	}

	m, err := r.radarr.MovieByTMDBID(ctx, q.TMDBID)
	if errors.Is(err, arr.ErrNotFound) {
		return Lookup{Status: StatusNotFound}
	}
	if err != nil {
		r.upstreamError(ServiceRadarr, err)
		return unavailable(err)
	}
	return Lookup{Status: StatusFound, Ref: movieRef(m)}
}

// resolveSeries tries TVDB ID, then the TMDB ID across the library, then a
// title search when a title hint is available.
func (r *Resolver) resolveSeries(ctx context.Context, q Query) Lookup {
	if r.sonarr == nil {
		return unavailable(fmt.Errorf("%s: %w", ServiceSonarr, ErrNotConfigured))
	}

	if q.TVDBID != nil && *q.TVDBID > 0 {
		s, err := r.sonarr.SeriesByTVDBID(ctx, *q.TVDBID)
		switch {
		case err == nil:
			return Lookup{Status: StatusFound, Ref: seriesRef(s, q.TMDBID)}
		case !errors.Is(err, arr.ErrNotFound):
			r.upstreamError(ServiceSonarr, err)
			return unavailable(err)
		}
	}

	library, err := r.sonarr.ListSeries(ctx)
	if err != nil {
		r.upstreamError(ServiceSonarr, err)
		return unavailable(err)
	}
	for i := range library {
		if library[i].TMDBID == q.TMDBID {
			return Lookup{Status: StatusFound, Ref: seriesRef(&library[i], q.TMDBID)}
		}
	}

	if q.Title == "" {
		return Lookup{Status: StatusNotFound}
	}

	results, err := r.sonarr.Lookup(ctx, q.Title)
	if err != nil && !errors.Is(err, arr.ErrNotFound) {
		r.upstreamError(ServiceSonarr, err)
		return unavailable(err)
	}
	var (
		owned      []arr.Series
		candidates []titlematch.Candidate
	)
	for _, s := range results {
		if s.ID == 0 {
			continue // not in the library
		}
		if conflictingIDs(q, &s) {
			continue
		}
		owned = append(owned, s)
		candidates = append(candidates, titlematch.Candidate{Title: s.Title, Year: s.Year})
	}
	if i, score := titlematch.Best(q.Title, q.Year, candidates); i >= 0 {
		r.log.Debug("series matched by title", "tmdb_id", q.TMDBID, "title", q.Title,
			"matched", owned[i].Title, "score", score)
		return Lookup{Status: StatusFound, Ref: seriesRef(&owned[i], q.TMDBID)}
	}
	return Lookup{Status: StatusNotFound}
}

// conflictingIDs reports whether s carries an ID that rules it out as the
// series q names. Titles only decide between series no ID can tell apart.
func conflictingIDs(q Query, s *arr.Series) bool {
	if q.TVDBID != nil && *q.TVDBID > 0 && s.TVDBID != 0 && s.TVDBID != *q.TVDBID {
		return true
	}
	return q.TMDBID > 0 && s.TMDBID != 0 && s.TMDBID != q.TMDBID
}

func movieRef(m *arr.Movie) *ExternalRef {
	return &ExternalRef{
		Service:    ServiceRadarr,
		ExternalID: m.ID,
		TMDBID:     m.TMDBID,
		Title:      m.Title,
		Year:       m.Year,
		Monitored:  m.Monitored,
		HasFile:    m.HasFile,
	}
}

func seriesRef(s *arr.Series, tmdbID int64) *ExternalRef {
	ref := &ExternalRef{
		Service:    ServiceSonarr,
		ExternalID: s.ID,
		TMDBID:     s.TMDBID,
		TVDBID:     s.TVDBID,
		Title:      s.Title,
		Year:       s.Year,
		Monitored:  s.Monitored,
	}
	if ref.TMDBID == 0 {
		ref.TMDBID = tmdbID
	}
	for _, season := range s.Seasons {
		st := SeasonStats{Number: season.SeasonNumber, Monitored: season.Monitored}
		if season.Statistics != nil {
			st.EpisodeFileCount = season.Statistics.EpisodeFileCount
			st.EpisodeCount = season.Statistics.EpisodeCount
			st.SizeOnDisk = season.Statistics.SizeOnDisk
		}
		if st.Number >= 1 && st.HasFiles() {
			ref.HasFile = true
		}
		ref.Seasons = append(ref.Seasons, st)
	}
	return ref
}

// QualityProfiles lists a service's quality profiles, cached for the cache TTL.
// On failure it returns an empty list alongside the error so callers can
// render without profiles.
func (r *Resolver) QualityProfiles(ctx context.Context, service string) ([]arr.QualityProfile, error) {
	if p, ok := r.profiles.Get(service); ok {
		return p, nil
	}

	var (
		profiles []arr.QualityProfile
		err      error
	)
	switch service {
	case ServiceRadarr:
		if r.radarr == nil {
			return []arr.QualityProfile{}, fmt.Errorf("%s: %w", service, ErrNotConfigured)
		}
		profiles, err = r.radarr.QualityProfiles(ctx)
	case ServiceSonarr:
		if r.sonarr == nil {
			return []arr.QualityProfile{}, fmt.Errorf("%s: %w", service, ErrNotConfigured)
		}
		profiles, err = r.sonarr.QualityProfiles(ctx)
	default:
		return []arr.QualityProfile{}, fmt.Errorf("%w: %q", ErrUnknownService, service)
	}
	if err != nil {
		r.upstreamError(service, err)
		return []arr.QualityProfile{}, err
	}
	if profiles == nil {
		profiles = []arr.QualityProfile{}
	}
	r.profiles.Set(service, profiles)
	return profiles, nil
}
