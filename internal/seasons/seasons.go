// Package seasons aggregates per-season request and availability state for
// TV series.
package seasons

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vmunix/reqarr/internal/request"
	"github.com/vmunix/reqarr/internal/resolver"
)

// Requests reads active season items and their parent requests.
type Requests interface {
	ActiveItems(ctx context.Context, tmdbID int64) ([]request.Item, error)
	Get(ctx context.Context, id string) (*request.Request, error)
}

// Resolver looks a series up in Sonarr.
type Resolver interface {
	Resolve(ctx context.Context, t request.Type, tmdbID int64, tvdbID *int64) resolver.Lookup
}

// JellyfinCache reports seasons seen in the Jellyfin library.
type JellyfinCache interface {
	AvailableSeasons(ctx context.Context, tmdbID int64) ([]int, error)
	SeriesItemID(ctx context.Context, tmdbID int64) (string, error)
	EpisodeCounts(ctx context.Context, tmdbID int64) (map[int]int, error)
}

// SeasonRequest summarises the active request items for one season.
type SeasonRequest struct {
	Requested int      `json:"requested"` // number of active items
	Episodes  int      `json:"episodes"`  // 0 means the whole season
	RequestID string   `json:"requestId"`
	Others    []string `json:"otherRequestIds,omitempty"`
}

// Availability is the set of seasons with files on disk.
type Availability struct {
	Seasons []int  `json:"seasons"`
	Warning string `json:"warning,omitempty"`
}

// Has reports whether season is available.
func (a Availability) Has(season int) bool {
	i := sort.SearchInts(a.Seasons, season)
	return i < len(a.Seasons) && a.Seasons[i] == season
}

// Aggregator combines request items, Sonarr statistics and the Jellyfin cache.
type Aggregator struct {
	requests Requests
	resolver Resolver
	jellyfin JellyfinCache
	log      *slog.Logger
}

// NewAggregator creates an aggregator. jellyfin may be nil.
func NewAggregator(requests Requests, res Resolver, jellyfin JellyfinCache, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		requests: requests,
		resolver: res,
		jellyfin: jellyfin,
		log:      logger.With("component", "seasons"),
	}
}

// RequestedSeasons groups the series' active request items by season.
func (a *Aggregator) RequestedSeasons(ctx context.Context, tmdbID int64) (map[int]SeasonRequest, error) {
	items, err := a.requests.ActiveItems(ctx, tmdbID)
	if err != nil {
		return nil, fmt.Errorf("requested seasons %d: %w", tmdbID, err)
	}

	out := make(map[int]SeasonRequest)
	for _, it := range items {
		sr, seen := out[it.Season]
		if !seen {
			sr = SeasonRequest{RequestID: it.RequestID, Episodes: it.Episodes}
		} else {
			if it.RequestID != sr.RequestID {
				sr.Others = append(sr.Others, it.RequestID)
			}
			if it.Episodes == 0 || (sr.Episodes != 0 && it.Episodes > sr.Episodes) {
				sr.Episodes = it.Episodes
			}
		}
		sr.Requested++
		out[it.Season] = sr
	}
	return out, nil
}

// AvailableSeasons returns the union of seasons Sonarr reports files for and
// seasons cached from Jellyfin, ascending. Neither source failing is fatal:
// the failure is reported in Warning. The error is only set if ctx is done.
func (a *Aggregator) AvailableSeasons(ctx context.Context, tmdbID int64, tvdbID *int64) (Availability, error) {
	set := make(map[int]struct{})
	var warnings []string

	l := a.resolver.Resolve(ctx, request.TypeEpisode, tmdbID, tvdbID)
	switch l.Status {
	case resolver.StatusFound:
		for _, s := range l.Ref.Seasons {
			if s.Number >= 1 && s.HasFiles() {
				set[s.Number] = struct{}{}
			}
		}
	case resolver.StatusUnavailable:
		a.log.Warn("sonarr unavailable for season availability", "tmdb_id", tmdbID, "error", l.Err)
		warnings = append(warnings, "sonarr unavailable: "+l.Err)
	}

	if a.jellyfin != nil {
		seasons, err := a.jellyfin.AvailableSeasons(ctx, tmdbID)
		if err != nil {
			a.log.Warn("jellyfin cache read failed", "tmdb_id", tmdbID, "error", err)
			warnings = append(warnings, "jellyfin cache: "+err.Error())
		}
		for _, s := range seasons {
			if s >= 1 {
				set[s] = struct{}{}
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return Availability{}, err
	}

	av := Availability{Seasons: make([]int, 0, len(set))}
	for s := range set {
		av.Seasons = append(av.Seasons, s)
	}
	sort.Ints(av.Seasons)
	for i, w := range warnings {
		if i > 0 {
			av.Warning += "; "
		}
		av.Warning += w
	}
	return av, nil
}

// Season status values in a Summary beyond the request states.
const (
	StatusAvailable    = "available"
	StatusNotRequested = "not_requested"
)

// Row is one season of a Summary.
type Row struct {
	Season        int           `json:"season"`
	Requested     bool          `json:"requested"`
	RequestID     string        `json:"requestId,omitempty"`
	RequestStatus request.State `json:"requestStatus,omitempty"`
	Episodes      int           `json:"episodes,omitempty"`
	Available     bool          `json:"available"`
	Status        string        `json:"status"`
	// CachedEpisodes counts the season's episodes seen in Jellyfin.
	CachedEpisodes int `json:"cachedEpisodes,omitempty"`
}

// Summary is the per-season view of a series. JellyfinSeriesID is set once
// any episode of the series has been seen in Jellyfin.
type Summary struct {
	TMDBID           int64  `json:"tmdbId"`
	JellyfinSeriesID string `json:"jellyfinSeriesId,omitempty"`
	Seasons          []Row  `json:"seasons"`
	Warning          string `json:"warning,omitempty"`
}

// Summary builds one row per season that is known, requested or available.
// known lists seasons from metadata and may be nil.
func (a *Aggregator) Summary(ctx context.Context, tmdbID int64, tvdbID *int64, known []int) (*Summary, error) {
	requested, err := a.RequestedSeasons(ctx, tmdbID)
	if err != nil {
		return nil, err
	}
	av, err := a.AvailableSeasons(ctx, tmdbID, tvdbID)
	if err != nil {
		return nil, err
	}
	sum := &Summary{TMDBID: tmdbID, Warning: av.Warning}

	var cached map[int]int
	if a.jellyfin != nil {
		sum.JellyfinSeriesID, err = a.jellyfin.SeriesItemID(ctx, tmdbID)
		if err == nil {
			cached, err = a.jellyfin.EpisodeCounts(ctx, tmdbID)
		}
		if err != nil {
			a.log.Warn("jellyfin series lookup failed", "tmdb_id", tmdbID, "error", err)
			if sum.Warning != "" {
				sum.Warning += "; "
			}
			sum.Warning += "jellyfin series: " + err.Error()
		}
	}

	numbers := make(map[int]struct{})
	for _, s := range known {
		if s >= 1 {
			numbers[s] = struct{}{}
		}
	}
	for s := range requested {
		numbers[s] = struct{}{}
	}
	for _, s := range av.Seasons {
		numbers[s] = struct{}{}
	}

	statuses := make(map[string]request.State)
	sum.Seasons = make([]Row, 0, len(numbers))
	for s := range numbers {
		row := Row{Season: s, Available: av.Has(s), Status: StatusNotRequested, CachedEpisodes: cached[s]}
		if sr, ok := requested[s]; ok {
			row.Requested = true
			row.RequestID = sr.RequestID
			row.Episodes = sr.Episodes
			st, ok := statuses[sr.RequestID]
			if !ok {
				r, err := a.requests.Get(ctx, sr.RequestID)
				if err != nil {
					return nil, fmt.Errorf("season %d request: %w", s, err)
				}
				st = r.Status
				statuses[sr.RequestID] = st
			}
			row.RequestStatus = st
			row.Status = string(st)
		}
		if row.Available {
			row.Status = StatusAvailable
		}
		sum.Seasons = append(sum.Seasons, row)
	}
	sort.Slice(sum.Seasons, func(i, j int) bool { return sum.Seasons[i].Season < sum.Seasons[j].Season })
	return sum, nil
}

// AllAvailable reports whether every listed season is available, along with
// the availability it was judged against.
func (a *Aggregator) AllAvailable(ctx context.Context, tmdbID int64, tvdbID *int64, seasons []int) (bool, Availability, error) {
	av, err := a.AvailableSeasons(ctx, tmdbID, tvdbID)
	if err != nil {
		return false, av, err
	}
	if len(seasons) == 0 {
		return false, av, nil
	}
	for _, s := range seasons {
		if !av.Has(s) {
			return false, av, nil
		}
	}
	return true, av, nil
}
