package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vmunix/reqarr/internal/clock"
	"github.com/vmunix/reqarr/internal/database"
	"github.com/vmunix/reqarr/internal/events"
	"github.com/vmunix/reqarr/internal/notify"
	"github.com/vmunix/reqarr/internal/request"
	"github.com/vmunix/reqarr/internal/resolver"
	"github.com/vmunix/reqarr/internal/rules"
	"github.com/vmunix/reqarr/internal/tmdb"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type staticRules []*rules.Rule

func (s staticRules) List(context.Context) ([]*rules.Rule, error) { return s, nil }

// wellRated auto-approves anything rated 7.0 or better.
var wellRated = &rules.Rule{
	ID: 1, Name: "well rated", Enabled: true, Priority: 10,
	Conditions: rules.PopularityConditions{MinVoteAverage: ptr(7.0)},
}

type fakeMetadata struct {
	movies      map[int64]*tmdb.Movie
	tv          map[int64]*tmdb.TV
	collections map[int64]*tmdb.Collection
	errs        map[int64]error
}

func newFakeMetadata() *fakeMetadata {
	genres := []tmdb.Genre{{ID: 18, Name: "Drama"}}
	return &fakeMetadata{
		movies: map[int64]*tmdb.Movie{
			550: {ID: 550, Title: "Fight Club", ReleaseDate: "1999-10-15", VoteAverage: 8.4, Popularity: 61.4, Genres: genres},
			603: {ID: 603, Title: "The Matrix", ReleaseDate: "1999-03-30", VoteAverage: 8.2, Genres: genres},
			604: {ID: 604, Title: "The Matrix Reloaded", ReleaseDate: "2003-05-15", VoteAverage: 7.0, Genres: genres},
			605: {ID: 605, Title: "The Matrix Revolutions", ReleaseDate: "2003-11-05", VoteAverage: 6.7, Genres: genres},
			680: {ID: 680, Title: "Pulp Fiction", ReleaseDate: "1994-09-10", VoteAverage: 8.5, Genres: genres},
			13:  {ID: 13, Title: "Forrest Gump", ReleaseDate: "1994-06-23", VoteAverage: 6.99, Genres: genres},
		},
		tv: map[int64]*tmdb.TV{
			1396: {
				ID: 1396, Name: "Breaking Bad", FirstAirDate: "2008-01-20", VoteAverage: 8.9, Genres: genres,
				Seasons: []tmdb.SeasonSummary{
					{SeasonNumber: 0}, {SeasonNumber: 1}, {SeasonNumber: 2}, {SeasonNumber: 3}, {SeasonNumber: 4}, {SeasonNumber: 5},
				},
				ExternalIDs: &tmdb.ExternalIDs{TVDBID: ptr(int64(81189))},
			},
		},
		collections: map[int64]*tmdb.Collection{
			2344: {ID: 2344, Name: "The Matrix Collection", Parts: []tmdb.CollectionPart{
				{ID: 603, Title: "The Matrix"},
				{ID: 604, Title: "The Matrix Reloaded"},
				{ID: 605, Title: "The Matrix Revolutions"},
				{ID: 606, Title: "The Matrix Resurrections"},
			}},
		},
		errs: map[int64]error{
			606: errors.New("tmdb: 503 Service Unavailable"),
		},
	}
}

func (f *fakeMetadata) GetMovie(_ context.Context, id int64) (*tmdb.Movie, error) {
	if err, ok := f.errs[id]; ok {
		return nil, err
	}
	if m, ok := f.movies[id]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("movie %d: %w", id, tmdb.ErrNotFound)
}

func (f *fakeMetadata) GetTV(_ context.Context, id int64) (*tmdb.TV, error) {
	if err, ok := f.errs[id]; ok {
		return nil, err
	}
	if tv, ok := f.tv[id]; ok {
		return tv, nil
	}
	return nil, fmt.Errorf("tv %d: %w", id, tmdb.ErrNotFound)
}

func (f *fakeMetadata) GetTVSeason(_ context.Context, id int64, season int) (*tmdb.Season, error) {
	return &tmdb.Season{SeasonNumber: season}, nil
}

func (f *fakeMetadata) GetCollection(_ context.Context, id int64) (*tmdb.Collection, error) {
	if c, ok := f.collections[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("collection %d: %w", id, tmdb.ErrNotFound)
}

type fakeResolver struct {
	mu          sync.Mutex
	lookups     map[int64]resolver.Lookup
	ensureErr   map[int64]error
	blockEnsure bool
	ensured     []resolver.SubmitSpec
	maxAges     []time.Duration
	invalidated []int64
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{lookups: map[int64]resolver.Lookup{}, ensureErr: map[int64]error{}}
}

func (f *fakeResolver) Find(_ context.Context, q resolver.Query, maxAge time.Duration) resolver.Lookup {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.maxAges = append(f.maxAges, maxAge)
	if l, ok := f.lookups[q.TMDBID]; ok {
		return l
	}
	return resolver.Lookup{Status: resolver.StatusNotFound}
}

func (f *fakeResolver) Ensure(ctx context.Context, spec resolver.SubmitSpec) (*resolver.ExternalRef, error) {
	f.mu.Lock()
	block := f.blockEnsure
	err := f.ensureErr[spec.TMDBID]
	f.ensured = append(f.ensured, spec)
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return &resolver.ExternalRef{
		Service:    resolver.ServiceFor(spec.Type),
		ExternalID: spec.TMDBID * 10,
		TMDBID:     spec.TMDBID,
		Monitored:  true,
	}, nil
}

func (f *fakeResolver) Invalidate(_ request.Type, tmdbID int64, _ *int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, tmdbID)
}

func (f *fakeResolver) setLookup(tmdbID int64, l resolver.Lookup) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups[tmdbID] = l
}

func (f *fakeResolver) setEnsureErr(tmdbID int64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.ensureErr, tmdbID)
		return
	}
	f.ensureErr[tmdbID] = err
}

func (f *fakeResolver) ensuredCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ensured)
}

func movieFound(hasFile bool) resolver.Lookup {
	return resolver.Lookup{Status: resolver.StatusFound, Ref: &resolver.ExternalRef{
		Service: resolver.ServiceRadarr, ExternalID: 1, HasFile: hasFile, Monitored: true,
	}}
}

// fakeLibrary serves the seasons cached from Jellyfin playback events.
type fakeLibrary struct {
	mu      sync.Mutex
	seasons map[int64][]int
	err     error
}

func (f *fakeLibrary) AvailableSeasons(_ context.Context, tmdbID int64) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seasons[tmdbID], f.err
}

// staleSeasons answers ActiveSeasons from a fixed snapshot, as though another
// request committed between the read and the insert.
type staleSeasons struct {
	*request.Store
	snapshot map[int]string
}

func (s *staleSeasons) ActiveSeasons(context.Context, int64) (map[int]string, error) {
	return s.snapshot, nil
}

type harness struct {
	store     *request.Store
	meta      *fakeMetadata
	res       *fakeResolver
	library   *fakeLibrary
	endpoints *notify.EndpointStore
	bus       *events.Bus
	events    <-chan events.Event
	clock     *clock.Fake
	mgr       *Manager
}

func newHarness(t *testing.T, cfg Config, rs ...*rules.Rule) *harness {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	h := &harness{
		store:     request.NewStore(db),
		meta:      newFakeMetadata(),
		res:       newFakeResolver(),
		library:   &fakeLibrary{seasons: map[int64][]int{}},
		endpoints: notify.NewEndpointStore(db),
		bus:       events.NewBus(nil, testLogger()),
		clock:     clock.NewFake(t0),
	}
	t.Cleanup(func() { _ = h.bus.Close() })
	h.events = h.bus.SubscribeAll(1000)

	h.mgr, err = New(Deps{
		Requests:  h.store,
		Metadata:  h.meta,
		Resolver:  h.res,
		Rules:     rules.NewEngine(staticRules(rs), rules.WithLogger(testLogger())),
		Endpoints: h.endpoints,
		Library:   h.library,
		Bus:       h.bus,
	}, cfg, WithClock(h.clock), WithLogger(testLogger()))
	require.NoError(t, err)
	return h
}

// eventTypes drains the events published so far.
func (h *harness) eventTypes() []string {
	var types []string
	for {
		select {
		case e := <-h.events:
			types = append(types, e.EventType())
		default:
			return types
		}
	}
}

func movie(user string, tmdbID int64) CreateInput {
	return CreateInput{UserID: user, MediaType: request.TypeMovie, TMDBID: tmdbID}
}

func tv(user string, tmdbID int64, seasons ...int) CreateInput {
	return CreateInput{UserID: user, MediaType: request.TypeEpisode, TMDBID: tmdbID, Seasons: seasons}
}
