package seasons_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vmunix/reqarr/internal/arr"
	"github.com/vmunix/reqarr/internal/database"
	"github.com/vmunix/reqarr/internal/jellyfin"
	"github.com/vmunix/reqarr/internal/request"
	"github.com/vmunix/reqarr/internal/resolver"
	"github.com/vmunix/reqarr/internal/resolver/mocks"
	"github.com/vmunix/reqarr/internal/seasons"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// stubResolver returns a fixed lookup.
type stubResolver struct {
	lookup resolver.Lookup
	calls  int
}

func (s *stubResolver) Resolve(_ context.Context, _ request.Type, _ int64, _ *int64) resolver.Lookup {
	s.calls++
	return s.lookup
}

type failingJellyfin struct{}

func (failingJellyfin) AvailableSeasons(context.Context, int64) ([]int, error) {
	return nil, errors.New("database is locked")
}

func (failingJellyfin) SeriesItemID(context.Context, int64) (string, error) {
	return "", errors.New("database is locked")
}

func (failingJellyfin) EpisodeCounts(context.Context, int64) (map[int]int, error) {
	return nil, errors.New("database is locked")
}

func found(stats ...resolver.SeasonStats) resolver.Lookup {
	return resolver.Lookup{Status: resolver.StatusFound, Ref: &resolver.ExternalRef{
		Service: resolver.ServiceSonarr, ExternalID: 3, TMDBID: 1396, Seasons: stats,
	}}
}

func tvRequest(user string, seasons ...int) *request.Request {
	r := &request.Request{Type: request.TypeEpisode, TMDBID: 1396, Title: "Breaking Bad", RequestedBy: user}
	for _, s := range seasons {
		r.Items = append(r.Items, request.Item{Season: s})
	}
	return r
}

func TestAvailableSeasons_ORSemantics(t *testing.T) {
	ctrl := gomock.NewController(t)
	sonarr := mocks.NewMockSonarrAPI(ctrl)
	sonarr.EXPECT().SeriesByTVDBID(gomock.Any(), int64(81189)).Return(&arr.Series{
		ID: 3, TVDBID: 81189, TMDBID: 1396, Title: "Breaking Bad",
		Seasons: []arr.Season{
			{SeasonNumber: 0, Statistics: &arr.SeasonStatistics{EpisodeFileCount: 2, SizeOnDisk: 10}},
			{SeasonNumber: 1, Statistics: &arr.SeasonStatistics{EpisodeFileCount: 7, SizeOnDisk: 9000}},
			{SeasonNumber: 2, Statistics: &arr.SeasonStatistics{EpisodeFileCount: 0, SizeOnDisk: 500}},
			{SeasonNumber: 3, Statistics: &arr.SeasonStatistics{EpisodeFileCount: 0, SizeOnDisk: 0}},
			{SeasonNumber: 4},
		},
	}, nil)
	res := resolver.New(nil, sonarr, resolver.Config{}, resolver.WithLogger(testLogger()))

	agg := seasons.NewAggregator(request.NewStore(setupTestDB(t)), res, nil, testLogger())
	tvdb := int64(81189)

	av, err := agg.AvailableSeasons(context.Background(), 1396, &tvdb)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, av.Seasons, "size on disk alone counts; specials never do")
	assert.Empty(t, av.Warning)
}

func TestAvailableSeasons_UnionWithJellyfin(t *testing.T) {
	db := setupTestDB(t)
	jf := jellyfin.NewStore(db, testLogger())
	ctx := context.Background()
	require.NoError(t, jf.Record(ctx, jellyfin.Episode{TMDBID: 1396, Season: 3, Episode: 1}))
	require.NoError(t, jf.Record(ctx, jellyfin.Episode{TMDBID: 1396, Season: 1, Episode: 1}))

	res := &stubResolver{lookup: found(
		resolver.SeasonStats{Number: 1, EpisodeFileCount: 7},
		resolver.SeasonStats{Number: 5, EpisodeFileCount: 1},
	)}
	agg := seasons.NewAggregator(request.NewStore(db), res, jf, testLogger())

	av, err := agg.AvailableSeasons(ctx, 1396, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 5}, av.Seasons)
	assert.True(t, av.Has(3))
	assert.False(t, av.Has(2))
}

func TestAvailableSeasons_Degrades(t *testing.T) {
	db := setupTestDB(t)
	jf := jellyfin.NewStore(db, testLogger())
	ctx := context.Background()
	require.NoError(t, jf.Record(ctx, jellyfin.Episode{TMDBID: 1396, Season: 2, Episode: 1}))

	res := &stubResolver{lookup: resolver.Lookup{Status: resolver.StatusUnavailable, Err: "connection refused"}}
	agg := seasons.NewAggregator(request.NewStore(db), res, jf, testLogger())

	av, err := agg.AvailableSeasons(ctx, 1396, nil)
	require.NoError(t, err, "read path never fails")
	assert.Equal(t, []int{2}, av.Seasons)
	assert.Contains(t, av.Warning, "sonarr unavailable")

	agg = seasons.NewAggregator(request.NewStore(db), res, failingJellyfin{}, testLogger())
	av, err = agg.AvailableSeasons(ctx, 1396, nil)
	require.NoError(t, err)
	assert.Empty(t, av.Seasons)
	assert.Contains(t, av.Warning, "sonarr unavailable")
	assert.Contains(t, av.Warning, "jellyfin cache")
}

func TestAvailableSeasons_NotInSonarr(t *testing.T) {
	res := &stubResolver{lookup: resolver.Lookup{Status: resolver.StatusNotFound}}
	agg := seasons.NewAggregator(request.NewStore(setupTestDB(t)), res, nil, testLogger())

	av, err := agg.AvailableSeasons(context.Background(), 1396, nil)
	require.NoError(t, err)
	assert.Empty(t, av.Seasons)
	assert.Empty(t, av.Warning)
}

func TestRequestedSeasons(t *testing.T) {
	db := setupTestDB(t)
	store := request.NewStore(db)
	ctx := context.Background()

	first := tvRequest("alice", 1, 2)
	require.NoError(t, store.Create(ctx, first))
	second := tvRequest("bob", 3)
	second.Items[0].Episodes = 4
	require.NoError(t, store.Create(ctx, second))
	denied := tvRequest("carol", 5)
	require.NoError(t, store.Create(ctx, denied))
	_, _, err := store.Transition(ctx, denied.ID, request.StateDenied, nil)
	require.NoError(t, err)

	agg := seasons.NewAggregator(store, &stubResolver{}, nil, testLogger())
	got, err := agg.RequestedSeasons(ctx, 1396)
	require.NoError(t, err)

	require.Len(t, got, 3, "denied season not counted")
	assert.Equal(t, seasons.SeasonRequest{Requested: 1, RequestID: first.ID}, got[1])
	assert.Equal(t, first.ID, got[2].RequestID)
	assert.Equal(t, 4, got[3].Episodes)
	assert.Equal(t, second.ID, got[3].RequestID)
}

func TestSummary(t *testing.T) {
	db := setupTestDB(t)
	store := request.NewStore(db)
	ctx := context.Background()

	r := tvRequest("alice", 2, 3)
	require.NoError(t, store.Create(ctx, r))

	res := &stubResolver{lookup: found(
		resolver.SeasonStats{Number: 1, EpisodeFileCount: 7},
		resolver.SeasonStats{Number: 2, SizeOnDisk: 500},
	)}
	agg := seasons.NewAggregator(store, res, nil, testLogger())

	sum, err := agg.Summary(ctx, 1396, nil, []int{1, 2, 3, 4})
	require.NoError(t, err)
	require.Len(t, sum.Seasons, 4)

	assert.Equal(t, seasons.Row{Season: 1, Available: true, Status: seasons.StatusAvailable}, sum.Seasons[0])
	assert.True(t, sum.Seasons[1].Requested)
	assert.Equal(t, seasons.StatusAvailable, sum.Seasons[1].Status, "available wins over request state")
	assert.Equal(t, request.StatePending, sum.Seasons[2].RequestStatus)
	assert.Equal(t, "pending", sum.Seasons[2].Status)
	assert.Equal(t, seasons.StatusNotRequested, sum.Seasons[3].Status)
}

func TestSummary_Jellyfin(t *testing.T) {
	db := setupTestDB(t)
	jf := jellyfin.NewStore(db, testLogger())
	ctx := context.Background()
	require.NoError(t, jf.Record(ctx, jellyfin.Episode{TMDBID: 1396, Season: 1, Episode: 1, SeriesItemID: "bb-series", ItemID: "e11"}))
	require.NoError(t, jf.Record(ctx, jellyfin.Episode{TMDBID: 1396, Season: 1, Episode: 2, SeriesItemID: "bb-series", ItemID: "e12"}))

	// Sonarr is down: Jellyfin alone says what is on disk.
	res := &stubResolver{lookup: resolver.Lookup{Status: resolver.StatusUnavailable, Err: "connection refused"}}
	sum, err := seasons.NewAggregator(request.NewStore(db), res, jf, testLogger()).Summary(ctx, 1396, nil, []int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, "bb-series", sum.JellyfinSeriesID)
	require.Len(t, sum.Seasons, 2)
	assert.True(t, sum.Seasons[0].Available)
	assert.Equal(t, 2, sum.Seasons[0].CachedEpisodes)
	assert.Zero(t, sum.Seasons[1].CachedEpisodes)
	assert.Contains(t, sum.Warning, "sonarr unavailable")
	assert.NotContains(t, sum.Warning, "jellyfin")

	res = &stubResolver{lookup: resolver.Lookup{Status: resolver.StatusNotFound}}
	sum, err = seasons.NewAggregator(request.NewStore(db), res, jf, testLogger()).Summary(ctx, 60059, nil, []int{1})
	require.NoError(t, err)
	assert.Empty(t, sum.JellyfinSeriesID, "nothing seen yet")

	sum, err = seasons.NewAggregator(request.NewStore(db), res, failingJellyfin{}, testLogger()).Summary(ctx, 1396, nil, []int{1})
	require.NoError(t, err, "cache failures only warn")
	assert.Empty(t, sum.JellyfinSeriesID)
	assert.Contains(t, sum.Warning, "jellyfin series")
}

func TestAllAvailable(t *testing.T) {
	res := &stubResolver{lookup: found(
		resolver.SeasonStats{Number: 1, EpisodeFileCount: 7},
		resolver.SeasonStats{Number: 2, EpisodeFileCount: 3},
	)}
	agg := seasons.NewAggregator(request.NewStore(setupTestDB(t)), res, nil, testLogger())
	ctx := context.Background()

	ok, _, err := agg.AllAvailable(ctx, 1396, nil, []int{1, 2})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _, err = agg.AllAvailable(ctx, 1396, nil, []int{2, 3})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, _, err = agg.AllAvailable(ctx, 1396, nil, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}
