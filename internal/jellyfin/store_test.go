package jellyfin

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/reqarr/internal/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestStore_RecordAndSeasons(t *testing.T) {
	store := NewStore(setupTestDB(t), nil)
	ctx := context.Background()

	for _, ep := range []Episode{
		{TMDBID: 1396, Season: 0, Episode: 1, SeriesItemID: "s1", ItemID: "e0"},
		{TMDBID: 1396, Season: 2, Episode: 1, SeriesItemID: "s1", ItemID: "e21"},
		{TMDBID: 1396, Season: 1, Episode: 1, SeriesItemID: "s1", ItemID: "e11"},
		{TMDBID: 1396, Season: 1, Episode: 2, SeriesItemID: "s1", ItemID: "e12"},
		{TMDBID: 60059, Season: 3, Episode: 1, SeriesItemID: "s2", ItemID: "x31"},
	} {
		require.NoError(t, store.Record(ctx, ep))
	}

	seasons, err := store.AvailableSeasons(ctx, 1396)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, seasons, "specials excluded, ascending, deduped")

	counts, err := store.EpisodeCounts(ctx, 1396)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 2, 2: 1}, counts)

	id, err := store.SeriesItemID(ctx, 60059)
	require.NoError(t, err)
	assert.Equal(t, "s2", id)
}

func TestStore_RecordUpsert(t *testing.T) {
	store := NewStore(setupTestDB(t), nil)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, Episode{TMDBID: 1, Season: 1, Episode: 1, ItemID: "old"}))
	require.NoError(t, store.Record(ctx, Episode{TMDBID: 1, Season: 1, Episode: 1, ItemID: "new", SeriesItemID: "s"}))

	removed, err := store.RemoveItem(ctx, "old")
	require.NoError(t, err)
	assert.False(t, removed, "old item id replaced by upsert")

	removed, err = store.RemoveItem(ctx, "new")
	require.NoError(t, err)
	assert.True(t, removed)

	seasons, err := store.AvailableSeasons(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, seasons)
}

func TestStore_RecordInvalid(t *testing.T) {
	store := NewStore(setupTestDB(t), nil)
	assert.Error(t, store.Record(context.Background(), Episode{Season: 1, Episode: 1}))
}

func TestStore_SeriesItemID_Unknown(t *testing.T) {
	store := NewStore(setupTestDB(t), nil)
	id, err := store.SeriesItemID(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, id)
}
