package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Memory(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	for _, table := range []string{"requests", "request_items", "approval_rules", "notification_endpoints", "events", "jellyfin_availability"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestOpen_FileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "reqarr.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Re-opening an existing database must not fail on migrations.
	db, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestOpen_ActiveMovieIndex(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	insert := `INSERT INTO requests (id, type, tmdb_id, status, requested_by, created_at, updated_at)
		VALUES (?, 'movie', 550, ?, 'u1', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`

	_, err = db.Exec(insert, "a", "denied")
	require.NoError(t, err)
	_, err = db.Exec(insert, "b", "pending")
	require.NoError(t, err, "denied rows do not count as active")
	_, err = db.Exec(insert, "c", "failed")
	assert.Error(t, err, "second active request must violate the partial index")
}
