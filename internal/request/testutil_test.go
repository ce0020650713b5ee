package request

import (
	"database/sql"
	"testing"

	"github.com/vmunix/reqarr/internal/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func movieRequest(tmdbID int64, user string) *Request {
	return &Request{
		Type:        TypeMovie,
		TMDBID:      tmdbID,
		Title:       "Fight Club",
		ReleaseYear: 1999,
		RequestedBy: user,
	}
}

func tvRequest(tmdbID int64, user string, seasons ...int) *Request {
	r := &Request{
		Type:        TypeEpisode,
		TMDBID:      tmdbID,
		Title:       "Breaking Bad",
		ReleaseYear: 2008,
		RequestedBy: user,
	}
	for _, s := range seasons {
		r.Items = append(r.Items, Item{Season: s})
	}
	return r
}
